// Package types defines the core data structures for the course mapper:
// requirement blocks, parse-tree nodes, context frames, and the records
// written to the three output tables.
package types

import (
	"fmt"
	"time"
)

// BlockKey identifies a requirement block. It is the cache key for parse
// trees, reference counters, the quarantine set, and first-seen program
// tracking.
type BlockKey struct {
	Institution   string `json:"institution"`
	RequirementID string `json:"requirement_id"`
}

func (k BlockKey) String() string {
	return k.Institution + " " + k.RequirementID
}

// Block is a versioned requirement block plus its parse tree. Blocks are
// immutable once fetched.
type Block struct {
	Institution   string `json:"institution"`
	RequirementID string `json:"requirement_id"`
	BlockType     string `json:"block_type"` // MAJOR, MINOR, CONC, DEGREE, OTHER
	BlockValue    string `json:"block_value"`
	Title         string `json:"block_title"`
	PeriodStart   string `json:"period_start"`
	PeriodStop    string `json:"period_stop"`

	// Major1 disambiguates multiple active blocks with the same
	// (institution, block_type, block_value).
	Major1 string `json:"major1,omitempty"`

	ActiveTerms      int `json:"num_recent_active_terms,omitempty"`
	RecentEnrollment int `json:"recent_enrollment,omitempty"`

	ParseTree *ParseTree `json:"parse_tree,omitempty"`
}

// Key returns the block's identity.
func (b *Block) Key() BlockKey {
	return BlockKey{Institution: b.Institution, RequirementID: b.RequirementID}
}

// IsCurrent reports whether the block is the non-expired version
// (period_stop starting with "9", e.g. "99999999").
func (b *Block) IsCurrent() bool {
	return len(b.PeriodStop) > 0 && b.PeriodStop[0] == '9'
}

// ParseTree is the parsed form of a block: program-wide qualifiers in the
// header, the nested rule tree in the body. The Error field carries a parse
// failure recorded by the grammar parser.
type ParseTree struct {
	HeaderList []HeaderItem `json:"header_list"`
	BodyList   NodeList     `json:"body_list"`
	Error      string       `json:"error,omitempty"`
}

// IsEmpty reports whether the tree has been parsed at all.
func (t *ParseTree) IsEmpty() bool {
	return t == nil || (len(t.HeaderList) == 0 && len(t.BodyList) == 0 && t.Error == "")
}

// CatalogCourse is one row of the institution's course catalog.
type CatalogCourse struct {
	CourseID      int     `json:"course_id"`
	OfferNbr      int     `json:"offer_nbr"`
	Institution   string  `json:"institution"`
	Discipline    string  `json:"discipline"`
	CatalogNumber string  `json:"catalog_number"`
	Title         string  `json:"title"`
	Credits       float64 `json:"credits"`
	Career        string  `json:"career"`
}

// CourseIdentity joins a course id and offer number, the identity canonical
// courses are deduplicated by.
type CourseIdentity struct {
	CourseID int
	OfferNbr int
}

// CanonicalCourse is a catalog-resolved course produced by course-list
// normalization. Identity is (CourseID, OfferNbr), independent of which
// scribed pattern produced it.
type CanonicalCourse struct {
	CourseID   int
	OfferNbr   int
	CourseStr  string // "DISC NUM: Title"
	Credits    float64
	Career     string
	WithClause string
}

// Identity returns the deduplication key.
func (c CanonicalCourse) Identity() CourseIdentity {
	return CourseIdentity{CourseID: c.CourseID, OfferNbr: c.OfferNbr}
}

// CourseIDStr renders the course identity the way the mapping table wants
// it: zero-padded id, colon, offer number.
func (c CanonicalCourse) CourseIDStr() string {
	return fmt.Sprintf("%06d:%d", c.CourseID, c.OfferNbr)
}

// SubplanInfo describes one of a plan's active subplans (concentrations).
// ReferenceCount is bumped by the reference resolver each time the subplan's
// block is entered during the plan's traversal; it drives orphan processing
// and anomaly logging after the traversal completes.
type SubplanInfo struct {
	Block          *Block `json:"-"`
	Name           string `json:"subplan_name"`
	Type           string `json:"subplan_type"`
	Description    string `json:"subplan_description"`
	EffectiveDate  string `json:"subplan_effective_date"`
	CipCode        string `json:"subplan_cip_code"`
	ActiveTerms    int    `json:"subplan_active_terms"`
	Enrollment     int    `json:"subplan_enrollment"`
	ReferenceCount int    `json:"subplan_reference_count"`

	BlockInfo BlockKey `json:"subplan_block_info"`
}

// OtherReference records a block referenced by a plan that is not one of
// its subplans.
type OtherReference struct {
	BlockInfo BlockKey `json:"other_block_info"`
	Context   string   `json:"other_block_context"`
}

// PlanInfo carries plan-wide metadata on the outermost context frame of a
// plan block. Created once when interpretation of the plan begins; the
// subplan reference counters and the others list are updated as nested
// blocks are discovered.
type PlanInfo struct {
	Name          string            `json:"plan_name"`
	Type          string            `json:"plan_type"`
	Description   string            `json:"plan_description"`
	CatalogYears  string            `json:"plan_catalog_years"`
	EffectiveDate string            `json:"plan_effective_date"`
	CipCode       string            `json:"plan_cip_code"`
	ActiveTerms   int               `json:"plan_active_terms"`
	Enrollment    int               `json:"plan_enrollment"`
	Subplans      []*SubplanInfo    `json:"subplans"`
	Others        []*OtherReference `json:"others"`
}

// SubplanFor returns the subplan whose block is identified by key, or nil.
func (p *PlanInfo) SubplanFor(key BlockKey) *SubplanInfo {
	for _, sp := range p.Subplans {
		if sp.BlockInfo == key {
			return sp
		}
	}
	return nil
}

// PlanSeed is one entry from the active-plan enumerator: plan metadata plus
// the root requirement block to interpret.
type PlanSeed struct {
	Plan          string
	Type          string
	Description   string
	EffectiveDate string
	CipCode       string
	Block         *Block
	Subplans      []*SubplanInfo
}

// ProgramRecord is one row of the programs table. Exactly one row is
// written per distinct block key, first-seen only. The JSON columns hold
// the qualifier lists produced by the header extractor.
type ProgramRecord struct {
	Institution   string // 3-char college code
	RequirementID string
	BlockType     string
	BlockValue    string
	Title         string
	TotalCredits  string // JSON list
	MaxTransfer   string // JSON list
	MinResidency  string // JSON list
	MinGrade      string // JSON list
	MinGPA        string // JSON list
	Other         string // JSON object
	GeneratedDate string
}

// RequirementRecord is one row of the requirements table.
type RequirementRecord struct {
	Institution    string
	PlanName       string
	PlanType       string
	SubplanName    string
	RequirementIDs string // colon-joined chain of block ids
	Conditions     string
	RequirementKey int
	ProgramName    string
	Context        string // JSON array of frames + final requirement detail
	GeneratedDate  string
}

// MappingRecord is one row of the course-mappings table. RequirementKey is
// the foreign key into the requirements table.
type MappingRecord struct {
	RequirementKey int
	CourseID       string
	Career         string
	Course         string
	WithClause     string // JSON
	GeneratedDate  string
}

// GeneratedDate formats a timestamp the way the output tables carry it.
func GeneratedDate(t time.Time) string {
	return t.Format("2006-01-02")
}
