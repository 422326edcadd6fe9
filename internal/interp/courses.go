package interp

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dgw-tools/coursemapper/internal/types"
)

// requirement is the detail mapCourses serializes into the requirements
// table's context column alongside the frame chain.
type requirement struct {
	Label        string            `json:"label"`
	Conjunction  string            `json:"conjunction,omitempty"`
	MinClasses   *types.Number     `json:"min_classes,omitempty"`
	MaxClasses   *types.Number     `json:"max_classes,omitempty"`
	MinCredits   *types.Number     `json:"min_credits,omitempty"`
	MaxCredits   *types.Number     `json:"max_credits,omitempty"`
	AllowClasses *types.Number     `json:"allow_classes,omitempty"`
	AllowCredits *types.Number     `json:"allow_credits,omitempty"`
	CourseList   *types.CourseList `json:"course_list"`
	NumCourses   int               `json:"num_courses"`
}

// syntheticRequirement wraps a bare course list: every scribed course is
// required.
func syntheticRequirement(cl *types.CourseList) *requirement {
	n := types.Number(cl.NumScribed())
	return &requirement{
		Label:      "Unnamed Requirement",
		MinClasses: &n,
		MaxClasses: &n,
		CourseList: cl,
	}
}

var (
	courseTitleRe   = regexp.MustCompile(`(?i)<coursetitle>`)
	courseCreditsRe = regexp.MustCompile(`(?i)<coursecredits>`)
)

// mapCourses normalizes a requirement's course list and, when courses
// survive, emits one requirements row plus one mapping row per course. The
// stack's last frame must be the rule's requirement frame; its display name
// is finalized here once templating has run.
func (m *Mapper) mapCourses(ctx context.Context, stack types.ContextStack,
	req *requirement) error {
	key := currentKey(stack)

	// Keys are assigned per leaf in interpretation order, whether or not
	// courses survive normalization, so they are stable for a given input.
	m.requirementKey++
	requirementKey := m.requirementKey

	canonical, err := m.normalizeCourses(ctx, key, req.CourseList)
	if err != nil {
		m.rep.Fail(key.Institution, key.RequirementID, "Normalize courses: %v", err)
		return nil
	}
	req.NumCourses = len(canonical)
	if len(canonical) == 0 {
		m.rep.NoCourses(key.Institution, key.RequirementID)
		m.counters.Skip(ctx, "no_courses")
		return nil
	}

	for _, course := range canonical {
		if err := m.sink.Mapping(&types.MappingRecord{
			RequirementKey: requirementKey,
			CourseID:       course.CourseIDStr(),
			Career:         course.Career,
			Course:         course.CourseStr,
			WithClause:     jsonCell(course.WithClause),
			GeneratedDate:  m.generatedDate,
		}); err != nil {
			return err
		}
	}

	// <COURSETITLE> and <COURSECREDITS> substitute from the first canonical
	// record only; multi-course lists keep one representative substitution.
	name := req.Label
	if name == "" {
		name = "Unnamed Requirement"
	}
	first := canonical[0]
	if courseTitleRe.MatchString(name) {
		_, title, _ := strings.Cut(first.CourseStr, ":")
		name = courseTitleRe.ReplaceAllString(name, strings.TrimSpace(title))
	}
	if courseCreditsRe.MatchString(name) {
		credits := strconv.FormatFloat(first.Credits, 'f', -1, 64)
		name = courseCreditsRe.ReplaceAllString(name, credits)
	}
	req.Label = name
	if frame, ok := stack.Last().(*types.RequirementFrame); ok {
		frame.Name = name
	}

	root := stack.Root()
	planName, planType := "", ""
	var plan *types.PlanInfo
	if root != nil && root.PlanInfo != nil {
		plan = root.PlanInfo
		planName = plan.Name
		planType = plan.Type
	}

	conditions := contextConditions(stack)
	if conditions != "" {
		m.rep.Condition(key.Institution, key.RequirementID, conditions)
	}

	rec := &types.RequirementRecord{
		Institution:    key.Institution,
		PlanName:       planName,
		PlanType:       planType,
		SubplanName:    m.subplanName(stack, plan),
		RequirementIDs: strings.Join(stack.RequirementIDs(), ":"),
		Conditions:     conditions,
		RequirementKey: requirementKey,
		ProgramName:    blockTitleOf(stack),
		Context:        contextJSON(stack, req),
		GeneratedDate:  m.generatedDate,
	}
	m.counters.Record(ctx)
	return m.sink.Requirement(rec)
}

// subplanName attributes the requirement to one of the plan's subplans by
// searching the enclosing block frames, innermost first, for a subplan's
// requirement id.
func (m *Mapper) subplanName(stack types.ContextStack, plan *types.PlanInfo) string {
	if plan == nil || len(plan.Subplans) == 0 {
		return ""
	}
	blocks := stack.Blocks()
	if len(blocks) < 2 {
		// No enclosing context beyond the plan block itself.
		return ""
	}
	for i := len(blocks) - 1; i >= 1; i-- {
		key := types.BlockKey{
			Institution:   blocks[i].Institution,
			RequirementID: blocks[i].RequirementID,
		}
		if sp := plan.SubplanFor(key); sp != nil {
			return sp.Name
		}
	}
	var nested []string
	for _, info := range blocks[1:] {
		nested = append(nested, info.RequirementID)
	}
	m.rep.Subplan(blocks[0].Institution, blocks[0].RequirementID,
		"Block(s) %s not subplan of the plan.", strings.Join(nested, ":"))
	return ""
}

func blockTitleOf(stack types.ContextStack) string {
	if info := stack.CurrentBlock(); info != nil {
		return info.BlockTitle
	}
	return ""
}

// contextJSON serializes the frame chain plus the final requirement detail
// for the requirements table's context column.
func contextJSON(stack types.ContextStack, req *requirement) string {
	entries := make([]any, 0, len(stack)+1)
	for _, frame := range stack {
		entries = append(entries, frame)
	}
	entries = append(entries, map[string]*requirement{"requirement": req})
	return jsonCell(entries)
}

// normalizeCourses turns a scribed course list into the deduplicated,
// catalog-resolved set of concrete courses, in stable (course id, offer
// number) order. An empty result is valid.
func (m *Mapper) normalizeCourses(ctx context.Context, key types.BlockKey,
	cl *types.CourseList) ([]types.CanonicalCourse, error) {
	if cl == nil {
		return nil, nil
	}

	if len(cl.IncludeCourses) > 0 {
		m.rep.Log(key.Institution, key.RequirementID, "Non-empty include_courses (ignored)")
	}

	// Flatten the areas structure and drop redundant scribes.
	seen := map[types.CourseTriple]bool{}
	var triples []types.CourseTriple
	for _, area := range cl.ScribedCourses {
		for _, triple := range area {
			if !seen[triple] {
				seen[triple] = true
				triples = append(triples, triple)
			}
		}
	}

	included := map[types.CourseIdentity]types.CatalogCourse{}
	withClauses := map[types.CourseIdentity]string{}
	for _, triple := range triples {
		courses, err := m.catalog.Expand(ctx, key.Institution, triple.Discipline, triple.CatalogNumber)
		if err != nil {
			return nil, err
		}
		withClause := strings.ToLower(strings.TrimSpace(triple.WithClause))
		durable := withClause != ""
		if durable && (strings.Contains(withClause, "dwterm") || strings.Contains(withClause, "attribute")) {
			// Term-scoped and attribute predicates are not durable program
			// requirements; the courses stay, the clause goes.
			m.rep.Log(key.Institution, key.RequirementID,
				"With-clause %q dropped (non-durable)", triple.WithClause)
			durable = false
		}
		for _, course := range courses {
			id := types.CourseIdentity{CourseID: course.CourseID, OfferNbr: course.OfferNbr}
			included[id] = course
			if durable {
				if prior, ok := withClauses[id]; ok && prior != withClause {
					m.rep.Debug(key.Institution, key.RequirementID,
						"Multiple with-clauses: %s != %s", prior, withClause)
					continue // first-seen wins
				}
				withClauses[id] = withClause
			}
		}
	}

	// Excludes expand the same way, minus with-clause propagation.
	seenExcludes := map[types.CourseTriple]bool{}
	excluded := map[types.CourseIdentity]bool{}
	for _, triple := range cl.ExceptCourses {
		if seenExcludes[triple] {
			continue
		}
		seenExcludes[triple] = true
		if wc := strings.ToLower(triple.WithClause); wc != "" {
			if strings.Contains(wc, "dwterm") {
				m.rep.Log(key.Institution, key.RequirementID,
					"Exclude course based on DWTerm (ignored)")
			} else {
				m.rep.Todo(key.Institution, key.RequirementID,
					"Exclude with %s", triple.WithClause)
			}
		}
		courses, err := m.catalog.Expand(ctx, key.Institution, triple.Discipline, triple.CatalogNumber)
		if err != nil {
			return nil, err
		}
		for _, course := range courses {
			excluded[types.CourseIdentity{CourseID: course.CourseID, OfferNbr: course.OfferNbr}] = true
		}
	}
	if len(excluded) > 0 {
		m.rep.Log(key.Institution, key.RequirementID, "Non-empty exclude list")
	}

	var out []types.CanonicalCourse
	for id, course := range included {
		if excluded[id] {
			continue
		}
		out = append(out, types.CanonicalCourse{
			CourseID:   course.CourseID,
			OfferNbr:   course.OfferNbr,
			CourseStr:  course.Discipline + " " + course.CatalogNumber + ": " + course.Title,
			Credits:    course.Credits,
			Career:     course.Career,
			WithClause: withClauses[id],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CourseID != out[j].CourseID {
			return out[i].CourseID < out[j].CourseID
		}
		return out[i].OfferNbr < out[j].OfferNbr
	})
	return out, nil
}
