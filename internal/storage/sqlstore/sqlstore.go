// Package sqlstore implements the storage interfaces over a database/sql
// pool. The mysql and sqlite backends share these queries; both databases
// carry the same curriculum schema (requirement_blocks, catalog_courses,
// acad_plans, acad_subplans).
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dgw-tools/coursemapper/internal/storage"
	"github.com/dgw-tools/coursemapper/internal/types"
)

// Queries serves blocks, courses, and plans from a sql pool.
type Queries struct {
	db *sql.DB
}

var (
	_ storage.Store        = (*Queries)(nil)
	_ storage.CourseSource = (*Queries)(nil)
	_ storage.PlanSource   = (*Queries)(nil)
)

// New wraps an open pool.
func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

const blockColumns = `institution, requirement_id, block_type, block_value,
       title, period_start, period_stop, coalesce(major1, ''), parse_tree`

func decodeTree(raw sql.NullString) *types.ParseTree {
	if !raw.Valid || raw.String == "" || raw.String == "{}" {
		return nil
	}
	pt := &types.ParseTree{}
	if err := json.Unmarshal([]byte(raw.String), pt); err != nil {
		// A malformed stored tree is equivalent to a parse error: the mapper
		// reports it and skips the block.
		return &types.ParseTree{Error: fmt.Sprintf("stored parse_tree is invalid: %v", err)}
	}
	return pt
}

func scanBlock(scan func(dest ...any) error) (*types.Block, error) {
	var b types.Block
	var tree sql.NullString
	if err := scan(&b.Institution, &b.RequirementID, &b.BlockType, &b.BlockValue,
		&b.Title, &b.PeriodStart, &b.PeriodStop, &b.Major1, &tree); err != nil {
		return nil, err
	}
	b.ParseTree = decodeTree(tree)
	return &b, nil
}

// FetchByIdentity implements storage.Store.
func (q *Queries) FetchByIdentity(ctx context.Context, key types.BlockKey) (*types.Block, error) {
	row := q.db.QueryRowContext(ctx, `
		select `+blockColumns+`
		  from requirement_blocks
		 where institution = ?
		   and requirement_id = ?`,
		key.Institution, key.RequirementID)
	b, err := scanBlock(row.Scan)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch block %s: %w", key, err)
	}
	return b, nil
}

// FindActive implements storage.Store: active blocks are those with term
// activity recorded.
func (q *Queries) FindActive(ctx context.Context, institution, blockType, blockValue string) ([]*types.Block, error) {
	rows, err := q.db.QueryContext(ctx, `
		select `+blockColumns+`
		  from requirement_blocks
		 where term_info is not null
		   and institution = ?
		   and block_type = ?
		   and block_value = ?`,
		institution, blockType, blockValue)
	if err != nil {
		return nil, fmt.Errorf("find active blocks: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []*types.Block
	for rows.Next() {
		b, err := scanBlock(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan active block: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// FindCurrent implements storage.Store: the non-expired version, whose
// period_stop starts with 9.
func (q *Queries) FindCurrent(ctx context.Context, key types.BlockKey) (*types.Block, error) {
	row := q.db.QueryRowContext(ctx, `
		select `+blockColumns+`
		  from requirement_blocks
		 where institution = ?
		   and requirement_id = ?
		   and period_stop like '9%'`,
		key.Institution, key.RequirementID)
	b, err := scanBlock(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch current block %s: %w", key, err)
	}
	return b, nil
}

// CoursesFor implements storage.CourseSource: all active courses for the
// institution.
func (q *Queries) CoursesFor(ctx context.Context, institution string) ([]types.CatalogCourse, error) {
	rows, err := q.db.QueryContext(ctx, `
		select course_id, offer_nbr, institution, discipline, catalog_number,
		       title, credits, career
		  from catalog_courses
		 where institution = ?
		   and course_status = 'A'`,
		institution)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []types.CatalogCourse
	for rows.Next() {
		var c types.CatalogCourse
		if err := rows.Scan(&c.CourseID, &c.OfferNbr, &c.Institution, &c.Discipline,
			&c.CatalogNumber, &c.Title, &c.Credits, &c.Career); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ActivePlans implements storage.PlanSource: recently-active plans joined
// to their current requirement block, plus subplan descriptors.
func (q *Queries) ActivePlans(ctx context.Context) ([]*types.PlanSeed, error) {
	rows, err := q.db.QueryContext(ctx, `
		select p.plan, p.type, coalesce(p.description, ''),
		       coalesce(p.effective_date, ''), coalesce(p.cip_code, ''),
		       b.institution, b.requirement_id, b.block_type, b.block_value,
		       b.title, b.period_start, b.period_stop, coalesce(b.major1, ''),
		       b.parse_tree,
		       coalesce(b.num_recent_active_terms, 0), coalesce(b.recent_enrollment, 0)
		  from acad_plans p
		  join requirement_blocks b
		    on b.institution = p.institution
		   and b.requirement_id = p.requirement_id
		 where p.is_active
		 order by b.institution, b.requirement_id`)
	if err != nil {
		return nil, fmt.Errorf("enumerate active plans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var seeds []*types.PlanSeed
	for rows.Next() {
		seed := &types.PlanSeed{Block: &types.Block{}}
		b := seed.Block
		var tree sql.NullString
		if err := rows.Scan(&seed.Plan, &seed.Type, &seed.Description,
			&seed.EffectiveDate, &seed.CipCode,
			&b.Institution, &b.RequirementID, &b.BlockType, &b.BlockValue,
			&b.Title, &b.PeriodStart, &b.PeriodStop, &b.Major1, &tree,
			&b.ActiveTerms, &b.RecentEnrollment); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		b.ParseTree = decodeTree(tree)
		seeds = append(seeds, seed)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, seed := range seeds {
		subplans, err := q.subplansFor(ctx, seed.Block.Institution, seed.Plan)
		if err != nil {
			return nil, err
		}
		seed.Subplans = subplans
	}
	return seeds, nil
}

func (q *Queries) subplansFor(ctx context.Context, institution, plan string) ([]*types.SubplanInfo, error) {
	rows, err := q.db.QueryContext(ctx, `
		select s.subplan, s.type, coalesce(s.description, ''),
		       coalesce(s.effective_date, ''), coalesce(s.cip_code, ''),
		       b.requirement_id,
		       coalesce(b.num_recent_active_terms, 0), coalesce(b.recent_enrollment, 0)
		  from acad_subplans s
		  join requirement_blocks b
		    on b.institution = s.institution
		   and b.requirement_id = s.requirement_id
		 where s.institution = ?
		   and s.plan = ?
		   and s.is_active
		 order by s.subplan`,
		institution, plan)
	if err != nil {
		return nil, fmt.Errorf("enumerate subplans for %s %s: %w", institution, plan, err)
	}
	defer func() { _ = rows.Close() }()
	var out []*types.SubplanInfo
	for rows.Next() {
		sp := &types.SubplanInfo{}
		var requirementID string
		if err := rows.Scan(&sp.Name, &sp.Type, &sp.Description, &sp.EffectiveDate,
			&sp.CipCode, &requirementID, &sp.ActiveTerms, &sp.Enrollment); err != nil {
			return nil, fmt.Errorf("scan subplan: %w", err)
		}
		sp.BlockInfo = types.BlockKey{Institution: institution, RequirementID: requirementID}
		out = append(out, sp)
	}
	return out, rows.Err()
}
