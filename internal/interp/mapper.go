// Package interp is the course mapper's core: the recursive body
// interpreter, the header qualifier extractor, the cross-block reference
// resolver, and the course-list normalizer. A Mapper owns all run state
// (the requirement-key counter, the parse-tree cache, reference counters),
// so two Mappers never interfere.
package interp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dgw-tools/coursemapper/internal/catalog"
	"github.com/dgw-tools/coursemapper/internal/emit"
	"github.com/dgw-tools/coursemapper/internal/quarantine"
	"github.com/dgw-tools/coursemapper/internal/report"
	"github.com/dgw-tools/coursemapper/internal/storage"
	"github.com/dgw-tools/coursemapper/internal/telemetry"
	"github.com/dgw-tools/coursemapper/internal/types"
)

// maxDepth bounds the traversal's nesting. Real blocks nest a handful of
// levels; hitting the bound means a reference structure the cycle guard
// could not see through, and is reported rather than crashing the run.
const maxDepth = 100

// Options are the run toggles.
type Options struct {
	// ConciseConditionals tags branches {if}/{else} instead of
	// {if_true}/{if_false}.
	ConciseConditionals bool
	// NoRemarks drops remark text from requirement contexts.
	NoRemarks bool
	// NoProxyAdvice drops proxy-advice text from qualifier lists and
	// contexts.
	NoProxyAdvice bool
}

// Mapper interprets requirement blocks and writes the three output tables.
// Not safe for concurrent use; parallel runs need one Mapper per worker.
type Mapper struct {
	store       storage.Store
	catalog     *catalog.Cache
	parser      storage.Parser
	rep         *report.Reporter
	sink        emit.Sink
	counters    *telemetry.Counters
	quarantined *quarantine.Set
	opts        Options

	requirementKey  int
	trees           map[types.BlockKey]*types.ParseTree
	referenceCounts map[types.BlockKey]int
	seenPrograms    map[types.BlockKey]bool
	blockTypeTally  map[string]int
	generatedDate   string
}

// New builds a Mapper. parser, rep, counters, and quarantined may be nil:
// a nil parser refuses lazy parsing, and the others are nil-safe no-ops.
func New(store storage.Store, cat *catalog.Cache, parser storage.Parser,
	rep *report.Reporter, sink emit.Sink, counters *telemetry.Counters,
	quarantined *quarantine.Set, opts Options) *Mapper {
	if parser == nil {
		parser = storage.NullParser{}
	}
	return &Mapper{
		store:           store,
		catalog:         cat,
		parser:          parser,
		rep:             rep,
		sink:            sink,
		counters:        counters,
		quarantined:     quarantined,
		opts:            opts,
		trees:           map[types.BlockKey]*types.ParseTree{},
		referenceCounts: map[types.BlockKey]int{},
		seenPrograms:    map[types.BlockKey]bool{},
		blockTypeTally:  map[string]int{},
		generatedDate:   types.GeneratedDate(time.Now()),
	}
}

// Tally returns the count of processed top-level blocks by block type.
func (m *Mapper) Tally() map[string]int {
	return m.blockTypeTally
}

// RequirementCount returns the number of requirement keys assigned so far.
func (m *Mapper) RequirementCount() int {
	return m.requirementKey
}

// ProcessPlan interprets one active plan: the plan block itself, every
// block it references, and finally any subplans the body never reached.
func (m *Mapper) ProcessPlan(ctx context.Context, seed *types.PlanSeed) error {
	m.blockTypeTally[seed.Block.BlockType]++
	plan := &types.PlanInfo{
		Name:          seed.Plan,
		Type:          seed.Type,
		Description:   seed.Description,
		EffectiveDate: seed.EffectiveDate,
		CipCode:       seed.CipCode,
		ActiveTerms:   seed.Block.ActiveTerms,
		Enrollment:    seed.Block.RecentEnrollment,
		Subplans:      seed.Subplans,
	}
	return m.processBlock(ctx, seed.Block, nil, plan)
}

// processBlock interprets one requirement block: header extraction, a
// first-seen programs row, body traversal, and, for plan blocks, subplan
// reference accounting afterward. Only structural errors return non-nil;
// everything else is reported and skipped.
func (m *Mapper) processBlock(ctx context.Context, block *types.Block,
	stack types.ContextStack, plan *types.PlanInfo) error {
	key := block.Key()
	m.referenceCounts[key]++

	if m.quarantined.Contains(key) {
		m.rep.Log(key.Institution, key.RequirementID, "Quarantined block (ignored)")
		m.counters.Skip(ctx, "quarantined")
		return nil
	}

	tree, err := m.parseTree(ctx, block)
	if err != nil {
		m.rep.Fail(key.Institution, key.RequirementID, "Parse failed: %v", err)
		return nil
	}
	if tree.IsEmpty() {
		m.rep.Fail(key.Institution, key.RequirementID, "Empty parse tree (ignored)")
		return nil
	}
	if tree.Error != "" {
		m.rep.Fail(key.Institution, key.RequirementID, "%s", tree.Error)
		return nil
	}

	header, err := m.extractHeader(ctx, key, tree)
	if err != nil {
		return err
	}

	if plan != nil {
		m.rep.Block(key.Institution, key.RequirementID, "Top-level")
	} else {
		m.rep.Block(key.Institution, key.RequirementID, "nested")
	}
	m.counters.Block(ctx, block.BlockType)

	catalogYears := formatCatalogYears(block.PeriodStart, block.PeriodStop)
	info := types.BlockInfo{
		Institution:   block.Institution,
		RequirementID: block.RequirementID,
		BlockType:     block.BlockType,
		BlockValue:    block.BlockValue,
		BlockTitle:    block.Title,
		CatalogYears:  catalogYears,
	}

	if plan != nil {
		if len(stack) != 0 {
			return structuralf(key, "plan block entered with a non-empty context")
		}
		plan.CatalogYears = catalogYears
		info.PlanInfo = plan
		header.Other.PlanInfo = plan
	} else if root := stack.Root(); root != nil && root.PlanInfo != nil {
		// A nested block may be one of the owning plan's subplans; count the
		// reference either way for orphan accounting.
		if sp := root.PlanInfo.SubplanFor(key); sp != nil {
			sp.ReferenceCount++
		} else {
			root.PlanInfo.Others = append(root.PlanInfo.Others, &types.OtherReference{
				BlockInfo: key,
				Context:   strings.Join(stack.RequirementIDs(), ":"),
			})
		}
	}

	blockStack := stack.Extend(&types.BlockFrame{Info: info})

	if len(tree.BodyList) == 0 {
		m.rep.Log(key.Institution, key.RequirementID, "Empty Body")
	} else if err := m.traverseList(ctx, tree.BodyList, blockStack); err != nil {
		return err
	}

	if !m.seenPrograms[key] {
		m.seenPrograms[key] = true
		if err := m.emitProgram(block, header); err != nil {
			return fmt.Errorf("write programs row for %s: %w", key, err)
		}
	}

	if plan != nil {
		if err := m.accountSubplans(ctx, key, plan, blockStack[:1]); err != nil {
			return err
		}
	}
	return nil
}

// accountSubplans runs after a plan's body traversal: orphaned subplans are
// interpreted standalone under the plan frame, and multiply-referenced
// subplans are logged.
func (m *Mapper) accountSubplans(ctx context.Context, planKey types.BlockKey,
	plan *types.PlanInfo, planStack types.ContextStack) error {
	var orphans []*types.SubplanInfo
	for _, sp := range plan.Subplans {
		switch {
		case sp.ReferenceCount == 0:
			orphans = append(orphans, sp)
			m.rep.Subplan(planKey.Institution, planKey.RequirementID,
				"Subplan %s not referenced; %s enrolled", sp.Name, humanInt(sp.Enrollment))
		case sp.ReferenceCount > 1:
			m.rep.Subplan(planKey.Institution, planKey.RequirementID,
				"Subplan %s referenced %d times; %s enrolled",
				sp.Name, sp.ReferenceCount, humanInt(sp.Enrollment))
		}
	}

	for _, sp := range orphans {
		target := sp.Block
		if target == nil {
			var err error
			target, err = m.store.FetchByIdentity(ctx, sp.BlockInfo)
			if err != nil {
				m.rep.Fail(planKey.Institution, planKey.RequirementID,
					"Orphan subplan %s: %v", sp.Name, err)
				continue
			}
		}
		if err := m.processBlock(ctx, target, planStack, nil); err != nil {
			return err
		}
	}

	if n := len(plan.Others); n > 0 {
		s := "s"
		if n == 1 {
			s = ""
		}
		m.rep.Subplan(planKey.Institution, planKey.RequirementID,
			"%d Other block%s referenced", n, s)
	}
	return nil
}

// parseTree returns the block's tree, fetching the stored one or invoking
// the grammar parser when no tree has been stored. Write-once per key.
func (m *Mapper) parseTree(ctx context.Context, block *types.Block) (*types.ParseTree, error) {
	key := block.Key()
	if tree, ok := m.trees[key]; ok {
		return tree, nil
	}
	tree := block.ParseTree
	if tree.IsEmpty() {
		parsed, err := m.parser.Parse(ctx, key.Institution, key.RequirementID,
			block.PeriodStart, block.PeriodStop)
		if err == nil {
			m.rep.Log(key.Institution, key.RequirementID, "Reference to un-parsed block")
			tree = parsed
		} else if err != storage.ErrNotParsed {
			return nil, err
		}
	}
	if tree == nil {
		tree = &types.ParseTree{}
	}
	m.trees[key] = tree
	return tree, nil
}

func (m *Mapper) emitProgram(block *types.Block, header *HeaderQualifiers) error {
	rec := &types.ProgramRecord{
		Institution:   block.Institution[:min(3, len(block.Institution))],
		RequirementID: block.RequirementID,
		BlockType:     block.BlockType,
		BlockValue:    block.BlockValue,
		Title:         block.Title,
		TotalCredits:  jsonCell(header.TotalCredits),
		MaxTransfer:   jsonCell(header.MaxTransfer),
		MinResidency:  jsonCell(header.MinRes),
		MinGrade:      jsonCell(header.MinGrade),
		MinGPA:        jsonCell(header.MinGPA),
		Other:         jsonCell(&header.Other),
		GeneratedDate: m.generatedDate,
	}
	return m.sink.Program(rec)
}

// jsonCell renders a value for a CSV cell; encoding failures degrade to a
// diagnostic string rather than aborting the run mid-table.
func jsonCell(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

// formatCatalogYears renders a block's validity period for display. Periods
// are CUNY term codes (e.g. 20192); a stop code starting with 9 means the
// block is still current.
func formatCatalogYears(periodStart, periodStop string) string {
	start := academicYear(periodStart)
	if len(periodStop) > 0 && periodStop[0] == '9' {
		if start == "" {
			return "Current"
		}
		return start + " through Current"
	}
	stop := academicYear(periodStop)
	switch {
	case start == "" && stop == "":
		return "Unknown"
	case start == stop:
		return start
	default:
		return start + " through " + stop
	}
}

func academicYear(period string) string {
	if len(period) < 4 {
		return ""
	}
	return period[:4]
}
