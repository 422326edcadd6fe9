package interp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgw-tools/coursemapper/internal/catalog"
	"github.com/dgw-tools/coursemapper/internal/emit"
	"github.com/dgw-tools/coursemapper/internal/quarantine"
	"github.com/dgw-tools/coursemapper/internal/report"
	"github.com/dgw-tools/coursemapper/internal/storage/memory"
	"github.com/dgw-tools/coursemapper/internal/types"
)

const testInst = "QNS01"

type fixture struct {
	store *memory.Store
	rec   *emit.Recorder
	m     *Mapper
	dump  func(channel string) string
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store := memory.New()
	cat, err := catalog.New(store)
	require.NoError(t, err)
	rep, dump := report.NewBuffer()
	rec := &emit.Recorder{}
	m := New(store, cat, nil, rep, rec, nil, nil, opts)
	return &fixture{store: store, rec: rec, m: m, dump: dump}
}

func (f *fixture) withQuarantine(q *quarantine.Set) *fixture {
	f.m.quarantined = q
	return f
}

// addBioCatalog seeds the three-course BIO catalog most tests share.
func (f *fixture) addBioCatalog() *fixture {
	f.store.AddCourse(types.CatalogCourse{CourseID: 100, OfferNbr: 1, Institution: testInst,
		Discipline: "BIO", CatalogNumber: "100", Title: "Biology Concepts", Credits: 1, Career: "UGRD"})
	f.store.AddCourse(types.CatalogCourse{CourseID: 101, OfferNbr: 1, Institution: testInst,
		Discipline: "BIO", CatalogNumber: "101", Title: "General Biology I", Credits: 3, Career: "UGRD"})
	f.store.AddCourse(types.CatalogCourse{CourseID: 102, OfferNbr: 1, Institution: testInst,
		Discipline: "BIO", CatalogNumber: "102", Title: "General Biology II", Credits: 4, Career: "UGRD"})
	return f
}

func mustTree(t *testing.T, src string) *types.ParseTree {
	t.Helper()
	var tree types.ParseTree
	require.NoError(t, json.Unmarshal([]byte(src), &tree))
	return &tree
}

func testBlock(t *testing.T, requirementID, blockType, blockValue, treeJSON string) *types.Block {
	t.Helper()
	return &types.Block{
		Institution:   testInst,
		RequirementID: requirementID,
		BlockType:     blockType,
		BlockValue:    blockValue,
		Title:         blockValue + " " + blockType,
		PeriodStart:   "20192",
		PeriodStop:    "99999999",
		ParseTree:     mustTree(t, treeJSON),
	}
}

func bioPlanSeed(block *types.Block, subplans ...*types.SubplanInfo) *types.PlanSeed {
	return &types.PlanSeed{
		Plan:     "BIO",
		Type:     "MAJ",
		Block:    block,
		Subplans: subplans,
	}
}

const bioPlanTree = `{
	"header_list": [
		{"header_class_credit": {"label": "", "min_credits": 120, "max_credits": 120}}
	],
	"body_list": [
		{"class_credit": {
			"label": "Core Biology",
			"min_classes": 2, "max_classes": 2,
			"course_list": {
				"scribed_courses": [[["BIO", "@", null]]],
				"except_courses": [["BIO", "100", null]]
			}
		}}
	]
}`

func TestProcessPlanEmitsAllThreeTables(t *testing.T) {
	f := newFixture(t, Options{}).addBioCatalog()
	block := testBlock(t, "RA000001", "MAJOR", "BIO", bioPlanTree)

	require.NoError(t, f.m.ProcessPlan(context.Background(), bioPlanSeed(block)))

	require.Len(t, f.rec.Programs, 1)
	prog := f.rec.Programs[0]
	assert.Equal(t, "QNS", prog.Institution)
	assert.Equal(t, "RA000001", prog.RequirementID)
	assert.Equal(t, "MAJOR", prog.BlockType)
	assert.Contains(t, prog.TotalCredits, "120.0 credits")
	assert.Contains(t, prog.Other, `"plan_name":"BIO"`)

	require.Len(t, f.rec.Requirements, 1)
	req := f.rec.Requirements[0]
	assert.Equal(t, testInst, req.Institution)
	assert.Equal(t, "BIO", req.PlanName)
	assert.Equal(t, "MAJ", req.PlanType)
	assert.Equal(t, "RA000001", req.RequirementIDs)
	assert.Equal(t, 1, req.RequirementKey)
	assert.Equal(t, "BIO MAJOR", req.ProgramName)
	assert.Contains(t, req.Context, "Core Biology")
	assert.Empty(t, req.Conditions)

	// The wildcard expands to all three BIO courses; the except list removes
	// BIO 100.
	require.Len(t, f.rec.Mappings, 2)
	assert.Equal(t, "000101:1", f.rec.Mappings[0].CourseID)
	assert.Equal(t, "000102:1", f.rec.Mappings[1].CourseID)
	assert.Equal(t, "BIO 101: General Biology I", f.rec.Mappings[0].Course)
	for _, mp := range f.rec.Mappings {
		assert.Equal(t, 1, mp.RequirementKey)
		assert.Equal(t, "UGRD", mp.Career)
	}

	assert.Equal(t, map[string]int{"MAJOR": 1}, f.m.Tally())
	assert.Equal(t, 1, f.m.RequirementCount())
}

func TestRequirementKeysIncreaseInEmissionOrder(t *testing.T) {
	f := newFixture(t, Options{}).addBioCatalog()
	tree := `{
		"header_list": [],
		"body_list": [
			{"class_credit": {"label": "First", "min_classes": 1, "max_classes": 1,
				"course_list": {"scribed_courses": [[["BIO", "101", null]]]}}},
			{"class_credit": {"label": "Missing", "min_classes": 1, "max_classes": 1,
				"course_list": {"scribed_courses": [[["ZZZ", "999", null]]]}}},
			{"class_credit": {"label": "Third", "min_classes": 1, "max_classes": 1,
				"course_list": {"scribed_courses": [[["BIO", "102", null]]]}}}
		]
	}`
	block := testBlock(t, "RA000001", "MAJOR", "BIO", tree)

	require.NoError(t, f.m.ProcessPlan(context.Background(), bioPlanSeed(block)))

	// The middle rule resolves to no courses: its key is consumed but no row
	// is written, so emitted keys stay strictly increasing with a gap.
	require.Len(t, f.rec.Requirements, 2)
	assert.Equal(t, 1, f.rec.Requirements[0].RequirementKey)
	assert.Equal(t, 3, f.rec.Requirements[1].RequirementKey)
	assert.Equal(t, 3, f.m.RequirementCount())
	assert.Contains(t, f.dump(report.ChannelNoCourses), "RA000001")
}

func TestBodyConditionalFillsConditionsColumn(t *testing.T) {
	tree := `{
		"header_list": [],
		"body_list": [
			{"conditional": {
				"condition_str": "CONC = BIO-EC",
				"if_true": [
					{"class_credit": {"label": "Ecology Core", "min_classes": 1, "max_classes": 1,
						"course_list": {"scribed_courses": [[["BIO", "101", null]]]}}}
				],
				"if_false": [
					{"class_credit": {"label": "General Core", "min_classes": 1, "max_classes": 1,
						"course_list": {"scribed_courses": [[["BIO", "102", null]]]}}}
				]
			}}
		]
	}`

	f := newFixture(t, Options{}).addBioCatalog()
	block := testBlock(t, "RA000001", "MAJOR", "BIO", tree)
	require.NoError(t, f.m.ProcessPlan(context.Background(), bioPlanSeed(block)))

	require.Len(t, f.rec.Requirements, 2)
	assert.Equal(t, "CON == BIO-EC", f.rec.Requirements[0].Conditions)
	assert.Equal(t, "CON != BIO-EC", f.rec.Requirements[1].Conditions)
	assert.Contains(t, f.rec.Requirements[0].Context, `"if_true":"CONC = BIO-EC"`)
	assert.Contains(t, f.rec.Requirements[1].Context, `"if_false":"CONC = BIO-EC"`)

	// Concise mode uses if/else tags and leaves the else condition blank.
	f2 := newFixture(t, Options{ConciseConditionals: true}).addBioCatalog()
	block2 := testBlock(t, "RA000001", "MAJOR", "BIO", tree)
	require.NoError(t, f2.m.ProcessPlan(context.Background(), bioPlanSeed(block2)))
	require.Len(t, f2.rec.Requirements, 2)
	assert.Contains(t, f2.rec.Requirements[0].Context, `"if":"CONC = BIO-EC"`)
	assert.Contains(t, f2.rec.Requirements[1].Context, `"else":""`)
	assert.Empty(t, f2.rec.Requirements[1].Conditions)
}

func TestCopyRulesSplicesTargetBody(t *testing.T) {
	f := newFixture(t, Options{}).addBioCatalog()
	plan := testBlock(t, "RA000001", "MAJOR", "BIO", `{
		"header_list": [],
		"body_list": [{"copy_rules": {"requirement_id": "RA000002"}}]
	}`)
	shared := testBlock(t, "RA000002", "OTHER", "SHARED", `{
		"header_list": [],
		"body_list": [
			{"class_credit": {"label": "Shared Core", "min_classes": 1, "max_classes": 1,
				"course_list": {"scribed_courses": [[["BIO", "101", null]]]}}}
		]
	}`)
	f.store.AddBlock(plan).AddBlock(shared)

	require.NoError(t, f.m.ProcessPlan(context.Background(), bioPlanSeed(plan)))

	require.Len(t, f.rec.Requirements, 1)
	req := f.rec.Requirements[0]
	// The spliced rules run in the referencing block's context, with the
	// target's id appended to the chain.
	assert.Equal(t, "RA000001:RA000002", req.RequirementIDs)
	assert.Contains(t, req.Context, "SHARED OTHER")
	assert.Contains(t, req.Context, "Shared Core")
}

func TestCopyRulesCycleRefused(t *testing.T) {
	f := newFixture(t, Options{}).addBioCatalog()
	planA := testBlock(t, "RA000001", "MAJOR", "BIO", `{
		"header_list": [],
		"body_list": [{"copy_rules": {"requirement_id": "RA000002"}}]
	}`)
	blockB := testBlock(t, "RA000002", "OTHER", "SHARED", `{
		"header_list": [],
		"body_list": [
			{"copy_rules": {"requirement_id": "RA000001"}},
			{"class_credit": {"label": "B Core", "min_classes": 1, "max_classes": 1,
				"course_list": {"scribed_courses": [[["BIO", "102", null]]]}}}
		]
	}`)
	f.store.AddBlock(planA).AddBlock(blockB)

	require.NoError(t, f.m.ProcessPlan(context.Background(), bioPlanSeed(planA)))

	assert.Contains(t, f.dump(report.ChannelFail), "Circular")
	// The cycle is refused but the rest of B's body still runs.
	require.Len(t, f.rec.Requirements, 1)
	assert.Contains(t, f.rec.Requirements[0].Context, "B Core")
}

func TestBlockRuleResolvesAndNests(t *testing.T) {
	f := newFixture(t, Options{}).addBioCatalog()
	plan := testBlock(t, "RA000001", "MAJOR", "BIO", `{
		"header_list": [],
		"body_list": [
			{"block": {"label": "Chemistry Minor", "number": 1, "institution": "QNS01",
				"block_type": "MINOR", "block_value": "CHEM"}}
		]
	}`)
	minor := testBlock(t, "RA000003", "MINOR", "CHEM", `{
		"header_list": [],
		"body_list": [
			{"class_credit": {"label": "Chem Entry", "min_classes": 1, "max_classes": 1,
				"course_list": {"scribed_courses": [[["BIO", "101", null]]]}}}
		]
	}`)
	f.store.AddBlock(plan).AddBlock(minor)

	require.NoError(t, f.m.ProcessPlan(context.Background(), bioPlanSeed(plan)))

	require.Len(t, f.rec.Requirements, 1)
	assert.Equal(t, "RA000001:RA000003", f.rec.Requirements[0].RequirementIDs)
	assert.Equal(t, "CHEM MINOR", f.rec.Requirements[0].ProgramName)
	// Both blocks get a programs row, first-seen once each.
	assert.Len(t, f.rec.Programs, 2)
	assert.Contains(t, f.dump(report.ChannelBlocks), "nested")
}

func TestBlockRuleAmbiguityUsesMajor1(t *testing.T) {
	planTree := `{
		"header_list": [],
		"body_list": [
			{"block": {"label": "", "number": 1, "institution": "QNS01",
				"block_type": "MINOR", "block_value": "CHEM"}}
		]
	}`
	minorTree := `{
		"header_list": [],
		"body_list": [
			{"class_credit": {"label": "Chem Entry", "min_classes": 1, "max_classes": 1,
				"course_list": {"scribed_courses": [[["BIO", "101", null]]]}}}
		]
	}`

	f := newFixture(t, Options{}).addBioCatalog()
	plan := testBlock(t, "RA000001", "MAJOR", "BIO", planTree)
	forBio := testBlock(t, "RA000003", "MINOR", "CHEM", minorTree)
	forBio.Major1 = "BIO"
	forEng := testBlock(t, "RA000004", "MINOR", "CHEM", minorTree)
	forEng.Major1 = "ENG"
	f.store.AddBlock(plan).AddBlock(forBio).AddBlock(forEng)

	require.NoError(t, f.m.ProcessPlan(context.Background(), bioPlanSeed(plan)))

	// Two active MINOR CHEM blocks; the one whose discriminator matches the
	// BIO chain wins.
	require.Len(t, f.rec.Requirements, 1)
	assert.Equal(t, "RA000001:RA000003", f.rec.Requirements[0].RequirementIDs)
}

func TestBlockRuleUnresolvedIsSkipped(t *testing.T) {
	f := newFixture(t, Options{}).addBioCatalog()
	plan := testBlock(t, "RA000001", "MAJOR", "BIO", `{
		"header_list": [],
		"body_list": [
			{"block": {"label": "", "number": 1, "institution": "QNS01",
				"block_type": "MINOR", "block_value": "NONE"}}
		]
	}`)
	f.store.AddBlock(plan)

	require.NoError(t, f.m.ProcessPlan(context.Background(), bioPlanSeed(plan)))
	assert.Contains(t, f.dump(report.ChannelFail), "no active [MINOR NONE] blocks")
	assert.Empty(t, f.rec.Requirements)
}

func TestOrphanSubplanProcessedStandalone(t *testing.T) {
	concTree := `{
		"header_list": [],
		"body_list": [
			{"class_credit": {"label": "Concentration Core", "min_classes": 1, "max_classes": 1,
				"course_list": {"scribed_courses": [[["BIO", "102", null]]]}}}
		]
	}`

	f := newFixture(t, Options{}).addBioCatalog()
	plan := testBlock(t, "RA000001", "MAJOR", "BIO", `{
		"header_list": [],
		"body_list": [
			{"block": {"label": "Ecology", "number": 1, "institution": "QNS01",
				"block_type": "CONC", "block_value": "BIO-EC"}}
		]
	}`)
	referenced := testBlock(t, "RA000005", "CONC", "BIO-EC", concTree)
	orphan := testBlock(t, "RA000006", "CONC", "BIO-MB", concTree)
	f.store.AddBlock(plan).AddBlock(referenced).AddBlock(orphan)

	seed := bioPlanSeed(plan,
		&types.SubplanInfo{Name: "BIO-EC", Enrollment: 40,
			BlockInfo: types.BlockKey{Institution: testInst, RequirementID: "RA000005"}},
		&types.SubplanInfo{Name: "BIO-MB", Enrollment: 1200,
			BlockInfo: types.BlockKey{Institution: testInst, RequirementID: "RA000006"}},
	)
	require.NoError(t, f.m.ProcessPlan(context.Background(), seed))

	subplans := f.dump(report.ChannelSubplans)
	assert.Contains(t, subplans, "BIO-MB not referenced")
	assert.Contains(t, subplans, "1,200 enrolled")
	assert.NotContains(t, subplans, "BIO-EC not referenced")

	// Both concentrations produce requirement rows; the orphan's comes from
	// standalone processing after the body traversal and is attributed to its
	// subplan.
	require.Len(t, f.rec.Requirements, 2)
	var subplanNames []string
	for _, req := range f.rec.Requirements {
		subplanNames = append(subplanNames, req.SubplanName)
	}
	assert.ElementsMatch(t, []string{"BIO-EC", "BIO-MB"}, subplanNames)
}

func TestMultiplyReferencedSubplanLogged(t *testing.T) {
	concTree := `{
		"header_list": [],
		"body_list": [
			{"class_credit": {"label": "Concentration Core", "min_classes": 1, "max_classes": 1,
				"course_list": {"scribed_courses": [[["BIO", "102", null]]]}}}
		]
	}`

	f := newFixture(t, Options{}).addBioCatalog()
	plan := testBlock(t, "RA000001", "MAJOR", "BIO", `{
		"header_list": [],
		"body_list": [
			{"block": {"label": "Ecology", "number": 1, "institution": "QNS01",
				"block_type": "CONC", "block_value": "BIO-EC"}},
			{"block": {"label": "Ecology again", "number": 1, "institution": "QNS01",
				"block_type": "CONC", "block_value": "BIO-EC"}}
		]
	}`)
	conc := testBlock(t, "RA000005", "CONC", "BIO-EC", concTree)
	f.store.AddBlock(plan).AddBlock(conc)

	seed := bioPlanSeed(plan,
		&types.SubplanInfo{Name: "BIO-EC", Enrollment: 40,
			BlockInfo: types.BlockKey{Institution: testInst, RequirementID: "RA000005"}},
	)
	require.NoError(t, f.m.ProcessPlan(context.Background(), seed))

	subplans := f.dump(report.ChannelSubplans)
	assert.Contains(t, subplans, "BIO-EC referenced 2 times")
	assert.Contains(t, subplans, "40 enrolled")
	assert.NotContains(t, subplans, "not referenced")

	// Both references still produce their requirement rows.
	require.Len(t, f.rec.Requirements, 2)
	for _, req := range f.rec.Requirements {
		assert.Equal(t, "BIO-EC", req.SubplanName)
	}
}

func TestQuarantinedBlockSkipped(t *testing.T) {
	q, err := quarantine.Read(strings.NewReader(
		"Institution,Requirement ID,Explanation\nQNS01,RA000001,parser hangs\n"))
	require.NoError(t, err)

	f := newFixture(t, Options{}).addBioCatalog().withQuarantine(q)
	block := testBlock(t, "RA000001", "MAJOR", "BIO", bioPlanTree)

	require.NoError(t, f.m.ProcessPlan(context.Background(), bioPlanSeed(block)))
	assert.Contains(t, f.dump(report.ChannelLog), "Quarantined block")
	assert.Empty(t, f.rec.Programs)
	assert.Empty(t, f.rec.Requirements)
}

func TestHonorsCollegeReferenceSkipped(t *testing.T) {
	f := newFixture(t, Options{}).addBioCatalog()
	plan := testBlock(t, "RA000001", "MAJOR", "BIO", `{
		"header_list": [],
		"body_list": [
			{"block": {"label": "", "number": 1, "institution": "QNS01",
				"block_type": "OTHER", "block_value": "MHC-CORE"}}
		]
	}`)
	f.store.AddBlock(plan)

	require.NoError(t, f.m.ProcessPlan(context.Background(), bioPlanSeed(plan)))
	assert.Empty(t, f.rec.Requirements)
	assert.NotContains(t, f.dump(report.ChannelFail), "MHC-CORE")
}

func TestUnknownBodyKindIsStructural(t *testing.T) {
	f := newFixture(t, Options{})
	block := testBlock(t, "RA000001", "MAJOR", "BIO", `{
		"header_list": [],
		"body_list": [{"frobnicate": {"label": "x"}}]
	}`)

	err := f.m.ProcessPlan(context.Background(), bioPlanSeed(block))
	require.Error(t, err)
	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Error(), "frobnicate")
}

func TestGroupRequirementDescriptions(t *testing.T) {
	f := newFixture(t, Options{}).addBioCatalog()
	plan := testBlock(t, "RA000001", "MAJOR", "BIO", `{
		"header_list": [],
		"body_list": [
			{"group_requirement": {
				"label": "Select one of the following two groups:",
				"number": 1,
				"group_list": [
					[{"class_credit": {"label": "Intro A", "min_classes": 1, "max_classes": 1,
						"course_list": {"scribed_courses": [[["BIO", "101", null]]]}}}],
					[{"class_credit": {"label": "Intro B", "min_classes": 1, "max_classes": 1,
						"course_list": {"scribed_courses": [[["BIO", "102", null]]]}}}]
				]
			}}
		]
	}`)
	f.store.AddBlock(plan)

	require.NoError(t, f.m.ProcessPlan(context.Background(), bioPlanSeed(plan)))

	require.Len(t, f.rec.Requirements, 2)
	// The scribed label restates the structure, so the formatted description
	// replaces it; each group frame carries its ordinal.
	assert.Contains(t, f.rec.Requirements[0].Context, "Either of the following two groups")
	assert.Contains(t, f.rec.Requirements[0].Context, "First of two groups")
	assert.Contains(t, f.rec.Requirements[1].Context, "Second of two groups")
}

func TestSubsetSharedFrameAndQualifiers(t *testing.T) {
	f := newFixture(t, Options{}).addBioCatalog()
	plan := testBlock(t, "RA000001", "MAJOR", "BIO", `{
		"header_list": [],
		"body_list": [
			{"subset": {
				"label": "Advanced Electives",
				"mingrade": {"number": 2.0},
				"requirements": [
					{"maxperdisc": {"number": 2, "disciplines": ["BIO"]}},
					{"class_credit": {"label": "Electives", "min_credits": 6, "max_credits": 6,
						"course_list": {"scribed_courses": [[["BIO", "102", null]]]}}}
				]
			}}
		]
	}`)
	f.store.AddBlock(plan)

	require.NoError(t, f.m.ProcessPlan(context.Background(), bioPlanSeed(plan)))

	require.Len(t, f.rec.Requirements, 1)
	ctx := f.rec.Requirements[0].Context
	assert.Contains(t, ctx, "Advanced Electives")
	assert.Contains(t, ctx, `"mingrade":"C"`)
	assert.Contains(t, f.dump(report.ChannelLog), "Subset maxperdisc (ignored)")
}

func TestRemarkExtendsFollowingSiblings(t *testing.T) {
	tree := `{
		"header_list": [],
		"body_list": [
			{"class_credit": {"label": "Before", "min_classes": 1, "max_classes": 1,
				"course_list": {"scribed_courses": [[["BIO", "101", null]]]}}},
			{"remark": "Transfer students should see an advisor."},
			{"class_credit": {"label": "After", "min_classes": 1, "max_classes": 1,
				"course_list": {"scribed_courses": [[["BIO", "102", null]]]}}}
		]
	}`

	f := newFixture(t, Options{}).addBioCatalog()
	block := testBlock(t, "RA000001", "MAJOR", "BIO", tree)
	require.NoError(t, f.m.ProcessPlan(context.Background(), bioPlanSeed(block)))

	require.Len(t, f.rec.Requirements, 2)
	assert.NotContains(t, f.rec.Requirements[0].Context, "see an advisor")
	assert.Contains(t, f.rec.Requirements[1].Context, "see an advisor")

	// With remarks disabled the frame is never pushed.
	f2 := newFixture(t, Options{NoRemarks: true}).addBioCatalog()
	block2 := testBlock(t, "RA000001", "MAJOR", "BIO", tree)
	require.NoError(t, f2.m.ProcessPlan(context.Background(), bioPlanSeed(block2)))
	require.Len(t, f2.rec.Requirements, 2)
	assert.NotContains(t, f2.rec.Requirements[1].Context, "see an advisor")
}

func TestCourseTitleTemplating(t *testing.T) {
	f := newFixture(t, Options{}).addBioCatalog()
	block := testBlock(t, "RA000001", "MAJOR", "BIO", `{
		"header_list": [],
		"body_list": [
			{"class_credit": {"label": "Complete <CourseTitle> (<CourseCredits> credits)",
				"min_classes": 1, "max_classes": 1,
				"course_list": {"scribed_courses": [[["BIO", "101", null]]]}}}
		]
	}`)

	require.NoError(t, f.m.ProcessPlan(context.Background(), bioPlanSeed(block)))
	require.Len(t, f.rec.Requirements, 1)
	assert.Contains(t, f.rec.Requirements[0].Context, "Complete General Biology I (3 credits)")
}

func TestFormatCatalogYears(t *testing.T) {
	assert.Equal(t, "2019 through Current", formatCatalogYears("20192", "99999999"))
	assert.Equal(t, "2019", formatCatalogYears("20192", "20199"))
	assert.Equal(t, "2017 through 2019", formatCatalogYears("20172", "20199"))
	assert.Equal(t, "Current", formatCatalogYears("", "99999999"))
	assert.Equal(t, "Unknown", formatCatalogYears("", ""))
}
