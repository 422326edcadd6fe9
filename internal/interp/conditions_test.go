package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dgw-tools/coursemapper/internal/types"
)

func TestNormalizeExpression(t *testing.T) {
	cases := []struct {
		expr     string
		deMorgan bool
		want     string
	}{
		{"MAJOR = BIO", false, "MAJ == BIO"},
		{"MAJOR = BIO", true, "MAJ != BIO"},
		{"major = bio", false, "MAJ == BIO"},
		{"CONC = BIO-EC OR CONC = BIO-MB", false, "CON == BIO-EC || CON == BIO-MB"},
		{"CONC = BIO-EC OR CONC = BIO-MB", true, "CON != BIO-EC && CON != BIO-MB"},
		{"MINOR <> CHEM", false, "MIN != CHEM"},
		{"MINOR <> CHEM", true, "MIN == CHEM"},
		{"(MAJOR = BIO) AND (CONC = BIO-EC)", false, "(MAJ == BIO) && (CON == BIO-EC)"},
		// Expressions with no plan term normalize away entirely.
		{"CREDITS > 60", false, ""},
		{"BANNERGPA >= 2.0", true, ""},
		{"", false, ""},
	}
	for _, tc := range cases {
		got := normalizeExpression(tc.expr, tc.deMorgan)
		assert.Equal(t, tc.want, got, "expr %q deMorgan %v", tc.expr, tc.deMorgan)
	}
}

func TestContextConditions(t *testing.T) {
	stack := types.ContextStack{}.Extend(
		&types.BlockFrame{},
		&types.BranchFrame{Tag: "if_true", Condition: "MAJOR = BIO"},
		&types.BranchFrame{Tag: "if_false", Condition: "CONC = BIO-EC"},
	)
	assert.Equal(t, "MAJ == BIO && CON != BIO-EC", contextConditions(stack))

	// Concise tags behave the same; an empty else condition contributes
	// nothing.
	concise := types.ContextStack{}.Extend(
		&types.BlockFrame{},
		&types.BranchFrame{Tag: "if", Condition: "CONC = BIO-MB"},
		&types.BranchFrame{Tag: "else", Condition: ""},
	)
	assert.Equal(t, "CON == BIO-MB", contextConditions(concise))

	assert.Empty(t, contextConditions(types.ContextStack{}))
}

func TestEligibleConcentrations(t *testing.T) {
	assert.Equal(t, []string{"BIO-EC", "BIO-MB"},
		eligibleConcentrations("CON == BIO-EC || CON == BIO-MB"))
	assert.Empty(t, eligibleConcentrations("MAJ == BIO"))
	assert.Empty(t, eligibleConcentrations("CON != BIO-EC"))
	assert.Empty(t, eligibleConcentrations(""))
}
