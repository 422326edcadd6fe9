package interp

import (
	"regexp"
	"strings"

	"github.com/dgw-tools/coursemapper/internal/types"
)

var planTermRe = regexp.MustCompile(`(?i)(major |conc |minor)`)

var conEqualsRe = regexp.MustCompile(`CON == (\S+)`)

var (
	andRe = regexp.MustCompile(`(?i) AND `)
	orRe  = regexp.MustCompile(`(?i) OR `)
	notRe = regexp.MustCompile(`(?i) NOT `)
)

// normalizeExpression rewrites a scribed eligibility condition over majors,
// minors, and concentrations into a compact normal form: MAJOR/MINOR/CONC
// become MAJ/MIN/CON, and/or become &&/||, = and <> become == and !=.
// Expressions that mention none of the three plan terms normalize to "".
// With deMorgan set the logic is inverted, for use on an else leg.
func normalizeExpression(expression string, deMorgan bool) string {
	if !planTermRe.MatchString(expression) {
		return ""
	}

	work := strings.TrimSpace(expression)
	// One-character stand-ins for the operators so tokenization is uniform.
	// <> becomes ^ since it is two characters.
	work = andRe.ReplaceAllString(work, " & ")
	work = orRe.ReplaceAllString(work, " | ")
	work = notRe.ReplaceAllString(work, " ! ")
	work = strings.ReplaceAll(work, " <> ", " ^ ")
	work = strings.ReplaceAll(work, "(", " ( ")
	work = strings.ReplaceAll(work, ")", " ) ")

	var b strings.Builder
	for _, token := range strings.Fields(strings.ToUpper(work)) {
		switch token {
		case "MAJOR":
			b.WriteString("MAJ")
		case "MINOR":
			b.WriteString("MIN")
		case "CONC":
			b.WriteString("CON")
		case "&":
			if deMorgan {
				b.WriteString(" || ")
			} else {
				b.WriteString(" && ")
			}
		case "|":
			if deMorgan {
				b.WriteString(" && ")
			} else {
				b.WriteString(" || ")
			}
		case "!":
			// Scribed NOT is rare; keep it visible rather than inverting the
			// whole subexpression.
			b.WriteString(" ! ")
		case "=":
			if deMorgan {
				b.WriteString(" != ")
			} else {
				b.WriteString(" == ")
			}
		case "^":
			if deMorgan {
				b.WriteString(" == ")
			} else {
				b.WriteString(" != ")
			}
		case "(", ")":
			b.WriteString(token)
		default:
			b.WriteString(token)
		}
	}
	return strings.TrimSpace(b.String())
}

// contextConditions joins the normalized conditions of every branch frame on
// the stack. The result feeds the requirements table's Conditions column and
// blocktype subplan filtering.
func contextConditions(stack types.ContextStack) string {
	var conditions []string
	for _, bf := range stack.Branches() {
		var cond string
		switch bf.Tag {
		case "if", "if_true":
			cond = normalizeExpression(bf.Condition, false)
		case "else", "if_false":
			cond = normalizeExpression(bf.Condition, true)
		}
		if cond != "" {
			conditions = append(conditions, cond)
		}
	}
	return strings.Join(conditions, " && ")
}

// eligibleConcentrations extracts the concentration codes a condition chain
// pins down with CON == equality tests.
func eligibleConcentrations(conditions string) []string {
	var out []string
	for _, m := range conEqualsRe.FindAllStringSubmatch(conditions, -1) {
		out = append(out, m[1])
	}
	return out
}
