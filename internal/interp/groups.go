package interp

import (
	"fmt"
	"regexp"
	"strings"
)

var numberNames = []string{"none", "one", "two", "three", "four", "five", "six",
	"seven", "eight", "nine", "ten", "eleven", "twelve"}

var numberOrdinals = []string{"zeroth", "first", "second", "third", "fourth",
	"fifth", "sixth", "seventh", "eighth", "ninth", "tenth", "eleventh", "twelfth"}

func numberName(n int) string {
	if n >= 0 && n < len(numberNames) {
		return numberNames[n]
	}
	return humanInt(n)
}

func humanInt(n int) string {
	s := fmt.Sprintf("%d", n)
	if n < 1000 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(parts, ",")
}

// formatGroupDescription phrases a "complete k of n groups" requirement in
// English, used in place of scribed labels that carry no content of their
// own.
func formatGroupDescription(numGroups, numRequired int) string {
	groupSuffix := "s"
	if numGroups == 1 {
		groupSuffix = ""
	}

	var prefix string
	switch {
	case numRequired == numGroups && numRequired == 1:
		prefix = "The"
	case numRequired == numGroups && numRequired == 2:
		prefix = "Both of the"
	case numRequired == numGroups:
		prefix = "All of the"
	case numRequired == 1 && numGroups == 2:
		prefix = "Either of the"
	default:
		prefix = fmt.Sprintf("Any %s of the", numberName(numRequired))
	}
	return fmt.Sprintf("%s following %s group%s", prefix, numberName(numGroups), groupSuffix)
}

// groupOrdinal phrases a group's position: "Second of three groups".
func groupOrdinal(groupNumber, numGroups int) string {
	suffix := "s"
	if numGroups == 1 {
		suffix = ""
	}
	if groupNumber < len(numberOrdinals) {
		ordinal := numberOrdinals[groupNumber]
		return fmt.Sprintf("%s%s of %s group%s",
			strings.ToUpper(ordinal[:1]), ordinal[1:], numberName(numGroups), suffix)
	}
	return fmt.Sprintf("Group number %s of %s group%s",
		humanInt(groupNumber), numberName(numGroups), suffix)
}

// groupStopWords are label words that carry no content beyond what the
// formatted group description already says.
var groupStopWords = func() map[string]bool {
	words := append([]string{}, numberNames...)
	words = append(words, "and", "area", "areas", "choose", "following", "from",
		"group", "groups", "module", "modules", "of", "option", "options", "or",
		"select", "selected", "selct", "slect", "sequence", "sequences", "set",
		"study", "the")
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()

var digitsAndPunct = regexp.MustCompile(`[\d,:]+`)

// labelHasContent strips digits, punctuation, and stop words from a scribed
// group label and reports whether any words remain. Content-free labels get
// replaced with the formatted group description.
func labelHasContent(label string) bool {
	cleaned := digitsAndPunct.ReplaceAllString(label, " ")
	for _, word := range strings.Fields(cleaned) {
		if !groupStopWords[strings.ToLower(word)] {
			return true
		}
	}
	return false
}
