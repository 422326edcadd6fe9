package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatGroupDescription(t *testing.T) {
	cases := []struct {
		numGroups, numRequired int
		want                   string
	}{
		{1, 1, "The following one group"},
		{2, 2, "Both of the following two groups"},
		{3, 3, "All of the following three groups"},
		{2, 1, "Either of the following two groups"},
		{3, 1, "Any one of the following three groups"},
		{5, 2, "Any two of the following five groups"},
		{14, 13, "Any 13 of the following 14 groups"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatGroupDescription(tc.numGroups, tc.numRequired))
	}
}

func TestGroupOrdinal(t *testing.T) {
	assert.Equal(t, "First of one group", groupOrdinal(1, 1))
	assert.Equal(t, "Second of three groups", groupOrdinal(2, 3))
	assert.Equal(t, "Twelfth of twelve groups", groupOrdinal(12, 12))
	assert.Equal(t, "Group number 13 of 14 groups", groupOrdinal(13, 14))
}

func TestHumanInt(t *testing.T) {
	assert.Equal(t, "0", humanInt(0))
	assert.Equal(t, "999", humanInt(999))
	assert.Equal(t, "1,000", humanInt(1000))
	assert.Equal(t, "1,234,567", humanInt(1234567))
}

func TestLabelHasContent(t *testing.T) {
	// Labels that only restate the group structure carry no content.
	noContent := []string{
		"",
		"Select one of the following three groups:",
		"Choose 2 of the following",
		"SELECT ONE OPTION, 1:",
	}
	for _, label := range noContent {
		assert.False(t, labelHasContent(label), "label %q", label)
	}

	hasContent := []string{
		"Neuroscience Track",
		"Foreign Language Requirement",
		"Area studies electives",
	}
	for _, label := range hasContent {
		assert.True(t, labelHasContent(label), "label %q", label)
	}
}
