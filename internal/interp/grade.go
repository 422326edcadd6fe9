package interp

// letterGrade converts a grade-point floor to a letter grade. Anything below
// 1.0 is "Any" passing grade; 4.3 and above is "A+".
//
//	GPA Letter
//	4.3    A+
//	4.0    A
//	3.7    A-
//	3.3    B+
//	3.0    B
//	2.7    B-
//	2.3    C+
//	2.0    C
//	1.7    C-
//	1.3    D+
//	1.0    D
func letterGrade(gradePoint float64) string {
	if gradePoint < 1.0 {
		return "Any"
	}
	if gradePoint >= 4.3 {
		return "A+"
	}
	// Work in tenths to dodge float drift around the 0.3 steps.
	tenths := int(gradePoint*10+0.5) - 7
	letterIndex := tenths / 10
	suffixIndex := tenths % 10
	letters := []string{"D", "C", "B", "A"}
	suffixes := []string{"-", "", "+"}
	if letterIndex > 3 {
		letterIndex = 3
	}
	s := suffixIndex / 3
	if s > 2 {
		s = 2
	}
	return letters[letterIndex] + suffixes[s]
}
