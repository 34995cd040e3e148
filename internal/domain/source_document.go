package domain

import "strings"

// SourceDocument is one loaded unit of the corpus (a PDF page or a text file)
// before it is split into chunks.
type SourceDocument struct {
	SourceName string
	Department string
	Page       int
	Text       string
}

var departmentPrefixes = []struct {
	marker     string
	department string
}{
	{"CS", "Computer Science"},
	{"MATH", "Mathematics"},
	{"BIO", "Biology"},
	{"BUS", "Business"},
}

// UnknownDepartment is used when the file name carries no department marker.
const UnknownDepartment = "Unknown"

// DepartmentFromFilename derives the department tag from a catalog file name.
func DepartmentFromFilename(name string) string {
	upper := strings.ToUpper(name)
	for _, p := range departmentPrefixes {
		if strings.Contains(upper, p.marker) {
			return p.department
		}
	}
	return UnknownDepartment
}
