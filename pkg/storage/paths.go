package storage

import (
	"fmt"
	"strings"
	"unicode"
)

// SafeName transforms a project name into a filesystem-safe path segment.
// Letters, digits, '-' and '_' pass through; everything else becomes '_'.
func SafeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// DatasetArchivePath builds the deterministic remote path for a dataset
// archive: datasets/<owner>/<safe-project-name>_v<version>.zip
func DatasetArchivePath(ownerID, projectName string, version int) string {
	return fmt.Sprintf("datasets/%s/%s_v%d.zip", ownerID, SafeName(projectName), version)
}
