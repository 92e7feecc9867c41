package commands

import (
	"github.com/pmezard/go-difflib/difflib"
)

// CreateUnifiedDiff renders a unified diff between original and patched file
// contents with ---/+++ headers naming the file on both sides.
func CreateUnifiedDiff(filePath, original, patched string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(patched),
		FromFile: filePath,
		ToFile:   filePath,
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}
