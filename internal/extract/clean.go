package extract

import "strings"

// CleanText normalises extracted text while preserving single newlines,
// which the chunker relies on as soft split points. Collapses intra-line
// whitespace, drops blank lines and strips NUL and replacement characters.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	text = strings.Join(kept, "\n")

	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "�", "")
	return strings.TrimSpace(text)
}
