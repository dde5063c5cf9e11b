package services

import "strings"

// SplitChunks breaks text into pieces of at most limit runes, cutting at line
// breaks when possible. A single line longer than limit is cut mid-line.
// Blank lines are kept, except one that falls on a chunk boundary.
func SplitChunks(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if limit <= 0 {
		return []string{text}
	}

	var (
		chunks  []string
		cur     strings.Builder
		curLen  int
		hasLine bool
	)
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
		}
		cur.Reset()
		curLen = 0
		hasLine = false
	}

	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}

		sep := 0
		if hasLine {
			sep = 1
		}
		if curLen+sep+len(runes) > limit {
			flush()
			sep = 0
		}
		if sep == 1 {
			cur.WriteByte('\n')
		}
		cur.WriteString(string(runes))
		curLen += sep + len(runes)
		hasLine = true
	}
	flush()
	return chunks
}
