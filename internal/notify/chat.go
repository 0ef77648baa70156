package notify

import (
	"strings"
	"unicode/utf8"
)

// MaxChatMessage is the Telegram limit on message length.
const MaxChatMessage = 4096

// ChatChunks splits text into messages no longer than limit, breaking on
// line boundaries. A single line over the limit is cut on a rune boundary.
func ChatChunks(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxChatMessage
	}
	var (
		chunks []string
		cur    strings.Builder
	)
	flush := func() {
		if chunk := strings.TrimRight(cur.String(), "\n"); chunk != "" {
			chunks = append(chunks, chunk)
		}
		cur.Reset()
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			cut := runeCut(line, limit)
			flush()
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if cur.Len()+len(line) > limit {
			flush()
		}
		cur.WriteString(line)
	}
	flush()
	return chunks
}

// runeCut returns the largest index <= n that starts a rune in s. It moves
// past the first rune when n is shorter than that rune.
func runeCut(s string, n int) int {
	i := n
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	if i == 0 {
		_, i = utf8.DecodeRuneInString(s)
	}
	return i
}
