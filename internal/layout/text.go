package layout

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

// wrap breaks s into lines no wider than width. Explicit newlines are kept;
// words wider than a whole line are split between runes.
func wrap(m Measurer, s string, f font, width float64) []string {
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, w := range words {
			candidate := w
			if line != "" {
				candidate = line + " " + w
			}
			if f.width(m, candidate) <= width {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
			}
			for f.width(m, w) > width {
				head := fitPrefix(m, w, f, width)
				lines = append(lines, head)
				w = w[len(head):]
			}
			line = w
		}
		lines = append(lines, line)
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// truncate shortens s with a trailing ellipsis so it fits width.
func truncate(m Measurer, s string, f font, width float64) string {
	if f.width(m, s) <= width {
		return s
	}
	budget := width - f.width(m, ellipsis)
	if budget <= 0 {
		return ellipsis
	}
	head := strings.TrimRight(fitPrefix(m, s, f, budget), " ")
	return head + ellipsis
}

// fitPrefix returns the longest rune prefix of s no wider than width. It
// always returns at least one rune so callers make progress.
func fitPrefix(m Measurer, s string, f font, width float64) string {
	end := 0
	for end < len(s) {
		_, size := utf8.DecodeRuneInString(s[end:])
		if end > 0 && f.width(m, s[:end+size]) > width {
			break
		}
		end += size
	}
	return s[:end]
}
