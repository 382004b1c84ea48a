package commands

import (
	"strings"
	"unicode"
)

type TriggerArgs struct {
	Trigger   string
	Remainder string
}

// ParseTrigger splits tokens[start:] into a trigger and the remaining text.
// A trigger starting with a double quote may span several tokens; the first
// balanced quoted span wins and is cut out of the text by position.
func ParseTrigger(tokens []string, start int) TriggerArgs {
	if start < 0 || start >= len(tokens) {
		return TriggerArgs{}
	}

	first := tokens[start]
	if strings.HasPrefix(first, `"`) {
		combined := strings.Join(tokens[start:], " ")
		if open, closing, ok := findQuotedSpan(combined); ok {
			return TriggerArgs{
				Trigger:   strings.TrimSpace(combined[open+1 : closing]),
				Remainder: joinTrimmed(combined[:open], combined[closing+1:]),
			}
		}
	}

	return TriggerArgs{
		Trigger:   first,
		Remainder: strings.TrimSpace(strings.Join(tokens[start+1:], " ")),
	}
}

// findQuotedSpan returns the byte offsets of the opening and closing quote of
// the first span that opens at start-of-string or after whitespace and closes
// with an unescaped quote followed by whitespace or end-of-string.
func findQuotedSpan(s string) (open, closing int, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '"' || (i > 0 && !isSpaceByte(s[i-1])) {
			continue
		}
		// Content may contain \" but not a bare quote, so the first unescaped
		// quote is the only closing candidate for this opening.
		for j := i + 1; j < len(s); j++ {
			if s[j] != '"' {
				continue
			}
			if s[j-1] == '\\' && j-1 > i {
				continue
			}
			if j+1 == len(s) || isSpaceByte(s[j+1]) {
				return i, j, true
			}
			break
		}
	}
	return 0, 0, false
}

func isSpaceByte(b byte) bool {
	return b < 0x80 && unicode.IsSpace(rune(b))
}

func joinTrimmed(before, after string) string {
	before = strings.TrimSpace(before)
	after = strings.TrimSpace(after)
	switch {
	case before == "":
		return after
	case after == "":
		return before
	default:
		return before + " " + after
	}
}
