package recovery

import (
	"regexp"
	"strconv"
)

// tokenCountPattern matches the concrete scenario from spec.md §8 #4:
// "prompt is too long: 250000 tokens > 200000 max". It also tolerates the
// common vendor variants using "maximum" and comma-grouped digits.
var tokenCountPattern = regexp.MustCompile(`([\d,]+)\s*tokens?\s*>\s*([\d,]+)\s*max(?:imum)?`)

// ParseTokenLimit extracts the current/max token counts from a
// ContextWindowLimit error's joined text, per spec.md §4.3.1 concrete
// scenario 4. ok is false when no numeric counts could be found, in which
// case callers fall back to a non-numeric recovery message.
func ParseTokenLimit(text string) (TokenLimitInfo, bool) {
	m := tokenCountPattern.FindStringSubmatch(text)
	if m == nil {
		return TokenLimitInfo{}, false
	}
	current, err1 := strconv.Atoi(stripCommas(m[1]))
	max, err2 := strconv.Atoi(stripCommas(m[2]))
	if err1 != nil || err2 != nil {
		return TokenLimitInfo{}, false
	}
	return TokenLimitInfo{
		CurrentTokens: current,
		MaxTokens:     max,
		ErrorType:     "token_limit_exceeded_string",
	}, true
}

func stripCommas(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != ',' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
