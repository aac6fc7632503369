package swarm

import "strings"

// maxPatternLength and maxConsecutiveAsterisks bound the glob matcher to
// prevent pathological regex-like expansion, per spec.md §4.2.2: patterns
// longer than 500 characters or containing three or more consecutive
// asterisks fall back to exact equality.
const (
	maxPatternLength        = 500
	maxConsecutiveAsterisks = 3
)

// globMatch implements the bounded glob spec.md §4.2.2 defines:
//   - "*" matches anything except the path separator
//   - "**" matches any sequence including separators
//   - "?" matches a single non-separator character
func globMatch(pattern, path string) bool {
	if len(pattern) > maxPatternLength || strings.Contains(pattern, strings.Repeat("*", maxConsecutiveAsterisks)) {
		return pattern == path
	}
	return matchSegments([]rune(pattern), []rune(path))
}

// matchSegments is a classic backtracking glob matcher extended with "**".
func matchSegments(pattern, path []rune) bool {
	var pIdx, sIdx int
	var starIdx = -1
	var starMatch int

	for sIdx < len(path) {
		if pIdx < len(pattern) {
			switch {
			case pattern[pIdx] == '*' && pIdx+1 < len(pattern) && pattern[pIdx+1] == '*':
				// "**" matches any sequence including separators.
				starIdx = pIdx
				starMatch = sIdx
				pIdx += 2
				continue
			case pattern[pIdx] == '*':
				starIdx = pIdx
				starMatch = sIdx
				pIdx++
				continue
			case pattern[pIdx] == '?' && path[sIdx] != '/':
				pIdx++
				sIdx++
				continue
			case pattern[pIdx] == path[sIdx]:
				pIdx++
				sIdx++
				continue
			}
		}
		if starIdx >= 0 {
			// Single "*" must not cross a path separator.
			if pattern[starIdx] == '*' && !(starIdx+1 < len(pattern) && pattern[starIdx+1] == '*') {
				if path[starMatch] == '/' {
					return false
				}
			}
			starMatch++
			sIdx = starMatch
			pIdx = starIdx + 1
			if pattern[starIdx] == '*' && starIdx+1 < len(pattern) && pattern[starIdx+1] == '*' {
				pIdx = starIdx + 2
			}
			continue
		}
		return false
	}
	for pIdx < len(pattern) && (pattern[pIdx] == '*') {
		pIdx++
	}
	return pIdx >= len(pattern)
}

// patternsOverlap reports whether any of the agent's supplied patterns
// matches any of the task's file paths/patterns, tried symmetrically (both
// agent-pattern-vs-task-path and task-pattern-vs-agent-path), per spec.md
// §4.2.2: "Matching is symmetric".
func patternsOverlap(agentPatterns []string, ownedFiles, taskPatterns []string) bool {
	for _, ap := range agentPatterns {
		for _, f := range ownedFiles {
			if globMatch(ap, f) {
				return true
			}
		}
		for _, tp := range taskPatterns {
			if globMatch(ap, tp) || globMatch(tp, ap) {
				return true
			}
		}
	}
	return false
}
