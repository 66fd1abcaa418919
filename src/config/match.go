package config

import (
	"regexp"
	"strings"
)

// Pattern syntax used by gate branch filters:
//
//	"^main$"         — regex match
//	"!^feature/.*"   — negated regex
//	"main"           — regex (anchoring is the user's choice)
//	"!develop"       — negated match
//
// Invalid regexes fall back to literal comparison rather than failing the
// pipeline.

// MatchPattern evaluates a single pattern against a value.
func MatchPattern(pattern, value string) bool {
	negate := false
	if strings.HasPrefix(pattern, "!") {
		negate = true
		pattern = pattern[1:]
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		matched := pattern == value
		if negate {
			return !matched
		}
		return matched
	}

	matched := re.MatchString(value)
	if negate {
		return !matched
	}
	return matched
}

// MatchPatterns evaluates a list of patterns against a value (OR logic).
// Empty list = always allowed (no filter).
//
// Exclude patterns (!) are checked first — any exclude match rejects the
// value. Then include patterns — any match allows it. A list with only
// exclude patterns allows everything not excluded.
func MatchPatterns(patterns []string, value string) bool {
	if len(patterns) == 0 {
		return true
	}

	var includes []string
	var excludes []string
	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			excludes = append(excludes, p[1:])
		} else {
			includes = append(includes, p)
		}
	}

	for _, p := range excludes {
		if matchOne(p, value) {
			return false
		}
	}

	if len(includes) == 0 {
		return true
	}

	for _, p := range includes {
		if matchOne(p, value) {
			return true
		}
	}

	return false
}

func matchOne(pattern, value string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return pattern == value
	}
	return re.MatchString(value)
}
