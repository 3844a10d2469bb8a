package discovery

import (
	"regexp"
	"strings"
)

// Filter filters discovered test names by a caller-supplied pattern.
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// Apply keeps only the names matching the pattern. The pattern is treated
// as a regular expression when it compiles, otherwise as a plain substring.
// An empty pattern keeps everything; zero matches is not an error.
func (f *Filter) Apply(names []string, pattern string) []string {
	if pattern == "" {
		return names
	}

	re, err := regexp.Compile(pattern)

	var filtered []string
	for _, name := range names {
		if err == nil {
			if re.MatchString(name) {
				filtered = append(filtered, name)
			}
			continue
		}
		if strings.Contains(name, pattern) {
			filtered = append(filtered, name)
		}
	}
	return filtered
}
