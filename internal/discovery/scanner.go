package discovery

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// TestPrefix is the naming convention for test procedures.
const TestPrefix = "Test_"

// procPattern matches procedure definitions across the script dialects the
// harness accepts. Matches lines like:
//   - func Test_foo()
//   - function! Test_bar()
//   - def Test_baz()
//   - proc Test_qux()
var procPattern = regexp.MustCompile(`(?m)^\s*(?:function!?|func!?|def|proc)\s+([A-Za-z_]\w*)\s*\(`)

// Scanner extracts procedure names from a test script.
type Scanner struct{}

// NewScanner creates a new Scanner
func NewScanner() *Scanner {
	return &Scanner{}
}

// Scan finds the test procedures defined in the script, in the order they
// are defined. Duplicate definitions are reported once.
func (s *Scanner) Scan(scriptPath string) ([]string, error) {
	procs, err := s.Procs(scriptPath)
	if err != nil {
		return nil, err
	}

	var tests []string
	seen := make(map[string]bool)
	for _, name := range procs {
		if !strings.HasPrefix(name, TestPrefix) || seen[name] {
			continue
		}
		seen[name] = true
		tests = append(tests, name)
	}
	return tests, nil
}

// Procs returns every procedure name defined in the script, in definition
// order. Used for test discovery and for hook lookup (SetUp, TearDown and
// their per-test variants).
func (s *Scanner) Procs(scriptPath string) ([]string, error) {
	content, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("read script %s: %w", scriptPath, err)
	}
	return s.ScanSource(string(content)), nil
}

// ScanSource extracts procedure names from raw script source.
func (s *Scanner) ScanSource(source string) []string {
	var names []string
	for _, match := range procPattern.FindAllStringSubmatch(source, -1) {
		if len(match) > 1 {
			names = append(names, match[1])
		}
	}
	return names
}
