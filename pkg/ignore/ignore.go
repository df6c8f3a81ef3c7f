// Package ignore decides which file and directory names are excluded from a
// mirror. Patterns are regular expressions matched against the bare name of
// an entry, never against its full path.
package ignore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// commentPrefix marks a line of an ignore file that carries no pattern
const commentPrefix = "#"

// PatternError reports a pattern that failed to compile
type PatternError struct {
	// Index is the position of the pattern in the list given to New
	Index   int
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid ignore pattern #%d %q: %v", e.Index+1, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// Matcher holds a compiled, immutable set of ignore patterns
type Matcher struct {
	patterns []*regexp.Regexp
}

// New compiles patterns in order. The first invalid pattern aborts
// construction with a *PatternError.
func New(patterns []string) (*Matcher, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &PatternError{Index: i, Pattern: p, Err: err}
		}
		compiled = append(compiled, re)
	}
	return &Matcher{patterns: compiled}, nil
}

// MustNew is like New but panics on an invalid pattern.
func MustNew(patterns ...string) *Matcher {
	m, err := New(patterns)
	if err != nil {
		panic(err)
	}
	return m
}

// IsIgnored reports whether any pattern matches anywhere within name.
// A nil Matcher ignores nothing.
func (m *Matcher) IsIgnored(name string) bool {
	if m == nil {
		return false
	}
	for _, re := range m.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Patterns returns the source text of the compiled patterns
func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.patterns))
	for i, re := range m.patterns {
		out[i] = re.String()
	}
	return out
}

// Len returns the number of patterns
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.patterns)
}

// Parse reads one pattern per line. Surrounding whitespace is trimmed;
// blank lines and lines starting with '#' are skipped.
func Parse(r io.Reader) ([]string, error) {
	var patterns []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ignore patterns: %w", err)
	}
	return patterns, nil
}

// ReadFile returns the patterns listed in an ignore file
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ignore file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// LoadFile reads and compiles an ignore file
func LoadFile(path string) (*Matcher, error) {
	patterns, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	m, err := New(patterns)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return m, nil
}
