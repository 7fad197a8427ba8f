// Package vocabulary holds the read-only token sets (stopwords, subject
// headings) loaded once at startup and shared by reference.
package vocabulary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Set is an immutable set of normalized tokens. The zero value is empty.
type Set struct {
	tokens map[string]struct{}
}

// NewSet builds a Set from raw tokens. Blank tokens are ignored.
func NewSet(tokens ...string) Set {
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if n := Normalize(t); n != "" {
			m[n] = struct{}{}
		}
	}
	return Set{tokens: m}
}

// Contains reports whether token (after normalization) is in the set.
func (s Set) Contains(token string) bool {
	if len(s.tokens) == 0 {
		return false
	}
	_, ok := s.tokens[Normalize(token)]
	return ok
}

// Len returns the number of distinct tokens.
func (s Set) Len() int { return len(s.tokens) }

// Tokens returns the tokens sorted.
func (s Set) Tokens() []string {
	out := make([]string, 0, len(s.tokens))
	for t := range s.tokens {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Union returns a new Set holding the tokens of s and other.
func (s Set) Union(other Set) Set {
	m := make(map[string]struct{}, len(s.tokens)+len(other.tokens))
	for t := range s.tokens {
		m[t] = struct{}{}
	}
	for t := range other.tokens {
		m[t] = struct{}{}
	}
	return Set{tokens: m}
}

// Normalize trims and case-folds a token.
func Normalize(token string) string {
	t := strings.TrimSpace(token)
	if t == "" {
		return ""
	}
	return cases.Fold().String(t)
}

// Read parses one token per line. Blank lines and lines starting with '#'
// are skipped.
func Read(r io.Reader) (Set, error) {
	var tokens []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens = append(tokens, line)
	}
	if err := sc.Err(); err != nil {
		return Set{}, fmt.Errorf("scan tokens: %w", err)
	}
	return NewSet(tokens...), nil
}

// ReadFile loads a Set from path. An empty path yields an empty Set.
func ReadFile(path string) (Set, error) {
	if path == "" {
		return Set{}, nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Set{}, fmt.Errorf("open vocabulary %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	s, err := Read(f)
	if err != nil {
		return Set{}, fmt.Errorf("read vocabulary %s: %w", path, err)
	}
	return s, nil
}

// Vocabulary bundles the sets used by the keyword views.
type Vocabulary struct {
	Stopwords Set
	Headings  Set
}

// Load reads the stopword list and the flattened subject-heading tree.
func Load(stopwordsPath, headingsPath string) (*Vocabulary, error) {
	stop, err := ReadFile(stopwordsPath)
	if err != nil {
		return nil, fmt.Errorf("stopwords: %w", err)
	}
	headings, err := ReadFile(headingsPath)
	if err != nil {
		return nil, fmt.Errorf("subject headings: %w", err)
	}
	return &Vocabulary{Stopwords: stop, Headings: headings}, nil
}
