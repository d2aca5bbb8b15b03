package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/topology/pkg/topology/internalerr"
)

// Stoplist is an extra set of stopwords layered over the built-in list.
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist reads a stopword file. Files ending in .yaml or .yml hold a
// `terms:` list; anything else is one word per line with '#' comments.
// Terms are lowercased, trimmed, deduplicated and sorted.
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read stoplist %s: %w", path, err)
	}

	var terms []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var sl Stoplist
		if err := yaml.Unmarshal(data, &sl); err != nil {
			return nil, fmt.Errorf("%w: parse stoplist %s: %v", internalerr.ErrInvalidConfig, path, err)
		}
		terms = sl.Terms
	default:
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			line, _, _ := strings.Cut(sc.Text(), "#")
			terms = append(terms, line)
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("scan stoplist %s: %w", path, err)
		}
	}
	return &Stoplist{Terms: normalizeTerms(terms)}, nil
}

func normalizeTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
