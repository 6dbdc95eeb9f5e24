// Package tzlookup resolves free-text locations to IANA zone names.
package tzlookup

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"golang.org/x/text/cases"
	yaml "gopkg.in/yaml.v3"
)

//go:embed locations.yaml
var defaultTable []byte

// Table maps normalized location names to zone identifiers.
type Table struct {
	zones map[string]string
	keys  []string // sorted, longest first
}

// Default parses the embedded location table.
func Default() (*Table, error) {
	return Parse(defaultTable)
}

// Parse builds a Table from a YAML mapping of location to zone. Every zone must load.
func Parse(raw []byte) (*Table, error) {
	var m map[string]string
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse location table: %w", err)
	}
	t := &Table{zones: make(map[string]string, len(m))}
	for k, zone := range m {
		if _, err := time.LoadLocation(zone); err != nil {
			return nil, fmt.Errorf("location %q: %w", k, err)
		}
		key := normalize(k)
		if key == "" {
			continue
		}
		t.zones[key] = zone
		t.keys = append(t.keys, key)
	}
	sort.Slice(t.keys, func(i, j int) bool {
		if len(t.keys[i]) != len(t.keys[j]) {
			return len(t.keys[i]) > len(t.keys[j])
		}
		return t.keys[i] < t.keys[j]
	})
	return t, nil
}

// Resolve returns the zone for query. Order: a literal IANA name, an exact table match,
// a table key found on word boundaries in the query, any table key inside the query,
// then the query inside a key. Longer keys win ties so "new york" beats "york".
func (t *Table) Resolve(query string) (string, bool) {
	raw := strings.TrimSpace(query)
	if raw == "" {
		return "", false
	}
	if strings.Contains(raw, "/") {
		if loc, err := time.LoadLocation(raw); err == nil {
			return loc.String(), true
		}
	}

	q := normalize(raw)
	if q == "" {
		return "", false
	}
	if zone, ok := t.zones[q]; ok {
		return zone, true
	}
	for _, k := range t.keys {
		if containsWord(q, k) {
			return t.zones[k], true
		}
	}
	for _, k := range t.keys {
		if strings.Contains(q, k) {
			return t.zones[k], true
		}
	}
	for _, k := range t.keys {
		if strings.Contains(k, q) {
			return t.zones[k], true
		}
	}
	return "", false
}

// normalize folds case, drops punctuation and collapses whitespace.
func normalize(s string) string {
	s = cases.Fold().String(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', '.', '_', '-', '(', ')':
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// containsWord reports whether key occurs in q on word boundaries.
func containsWord(q, key string) bool {
	for i := 0; ; {
		j := strings.Index(q[i:], key)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(key)
		if (start == 0 || q[start-1] == ' ') && (end == len(q) || q[end] == ' ') {
			return true
		}
		i = start + 1
	}
}
