package msgcat

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var defaultFiles embed.FS

// Catalog holds reply templates and content lists loaded from embedded defaults and an
// optional override directory. Lists are flattened to "key.0", "key.1", ...
type Catalog struct {
	mu    sync.RWMutex
	data  map[string]string              // flattened dot-keys → template text
	lists map[string][]string            // list key → items in order
	tpls  map[string]*template.Template  // parsed lazily
}

// New loads the embedded default messages and then applies overrides from dir if provided.
func New(overrideDir string) (*Catalog, error) {
	base := &Catalog{data: make(map[string]string), lists: make(map[string][]string), tpls: make(map[string]*template.Template)}

	if err := base.loadEmbedded(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(overrideDir) != "" {
		if err := base.applyDir(overrideDir); err != nil {
			return nil, err
		}
	}
	return base, nil
}

// MustDefault returns the embedded catalog and panics if it does not parse.
func MustDefault() *Catalog {
	c, err := New("")
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) loadEmbedded() error {
	raw, err := fs.ReadFile(defaultFiles, "messages.en.yaml")
	if err != nil {
		return fmt.Errorf("read embedded messages: %w", err)
	}
	return c.applyYAML(raw)
}

func (c *Catalog) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read template dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		ext := strings.ToLower(filepath.Ext(n))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, n)
		}
	}
	sort.Strings(files)
	seen := make(map[string]string) // key -> filename
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		flat, lists, err := parseYAMLToFlat(b)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		for k := range flat {
			if prev, ok := seen[k]; ok {
				return fmt.Errorf("duplicate override key %q in %s and %s", k, prev, name)
			}
			seen[k] = name
		}
		c.merge(flat, lists)
	}
	return nil
}

func parseYAMLToFlat(b []byte) (map[string]string, map[string][]string, error) {
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, nil, err
	}
	flat := make(map[string]string)
	lists := make(map[string][]string)
	if err := flattenStrings(m, "", flat, lists); err != nil {
		return nil, nil, err
	}
	return flat, lists, nil
}

func (c *Catalog) applyYAML(b []byte) error {
	flat, lists, err := parseYAMLToFlat(b)
	if err != nil {
		return err
	}
	c.merge(flat, lists)
	return nil
}

func (c *Catalog) merge(flat map[string]string, lists map[string][]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range flat {
		c.data[k] = v
		delete(c.tpls, k)
	}
	for k, v := range lists {
		c.lists[k] = v
	}
}

func flattenStrings(src any, prefix string, out map[string]string, lists map[string][]string) error {
	switch v := src.(type) {
	case map[string]any:
		for k, vv := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flattenStrings(vv, key, out, lists); err != nil {
				return err
			}
		}
		return nil
	case []any:
		if prefix == "" {
			return errors.New("list value without key prefix")
		}
		items := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("unsupported list item at %s.%d: %T", prefix, i, item)
			}
			out[prefix+"."+strconv.Itoa(i)] = s
			items = append(items, s)
		}
		lists[prefix] = items
		return nil
	case string:
		if prefix == "" {
			return errors.New("string value without key prefix")
		}
		out[prefix] = v
		return nil
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported value at %s: %T", prefix, v)
	}
}

// Render executes a template by key with the provided data.
// Missing keys cause errors; caller should provide safe fallback.
func (c *Catalog) Render(key string, data any) (string, error) {
	key = strings.TrimSpace(key)
	c.mu.RLock()
	t, cached := c.tpls[key]
	tpl, ok := c.data[key]
	c.mu.RUnlock()
	if !ok || strings.TrimSpace(tpl) == "" {
		return "", fmt.Errorf("template not found: %s", key)
	}
	if !cached {
		parsed, err := template.New(key).Option("missingkey=error").Parse(tpl)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.tpls[key] = parsed
		c.mu.Unlock()
		t = parsed
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Text renders key and falls back to the key itself so a broken template never silences a reply.
func (c *Catalog) Text(key string, data any) string {
	s, err := c.Render(key, data)
	if err != nil {
		return key
	}
	return s
}

// List returns a copy of the list stored under key.
func (c *Catalog) List(key string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.lists[strings.TrimSpace(key)]...)
}

// Pick returns a random item of the list under key using intn (rand.IntN when nil).
func (c *Catalog) Pick(key string, intn func(int) int) string {
	items := c.List(key)
	if len(items) == 0 {
		return ""
	}
	if intn == nil {
		intn = rand.IntN
	}
	return items[intn(len(items))]
}
