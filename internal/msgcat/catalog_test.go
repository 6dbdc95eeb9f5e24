package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalogRenders(t *testing.T) {
	c := MustDefault()
	got, err := c.Render("info.pong", map[string]any{"Nick": "alice"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "alice: Pong!" {
		t.Fatalf("got %q", got)
	}
	if c.Text("blaze", nil) != "Fire is going to get you higher, blaze it till you phaze it." {
		t.Fatalf("blaze text mismatch")
	}
}

func TestMissingKeyErrors(t *testing.T) {
	c := MustDefault()
	if _, err := c.Render("nope.nothing", nil); err == nil {
		t.Fatalf("expected error for missing key")
	}
	if c.Text("nope.nothing", nil) != "nope.nothing" {
		t.Fatalf("Text should fall back to key")
	}
	if _, err := c.Render("info.pong", map[string]any{}); err == nil {
		t.Fatalf("expected missingkey error")
	}
}

func TestListsAndPick(t *testing.T) {
	c := MustDefault()
	g := c.List("gentoo")
	if len(g) != 5 {
		t.Fatalf("gentoo list len=%d", len(g))
	}
	if c.Pick("gentoo", func(int) int { return 1 }) != "emerge --world && profit" {
		t.Fatalf("pick mismatch")
	}
	if !strings.HasPrefix(c.Text("gentoo.0", nil), "Gentoo:") {
		t.Fatalf("indexed key not flattened")
	}
	if c.Pick("missing", nil) != "" {
		t.Fatalf("pick on missing list should be empty")
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("info:\n  pong: \"{{.Nick}}: PONG\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := c.Text("info.pong", map[string]any{"Nick": "bob"}); got != "bob: PONG" {
		t.Fatalf("override not applied: %q", got)
	}
}

func TestOverrideDuplicateKey(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a.yaml", "b.yml"} {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("blaze: x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}
