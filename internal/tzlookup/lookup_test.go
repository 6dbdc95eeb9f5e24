package tzlookup

import "testing"

func mustDefault(t *testing.T) *Table {
	t.Helper()
	tbl, err := Default()
	if err != nil {
		t.Fatalf("default table: %v", err)
	}
	return tbl
}

func TestResolveSubstring(t *testing.T) {
	tbl := mustDefault(t)
	zone, ok := tbl.Resolve("Los Angeles CA")
	if !ok || zone != "America/Los_Angeles" {
		t.Fatalf("got %q ok=%v", zone, ok)
	}
}

func TestResolveNotFound(t *testing.T) {
	tbl := mustDefault(t)
	if zone, ok := tbl.Resolve("Nowhereville"); ok {
		t.Fatalf("unexpected match %q", zone)
	}
	if _, ok := tbl.Resolve("   "); ok {
		t.Fatalf("blank query matched")
	}
}

func TestResolveExactAndCase(t *testing.T) {
	tbl := mustDefault(t)
	cases := map[string]string{
		"TOKYO":          "Asia/Tokyo",
		"new york":       "America/New_York",
		"New York, NY":   "America/New_York",
		"Europe/Berlin":  "Europe/Berlin",
		"amster":         "Europe/Amsterdam",
		"salt lake city": "America/Denver",
	}
	for q, want := range cases {
		got, ok := tbl.Resolve(q)
		if !ok || got != want {
			t.Fatalf("Resolve(%q)=%q,%v want %q", q, got, ok, want)
		}
	}
}

func TestResolveEitherDirection(t *testing.T) {
	tbl := mustDefault(t)
	cases := map[string]string{
		"Londontown": "Europe/London",
		"osl":        "Europe/Oslo",
	}
	for q, want := range cases {
		got, ok := tbl.Resolve(q)
		if !ok || got != want {
			t.Fatalf("Resolve(%q)=%q,%v want %q", q, got, ok, want)
		}
	}
}

func TestParseRejectsBadZone(t *testing.T) {
	if _, err := Parse([]byte("atlantis: Ocean/Atlantis\n")); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}
