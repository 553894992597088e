package stations

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_OrderAndVenues(t *testing.T) {
	c := Default()

	order := c.Order()
	if len(order) == 0 {
		t.Fatalf("expected stations in default catalog")
	}
	if order[0] != "8-av" || order[len(order)-1] != "canarsie" {
		t.Fatalf("unexpected line ends: %q … %q", order[0], order[len(order)-1])
	}
	for _, id := range []string{"bedford-av", "lorimer-st"} {
		if !c.Contains(id) {
			t.Fatalf("expected %q in catalog", id)
		}
	}

	ib, _ := c.Index("bedford-av")
	il, _ := c.Index("lorimer-st")
	if ib >= il {
		t.Fatalf("bedford-av (%d) should precede lorimer-st (%d)", ib, il)
	}

	if v := c.Venues("bedford-av"); len(v) != 2 {
		t.Fatalf("bedford-av venues = %v", v)
	}
	if v := c.Venues("8-av"); v != nil {
		t.Fatalf("8-av should have no venues, got %v", v)
	}
	if c.Label("14-st-union-sq") != "14 St–Union Sq" {
		t.Fatalf("label = %q", c.Label("14-st-union-sq"))
	}
	if c.Label("nowhere") != "nowhere" {
		t.Fatalf("unknown label should echo id")
	}
	if c.Line() != "L" {
		t.Fatalf("line = %q", c.Line())
	}
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	c := Default()
	v := c.Venues("bedford-av")
	v[0].Name = "mutated"
	if c.Venues("bedford-av")[0].Name == "mutated" {
		t.Fatalf("Venues must return a copy")
	}
	s := c.Stations()
	s[0].ID = "mutated"
	if c.Order()[0] == "mutated" {
		t.Fatalf("Stations must return a copy")
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte("line: X\nstations: []\n")); err == nil {
		t.Fatalf("expected error for empty catalog")
	}
	if _, err := Parse([]byte("line: X\nstations:\n  - id: a\n  - id: a\n")); err == nil {
		t.Fatalf("expected error for duplicate id")
	}
	if _, err := Parse([]byte("line: X\nstations:\n  - label: no id\n")); err == nil {
		t.Fatalf("expected error for empty id")
	}
	if _, err := Parse([]byte("stations: [unclosed")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoad_FileAndDefault(t *testing.T) {
	c, err := Load("")
	if err != nil || !c.Contains("bedford-av") {
		t.Fatalf("Load(\"\") = %v, %v", c, err)
	}

	p := filepath.Join(t.TempDir(), "g.yaml")
	doc := "line: G\nstations:\n  - id: court-sq\n  - id: greenpoint-av\n    label: Greenpoint Av\n"
	if err := os.WriteFile(p, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err = Load(p)
	if err != nil {
		t.Fatalf("Load(file): %v", err)
	}
	if got := c.Order(); len(got) != 2 || got[1] != "greenpoint-av" {
		t.Fatalf("order = %v", got)
	}
	if c.Label("court-sq") != "court-sq" {
		t.Fatalf("missing label should default to id")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
