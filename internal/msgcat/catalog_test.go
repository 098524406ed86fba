package msgcat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRenderEmbedded(t *testing.T) {
	c := Default()
	got, err := c.Render("occupancy.pieceUp", map[string]string{"Square": "e2"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "piece at e2 is now empty" {
		t.Fatalf("unexpected text %q", got)
	}
	if c.Text("server.greeting", nil) != "Hello" {
		t.Fatalf("greeting changed")
	}
}

func TestRenderMissing(t *testing.T) {
	c := Default()
	if _, err := c.Render("nope.nothing", nil); err == nil {
		t.Fatalf("expected error for missing key")
	}
	if _, err := c.Render("move.done", map[string]string{"From": "e2"}); err == nil {
		t.Fatalf("expected error for missing field")
	}
	if got := c.Text("nope.nothing", nil); got != "nope.nothing" {
		t.Fatalf("fallback = %q", got)
	}
	var nilCat *Catalog
	if got := nilCat.Text("server.pong", nil); got != "server.pong" {
		t.Fatalf("nil catalog fallback = %q", got)
	}
}

func TestOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("server:\n  greeting: \"Welcome\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := c.Text("server.greeting", nil); got != "Welcome" {
		t.Fatalf("override not applied: %q", got)
	}
	if got := c.Text("server.pong", nil); got != "pong" {
		t.Fatalf("embedded key lost: %q", got)
	}
}

func TestDuplicateOverride(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("server:\n  pong: \"x\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}
