package treeviz

import (
	"strings"
	"testing"

	"github.com/modelkit/uisync/pkg/uidef"
)

func script(name string) string {
	return uidef.EncodeBlob([]byte("@Component({ name: '" + name + "' })\nclass " + name + " {}"))
}

func TestToDOTModern(t *testing.T) {
	defs := []uidef.Definition{{
		Name: "Dashboard",
		Kind: uidef.KindModern,
		Children: []*uidef.Element{
			{Script: script("Header"), Children: []*uidef.Element{
				{Script: script("Logo")},
			}},
			{Script: uidef.EncodeBlob([]byte("function x() {}"))},
		},
	}}

	dot := ToDOT("Router", defs, Options{})

	for _, want := range []string{
		`label="Router"`,
		`label="Dashboard"`,
		`label="Header"`,
		`label="Logo"`,
		`label="(unnamed)"`,
		"digraph G {",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s:\n%s", want, dot)
		}
	}

	// Unnamed nodes are rendered dashed, like their skipped-on-disk state.
	if !strings.Contains(dot, "dashed") {
		t.Error("unnamed element should be dashed")
	}
}

func TestToDOTLegacy(t *testing.T) {
	p1 := 1
	defs := []uidef.Definition{{
		Name: "OrderEntry",
		Kind: uidef.KindLegacy,
		Tabs: []uidef.Tab{{ID: 7, Name: "General"}},
		Sections: []uidef.Section{
			{ID: 1, Page: 7, Label: "A", Script: "// a"},
			{ID: 2, ParentID: &p1, Page: 7, Label: "B", Template: "<b/>"},
		},
	}}

	dot := ToDOT("Router", defs, Options{Detailed: true})

	for _, want := range []string{
		`label="General"`,
		`label="A`,
		`label="B`,
		"OrderEntry\\nlegacy",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s:\n%s", want, dot)
		}
	}
}

func TestToDOTDetailedBlobSummary(t *testing.T) {
	defs := []uidef.Definition{{
		Name: "D",
		Kind: uidef.KindModern,
		Children: []*uidef.Element{{
			Script:   script("Widget"),
			Template: uidef.EncodeBlob([]byte("<w/>")),
		}},
	}}

	dot := ToDOT("R", defs, Options{Detailed: true})
	if !strings.Contains(dot, "script+template") {
		t.Errorf("detailed label missing blob summary:\n%s", dot)
	}
}
