package sync

import (
	"reflect"
	"testing"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "empty", args: nil},
		{name: "bare model", args: []string{"Router"}},
		{name: "model and definition", args: []string{"Router:Dashboard"}},
		{name: "mixed", args: []string{"Router", "Switch:Config"}},
		{name: "blank model", args: []string{":Dashboard"}, wantErr: true},
		{name: "blank definition", args: []string{"Router:"}, wantErr: true},
		{name: "whitespace only", args: []string{"  "}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilter(tt.args)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFilter(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
		})
	}
}

func TestFilterMatching(t *testing.T) {
	f, err := ParseFilter([]string{"Router", "Switch:Config"})
	if err != nil {
		t.Fatal(err)
	}

	if f.Empty() {
		t.Error("filter with entries reported empty")
	}
	if !f.MatchRecord("Router") || !f.MatchRecord("Switch") {
		t.Error("named records must match")
	}
	if f.MatchRecord("Firewall") {
		t.Error("unnamed record must not match")
	}

	// Bare model includes all of its definitions.
	if !f.MatchDefinition("Router", "Anything") {
		t.Error("bare model entry must match every definition")
	}
	// Narrowed model includes only the named definition.
	if !f.MatchDefinition("Switch", "Config") {
		t.Error("Switch:Config must match")
	}
	if f.MatchDefinition("Switch", "Status") {
		t.Error("Switch:Status must not match")
	}
	if f.MatchDefinition("Firewall", "Config") {
		t.Error("unnamed record's definitions must not match")
	}

	if got := f.RecordNames(); !reflect.DeepEqual(got, []string{"Router", "Switch"}) {
		t.Errorf("RecordNames = %v", got)
	}
}

func TestFilterBareModelWidensNarrowEntries(t *testing.T) {
	f, err := ParseFilter([]string{"Router:Dashboard", "Router"})
	if err != nil {
		t.Fatal(err)
	}
	if !f.MatchDefinition("Router", "Other") {
		t.Error("a later bare entry must widen the model to all definitions")
	}

	g, err := ParseFilter([]string{"Router", "Router:Dashboard"})
	if err != nil {
		t.Fatal(err)
	}
	if !g.MatchDefinition("Router", "Other") {
		t.Error("a narrow entry after a bare one must not narrow it again")
	}
}

func TestEmptyFilterMatchesEverything(t *testing.T) {
	var f *Filter
	if !f.MatchRecord("X") || !f.MatchDefinition("X", "Y") {
		t.Error("nil filter must match everything")
	}
	if names := f.RecordNames(); names != nil {
		t.Errorf("RecordNames = %v, want nil", names)
	}
}
