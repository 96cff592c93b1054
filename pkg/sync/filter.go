package sync

import (
	"sort"
	"strings"

	"github.com/modelkit/uisync/pkg/errors"
)

// Filter selects which records and definitions a run touches. Entries use
// one syntax for both directions: "Model" includes every definition of that
// record, "Model:Definition" only the named definition. An empty filter
// includes everything.
type Filter struct {
	// model name -> definition set; an empty set means all definitions.
	models map[string]map[string]bool
}

// ParseFilter builds a filter from CLI arguments.
func ParseFilter(args []string) (*Filter, error) {
	f := &Filter{models: make(map[string]map[string]bool)}
	for _, arg := range args {
		model, def, found := strings.Cut(arg, ":")
		model = strings.TrimSpace(model)
		def = strings.TrimSpace(def)
		if model == "" || (found && def == "") {
			return nil, errors.New(errors.ErrCodeInvalidFilter, "invalid filter %q, want Model or Model:Definition", arg)
		}

		set, ok := f.models[model]
		if !ok {
			set = make(map[string]bool)
			f.models[model] = set
		}
		switch {
		case !found:
			// Bare model resets any narrower entries to "all definitions".
			clear(set)
		case len(set) > 0 || !ok:
			set[def] = true
		}
	}
	return f, nil
}

// Empty reports whether the filter includes everything.
func (f *Filter) Empty() bool { return f == nil || len(f.models) == 0 }

// MatchRecord reports whether the named record is included.
func (f *Filter) MatchRecord(name string) bool {
	if f.Empty() {
		return true
	}
	_, ok := f.models[name]
	return ok
}

// MatchDefinition reports whether a definition of the given record is
// included.
func (f *Filter) MatchDefinition(record, definition string) bool {
	if f.Empty() {
		return true
	}
	set, ok := f.models[record]
	if !ok {
		return false
	}
	return len(set) == 0 || set[definition]
}

// RecordNames returns the sorted record names the filter pins down, or nil
// when the filter is empty. Used to narrow the remote query.
func (f *Filter) RecordNames() []string {
	if f.Empty() {
		return nil
	}
	names := make([]string, 0, len(f.models))
	for name := range f.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
