// Package uidef models UI definition trees and classifies their two wire
// shapes.
//
// A record's definitions document holds an ordered array of definitions.
// Each entry is one of two structurally different variants:
//
//   - modern: a nested element tree, `{name, ...presentation, children: [...]}`
//   - legacy: a flat section list partitioned by tabs,
//     `{name, tabs: [...], sections: [...]}`
//
// The variants are mutually exclusive per entry, but one array may mix both
// kinds across entries. Presentation attributes not modeled here are carried
// verbatim as raw JSON so serialization round-trips are lossless.
package uidef

import (
	"encoding/json"

	"github.com/modelkit/uisync/pkg/errors"
)

// Kind discriminates the two definition shapes.
type Kind int

const (
	// KindModern marks a nested-element definition.
	KindModern Kind = iota
	// KindLegacy marks a flat tab/section definition.
	KindLegacy
)

// String returns the kind name for logs.
func (k Kind) String() string {
	if k == KindLegacy {
		return "legacy"
	}
	return "modern"
}

// Detect classifies a raw definition object. A definition exposing both
// `tabs` and `sections` is legacy; one exposing `children` is modern. Any
// other shape is an unrecognized-shape error, never a silent default.
func Detect(raw []byte) (Kind, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return 0, errors.Wrap(errors.ErrCodeShapeUnrecognized, err, "definition is not an object")
	}
	return detect(m)
}

func detect(m map[string]json.RawMessage) (Kind, error) {
	_, hasTabs := m["tabs"]
	_, hasSections := m["sections"]
	if hasTabs && hasSections {
		return KindLegacy, nil
	}
	if _, ok := m["children"]; ok {
		return KindModern, nil
	}
	return 0, errors.New(errors.ErrCodeShapeUnrecognized, "definition matches neither legacy nor modern shape")
}

// Definition is one entry of a record's definitions array.
// Children is populated for modern definitions; Tabs and Sections for legacy
// ones. Extra holds every other top-level field verbatim.
type Definition struct {
	Name     string
	Kind     Kind
	Children []*Element
	Tabs     []Tab
	Sections []Section
	Extra    map[string]json.RawMessage
}

// UnmarshalJSON parses a definition, classifying its shape via [Detect].
func (d *Definition) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return errors.Wrap(errors.ErrCodeShapeUnrecognized, err, "definition is not an object")
	}

	kind, err := detect(m)
	if err != nil {
		return err
	}

	d.Kind = kind
	d.Extra = make(map[string]json.RawMessage)
	for k, v := range m {
		switch k {
		case "name":
			if err := json.Unmarshal(v, &d.Name); err != nil {
				return errors.Wrap(errors.ErrCodeParseFailed, err, "definition name")
			}
		case "children":
			if kind == KindModern {
				if err := json.Unmarshal(v, &d.Children); err != nil {
					return errors.Wrap(errors.ErrCodeParseFailed, err, "definition %q children", d.Name)
				}
				continue
			}
			d.Extra[k] = v
		case "tabs":
			if kind == KindLegacy {
				if err := json.Unmarshal(v, &d.Tabs); err != nil {
					return errors.Wrap(errors.ErrCodeParseFailed, err, "definition %q tabs", d.Name)
				}
				continue
			}
			d.Extra[k] = v
		case "sections":
			if kind == KindLegacy {
				if err := json.Unmarshal(v, &d.Sections); err != nil {
					return errors.Wrap(errors.ErrCodeParseFailed, err, "definition %q sections", d.Name)
				}
				continue
			}
			d.Extra[k] = v
		default:
			d.Extra[k] = v
		}
	}
	return nil
}

// MarshalJSON writes the definition back in its wire shape.
func (d Definition) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(d.Extra)+4)
	for k, v := range d.Extra {
		m[k] = v
	}
	m["name"] = d.Name
	if d.Kind == KindLegacy {
		m["tabs"] = emptyIfNil(d.Tabs)
		m["sections"] = emptyIfNil(d.Sections)
	} else {
		m["children"] = emptyIfNil(d.Children)
	}
	return json.Marshal(m)
}

// Parse parses one raw array entry into a Definition.
func Parse(raw []byte) (*Definition, error) {
	var d Definition
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Element is one node of a modern definition tree. Script, Styles and
// Template carry base64-encoded source text; the element's name is not a
// field but is derived from the decoded script (see [ExtractName]). An
// element owns its children exclusively; the tree is acyclic.
type Element struct {
	Script   string
	Styles   string
	Template string
	Children []*Element
	Extra    map[string]json.RawMessage
}

// UnmarshalJSON parses an element, keeping unknown fields in Extra.
func (e *Element) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	e.Extra = make(map[string]json.RawMessage)
	for k, v := range m {
		var dst *string
		switch k {
		case "script":
			dst = &e.Script
		case "styles":
			dst = &e.Styles
		case "template":
			dst = &e.Template
		case "children":
			if err := json.Unmarshal(v, &e.Children); err != nil {
				return err
			}
			continue
		default:
			e.Extra[k] = v
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON writes the element back in its wire shape. Empty blob fields
// are omitted, matching the optional fields of the wire format.
func (e Element) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Extra)+4)
	for k, v := range e.Extra {
		m[k] = v
	}
	if e.Script != "" {
		m["script"] = e.Script
	}
	if e.Styles != "" {
		m["styles"] = e.Styles
	}
	if e.Template != "" {
		m["template"] = e.Template
	}
	m["children"] = emptyIfNil(e.Children)
	return json.Marshal(m)
}

// Tab is one page of a legacy definition. Sections are assigned to tabs by
// matching Section.Page against Tab.ID.
type Tab struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Section is one entry of a legacy definition's flat section list. The list
// encodes an adjacency-list tree: a section's children are all sections
// whose ParentID equals its ID. Roots have a nil ParentID.
type Section struct {
	ID         int             `json:"id"`
	ParentID   *int            `json:"parentId,omitempty"`
	Page       int             `json:"page"`
	Label      string          `json:"label"`
	Script     string          `json:"script,omitempty"`
	Styles     string          `json:"styles,omitempty"`
	Template   string          `json:"template,omitempty"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

// ChildrenOf returns the sections in list whose parent is the given id,
// preserving list order. This is the adjacency-list traversal used by the
// serializer; it filters rather than chasing pointers.
func ChildrenOf(list []Section, id int) []Section {
	var out []Section
	for _, s := range list {
		if s.ParentID != nil && *s.ParentID == id {
			out = append(out, s)
		}
	}
	return out
}

// RootsOf returns the sections in list with no parent and the given page,
// preserving list order.
func RootsOf(list []Section, page int) []Section {
	var out []Section
	for _, s := range list {
		if s.ParentID == nil && s.Page == page {
			out = append(out, s)
		}
	}
	return out
}

// OnPage returns the sections assigned to the given tab id, preserving
// list order.
func OnPage(list []Section, page int) []Section {
	var out []Section
	for _, s := range list {
		if s.Page == page {
			out = append(out, s)
		}
	}
	return out
}

// emptyIfNil keeps nil slices rendering as [] rather than null, so the
// presence-based shape discriminant survives a round trip.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
