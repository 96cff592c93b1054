package layout

import (
	"path/filepath"

	"github.com/modelkit/uisync/pkg/errors"
	"github.com/modelkit/uisync/pkg/uidef"
)

// Serializer writes one record's definitions under a record directory.
// Modern definitions each get their own metadata file; legacy definitions
// accumulate into one record-scoped metadata list written by [Serializer.Finish].
//
// A Serializer is single-use and not safe for concurrent use; the
// orchestrator gives each record's task its own instance, so no two tasks
// ever share a subtree.
type Serializer struct {
	root   string
	warn   func(format string, args ...any)
	legacy []LegacyMeta
	stats  Stats
}

// NewSerializer creates a Serializer rooted at recordDir. warn receives
// per-element skip notices (nil disables them).
func NewSerializer(recordDir string, warn func(format string, args ...any)) *Serializer {
	if warn == nil {
		warn = func(string, ...any) {}
	}
	return &Serializer{root: recordDir, warn: warn}
}

// Serialize writes one definition, dispatching on its kind.
// I/O errors abort the record; element naming problems only skip subtrees.
func (s *Serializer) Serialize(def *uidef.Definition) error {
	var err error
	if def.Kind == uidef.KindLegacy {
		err = s.serializeLegacy(def)
	} else {
		err = s.serializeModern(def)
	}
	if err == nil {
		s.stats.Definitions++
	}
	return err
}

// Finish writes the record-scoped legacy metadata, if any legacy definition
// was serialized. Call once after all of the record's definitions.
func (s *Serializer) Finish() error {
	if len(s.legacy) == 0 {
		return nil
	}
	return writeJSON(filepath.Join(s.root, MetadataFile), s.legacy)
}

// Stats reports what has been written so far.
func (s *Serializer) Stats() Stats { return s.stats }

func (s *Serializer) serializeModern(def *uidef.Definition) error {
	dir := filepath.Join(s.root, def.Name)

	names, err := s.writeElements(dir, def.Children)
	if err != nil {
		return err
	}

	meta := make(map[string]any, len(def.Extra)+2)
	for k, v := range def.Extra {
		meta[k] = v
	}
	meta["name"] = def.Name
	meta["children"] = names
	return writeJSON(filepath.Join(dir, MetadataFile), meta)
}

// writeElements persists the named elements of els under parent, returning
// the ordered names of those actually written. Unnamed elements are skipped
// whole (no partial directories), their siblings unaffected.
func (s *Serializer) writeElements(parent string, els []*uidef.Element) ([]string, error) {
	names := make([]string, 0, len(els))
	for _, el := range els {
		name, ok, err := s.writeElement(parent, el)
		if err != nil {
			return nil, err
		}
		if ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *Serializer) writeElement(parent string, el *uidef.Element) (string, bool, error) {
	if el.Script == "" {
		s.stats.SkippedElements++
		s.warn("skipping element under %s: %v", parent,
			errors.New(errors.ErrCodeNameMissing, "no script, name cannot be derived"))
		return "", false, nil
	}

	src, err := uidef.DecodeBlob(el.Script)
	if err != nil {
		s.stats.SkippedElements++
		s.warn("skipping element under %s: %v", parent,
			errors.Wrap(errors.ErrCodeDecodeFailed, err, "script blob not decodable"))
		return "", false, nil
	}

	name, ok := uidef.ExtractName(string(src))
	if !ok {
		s.stats.SkippedElements++
		s.warn("skipping element under %s: %v", parent,
			errors.New(errors.ErrCodeNameMissing, "no name declaration in script"))
		return "", false, nil
	}

	dir := filepath.Join(parent, name)
	if err := writeFile(filepath.Join(dir, ScriptFile), src); err != nil {
		return "", false, err
	}
	if err := s.writeBlob(filepath.Join(dir, StylesFile), el.Styles, name); err != nil {
		return "", false, err
	}
	if err := s.writeBlob(filepath.Join(dir, TemplateFile), el.Template, name); err != nil {
		return "", false, err
	}

	childNames, err := s.writeElements(dir, el.Children)
	if err != nil {
		return "", false, err
	}

	meta := make(map[string]any, len(el.Extra)+1)
	for k, v := range el.Extra {
		meta[k] = v
	}
	meta["children"] = childNames
	if err := writeJSON(filepath.Join(dir, MetadataFile), meta); err != nil {
		return "", false, err
	}

	s.stats.Elements++
	return name, true, nil
}

// writeBlob decodes and writes an optional element blob. An undecodable
// blob is dropped with a warning rather than failing the element.
func (s *Serializer) writeBlob(path, b64, elName string) error {
	if b64 == "" {
		return nil
	}
	data, err := uidef.DecodeBlob(b64)
	if err != nil {
		s.warn("dropping %s for element %s: blob not decodable: %v", filepath.Base(path), elName, err)
		return nil
	}
	return writeFile(path, data)
}

func (s *Serializer) serializeLegacy(def *uidef.Definition) error {
	meta := LegacyMeta{Name: def.Name, Tabs: def.Tabs, Sections: []SectionMeta{}, Extra: def.Extra}

	for _, tab := range def.Tabs {
		onPage := uidef.OnPage(def.Sections, tab.ID)
		relDir := filepath.Join(def.Name, tab.Name)
		for _, root := range uidef.RootsOf(def.Sections, tab.ID) {
			if err := s.writeSection(&meta, relDir, onPage, root); err != nil {
				return err
			}
		}
	}

	s.legacy = append(s.legacy, meta)
	return nil
}

// writeSection persists one section's blobs at relDir/{label}.{ext} and
// recurses into its adjacency-list children under relDir/{label}/.
// URLs recorded in the metadata are relative to the record directory,
// always slash-separated.
func (s *Serializer) writeSection(meta *LegacyMeta, relDir string, all []uidef.Section, sec uidef.Section) error {
	sm := SectionMeta{ID: sec.ID, ParentID: sec.ParentID, Page: sec.Page, Label: sec.Label}
	base := filepath.Join(relDir, sec.Label)

	files := []struct {
		data []byte
		ext  string
		url  *string
	}{
		{[]byte(sec.Script), legacyScriptExt, &sm.ScriptURL},
		{[]byte(sec.Styles), legacyStylesExt, &sm.StylesURL},
		{[]byte(sec.Template), legacyTemplateExt, &sm.TemplateURL},
		{[]byte(sec.Properties), legacyPropertiesExt, &sm.PropertiesURL},
	}
	for _, f := range files {
		if len(f.data) == 0 {
			continue
		}
		rel := base + f.ext
		if err := writeFile(filepath.Join(s.root, rel), f.data); err != nil {
			return err
		}
		*f.url = filepath.ToSlash(rel)
	}

	meta.Sections = append(meta.Sections, sm)

	for _, child := range uidef.ChildrenOf(all, sec.ID) {
		if err := s.writeSection(meta, base, all, child); err != nil {
			return err
		}
	}
	return nil
}
