package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/modelkit/uisync/pkg/errors"
	"github.com/modelkit/uisync/pkg/uidef"
)

// BuildRecord reassembles a record's full definitions array from its
// directory: modern definitions from subdirectories carrying a metadata
// file (sorted by name), then legacy definitions in the order of the
// record-scoped metadata list. The result is ready for JSON encoding and
// upload.
func BuildRecord(recordDir string) ([]uidef.Definition, error) {
	entries, err := os.ReadDir(recordDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "read record directory %s", recordDir)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(recordDir, e.Name(), MetadataFile)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	defs := make([]uidef.Definition, 0, len(names))
	for _, name := range names {
		def, err := buildModern(filepath.Join(recordDir, name))
		if err != nil {
			return nil, fmt.Errorf("definition %s: %w", name, err)
		}
		defs = append(defs, *def)
	}

	legacy, err := buildLegacy(recordDir)
	if err != nil {
		return nil, err
	}
	return append(defs, legacy...), nil
}

// buildModern reads one modern definition from its directory, rebuilding
// children in the metadata's declared order.
func buildModern(dir string) (*uidef.Definition, error) {
	meta, err := readMetadata(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, err
	}

	def := uidef.Definition{Kind: uidef.KindModern, Extra: make(map[string]json.RawMessage)}
	childNames := []string{}
	for k, v := range meta {
		switch k {
		case "name":
			if err := json.Unmarshal(v, &def.Name); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "definition name in %s", dir)
			}
		case "children":
			if err := json.Unmarshal(v, &childNames); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "child list in %s", dir)
			}
		default:
			def.Extra[k] = v
		}
	}

	def.Children = make([]*uidef.Element, 0, len(childNames))
	for _, name := range childNames {
		el, err := buildElement(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		def.Children = append(def.Children, el)
	}
	return &def, nil
}

// buildElement reads one persisted element directory, re-encoding its
// sources to the base64 wire form. Every persisted element is
// script-bearing, so a missing script file is a layout error.
func buildElement(dir string) (*uidef.Element, error) {
	src, err := os.ReadFile(filepath.Join(dir, ScriptFile))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "element %s has no script", dir)
	}

	el := uidef.Element{Script: uidef.EncodeBlob(src), Extra: make(map[string]json.RawMessage)}

	if data, err := readOptional(filepath.Join(dir, StylesFile)); err != nil {
		return nil, err
	} else if data != nil {
		el.Styles = uidef.EncodeBlob(data)
	}
	if data, err := readOptional(filepath.Join(dir, TemplateFile)); err != nil {
		return nil, err
	} else if data != nil {
		el.Template = uidef.EncodeBlob(data)
	}

	meta, err := readMetadata(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, err
	}
	childNames := []string{}
	for k, v := range meta {
		if k == "children" {
			if err := json.Unmarshal(v, &childNames); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "child list in %s", dir)
			}
			continue
		}
		el.Extra[k] = v
	}

	el.Children = make([]*uidef.Element, 0, len(childNames))
	for _, name := range childNames {
		child, err := buildElement(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		el.Children = append(el.Children, child)
	}
	return &el, nil
}

// buildLegacy reads the record-scoped legacy metadata, re-inlining every
// referenced blob file and dropping the URL fields. Tabs and the flat
// adjacency list come back verbatim from the metadata.
func buildLegacy(recordDir string) ([]uidef.Definition, error) {
	data, err := os.ReadFile(filepath.Join(recordDir, MetadataFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var metas []LegacyMeta
	if err := json.Unmarshal(data, &metas); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "legacy metadata in %s", recordDir)
	}

	defs := make([]uidef.Definition, 0, len(metas))
	for _, m := range metas {
		extra := m.Extra
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		def := uidef.Definition{
			Name:     m.Name,
			Kind:     uidef.KindLegacy,
			Tabs:     m.Tabs,
			Sections: make([]uidef.Section, 0, len(m.Sections)),
			Extra:    extra,
		}
		for _, sm := range m.Sections {
			sec := uidef.Section{ID: sm.ID, ParentID: sm.ParentID, Page: sm.Page, Label: sm.Label}
			if sec.Script, err = inline(recordDir, sm.ScriptURL); err != nil {
				return nil, err
			}
			if sec.Styles, err = inline(recordDir, sm.StylesURL); err != nil {
				return nil, err
			}
			if sec.Template, err = inline(recordDir, sm.TemplateURL); err != nil {
				return nil, err
			}
			if sm.PropertiesURL != "" {
				props, err := os.ReadFile(filepath.Join(recordDir, filepath.FromSlash(sm.PropertiesURL)))
				if err != nil {
					return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "section %s properties", sm.Label)
				}
				sec.Properties = json.RawMessage(props)
			}
			def.Sections = append(def.Sections, sec)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func inline(recordDir, url string) (string, error) {
	if url == "" {
		return "", nil
	}
	data, err := os.ReadFile(filepath.Join(recordDir, filepath.FromSlash(url)))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidLayout, err, "referenced blob %s", url)
	}
	return string(data), nil
}

func readMetadata(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "read %s", path)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "parse %s", path)
	}
	return m, nil
}

func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}
