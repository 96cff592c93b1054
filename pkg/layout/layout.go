// Package layout maps UI definition trees onto a filesystem tree and back.
//
// One record's definitions are exploded under a record directory:
//
//	{record}/
//	  {modernDef}/
//	    metadata.json              definition fields + ordered child names
//	    {Element}/
//	      script.js                decoded element sources
//	      styles.css
//	      template.html
//	      metadata.json            element rest-fields + ordered child names
//	      {NestedElement}/...
//	  {legacyDef}/
//	    {Tab}/
//	      Header.js                section blobs, nested by adjacency
//	      Header/Detail.js
//	      ...
//	  metadata.json                record-scoped legacy section metadata
//
// The [Serializer] walks definitions top-down (parent before children); the
// builder functions reassemble definitions bottom-up, ordering children by
// the metadata's declared name lists rather than directory enumeration.
// Round-tripping reproduces the original definitions up to field ordering.
package layout

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/modelkit/uisync/pkg/uidef"
)

// Fixed file names inside a persisted modern element directory.
const (
	ScriptFile   = "script.js"
	StylesFile   = "styles.css"
	TemplateFile = "template.html"
	MetadataFile = "metadata.json"
)

// Legacy section blobs are written beside the section's child directory as
// {label}.{ext}.
const (
	legacyScriptExt     = ".js"
	legacyStylesExt     = ".css"
	legacyTemplateExt   = ".html"
	legacyPropertiesExt = ".json"
)

// LegacyMeta is one record-scoped metadata entry describing a legacy
// definition: its name, tabs and the URL-rewritten flat section list.
// Extra carries any other top-level definition field verbatim, so legacy
// round-trips stay lossless like modern ones.
type LegacyMeta struct {
	Name     string
	Tabs     []uidef.Tab
	Sections []SectionMeta
	Extra    map[string]json.RawMessage
}

// MarshalJSON flattens Extra beside the fixed fields.
func (m LegacyMeta) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+3)
	for k, v := range m.Extra {
		out[k] = v
	}
	out["name"] = m.Name
	out["tabs"] = m.Tabs
	out["sections"] = m.Sections
	return json.Marshal(out)
}

// UnmarshalJSON splits the fixed fields back out, keeping the rest in Extra.
func (m *LegacyMeta) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Extra = make(map[string]json.RawMessage)
	for k, v := range raw {
		switch k {
		case "name":
			if err := json.Unmarshal(v, &m.Name); err != nil {
				return err
			}
		case "tabs":
			if err := json.Unmarshal(v, &m.Tabs); err != nil {
				return err
			}
		case "sections":
			if err := json.Unmarshal(v, &m.Sections); err != nil {
				return err
			}
		default:
			m.Extra[k] = v
		}
	}
	return nil
}

// SectionMeta mirrors [uidef.Section] with inline blobs replaced by relative
// file URLs. The inline fields are never written alongside the URLs.
type SectionMeta struct {
	ID            int    `json:"id"`
	ParentID      *int   `json:"parentId,omitempty"`
	Page          int    `json:"page"`
	Label         string `json:"label"`
	ScriptURL     string `json:"scriptUrl,omitempty"`
	StylesURL     string `json:"stylesUrl,omitempty"`
	TemplateURL   string `json:"templateUrl,omitempty"`
	PropertiesURL string `json:"propertiesUrl,omitempty"`
}

// Stats counts what one record's serialization produced.
type Stats struct {
	Definitions     int // definitions written (either kind)
	Elements        int // modern element directories written
	SkippedElements int // elements skipped for missing/undecodable names
}

// writeJSON marshals v with indentation and writes it, creating parent
// directories first.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, append(data, '\n'))
}

// writeFile writes data to path, creating parent directories as needed.
// Creation is idempotent; existing files are truncated.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
