// Package treeviz renders a record's definition hierarchy as a Graphviz
// diagram for inspection: one cluster-free digraph with the record at the
// root, definitions below it, and element or section trees under each
// definition.
package treeviz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/modelkit/uisync/pkg/errors"
	"github.com/modelkit/uisync/pkg/uidef"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed adds kind and blob-presence annotations to node labels.
	// When false, only names are shown.
	Detailed bool
}

// ToDOT converts a record's definitions to Graphviz DOT format. The
// resulting string can be rendered with [RenderSVG]. Unnamed elements are
// shown as "(unnamed)" leaves so skipped subtrees stay visible.
func ToDOT(record string, defs []uidef.Definition, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	rootID := "record:" + record
	fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=lightblue];\n", rootID, record)

	for di, def := range defs {
		defID := fmt.Sprintf("def:%d", di)
		fmt.Fprintf(&buf, "  %q [label=%q];\n", defID, defLabel(def, opts.Detailed))
		fmt.Fprintf(&buf, "  %q -> %q;\n", rootID, defID)

		switch def.Kind {
		case uidef.KindModern:
			for ci, el := range def.Children {
				writeElement(&buf, defID, fmt.Sprintf("%s/%d", defID, ci), el, opts)
			}
		case uidef.KindLegacy:
			writeLegacy(&buf, defID, def, opts)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func defLabel(def uidef.Definition, detailed bool) string {
	if !detailed {
		return def.Name
	}
	return def.Name + "\n" + def.Kind.String()
}

func writeElement(buf *bytes.Buffer, parentID, id string, el *uidef.Element, opts Options) {
	name, ok := el.Name()
	label := name
	attrs := ""
	if !ok {
		label = "(unnamed)"
		attrs = ", style=\"rounded,filled,dashed\", fillcolor=lightgrey"
	} else if opts.Detailed {
		label = name + "\n" + blobSummary(el.Styles != "", el.Template != "")
	}
	fmt.Fprintf(buf, "  %q [label=%q%s];\n", id, label, attrs)
	fmt.Fprintf(buf, "  %q -> %q;\n", parentID, id)

	if !ok {
		// The subtree is unreachable on disk, so stop here.
		return
	}
	for ci, child := range el.Children {
		writeElement(buf, id, fmt.Sprintf("%s/%d", id, ci), child, opts)
	}
}

func writeLegacy(buf *bytes.Buffer, defID string, def uidef.Definition, opts Options) {
	for _, tab := range def.Tabs {
		tabID := fmt.Sprintf("%s/tab:%d", defID, tab.ID)
		fmt.Fprintf(buf, "  %q [label=%q, fillcolor=lightyellow];\n", tabID, tab.Name)
		fmt.Fprintf(buf, "  %q -> %q;\n", defID, tabID)

		onPage := uidef.OnPage(def.Sections, tab.ID)
		for _, sec := range uidef.RootsOf(def.Sections, tab.ID) {
			writeSection(buf, tabID, defID, sec, onPage, opts)
		}
	}
}

func writeSection(buf *bytes.Buffer, parentID, defID string, sec uidef.Section, all []uidef.Section, opts Options) {
	id := fmt.Sprintf("%s/sec:%d", defID, sec.ID)
	label := sec.Label
	if opts.Detailed {
		label += "\n" + blobSummary(sec.Styles != "", sec.Template != "")
	}
	fmt.Fprintf(buf, "  %q [label=%q];\n", id, label)
	fmt.Fprintf(buf, "  %q -> %q;\n", parentID, id)

	for _, child := range uidef.ChildrenOf(all, sec.ID) {
		writeSection(buf, id, defID, child, all, opts)
	}
}

func blobSummary(hasStyles, hasTemplate bool) string {
	parts := []string{"script"}
	if hasStyles {
		parts = append(parts, "styles")
	}
	if hasTemplate {
		parts = append(parts, "template")
	}
	return strings.Join(parts, "+")
}

// RenderSVG renders a DOT graph to SVG using Graphviz. Failures here are
// engine faults, not input problems: the DOT text comes from [ToDOT].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render SVG")
	}
	return buf.Bytes(), nil
}
