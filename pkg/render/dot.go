// Package render turns workspace block forests into visual outputs.
//
// # Overview
//
// The renderer walks a workspace's top-level blocks and emits Graphviz
// DOT: one node per block, one edge per live connection. Value inputs
// and statement inputs produce labeled edges; next/previous stack links
// produce bold unlabeled edges so stacks read as vertical spines.
//
//	dot := render.ToDOT(ws, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(dot)
package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/blockforge/pkg/block"
	"github.com/matzehuels/blockforge/pkg/workspace"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed includes field values and position in node labels.
	// When false, only the block type and id are shown.
	Detailed bool
}

// ToDOT converts a workspace's block forest to Graphviz DOT format.
// The resulting DOT string can be rendered with [RenderSVG].
//
// Shadow blocks are rendered with dashed outlines and grey fill to
// distinguish them from regular blocks.
func ToDOT(ws *workspace.Workspace, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, top := range ws.GetTopBlocks() {
		for _, b := range top.Descendants() {
			label := fmtLabel(b, opts.Detailed)
			attrs := fmtAttrs(b, label)
			fmt.Fprintf(&buf, "  %q [%s];\n", b.ID(), strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("\n")
	for _, top := range ws.GetTopBlocks() {
		for _, b := range top.Descendants() {
			writeEdges(&buf, b)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(b *block.Block, detailed bool) string {
	if !detailed {
		return b.Type()
	}

	parts := []string{b.Type(), "id: " + b.ID()}
	fields := b.Fields()
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		parts = append(parts, fmt.Sprintf("%s: %s", name, fields[name]))
	}
	pos := b.Position()
	parts = append(parts, fmt.Sprintf("at: (%.0f, %.0f)", pos.X, pos.Y))

	return strings.Join(parts, "\n")
}

func fmtAttrs(b *block.Block, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if b.IsShadow() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

func writeEdges(buf *bytes.Buffer, b *block.Block) {
	for _, in := range b.Inputs() {
		child := in.TargetBlock()
		if child == nil {
			continue
		}
		fmt.Fprintf(buf, "  %q -> %q [label=%q];\n", b.ID(), child.ID(), in.Name())
	}
	if next := b.NextBlock(); next != nil {
		fmt.Fprintf(buf, "  %q -> %q [style=bold];\n", b.ID(), next.ID())
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
