package main

import (
	"bytes"
	"fmt"
	"os"

	svg "github.com/ajstarks/svgo"

	"github.com/Julesc013/dominium-sub018/pkg/shard"
)

// vizOptions configures the shard-map SVG preview. It mirrors the
// teacher's SVGOptions shape (canvas size, margin, title, legend/stats
// toggles), re-targeted from room/connector rendering to tile/shard
// rendering.
type vizOptions struct {
	Width      int
	Height     int
	Margin     int
	CellSize   int
	Title      string
	ShowLegend bool
	ShowStats  bool
}

func defaultVizOptions() vizOptions {
	return vizOptions{
		Width:      1000,
		Height:     800,
		Margin:     60,
		CellSize:   18,
		Title:      "Shard Map",
		ShowLegend: true,
		ShowStats:  true,
	}
}

func runViz(args []string) error {
	fs := newFlagSet("viz")
	fixturePath := fs.String("fixture", "", "path to a fixture file (required)")
	configPath := fs.String("config", "", "path to a YAML policy/partition config (required)")
	out := fs.String("out", "shard-map.svg", "output SVG path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fixturePath == "" || *configPath == "" {
		return fmt.Errorf("-fixture and -config are both required")
	}

	idx, err := buildShardIndex(*fixturePath, *configPath)
	if err != nil {
		return err
	}

	opts := defaultVizOptions()
	data := renderShardMapSVG(idx, opts)
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("writing SVG: %w", err)
	}
	fmt.Printf("wrote %d bytes to %s\n", len(data), *out)
	return nil
}

// renderShardMapSVG draws one cell per assignment in insertion order
// (the index is already kept sorted by domain/resolution/tile), colored
// by shard id modulo a small fixed palette.
func renderShardMapSVG(idx *shard.Index, opts vizOptions) []byte {
	buf := new(bytes.Buffer)
	canvas := svg.New(buf)
	canvas.Start(opts.Width, opts.Height)
	canvas.Rect(0, 0, opts.Width, opts.Height, "fill:#1a1a2e")

	drawShardCells(canvas, idx, opts)
	if opts.ShowLegend {
		drawShardLegend(canvas, idx, opts)
	}
	drawVizHeader(canvas, idx, opts)

	canvas.End()
	return buf.Bytes()
}

var shardPalette = []string{
	"#4299e1", "#48bb78", "#f59e0b", "#ef4444",
	"#9f7aea", "#38b2ac", "#ed64a6", "#a0aec0",
}

func shardColor(id shard.ID) string {
	return shardPalette[int(id)%len(shardPalette)]
}

func drawShardCells(canvas *svg.SVG, idx *shard.Index, opts vizOptions) {
	colsAvailable := (opts.Width - 2*opts.Margin) / opts.CellSize
	if colsAvailable <= 0 {
		colsAvailable = 1
	}
	startY := opts.Margin + 60
	for i, a := range idx.Assignments {
		col := i % colsAvailable
		row := i / colsAvailable
		x := opts.Margin + col*opts.CellSize
		y := startY + row*opts.CellSize
		if y+opts.CellSize > opts.Height-opts.Margin {
			break
		}
		style := fmt.Sprintf("fill:%s;stroke:#1a1a2e;stroke-width:1", shardColor(a.ShardID))
		canvas.Rect(x, y, opts.CellSize-1, opts.CellSize-1, style)
	}
}

func drawShardLegend(canvas *svg.SVG, idx *shard.Index, opts vizOptions) {
	seen := make(map[shard.ID]bool)
	var ids []shard.ID
	for _, a := range idx.Assignments {
		if !seen[a.ShardID] {
			seen[a.ShardID] = true
			ids = append(ids, a.ShardID)
		}
	}

	legendX := opts.Width - opts.Margin - 140
	legendY := opts.Margin + 20
	canvas.Rect(legendX-10, legendY-15, 150, 30+22*len(ids), "fill:#2d3748;stroke:#4a5568;stroke-width:1;opacity:0.95;rx:5")
	canvas.Text(legendX, legendY, "Shards", "font-size:14px;font-weight:bold;fill:#e2e8f0")
	legendY += 22
	for _, id := range ids {
		canvas.Circle(legendX+8, legendY, 7, fmt.Sprintf("fill:%s;stroke:#fff;stroke-width:1", shardColor(id)))
		canvas.Text(legendX+22, legendY+4, fmt.Sprintf("shard %d", id), "font-size:11px;fill:#cbd5e0")
		legendY += 22
	}
}

func drawVizHeader(canvas *svg.SVG, idx *shard.Index, opts vizOptions) {
	headerY := 25
	if opts.Title != "" {
		canvas.Text(opts.Width/2, headerY, opts.Title,
			"text-anchor:middle;font-size:20px;font-weight:bold;fill:#e2e8f0;font-family:sans-serif")
		headerY += 30
	}
	if opts.ShowStats {
		stats := fmt.Sprintf("Assignments: %d | Overflow: %v | Uncertain: %v", idx.Count(), idx.Overflow, idx.Uncertain)
		canvas.Text(opts.Width/2, headerY, stats,
			"text-anchor:middle;font-size:12px;fill:#a0aec0;font-family:monospace")
	}
}
