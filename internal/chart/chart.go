// Package chart renders bar charts and histograms to PNG files in a
// configurable output directory.
package chart

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	gochart "github.com/wcharczuk/go-chart/v2"
)

// Kind identifies the type of chart an artifact holds.
type Kind string

const (
	KindBar       Kind = "bar"
	KindHistogram Kind = "histogram"
)

// Naming controls how artifact files are named inside the output directory.
type Naming string

const (
	// NamingFixed writes bar_chart.png / histogram.png and overwrites them on every call.
	NamingFixed Naming = "fixed"
	// NamingUnique appends a random id so concurrent or successive charts never collide.
	NamingUnique Naming = "unique"
)

// ParseNaming validates a naming mode from config.
func ParseNaming(s string) (Naming, error) {
	switch Naming(s) {
	case NamingFixed, NamingUnique:
		return Naming(s), nil
	case "":
		return NamingFixed, nil
	}
	return "", fmt.Errorf("invalid chart naming %q — expected %q or %q", s, NamingFixed, NamingUnique)
}

var baseNames = map[Kind]string{
	KindBar:       "bar_chart",
	KindHistogram: "histogram",
}

// Options configures a Renderer.
type Options struct {
	Dir    string
	Naming Naming
	Width  int
	Height int
}

// Artifact describes a chart written to disk.
type Artifact struct {
	Kind        Kind      `json:"kind"`
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Point is one labelled bar.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Renderer writes charts as PNG files.
type Renderer struct {
	opts  Options
	now   func() time.Time
	newID func() string
}

// NewRenderer creates a renderer. Zero options fall back to ./charts, fixed
// naming and an 800x500 canvas.
func NewRenderer(opts Options) *Renderer {
	if opts.Dir == "" {
		opts.Dir = "charts"
	}
	if opts.Naming == "" {
		opts.Naming = NamingFixed
	}
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 500
	}
	return &Renderer{
		opts:  opts,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Options returns the effective renderer options.
func (r *Renderer) Options() Options {
	return r.opts
}

// Path returns where the next chart of the given kind will be written.
func (r *Renderer) Path(kind Kind) string {
	base := baseNames[kind]
	if r.opts.Naming == NamingUnique {
		base += "-" + r.newID()
	}
	return filepath.Join(r.opts.Dir, base+".png")
}

// Bar renders a bar chart of the given points.
func (r *Renderer) Bar(ctx context.Context, title string, points []Point) (*Artifact, error) {
	return r.render(ctx, KindBar, title, points)
}

// Histogram bins values (see Bins) and renders the distribution.
func (r *Renderer) Histogram(ctx context.Context, title string, values []float64) (*Artifact, error) {
	return r.render(ctx, KindHistogram, title, Bins(values))
}

func (r *Renderer) render(ctx context.Context, kind Kind, title string, points []Point) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("nothing to plot for %q", title)
	}

	if err := os.MkdirAll(r.opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create chart directory %s: %w", r.opts.Dir, err)
	}

	path := r.Path(kind)
	tmp, err := os.CreateTemp(r.opts.Dir, ".chart-*.png")
	if err != nil {
		return nil, fmt.Errorf("could not write chart to %s: %w", r.opts.Dir, err)
	}
	defer os.Remove(tmp.Name())

	if err := r.draw(tmp, title, points); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("could not render %s chart: %w", kind, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("could not write chart to %s: %w", path, err)
	}
	// The final path only ever holds a complete PNG.
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("could not write chart to %s: %w", path, err)
	}

	return &Artifact{
		Kind:        kind,
		Path:        path,
		Title:       title,
		GeneratedAt: r.now(),
	}, nil
}

func (r *Renderer) draw(w io.Writer, title string, points []Point) error {
	bars := make([]gochart.Value, len(points))
	lo, hi := 0.0, 0.0
	for i, p := range points {
		bars[i] = gochart.Value{Label: p.Label, Value: p.Value}
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	if hi == lo {
		hi = lo + 1
	}

	width := r.opts.Width
	if floor := len(points)*12 + 120; width < floor {
		width = floor
	}
	barWidth := (width - 120) * 6 / (len(points) * 10)
	if barWidth > 60 {
		barWidth = 60
	}
	if barWidth < 4 {
		barWidth = 4
	}

	graph := gochart.BarChart{
		Title:      title,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10}},
		Width:      width,
		Height:     r.opts.Height,
		BarWidth:   barWidth,
		YAxis:      gochart.YAxis{Range: &gochart.ContinuousRange{Min: lo, Max: hi}},
		Bars:       bars,
	}
	return graph.Render(gochart.PNG, w)
}
