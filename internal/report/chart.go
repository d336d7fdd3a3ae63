package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/chrissnell/openchannel/pkg/gvf"
)

var (
	surfaceColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	normalColor   = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	criticalColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// ProfileSummary condenses a water-surface profile.
type ProfileSummary struct {
	Points int
	Length float64
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Summarize computes the summary statistics of a profile.
func Summarize(p gvf.Profile) ProfileSummary {
	if len(p.Y) == 0 {
		return ProfileSummary{}
	}
	mean, sd := stat.MeanStdDev(p.Y, nil)
	if len(p.Y) == 1 {
		sd = 0
	}
	return ProfileSummary{
		Points: len(p.Y),
		Length: p.Length(),
		Min:    floats.Min(p.Y),
		Max:    floats.Max(p.Y),
		Mean:   mean,
		StdDev: sd,
	}
}

// Chart draws the profile as a PNG, with the normal and critical depths as
// reference lines when they are finite and positive.
func Chart(p gvf.Profile, yn, yc float64, width, height vg.Length) ([]byte, error) {
	if len(p.X) < 2 {
		return nil, fmt.Errorf("profile has %d points, need at least 2", len(p.X))
	}

	plt := plot.New()
	plt.Title.Text = "Water-surface profile"
	plt.X.Label.Text = "Distance from control (m)"
	plt.Y.Label.Text = "Depth (m)"
	plt.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(p.X))
	for i := range p.X {
		pts[i].X, pts[i].Y = p.X[i], p.Y[i]
	}
	surface, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	surface.Color = surfaceColor
	surface.Width = vg.Points(1.5)
	plt.Add(surface)
	plt.Legend.Add("surface", surface)

	xmin, xmax := floats.Min(p.X), floats.Max(p.X)
	for _, ref := range []struct {
		label string
		depth float64
		color color.Color
	}{
		{"normal depth", yn, normalColor},
		{"critical depth", yc, criticalColor},
	} {
		if !(ref.depth > 0) || math.IsInf(ref.depth, 0) {
			continue
		}
		d := ref.depth
		line := plotter.NewFunction(func(float64) float64 { return d })
		line.XMin, line.XMax = xmin, xmax
		line.Color = ref.color
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		plt.Add(line)
		plt.Legend.Add(ref.label, line)
	}
	plt.Y.Min = 0

	wt, err := plt.WriterTo(width, height, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
