// Package bode draws magnitude and phase plots of AC sweep results.
package bode

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/edp1096/circuitkit/pkg/util"
)

var ErrNoPoints = errors.New("no plottable points")

// Series is one signal of a sweep. Phase is in degrees.
type Series struct {
	Name  string
	Freq  []float64
	Mag   []float64
	Phase []float64
}

type Options struct {
	Title  string
	Width  vg.Length
	Height vg.Length
}

func DefaultOptions() Options {
	return Options{Width: 16 * vg.Centimeter, Height: 12 * vg.Centimeter}
}

// FromResults picks signal (e.g. "V(out)") out of an AC analysis result map.
func FromResults(results map[string][]float64, signal string) (Series, error) {
	freq, ok := results["FREQ"]
	if !ok {
		return Series{}, fmt.Errorf("results hold no frequency points")
	}
	mag, ok := results[signal+"_MAG"]
	if !ok {
		return Series{}, fmt.Errorf("no results for %s", signal)
	}
	phase := results[signal+"_PHASE"]
	if len(mag) != len(freq) || len(phase) != len(freq) {
		return Series{}, fmt.Errorf("%s: result length mismatch", signal)
	}
	return Series{Name: signal, Freq: freq, Mag: mag, Phase: phase}, nil
}

// Transfer builds the response of out relative to in.
func Transfer(results map[string][]float64, in, out string) (Series, error) {
	src, err := FromResults(results, in)
	if err != nil {
		return Series{}, err
	}
	dst, err := FromResults(results, out)
	if err != nil {
		return Series{}, err
	}

	s := Series{
		Name:  out + "/" + in,
		Freq:  src.Freq,
		Mag:   make([]float64, len(src.Freq)),
		Phase: make([]float64, len(src.Freq)),
	}
	for i := range s.Freq {
		s.Mag[i] = dst.Mag[i] / src.Mag[i]
		s.Phase[i] = wrapDegrees(dst.Phase[i] - src.Phase[i])
	}
	return s, nil
}

func wrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	switch {
	case deg > 180:
		deg -= 360
	case deg <= -180:
		deg += 360
	}
	return deg
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// points drops samples a log axis cannot show: non-positive frequencies,
// unsolved (NaN) points and zero magnitudes.
func (s Series) points() (mag, phase plotter.XYs) {
	for i, f := range s.Freq {
		if f <= 0 || !finite(f) {
			continue
		}
		db := util.Decibels(s.Mag[i])
		if !finite(db) || !finite(s.Phase[i]) {
			continue
		}
		mag = append(mag, plotter.XY{X: f, Y: db})
		phase = append(phase, plotter.XY{X: f, Y: s.Phase[i]})
	}
	return mag, phase
}

func newAxes(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Label.Text = ylabel
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p
}

// Plots returns the magnitude (dB) and phase (deg) plots of series.
func Plots(opts Options, series ...Series) (*plot.Plot, *plot.Plot, error) {
	magPlot := newAxes(opts.Title, "Magnitude (dB)")
	phasePlot := newAxes("", "Phase (deg)")

	drawn := 0
	for i, s := range series {
		magXYs, phaseXYs := s.points()
		if len(magXYs) == 0 {
			continue
		}

		magLine, err := plotter.NewLine(magXYs)
		if err != nil {
			return nil, nil, fmt.Errorf("%s magnitude: %w", s.Name, err)
		}
		phaseLine, err := plotter.NewLine(phaseXYs)
		if err != nil {
			return nil, nil, fmt.Errorf("%s phase: %w", s.Name, err)
		}
		magLine.Color = plotutil.Color(i)
		phaseLine.Color = plotutil.Color(i)

		magPlot.Add(magLine)
		phasePlot.Add(phaseLine)
		magPlot.Legend.Add(s.Name, magLine)
		drawn++
	}
	if drawn == 0 {
		return nil, nil, ErrNoPoints
	}
	return magPlot, phasePlot, nil
}

// Save writes the magnitude plot above the phase plot. The image format
// follows the file extension (png, svg, pdf, ...).
func Save(path string, opts Options, series ...Series) error {
	magPlot, phasePlot, err := Plots(opts, series...)
	if err != nil {
		return err
	}

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	c, err := draw.NewFormattedCanvas(opts.Width, opts.Height, format)
	if err != nil {
		return fmt.Errorf("creating %q canvas: %w", format, err)
	}

	tiles := draw.Tiles{
		Rows:      2,
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      4 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  2 * vg.Millimeter,
	}
	plots := [][]*plot.Plot{{magPlot}, {phasePlot}}
	canvases := plot.Align(plots, tiles, draw.New(c))
	magPlot.Draw(canvases[0][0])
	phasePlot.Draw(canvases[1][0])

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
