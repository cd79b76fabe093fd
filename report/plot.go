/*
 * plot.go, part of nmff-afm.
 *
 * Copyright (c) 2024 TamaLab
 *
 * NMFF-AFM: normal mode flexible fitting of protein conformations to AFM
 * images.
 *
 * Reference:
 * Modeling Conformational Transitions of Biomolecules from Atomic Force
 * Microscopy Images using Normal Mode Analysis.
 * Xuan Wu, Osamu Miyashita, and Florence Tama
 * https://doi.org/10.1021/acs.jpcb.4c04189
 *
 */

package report

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

//Figure file names written into the run directory.
const (
	TimeSeriesFig          = "time_series.png"
	TimeSeriesAnnotatedFig = "time_series_annotated.png"
	ResultFig              = "result_figure.png"
)

//The decay factors marked on the annotated figure. The middle one decides
//the winning step.
var decayFactors = []float64{0.05, 0.03, 0.01}

const pickFactor = 0.03

func newPanel(ylabel string) *plot.Plot {
	p := plot.New()
	p.X.Label.Text = "step"
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

//xy pairs steps with values, dropping missing samples.
func xy(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if math.IsNaN(ys[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	return pts
}

func addLine(p *plot.Plot, xs, ys []float64, label string, colorIdx int) error {
	l, err := plotter.NewLine(xy(xs, ys))
	if err != nil {
		return err
	}
	l.Color = plotutil.Color(colorIdx)
	p.Add(l)
	if label != "" {
		p.Legend.Add(label, l)
	}
	return nil
}

func addHLine(p *plot.Plot, y, xmin, xmax float64) error {
	l, err := plotter.NewLine(plotter.XYs{{X: xmin, Y: y}, {X: xmax, Y: y}})
	if err != nil {
		return err
	}
	l.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	p.Add(l)
	return nil
}

func addMarker(p *plot.Plot, x, y float64, shape draw.GlyphDrawer, label string, colorIdx int) error {
	if math.IsNaN(y) {
		return nil
	}
	s, err := plotter.NewScatter(plotter.XYs{{X: x, Y: y}})
	if err != nil {
		return err
	}
	s.GlyphStyle.Shape = shape
	s.GlyphStyle.Radius = vg.Points(4)
	s.GlyphStyle.Color = plotutil.Color(colorIdx)
	p.Add(s)
	if label != "" {
		p.Legend.Add(label, s)
	}
	return nil
}

//writePNG stacks the panels vertically into one figure.
func writePNG(plots []*plot.Plot, name string) error {
	const width = 6 * vg.Inch
	const panelHeight = 2.5 * vg.Inch
	img := vgimg.New(width, panelHeight*vg.Length(len(plots)))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: len(plots), Cols: 1,
		PadX: vg.Millimeter * 2, PadY: vg.Millimeter * 2,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	grid := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		grid[i] = []*plot.Plot{p}
	}
	canvases := plot.Align(grid, tiles, dc)
	for i, p := range plots {
		p.Draw(canvases[i][0])
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("report: %v", err)
	}
	defer f.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("report: %s: %v", name, err)
	}
	return nil
}

//series unpacks the log records into the plotted columns.
type series struct {
	steps    []float64
	cc       []float64
	ccChange []float64
	mode     []float64
	rmsdIni  []float64
	rmsdRef  []float64
}

func newSeries(recs []Record) *series {
	s := &series{
		steps:    make([]float64, len(recs)),
		cc:       make([]float64, len(recs)),
		ccChange: make([]float64, len(recs)),
		mode:     make([]float64, len(recs)),
		rmsdIni:  make([]float64, len(recs)),
		rmsdRef:  make([]float64, len(recs)),
	}
	for i, rec := range recs {
		s.steps[i] = float64(i)
		s.cc[i] = rec.CC
		s.mode[i] = float64(rec.Mode)
		s.rmsdIni[i] = rec.RMSDInitial
		s.rmsdRef[i] = rec.RMSDReference
		if i == 0 {
			s.ccChange[i] = math.NaN()
			continue
		}
		s.ccChange[i] = rec.CC - recs[i-1].CC
	}
	return s
}

//rmsdTrack returns the deviation series the annotations refer to: against
//the reference when one is tracked, against the initial otherwise.
func (s *series) rmsdTrack(withRef bool) []float64 {
	if withRef {
		return s.rmsdRef
	}
	return s.rmsdIni
}

//firstNegative returns the first step whose correlation stopped improving,
//or -1 when it never did.
func (s *series) firstNegative() int {
	for i, v := range s.ccChange {
		if !math.IsNaN(v) && v < 0 {
			return i
		}
	}
	return -1
}

func (s *series) rmsdPanel(withRef bool) (*plot.Plot, error) {
	p := newPanel("rmsd")
	if err := addLine(p, s.steps, s.rmsdIni, "RMSD to Initial", 0); err != nil {
		return nil, err
	}
	if withRef {
		if err := addLine(p, s.steps, s.rmsdRef, "RMSD to Reference", 1); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *series) panels(withRef bool) ([]*plot.Plot, error) {
	rmsd, err := s.rmsdPanel(withRef)
	if err != nil {
		return nil, err
	}
	cc := newPanel("cc")
	if err := addLine(cc, s.steps, s.cc, "", 0); err != nil {
		return nil, err
	}
	change := newPanel("cc change")
	if err := addLine(change, s.steps, s.ccChange, "", 0); err != nil {
		return nil, err
	}
	if err := addHLine(change, 0, 0, s.steps[len(s.steps)-1]); err != nil {
		return nil, err
	}
	mode := newPanel("largest mode")
	if err := addLine(mode, s.steps, s.mode, "", 0); err != nil {
		return nil, err
	}
	return []*plot.Plot{rmsd, cc, change, mode}, nil
}

//SaveTimeSeries renders the plain four-panel summary of a run.
func SaveTimeSeries(recs []Record, withRef bool, name string) error {
	if len(recs) == 0 {
		return fmt.Errorf("report: nothing to plot")
	}
	panels, err := newSeries(recs).panels(withRef)
	if err != nil {
		return err
	}
	return writePNG(panels, name)
}

//SaveAnnotated renders the annotated summary: the first negative
//correlation change, the fitted exponential decay of the correlation gain
//and the steps at which it has decayed by the factors 0.05, 0.03 and 0.01.
//It returns the step picked by the 0.03 factor, which scores the run.
//
//A run too short or too erratic for the decay fit falls back to its last
//step, with a warning, instead of failing after hours of external
//computation.
func SaveAnnotated(recs []Record, withRef bool, name string) (int, error) {
	if len(recs) == 0 {
		return 0, fmt.Errorf("report: nothing to plot")
	}
	s := newSeries(recs)
	panels, err := s.panels(withRef)
	if err != nil {
		return 0, err
	}
	rmsdP, changeP := panels[0], panels[2]
	track := s.rmsdTrack(withRef)
	last := len(recs) - 1
	pick := last

	if i := minIndex(track); i >= 0 {
		err := addMarker(rmsdP, float64(i), track[i], draw.RingGlyph{},
			fmt.Sprintf("min rmsd (%d, %.3g)", i, track[i]), 3)
		if err != nil {
			return 0, err
		}
	}
	if i := s.firstNegative(); i >= 0 {
		txt := fmt.Sprintf("1st neg (%d, %.2g)", i, s.ccChange[i])
		if err := addMarker(changeP, float64(i), s.ccChange[i], draw.PyramidGlyph{}, txt, 2); err != nil {
			return 0, err
		}
		if err := addMarker(rmsdP, float64(i), track[i], draw.PyramidGlyph{}, txt, 2); err != nil {
			return 0, err
		}
	}

	a, b, err := FitExpDecay(s.steps[1:], s.ccChange[1:])
	if err != nil {
		log.Printf("%v; using the last step (%d) as the result", err, last)
		if err := writePNG(panels, name); err != nil {
			return 0, err
		}
		return pick, nil
	}
	fitted := make([]float64, len(s.steps))
	for i, x := range s.steps {
		fitted[i] = ExpDecay(a, b, x)
	}
	fitted[0] = math.NaN() //the change series starts at step 1
	if err := addLine(changeP, s.steps, fitted, fmt.Sprintf("y=%.2gexp(%.2g(x-1))", a, b), 4); err != nil {
		return 0, err
	}

	for i, p := range decayFactors {
		u, err := DecayStep(b, p)
		if err != nil {
			log.Printf("%v; marking the last step instead", err)
			u = last
		}
		if u > last {
			log.Printf("Warning: the correlation gain is expected to decay by the factor %g at step %d, but this run stopped at %d", p, u, last)
			u = last
		}
		if u < 1 {
			u = 1
		}
		if p == pickFactor {
			pick = u
		}
		v := ExpDecay(a, b, float64(u))
		err = addMarker(changeP, float64(u), v, draw.CircleGlyph{},
			fmt.Sprintf("%g: (%d, %.1e)", p, u, v), 5+i)
		if err != nil {
			return 0, err
		}
		err = addMarker(rmsdP, float64(u), track[u], draw.CircleGlyph{},
			fmt.Sprintf("%g: (%d, %.3g)", p, u, track[u]), 5+i)
		if err != nil {
			return 0, err
		}
	}
	if err := writePNG(panels, name); err != nil {
		return 0, err
	}
	return pick, nil
}

//minIndex returns the index of the smallest non-missing value, or -1.
func minIndex(vals []float64) int {
	best := -1
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if best == -1 || v < vals[best] {
			best = i
		}
	}
	return best
}

//SaveGain renders the three-panel result figure with the winning step
//highlighted on every panel.
func SaveGain(recs []Record, withRef bool, step int, name string) error {
	if step < 0 || step >= len(recs) {
		return fmt.Errorf("report: step %d is outside the %d logged iterations", step, len(recs))
	}
	s := newSeries(recs)
	rmsd, err := s.rmsdPanel(withRef)
	if err != nil {
		return err
	}
	x := float64(step)
	if err := addMarker(rmsd, x, s.rmsdIni[step], draw.CircleGlyph{}, "", 2); err != nil {
		return err
	}
	if withRef {
		if err := addMarker(rmsd, x, s.rmsdRef[step], draw.CircleGlyph{}, "", 3); err != nil {
			return err
		}
	}
	cc := newPanel("cc")
	if err := addLine(cc, s.steps, s.cc, "", 0); err != nil {
		return err
	}
	if err := addMarker(cc, x, s.cc[step], draw.CircleGlyph{}, "", 2); err != nil {
		return err
	}
	mode := newPanel("largest mode")
	if err := addLine(mode, s.steps, s.mode, "", 0); err != nil {
		return err
	}
	if err := addMarker(mode, x, s.mode[step], draw.CircleGlyph{}, "", 2); err != nil {
		return err
	}
	return writePNG([]*plot.Plot{rmsd, cc, mode}, name)
}

//Score renders all three figures into dir, picks the winning step from the
//decay of the correlation gain, and marks it in the log.
func Score(L *RunLog, dir string) (int, error) {
	recs, err := L.Read()
	if err != nil {
		return 0, err
	}
	if err := SaveTimeSeries(recs, L.withRef, filepath.Join(dir, TimeSeriesFig)); err != nil {
		return 0, err
	}
	step, err := SaveAnnotated(recs, L.withRef, filepath.Join(dir, TimeSeriesAnnotatedFig))
	if err != nil {
		return 0, err
	}
	if err := SaveGain(recs, L.withRef, step, filepath.Join(dir, ResultFig)); err != nil {
		return 0, err
	}
	if err := L.SetResult(step); err != nil {
		return 0, err
	}
	return step, nil
}
