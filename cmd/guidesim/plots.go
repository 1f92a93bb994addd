package main

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/fieldline/guidance/internal/guide"
)

var traceColors = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
}

// writePlots renders the plan-view path plot and the cross-track/steer time
// series as PNGs.
func writePlots(dir string, sc *scenario, samples []sample) error {
	pPath := plot.New()
	pPath.Title.Text = "Vehicle Path"
	pPath.X.Label.Text = "Easting (m)"
	pPath.Y.Label.Text = "Northing (m)"

	for i, track := range sc.tracks {
		line, err := plotter.NewLine(trackXYs(track))
		if err != nil {
			return err
		}
		line.Color = traceColors[(i+1)%len(traceColors)]
		line.Width = vg.Points(1)
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		pPath.Add(line)
		pPath.Legend.Add(track.Name, line)
	}

	trace := make(plotter.XYs, len(samples))
	for i, s := range samples {
		trace[i] = plotter.XY{X: s.E, Y: s.N}
	}
	traceLine, err := plotter.NewLine(trace)
	if err != nil {
		return err
	}
	traceLine.Color = traceColors[0]
	traceLine.Width = vg.Points(2)
	pPath.Add(traceLine)
	pPath.Legend.Add("vehicle", traceLine)

	if err := pPath.Save(8*vg.Inch, 8*vg.Inch, filepath.Join(dir, "path.png")); err != nil {
		return fmt.Errorf("save path plot: %w", err)
	}

	pXTE := plot.New()
	pXTE.Title.Text = "Cross-Track Error"
	pXTE.X.Label.Text = "Time (s)"
	pXTE.Y.Label.Text = "XTE (m)"

	pSteer := plot.New()
	pSteer.Title.Text = "Steer Command"
	pSteer.X.Label.Text = "Time (s)"
	pSteer.Y.Label.Text = "Steer (rad)"

	xtePts := make(plotter.XYs, len(samples))
	steerPts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		xtePts[i] = plotter.XY{X: s.T, Y: s.XTE}
		steerPts[i] = plotter.XY{X: s.T, Y: s.Steer}
	}

	xteLine, err := plotter.NewLine(xtePts)
	if err != nil {
		return err
	}
	xteLine.Color = traceColors[2]
	xteLine.Width = vg.Points(1)
	pXTE.Add(xteLine)

	steerLine, err := plotter.NewLine(steerPts)
	if err != nil {
		return err
	}
	steerLine.Color = traceColors[3]
	steerLine.Width = vg.Points(1)
	pSteer.Add(steerLine)

	if err := pXTE.Save(14*vg.Inch, 6*vg.Inch, filepath.Join(dir, "xte.png")); err != nil {
		return fmt.Errorf("save xte plot: %w", err)
	}
	if err := pSteer.Save(14*vg.Inch, 6*vg.Inch, filepath.Join(dir, "steer.png")); err != nil {
		return fmt.Errorf("save steer plot: %w", err)
	}
	return nil
}

func trackXYs(t *guide.Track) plotter.XYs {
	pts := make(plotter.XYs, len(t.Points))
	for i, p := range t.Points {
		pts[i] = plotter.XY{X: p.Easting, Y: p.Northing}
	}
	return pts
}
