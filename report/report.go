// Package report renders accumulated metric time series to image files so a
// capture session can be reviewed without the interactive plotting surface.
package report

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/viam-labs/depth-quality/quality"
)

var bandColors = map[quality.Band]color.RGBA{
	quality.GreenBand:  {R: 0x2e, G: 0xcc, B: 0x40, A: 0xff},
	quality.YellowBand: {R: 0xff, G: 0xdc, B: 0x00, A: 0xff},
	quality.RedBand:    {R: 0xff, G: 0x41, B: 0x36, A: 0xff},
}

// SaveAll writes one PNG per metric with recorded samples into dir, creating
// it if needed. Failures are collected per metric so one bad plot does not
// abort the rest.
func SaveAll(dir string, metrics quality.Metrics, logger golog.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "cannot create report directory %q", dir)
	}
	var errs error
	for _, m := range metrics.All() {
		if m.Len() == 0 {
			logger.Debugw("no samples to plot", "metric", m.Name())
			continue
		}
		fn := filepath.Join(dir, fileName(m.Name()))
		if err := Save(fn, m); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "cannot plot metric %q", m.Name()))
			continue
		}
		logger.Debugw("wrote metric plot", "metric", m.Name(), "path", fn)
	}
	return errs
}

// Save writes a single metric's series to the given image file. The image
// format follows the file extension.
func Save(path string, m *quality.Metric) error {
	p := plot.New()
	p.Title.Text = m.Name()
	p.X.Label.Text = "frame"
	p.Y.Label.Text = m.Unit()
	p.Y.Min, p.Y.Max = m.Bounds()
	p.Add(plotter.NewGrid())

	for _, band := range []quality.Band{quality.GreenBand, quality.YellowBand, quality.RedBand} {
		addBandBoundary(p, m, band)
	}

	values := m.Values()
	xys := make(plotter.XYs, len(values))
	for i, v := range values {
		xys[i].X = float64(i)
		xys[i].Y = float64(v)
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	p.Add(line)

	return p.Save(8*vg.Inch, 3*vg.Inch, path)
}

// addBandBoundary draws the upper edge of a severity band as a colored
// horizontal guide line, clipped to the metric's display range.
func addBandBoundary(p *plot.Plot, m *quality.Metric, band quality.Band) {
	min, max := m.Bounds()
	high := m.Band(band).High
	if high <= min || high >= max {
		return
	}
	guide, err := plotter.NewLine(plotter.XYs{
		{X: 0, Y: high},
		{X: float64(m.Len() - 1), Y: high},
	})
	if err != nil {
		return
	}
	guide.Color = bandColors[band]
	guide.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(guide)
}

// fileName turns a metric display name into a safe file name,
// e.g. "STD (Error)" becomes "std_error.png".
func fileName(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.TrimRight(b.String(), "_") + ".png"
}
