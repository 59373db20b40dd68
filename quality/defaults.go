package quality

import (
	"github.com/benbjohnson/clock"
)

// DefaultMetrics returns the standard depth-quality metric set with the
// display ranges and severity bands used by the interactive tool. capacity
// bounds each series (0 = unbounded); all metrics share the given clock
// (nil = wall clock).
func DefaultMetrics(capacity int, c clock.Clock) Metrics {
	return Metrics{
		AvgError: NewMetric(Config{
			Name: "Average Error",
			Min:  0, Max: 10,
			Unit: "(mm)",
			Description: "Average Distance from Plane Fit\n" +
				"This metric approximates a plane within\n" +
				"the ROI and calculates the average\n" +
				"distance of points in the ROI\n" +
				"from that plane, in mm",
			Bands: BandSet{
				Green:  Range{0, 1},
				Yellow: Range{1, 7},
				Red:    Range{7, 1000},
			},
			Capacity: capacity,
			Clock:    c,
		}),
		StdError: NewMetric(Config{
			Name: "STD (Error)",
			Min:  0, Max: 10,
			Unit: "(mm)",
			Description: "Standard Deviation from Plane Fit\n" +
				"This metric approximates a plane within\n" +
				"the ROI and calculates the\n" +
				"standard deviation of distances\n" +
				"of points in the ROI from that plane",
			Bands: BandSet{
				Green:  Range{0, 1},
				Yellow: Range{1, 7},
				Red:    Range{7, 1000},
			},
			Capacity: capacity,
			Clock:    c,
		}),
		SubpixelRMS: NewMetric(Config{
			Name: "Subpixel RMS",
			Min:  0, Max: 1,
			Unit: "(mm)",
			Description: "Normalized RMS from the Plane Fit.\n" +
				"This metric provides the subpixel accuracy\n" +
				"and is calculated as follows:\n" +
				"Zi - depth of i-th pixel (mm)\n" +
				"Zpi - depth Zi's projection onto plane fit (mm)\n" +
				"BL - optical baseline (mm)\n" +
				"FL - focal length, as a multiple of pixel width\n" +
				"Di = BL*FL/Zi; Dpi = Bl*FL/Zpi\n" +
				"              n      \n" +
				"RMS = SQRT((SUM(Di-Dpi)^2)/n)\n" +
				"             i=0    \n",
			Bands: BandSet{
				Green:  Range{0, 0.1},
				Yellow: Range{0.1, 0.5},
				Red:    Range{0.5, 1},
			},
			Capacity: capacity,
			Clock:    c,
		}),
		FillRate: NewMetric(Config{
			Name: "Fill-Rate",
			Min:  0, Max: 100,
			Unit: "%",
			Description: "Fill Rate\n" +
				"Percentage of pixels with valid depth values\n" +
				"out of all pixels within the ROI",
			Bands: BandSet{
				Green:  Range{90, 100},
				Yellow: Range{50, 90},
				Red:    Range{0, 50},
			},
			Capacity: capacity,
			Clock:    c,
		}),
		Distance: NewMetric(Config{
			Name: "Distance",
			Min:  0, Max: 5,
			Unit: "(m)",
			Description: "Approximate Distance\n" +
				"When facing a flat wall at right angle\n" +
				"this metric estimates the distance\n" +
				"in meters to that wall",
			Bands: BandSet{
				Green:  Range{0, 2},
				Yellow: Range{2, 3},
				Red:    Range{3, 7},
			},
			Capacity: capacity,
			Clock:    c,
		}),
		Angle: NewMetric(Config{
			Name: "Angle",
			Min:  0, Max: 180,
			Unit: "(deg)",
			Description: "Wall Angle\n" +
				"When facing a flat wall this metric\n" +
				"estimates the angle to the wall.",
			Bands: BandSet{
				Green:  Range{-5, 5},
				Yellow: Range{-10, 10},
				Red:    Range{-100, 100},
			},
			Capacity: capacity,
			Clock:    c,
		}),
	}
}
