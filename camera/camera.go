// Package camera provides per-frame point cloud sources for depth quality
// analysis: a synthetic wall simulator and a capture-file reader.
package camera

import (
	"context"
	"image"

	"github.com/golang/geo/r3"

	"github.com/viam-labs/depth-quality/quality"
)

// Frame is one captured depth frame reduced to its region of interest: the 3-D
// points of the crop in camera space (meters), the pixel bounds of the crop,
// and the stereo calibration of the producing sensor.
type Frame struct {
	Points      []r3.Vector
	ROI         image.Rectangle
	Calibration quality.StereoCalibration
}

// Source supplies frames, one per call, until exhausted.
type Source interface {
	// NextFrame returns the next frame. It returns io.EOF when the source has
	// no more frames to give.
	NextFrame(ctx context.Context) (Frame, error)

	// Close releases any resources held by the source.
	Close() error
}
