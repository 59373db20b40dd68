package camera

import (
	"context"
	"image"
	"math"
	"math/rand"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/viam-labs/depth-quality/quality"
)

// SyntheticWallConfig describes a simulated flat wall seen through a pinhole
// camera. The wall is the plane z = DistanceM + x*tan(TiltDeg).
type SyntheticWallConfig struct {
	// DistanceM is the wall distance from the camera along the viewing axis, meters.
	DistanceM float64
	// TiltDeg rotates the wall about the vertical axis, degrees.
	TiltDeg float64
	// NoiseMM is the standard deviation of depth noise along each pixel ray, millimeters.
	NoiseMM float64
	// FillRate is the probability in [0, 1] that a pixel yields a valid point.
	FillRate float64
	// ROI is the analyzed pixel window; the principal point sits at its center.
	ROI image.Rectangle
	// Calibration is the simulated sensor's stereo calibration.
	Calibration quality.StereoCalibration
	// FrameInterval paces NextFrame calls. Zero means no pacing.
	FrameInterval time.Duration
	// Seed seeds the noise and dropout source.
	Seed int64
}

// Validate checks the configuration.
func (cfg SyntheticWallConfig) Validate() error {
	var err error
	if cfg.DistanceM <= 0 {
		err = multierr.Append(err, errors.Errorf("wall distance must be positive, got %v m", cfg.DistanceM))
	}
	if cfg.FillRate < 0 || cfg.FillRate > 1 {
		err = multierr.Append(err, errors.Errorf("fill rate must be in [0, 1], got %v", cfg.FillRate))
	}
	if cfg.NoiseMM < 0 {
		err = multierr.Append(err, errors.Errorf("noise must be non-negative, got %v mm", cfg.NoiseMM))
	}
	if cfg.ROI.Dx() <= 0 || cfg.ROI.Dy() <= 0 {
		err = multierr.Append(err, errors.Errorf("roi must have positive area, got %v", cfg.ROI))
	}
	return multierr.Append(err, cfg.Calibration.Validate())
}

// SyntheticWallSource is an endless Source of noisy observations of a flat wall.
type SyntheticWallSource struct {
	cfg SyntheticWallConfig
	r   *rand.Rand
}

// NewSyntheticWallSource returns a source simulating the configured wall.
func NewSyntheticWallSource(cfg SyntheticWallConfig) (*SyntheticWallSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid synthetic wall config")
	}
	//nolint:gosec
	return &SyntheticWallSource{cfg: cfg, r: rand.New(rand.NewSource(cfg.Seed))}, nil
}

// Plane returns the ground-truth wall plane in the camera-at-origin convention
// (unit normal, offset <= 0).
func (s *SyntheticWallSource) Plane() [4]float64 {
	tilt := s.cfg.TiltDeg * math.Pi / 180
	// z = D + x*tan(t)  =>  -sin(t)*x + cos(t)*z - D*cos(t) = 0
	return [4]float64{-math.Sin(tilt), 0, math.Cos(tilt), -s.cfg.DistanceM * math.Cos(tilt)}
}

// NextFrame simulates one frame. One candidate point is generated per ROI
// pixel, dropped with probability 1-FillRate, back-projected through the
// pinhole onto the wall, and perturbed along its ray by the depth noise.
func (s *SyntheticWallSource) NextFrame(ctx context.Context) (Frame, error) {
	if s.cfg.FrameInterval > 0 {
		if !goutils.SelectContextOrWait(ctx, s.cfg.FrameInterval) {
			return Frame{}, ctx.Err()
		}
	} else if ctx.Err() != nil {
		return Frame{}, ctx.Err()
	}

	roi := s.cfg.ROI
	focal := s.cfg.Calibration.FocalLengthPX
	cx := float64(roi.Min.X) + float64(roi.Dx())/2
	cy := float64(roi.Min.Y) + float64(roi.Dy())/2
	tanTilt := math.Tan(s.cfg.TiltDeg * math.Pi / 180)

	points := make([]r3.Vector, 0, roi.Dx()*roi.Dy())
	for y := roi.Min.Y; y < roi.Max.Y; y++ {
		for x := roi.Min.X; x < roi.Max.X; x++ {
			if s.cfg.FillRate < 1 && s.r.Float64() >= s.cfg.FillRate {
				continue
			}
			// normalized image coordinates of the pixel center
			nx := (float64(x) + 0.5 - cx) / focal
			ny := (float64(y) + 0.5 - cy) / focal
			denom := 1 - nx*tanTilt
			if denom <= 0 {
				// ray never hits the wall
				continue
			}
			z := s.cfg.DistanceM / denom
			if s.cfg.NoiseMM > 0 {
				z += s.r.NormFloat64() * s.cfg.NoiseMM * 0.001
			}
			points = append(points, r3.Vector{X: nx * z, Y: ny * z, Z: z})
		}
	}
	return Frame{Points: points, ROI: roi, Calibration: s.cfg.Calibration}, nil
}

// Close implements Source.
func (s *SyntheticWallSource) Close() error {
	return nil
}
