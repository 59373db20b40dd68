package quality

import (
	"image"
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/viam-labs/depth-quality/pointcloud"
)

// OutlierCropFraction is the fraction of points discarded from each end of the
// distance-sorted samples before aggregate statistics are computed, so 5% of
// the most extreme points total are treated as outliers.
const OutlierCropFraction = 0.025

// StereoCalibration holds the two calibration scalars of a stereo depth sensor
// needed to convert plane-fit error into disparity error.
type StereoCalibration struct {
	// BaselineMM is the optical baseline in millimeters.
	BaselineMM float64
	// FocalLengthPX is the focal length as a multiple of pixel width.
	FocalLengthPX float64
}

// Validate checks that the calibration scalars are usable.
func (c StereoCalibration) Validate() error {
	var err error
	if c.BaselineMM <= 0 {
		err = multierr.Append(err, errors.Errorf("baseline must be positive, got %v mm", c.BaselineMM))
	}
	if c.FocalLengthPX <= 0 {
		err = multierr.Append(err, errors.Errorf("focal length must be positive, got %v px", c.FocalLengthPX))
	}
	return err
}

// Metrics is the fixed set of plane-fit quality metrics published per frame.
type Metrics struct {
	AvgError    *Metric
	StdError    *Metric
	SubpixelRMS *Metric
	FillRate    *Metric
	Distance    *Metric
	Angle       *Metric
}

// All returns the metrics in their publish order.
func (m Metrics) All() []*Metric {
	return []*Metric{m.AvgError, m.StdError, m.SubpixelRMS, m.Distance, m.Angle, m.FillRate}
}

// Analyzer computes plane-fit quality metrics for depth frames and appends one
// sample per metric per processed frame. Aside from those appends it is a pure
// function of its inputs; it holds no cross-frame state.
type Analyzer struct {
	metrics Metrics
}

// NewAnalyzer returns an analyzer publishing into the given metric set.
func NewAnalyzer(metrics Metrics) *Analyzer {
	return &Analyzer{metrics: metrics}
}

// Metrics returns the metric set the analyzer publishes into.
func (a *Analyzer) Metrics() Metrics {
	return a.metrics
}

// planeError is the per-point intermediate of one frame: the absolute distance
// from the fitted plane in millimeters, and the stereo disparity error implied
// by true versus plane-projected depth.
type planeError struct {
	distanceMM float64
	disparity  float64
}

// ProcessFrame computes the six quality metrics for one frame and appends a
// sample to each. The points are the frame's region-of-interest crop in camera
// space (meters); the plane is the fit supplied by the plane-fitting
// collaborator, with a unit normal that is assumed, not re-validated.
//
// On a DegenerateInputError no samples are published for the frame.
func (a *Analyzer) ProcessFrame(
	points []r3.Vector,
	plane *pointcloud.Plane,
	roi image.Rectangle,
	calib StereoCalibration,
) error {
	if err := calib.Validate(); err != nil {
		return errors.Wrap(err, "invalid stereo calibration")
	}
	roiArea := roi.Dx() * roi.Dy()
	if roiArea == 0 {
		return newDegenerateInputError("region of interest has zero area")
	}

	// unit conversion factor, meters to millimeters folded in
	bfFactor := calib.BaselineMM * calib.FocalLengthPX * 0.001

	calc := make([]planeError, 0, len(points))
	for _, point := range points {
		dist := plane.Distance(point)
		intersect := plane.Project(point)
		pointNorm := point.Norm()
		intersectNorm := intersect.Norm()
		if pointNorm == 0 || intersectNorm == 0 {
			return newDegenerateInputError("point with zero length")
		}
		calc = append(calc, planeError{
			distanceMM: math.Abs(dist) * 1000,
			disparity:  bfFactor/pointNorm - bfFactor/intersectNorm,
		})
	}

	sort.Slice(calc, func(i, j int) bool {
		return calc[i].distanceMM < calc[j].distanceMM
	})
	nOutliers := int(float64(len(calc)) * OutlierCropFraction)
	retainedCount := len(calc) - 2*nOutliers
	if retainedCount <= 0 {
		return newDegenerateInputError("no points retained after outlier trimming")
	}
	retained := calc[nOutliers : len(calc)-nOutliers]

	distances := make([]float64, retainedCount)
	disparities := make([]float64, retainedCount)
	for i, c := range retained {
		distances[i] = c.distanceMM
		disparities[i] = c.disparity
	}

	avgDist := stat.Mean(distances, nil)
	stdDist := stat.PopStdDev(distances, nil)
	subpixelRMS := math.Sqrt(floats.Dot(disparities, disparities) / float64(retainedCount))

	eq := plane.Equation()
	wallDistance := -eq[3]
	wallAngle := math.Acos(math.Abs(eq[2])) / math.Pi * 180

	fillRate := float64(len(points)) / float64(roiArea) * 100

	a.metrics.AvgError.AddValue(float32(avgDist))
	a.metrics.StdError.AddValue(float32(stdDist))
	a.metrics.SubpixelRMS.AddValue(float32(subpixelRMS))
	a.metrics.Distance.AddValue(float32(wallDistance))
	a.metrics.Angle.AddValue(float32(wallAngle))
	a.metrics.FillRate.AddValue(float32(fillRate))
	return nil
}
