package quality

import (
	"image"
	"math"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/viam-labs/depth-quality/pointcloud"
)

var testCalib = StereoCalibration{BaselineMM: 50, FocalLengthPX: 500}

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(DefaultMetrics(0, clock.NewMock()))
}

// unitSquareFrame is four points forming a unit square on the wall at z=1.
func unitSquareFrame() []r3.Vector {
	return []r3.Vector{
		{X: 0, Y: 0, Z: 1},
		{X: 1, Y: 0, Z: 1},
		{X: 0, Y: 1, Z: 1},
		{X: 1, Y: 1, Z: 1},
	}
}

func TestProcessFrameFlatWall(t *testing.T) {
	a := newTestAnalyzer()
	plane := pointcloud.NewPlane([4]float64{0, 0, 1, -1})
	err := a.ProcessFrame(unitSquareFrame(), plane, image.Rect(0, 0, 2, 2), testCalib)
	test.That(t, err, test.ShouldBeNil)

	metrics := a.Metrics()
	for _, m := range metrics.All() {
		test.That(t, m.Len(), test.ShouldEqual, 1)
	}
	test.That(t, float64(metrics.AvgError.Values()[0]), test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, float64(metrics.StdError.Values()[0]), test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, float64(metrics.SubpixelRMS.Values()[0]), test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, float64(metrics.FillRate.Values()[0]), test.ShouldAlmostEqual, 100)
	test.That(t, float64(metrics.Distance.Values()[0]), test.ShouldAlmostEqual, 1.0)
	test.That(t, float64(metrics.Angle.Values()[0]), test.ShouldAlmostEqual, 0)
}

func TestProcessFrameTiltedWall(t *testing.T) {
	// all points exactly on a 45 degree wall; errors stay zero, angle does not
	a := newTestAnalyzer()
	s := math.Sqrt2 / 2
	plane := pointcloud.NewPlane([4]float64{s, 0, s, -s})
	points := []r3.Vector{}
	for _, x := range []float64{-0.2, -0.1, 0, 0.1, 0.2} {
		for _, y := range []float64{-0.2, 0, 0.2} {
			points = append(points, r3.Vector{X: x, Y: y, Z: 1 - x})
		}
	}
	err := a.ProcessFrame(points, plane, image.Rect(0, 0, 5, 3), testCalib)
	test.That(t, err, test.ShouldBeNil)

	metrics := a.Metrics()
	test.That(t, float64(metrics.AvgError.Values()[0]), test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, float64(metrics.StdError.Values()[0]), test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, float64(metrics.SubpixelRMS.Values()[0]), test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, float64(metrics.Angle.Values()[0]), test.ShouldAlmostEqual, 45, 1e-4)
	test.That(t, float64(metrics.FillRate.Values()[0]), test.ShouldAlmostEqual, 100)
}

func TestProcessFrameSideWall(t *testing.T) {
	a := newTestAnalyzer()
	plane := pointcloud.NewPlane([4]float64{1, 0, 0, -1})
	points := []r3.Vector{
		{X: 1, Y: 0, Z: 1},
		{X: 1, Y: 0.5, Z: 2},
		{X: 1, Y: -0.5, Z: 3},
	}
	err := a.ProcessFrame(points, plane, image.Rect(0, 0, 3, 1), testCalib)
	test.That(t, err, test.ShouldBeNil)

	metrics := a.Metrics()
	test.That(t, float64(metrics.Angle.Values()[0]), test.ShouldAlmostEqual, 90, 1e-4)
	test.That(t, float64(metrics.Distance.Values()[0]), test.ShouldAlmostEqual, 1.0)
}

func TestProcessFrameOutlierTrim(t *testing.T) {
	// 80 points spread along the normal so the plane distances in mm are
	// exactly 1..80; floor(80*0.025) = 2 are dropped from each end.
	a := newTestAnalyzer()
	plane := pointcloud.NewPlane([4]float64{0, 0, 1, -1})
	points := make([]r3.Vector, 0, 80)
	for i := 1; i <= 80; i++ {
		points = append(points, r3.Vector{X: 0, Y: 0, Z: 1 + float64(i)/1000})
	}
	err := a.ProcessFrame(points, plane, image.Rect(0, 0, 10, 8), testCalib)
	test.That(t, err, test.ShouldBeNil)

	metrics := a.Metrics()
	// mean of 3..78
	test.That(t, float64(metrics.AvgError.Values()[0]), test.ShouldAlmostEqual, 40.5, 1e-3)
	// population stddev of 76 consecutive integers: sqrt((76^2-1)/12)
	test.That(t, float64(metrics.StdError.Values()[0]), test.ShouldAlmostEqual, math.Sqrt(5775.0/12.0), 1e-3)
	// off-plane points imply a disparity error
	test.That(t, metrics.SubpixelRMS.Values()[0], test.ShouldBeGreaterThan, float32(0))
}

func TestProcessFrameFillRateOverfilled(t *testing.T) {
	// multiple valid samples can map to the same pixel; fill rate is not clamped
	a := newTestAnalyzer()
	plane := pointcloud.NewPlane([4]float64{0, 0, 1, -1})
	points := make([]r3.Vector, 0, 10)
	for i := 0; i < 10; i++ {
		points = append(points, r3.Vector{X: 0.1, Y: 0.1, Z: 1})
	}
	err := a.ProcessFrame(points, plane, image.Rect(0, 0, 3, 3), testCalib)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, float64(a.Metrics().FillRate.Values()[0]), test.ShouldAlmostEqual, 1000.0/9.0, 1e-3)
}

func TestProcessFrameIdempotent(t *testing.T) {
	a := newTestAnalyzer()
	plane := pointcloud.NewPlane([4]float64{0, 0, 1, -1.5})
	points := []r3.Vector{
		{X: 0.1, Y: 0, Z: 1.502},
		{X: -0.1, Y: 0.2, Z: 1.499},
		{X: 0, Y: -0.2, Z: 1.5},
		{X: 0.2, Y: 0.1, Z: 1.501},
	}
	roi := image.Rect(0, 0, 2, 2)
	test.That(t, a.ProcessFrame(points, plane, roi, testCalib), test.ShouldBeNil)
	test.That(t, a.ProcessFrame(points, plane, roi, testCalib), test.ShouldBeNil)

	for _, m := range a.Metrics().All() {
		values := m.Values()
		test.That(t, values, test.ShouldHaveLength, 2)
		test.That(t, values[0], test.ShouldEqual, values[1])
	}
}

func TestProcessFrameDegenerate(t *testing.T) {
	plane := pointcloud.NewPlane([4]float64{0, 0, 1, -1})

	t.Run("no points", func(t *testing.T) {
		a := newTestAnalyzer()
		err := a.ProcessFrame(nil, plane, image.Rect(0, 0, 2, 2), testCalib)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, IsDegenerateInputError(err), test.ShouldBeTrue)
		for _, m := range a.Metrics().All() {
			test.That(t, m.Len(), test.ShouldEqual, 0)
		}
	})

	t.Run("zero area roi", func(t *testing.T) {
		a := newTestAnalyzer()
		err := a.ProcessFrame(unitSquareFrame(), plane, image.Rect(0, 0, 0, 5), testCalib)
		test.That(t, IsDegenerateInputError(err), test.ShouldBeTrue)
	})

	t.Run("point at origin", func(t *testing.T) {
		a := newTestAnalyzer()
		err := a.ProcessFrame([]r3.Vector{{}}, plane, image.Rect(0, 0, 1, 1), testCalib)
		test.That(t, IsDegenerateInputError(err), test.ShouldBeTrue)
	})

	t.Run("projection at origin", func(t *testing.T) {
		a := newTestAnalyzer()
		originPlane := pointcloud.NewPlane([4]float64{0, 0, 1, 0})
		err := a.ProcessFrame([]r3.Vector{{X: 0, Y: 0, Z: 5}}, originPlane, image.Rect(0, 0, 1, 1), testCalib)
		test.That(t, IsDegenerateInputError(err), test.ShouldBeTrue)
	})
}

func TestProcessFrameBadCalibration(t *testing.T) {
	a := newTestAnalyzer()
	plane := pointcloud.NewPlane([4]float64{0, 0, 1, -1})
	err := a.ProcessFrame(unitSquareFrame(), plane, image.Rect(0, 0, 2, 2), StereoCalibration{BaselineMM: -1})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, IsDegenerateInputError(err), test.ShouldBeFalse)
	for _, m := range a.Metrics().All() {
		test.That(t, m.Len(), test.ShouldEqual, 0)
	}
}

func TestStereoCalibrationValidate(t *testing.T) {
	test.That(t, testCalib.Validate(), test.ShouldBeNil)
	test.That(t, StereoCalibration{BaselineMM: 50}.Validate(), test.ShouldNotBeNil)
	test.That(t, StereoCalibration{FocalLengthPX: 500}.Validate(), test.ShouldNotBeNil)
	test.That(t, StereoCalibration{}.Validate(), test.ShouldNotBeNil)
}
