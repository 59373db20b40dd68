package planefit

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	pc "github.com/viam-labs/depth-quality/pointcloud"
)

// wallCloud builds a dense grid on the plane z = distance + x*tan(tiltRad).
func wallCloud(distance, tiltRad float64) pc.PointCloud {
	cloud := pc.New()
	for x := -0.3; x <= 0.3; x += 0.05 {
		for y := -0.2; y <= 0.2; y += 0.05 {
			cloud.Append(r3.Vector{X: x, Y: y, Z: distance + x*math.Tan(tiltRad)})
		}
	}
	return cloud
}

func TestFitFlatWall(t *testing.T) {
	fitter := NewFitter(50, 0.005)
	plane, inliers, err := fitter.Fit(wallCloud(2.0, 0))
	test.That(t, err, test.ShouldBeNil)

	eq := plane.Equation()
	test.That(t, math.Abs(eq[0]), test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, math.Abs(eq[1]), test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, eq[2], test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, -eq[3], test.ShouldAlmostEqual, 2.0, 1e-9)
	test.That(t, plane.Normal().Norm(), test.ShouldAlmostEqual, 1)
	test.That(t, inliers.Size(), test.ShouldEqual, wallCloud(2.0, 0).Size())
}

func TestFitTiltedWall(t *testing.T) {
	tilt := math.Pi / 18 // 10 degrees
	fitter := NewFitter(50, 0.005)
	plane, _, err := fitter.Fit(wallCloud(1.5, tilt))
	test.That(t, err, test.ShouldBeNil)

	// plane z = d + x*tan(t) has normal prop. to (-tan(t), 0, 1), i.e. with
	// |z component| = cos(t) once normalized
	normal := plane.Normal()
	test.That(t, normal.Norm(), test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, math.Abs(normal.Z), test.ShouldAlmostEqual, math.Cos(tilt), 1e-9)
	// camera-at-origin convention: distance to the wall is -d
	test.That(t, plane.Offset(), test.ShouldBeLessThanOrEqualTo, 0)
	test.That(t, -plane.Offset(), test.ShouldAlmostEqual, 1.5*math.Cos(tilt), 1e-9)
}

func TestFitWithOutliers(t *testing.T) {
	cloud := wallCloud(1.0, 0)
	wallSize := cloud.Size()
	// scatter points well off the wall
	for i := 0; i < 8; i++ {
		cloud.Append(r3.Vector{X: float64(i) * 0.03, Y: 0.1, Z: 0.3 + float64(i)*0.08})
	}

	fitter := NewFitter(200, 0.005)
	plane, inliers, err := fitter.Fit(cloud)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, -plane.Equation()[3], test.ShouldAlmostEqual, 1.0, 1e-6)
	test.That(t, inliers.Size(), test.ShouldEqual, wallSize)
}

func TestFitDeterministic(t *testing.T) {
	cloud := wallCloud(1.2, math.Pi/36)
	plane1, _, err := NewFitter(30, 0.01).Fit(cloud)
	test.That(t, err, test.ShouldBeNil)
	plane2, _, err := NewFitter(30, 0.01).Fit(cloud)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plane1.Equation(), test.ShouldResemble, plane2.Equation())
}

func TestFitDegenerate(t *testing.T) {
	fitter := NewFitter(50, 0.01)

	_, _, err := fitter.Fit(pc.NewFromVectors([]r3.Vector{{X: 1}, {X: 2}}))
	test.That(t, err, test.ShouldNotBeNil)

	// collinear points never define a plane
	line := pc.New()
	for i := 0; i < 10; i++ {
		line.Append(r3.Vector{X: float64(i), Y: 0, Z: 1})
	}
	_, _, err = fitter.Fit(line)
	test.That(t, err, test.ShouldNotBeNil)
}
