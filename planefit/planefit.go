// Package planefit fits planes to point clouds with RANSAC.
//
// The fitted plane follows the camera-at-origin convention used by the quality
// metrics: the equation is normalized to a unit normal with the offset
// coefficient d <= 0, so -d is the distance from the camera to the plane.
package planefit

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	pc "github.com/viam-labs/depth-quality/pointcloud"
)

// minSampleNorm rejects sampled triangles too close to collinear to define a plane.
const minSampleNorm = 1e-12

// Fitter runs RANSAC plane fits with a fixed iteration and inlier budget.
// The random source is deterministically seeded so a given cloud always
// produces the same fit.
type Fitter struct {
	nIterations int
	threshold   float64
	r           *rand.Rand
}

// NewFitter creates a fitter. nIterations is the number of RANSAC iterations;
// threshold is the maximum distance (in meters, the cloud units) from the
// candidate plane for a point to count as an inlier.
func NewFitter(nIterations int, threshold float64) *Fitter {
	return NewFitterWithSeed(nIterations, threshold, 1)
}

// NewFitterWithSeed creates a fitter with a specific random seed.
func NewFitterWithSeed(nIterations int, threshold float64, seed int64) *Fitter {
	//nolint:gosec
	return &Fitter{
		nIterations: nIterations,
		threshold:   threshold,
		r:           rand.New(rand.NewSource(seed)),
	}
}

// Fit segments the dominant plane in the cloud. It returns the fitted plane
// and the cloud of its inliers. Clouds with fewer than 3 points, or in which
// no valid plane hypothesis can be sampled, are errors.
func (f *Fitter) Fit(cloud pc.PointCloud) (*pc.Plane, pc.PointCloud, error) {
	nPoints := cloud.Size()
	if nPoints < 3 {
		return nil, nil, errors.Errorf("need at least 3 points to fit a plane, got %d", nPoints)
	}
	pts := pc.ToVectors(cloud)

	var bestEquation [4]float64
	bestInliers := 0

	for i := 0; i < f.nIterations; i++ {
		// sample 3 distinct points from the cloud
		n1 := f.r.Intn(nPoints)
		n2 := f.r.Intn(nPoints)
		n3 := f.r.Intn(nPoints)
		if n1 == n2 || n1 == n3 || n2 == n3 {
			continue
		}
		p1, p2, p3 := pts[n1], pts[n2], pts[n3]

		// two vectors defining the candidate plane
		v1 := p2.Sub(p1)
		v2 := p3.Sub(p1)
		cross := v1.Cross(v2)
		if cross.Norm() < minSampleNorm {
			// collinear sample
			continue
		}
		normal := cross.Normalize()
		equation := [4]float64{normal.X, normal.Y, normal.Z, -normal.Dot(p1)}

		inliers := countInliers(pts, equation, f.threshold)
		if inliers > bestInliers {
			bestInliers = inliers
			bestEquation = equation
		}
	}
	if bestInliers < 3 {
		return nil, nil, errors.New("no plane hypothesis found, cloud may be degenerate")
	}

	// orient so that the distance from the camera at the origin is -d >= 0
	if bestEquation[3] > 0 {
		for i := range bestEquation {
			bestEquation[i] = -bestEquation[i]
		}
	}
	plane := pc.NewPlane(bestEquation)

	inlierCloud := pc.NewWithPrealloc(bestInliers)
	cloud.Iterate(func(_ int, p r3.Vector) bool {
		if math.Abs(plane.Distance(p)) < f.threshold {
			inlierCloud.Append(p)
		}
		return true
	})
	return plane, inlierCloud, nil
}

func countInliers(pts []r3.Vector, equation [4]float64, threshold float64) int {
	count := 0
	for _, pt := range pts {
		dist := equation[0]*pt.X + equation[1]*pt.Y + equation[2]*pt.Z + equation[3]
		if math.Abs(dist) < threshold {
			count++
		}
	}
	return count
}
