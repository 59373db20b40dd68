// Package pointcloud defines a point cloud and provides an implementation for one
// suited to dense depth-frame crops, along with plane geometry and PCD file I/O.
//
// Points are in camera space with units of meters.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// PointCloud is a general purpose container of points. The backing
// implementation here is a dense, append-only slice; region-of-interest
// crops of a depth frame arrive in scan order and duplicates are permitted.
type PointCloud interface {
	// Size returns the number of points in the cloud.
	Size() int

	// MetaData returns the bounding box of the stored points.
	MetaData() MetaData

	// Append adds a point to the cloud.
	Append(p r3.Vector)

	// At returns the i-th point in append order.
	At(i int) r3.Vector

	// Iterate calls the given function for each point in append order. If the
	// supplied function returns false, iteration stops.
	Iterate(fn func(i int, p r3.Vector) bool)
}

// NewMetaData returns an empty metadata ready to be merged into.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge expands the bounding box to include the given point.
func (meta *MetaData) Merge(v r3.Vector) {
	if v.X > meta.MaxX {
		meta.MaxX = v.X
	}
	if v.Y > meta.MaxY {
		meta.MaxY = v.Y
	}
	if v.Z > meta.MaxZ {
		meta.MaxZ = v.Z
	}
	if v.X < meta.MinX {
		meta.MinX = v.X
	}
	if v.Y < meta.MinY {
		meta.MinY = v.Y
	}
	if v.Z < meta.MinZ {
		meta.MinZ = v.Z
	}
}

type basicPointCloud struct {
	points []r3.Vector
	meta   MetaData
}

// New returns an empty PointCloud backed by a basicPointCloud.
func New() PointCloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty, preallocated PointCloud backed by a basicPointCloud.
func NewWithPrealloc(size int) PointCloud {
	return &basicPointCloud{
		points: make([]r3.Vector, 0, size),
		meta:   NewMetaData(),
	}
}

// NewFromVectors returns a PointCloud containing the given points.
func NewFromVectors(pts []r3.Vector) PointCloud {
	cloud := NewWithPrealloc(len(pts))
	for _, p := range pts {
		cloud.Append(p)
	}
	return cloud
}

func (cloud *basicPointCloud) Size() int {
	return len(cloud.points)
}

func (cloud *basicPointCloud) MetaData() MetaData {
	return cloud.meta
}

func (cloud *basicPointCloud) Append(p r3.Vector) {
	cloud.points = append(cloud.points, p)
	cloud.meta.Merge(p)
}

func (cloud *basicPointCloud) At(i int) r3.Vector {
	return cloud.points[i]
}

func (cloud *basicPointCloud) Iterate(fn func(i int, p r3.Vector) bool) {
	for i, p := range cloud.points {
		if !fn(i, p) {
			return
		}
	}
}

// ToVectors extracts the positions of the points from the cloud into a Vectors slice.
func ToVectors(cloud PointCloud) Vectors {
	positions := make(Vectors, 0, cloud.Size())
	cloud.Iterate(func(_ int, p r3.Vector) bool {
		positions = append(positions, p)
		return true
	})
	return positions
}
