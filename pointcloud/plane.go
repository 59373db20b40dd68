package pointcloud

import (
	"github.com/golang/geo/r3"
)

// Plane is a planar surface in camera space described by the implicit
// equation eq[0]x + eq[1]y + eq[2]z + eq[3] = 0. The normal (eq[0], eq[1], eq[2])
// is expected to be unit length; constructors here do not renormalize.
type Plane struct {
	equation [4]float64
}

// NewEmptyPlane initializes an empty plane object.
func NewEmptyPlane() *Plane {
	return &Plane{}
}

// NewPlane creates a plane from the coefficients of its implicit equation.
func NewPlane(equation [4]float64) *Plane {
	return &Plane{equation: equation}
}

// NewPlaneFromPoint creates the plane with the given unit normal that passes
// through the given point.
func NewPlaneFromPoint(normal, pt r3.Vector) *Plane {
	return &Plane{equation: [4]float64{normal.X, normal.Y, normal.Z, -normal.Dot(pt)}}
}

// Equation returns the plane equation [0]x + [1]y + [2]z + [3] = 0.
func (p *Plane) Equation() [4]float64 {
	return p.equation
}

// Normal returns the plane's normal vector.
func (p *Plane) Normal() r3.Vector {
	return r3.Vector{X: p.equation[0], Y: p.equation[1], Z: p.equation[2]}
}

// Offset returns the plane's offset coefficient, the fourth term of the equation.
func (p *Plane) Offset() float64 {
	return p.equation[3]
}

// Center returns the projection of the origin onto the plane.
func (p *Plane) Center() r3.Vector {
	return p.Normal().Mul(-p.equation[3])
}

// Distance calculates the signed distance from the plane to the input point.
// The sign follows the direction of the normal.
func (p *Plane) Distance(pt r3.Vector) float64 {
	return p.equation[0]*pt.X + p.equation[1]*pt.Y + p.equation[2]*pt.Z + p.equation[3]
}

// Project returns the orthogonal projection of the input point onto the plane.
func (p *Plane) Project(pt r3.Vector) r3.Vector {
	return pt.Sub(p.Normal().Mul(p.Distance(pt)))
}

// Intersect calculates the intersection of the plane with the line defined by
// the two input points. Returns nil if the line and plane are parallel.
func (p *Plane) Intersect(p0, p1 r3.Vector) *r3.Vector {
	line := p1.Sub(p0)
	parallel := p.Normal().Dot(line)
	if parallel == 0 {
		return nil
	}
	t := -p.Distance(p0) / parallel
	result := p0.Add(line.Mul(t))
	return &result
}
