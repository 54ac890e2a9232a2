// Package lens implements fisheye-style magnification transforms used to
// locally distort chart coordinates around a pointer position. A transform is
// constructed once per lens configuration and then applied to every visible
// datum on each pointer move, so all of the per-call work is a handful of
// float operations.
package lens

import (
	"fmt"
	"math"
)

// Transformation is the result of applying a one-dimensional lens to a
// coordinate.
type Transformation struct {
	XPrime        float64
	Magnification float64
}

// Transformation2D is the result of applying a radial lens to a point.
type Transformation2D struct {
	XPrime        float64
	YPrime        float64
	Magnification float64
}

// Transform magnifies a single coordinate around a movable center.
type Transform struct {
	radius float64
	power  float64
	k0, k1 float64
}

// Transform2D magnifies a point radially around a movable center.
type Transform2D struct {
	radius float64
	power  float64
	k0, k1 float64
}

func validate(radius, power float64) error {
	if power < 1 {
		return fmt.Errorf("power must be >= 1; got %v", power)
	}
	if radius <= 0 {
		return fmt.Errorf("radius must be >= 0; got %v", radius)
	}
	return nil
}

func coefficients(radius, power float64) (k0, k1 float64) {
	ep := math.Exp(power)
	k0 = radius * ep / (ep - 1)
	k1 = power / radius
	return k0, k1
}

// New constructs a one-dimensional lens. It returns an error if power is less
// than 1 or radius is not positive.
func New(radius, power float64) (Transform, error) {
	if err := validate(radius, power); err != nil {
		return Transform{}, err
	}
	k0, k1 := coefficients(radius, power)
	return Transform{radius: radius, power: power, k0: k0, k1: k1}, nil
}

// New2D constructs a radial lens with the same validation rules as New.
func New2D(radius, power float64) (Transform2D, error) {
	if err := validate(radius, power); err != nil {
		return Transform2D{}, err
	}
	k0, k1 := coefficients(radius, power)
	return Transform2D{radius: radius, power: power, k0: k0, k1: k1}, nil
}

// magnification evaluates the shared profile for a distance d already known
// to be inside the lens radius.
func magnification(k0, k1, d float64) float64 {
	return 0.25 + 0.75*k0*(1-math.Exp(-d*k1))/d
}

// At applies the lens centered at center to the coordinate x.
//
// Coordinates at or beyond the lens radius pass through unchanged with
// magnification 1, which keeps the transform continuous at the lens
// boundary. A lens with power 1 is the identity everywhere.
func (t Transform) At(center, x float64) Transformation {
	if t.power == 1 {
		return Transformation{XPrime: x, Magnification: 1}
	}
	if x == center {
		return Transformation{XPrime: x, Magnification: t.power}
	}
	d := math.Abs(x - center)
	if d >= t.radius {
		return Transformation{XPrime: x, Magnification: 1}
	}
	m := magnification(t.k0, t.k1, d)
	return Transformation{
		XPrime:        center + (x-center)*m,
		Magnification: m,
	}
}

// At applies the radial lens centered at (cx, cy) to the point (x, y).
func (t Transform2D) At(cx, cy, x, y float64) Transformation2D {
	if t.power == 1 {
		return Transformation2D{XPrime: x, YPrime: y, Magnification: 1}
	}
	dx := x - cx
	dy := y - cy
	d := math.Hypot(dx, dy)
	if d >= t.radius {
		return Transformation2D{XPrime: x, YPrime: y, Magnification: 1}
	}
	if d < 1e-6 {
		// Limit of the profile as d approaches zero.
		return Transformation2D{XPrime: x, YPrime: y, Magnification: 0.25 + 0.75*t.k0*t.k1}
	}
	m := magnification(t.k0, t.k1, d)
	return Transformation2D{
		XPrime:        cx + dx*m,
		YPrime:        cy + dy*m,
		Magnification: m,
	}
}

// Radius reports the lens radius.
func (t Transform) Radius() float64 { return t.radius }

// Power reports the lens power.
func (t Transform) Power() float64 { return t.power }

// Radius reports the lens radius.
func (t Transform2D) Radius() float64 { return t.radius }

// Power reports the lens power.
func (t Transform2D) Power() float64 { return t.power }

// Identity returns a coordinate unchanged with magnification 1. It stands in
// for a Transform when no lens is active.
func Identity(center, x float64) Transformation {
	return Transformation{XPrime: x, Magnification: 1}
}

// Identity2D returns a point unchanged with magnification 1.
func Identity2D(cx, cy, x, y float64) Transformation2D {
	return Transformation2D{XPrime: x, YPrime: y, Magnification: 1}
}
