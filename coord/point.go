package coord

import "math"

type Point struct{ X, Y, Z float64 }

func (p Point) Mul(val float64) Point {
	p.X *= val
	p.Y *= val
	p.Z *= val
	return p
}

func (p Point) Div(val float64) Point {
	p.X /= val
	p.Y /= val
	p.Z /= val
	return p
}

// Add will add the target values to p.
func (p Point) Add(target Point) Point {
	p.X += target.X
	p.Y += target.Y
	p.Z += target.Z
	return p
}

// Sub will subtract the target values from p.
func (p Point) Sub(target Point) Point {
	p.X -= target.X
	p.Y -= target.Y
	p.Z -= target.Z
	return p
}

// Clamp limits each axis of p to the box spanned by a and b.
func (p Point) Clamp(a, b Point) Point {
	p.X = clamp(p.X, a.X, b.X)
	p.Y = clamp(p.Y, a.Y, b.Y)
	p.Z = clamp(p.Z, a.Z, b.Z)
	return p
}

func clamp(v, a, b float64) float64 {
	lo, hi := math.Min(a, b), math.Max(a, b)
	return math.Max(lo, math.Min(hi, v))
}

// Step returns the i'th of n evenly spaced points from p to the target.
//
// Step 0 is p and step n is exactly the target; intermediate points are
// computed from the index rather than accumulated, and never leave the
// segment.
func (p Point) Step(target Point, i, n int) Point {
	if i <= 0 {
		return p
	}
	if i >= n {
		return target
	}
	d := target.Sub(p).Div(float64(n))
	return p.Add(d.Mul(float64(i))).Clamp(p, target)
}
