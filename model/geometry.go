package model

import "math"

// Point represents a 2D point in page space.
type Point struct {
	X, Y float64
}

// BBox represents a bounding box (rectangle) in PDF coordinates,
// where Y grows upward and (X, Y) is the bottom-left corner.
type BBox struct {
	X      float64 // Left
	Y      float64 // Bottom
	Width  float64
	Height float64
}

// Left returns the left edge X coordinate.
func (b BBox) Left() float64 { return b.X }

// Right returns the right edge X coordinate.
func (b BBox) Right() float64 { return b.X + b.Width }

// Bottom returns the bottom edge Y coordinate.
func (b BBox) Bottom() float64 { return b.Y }

// Top returns the top edge Y coordinate.
func (b BBox) Top() float64 { return b.Y + b.Height }

// Matrix is a PDF transformation matrix [a b c d e f] representing
//
//	| a b 0 |
//	| c d 0 |
//	| e f 1 |
type Matrix [6]float64

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Multiply returns m × other (other applied first, PDF convention:
// the result of "other cm" after m is other.Multiply-ed onto m).
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		other[0]*m[0] + other[1]*m[2],
		other[0]*m[1] + other[1]*m[3],
		other[2]*m[0] + other[3]*m[2],
		other[2]*m[1] + other[3]*m[3],
		other[4]*m[0] + other[5]*m[2] + m[4],
		other[4]*m[1] + other[5]*m[3] + m[5],
	}
}

// Transform applies the matrix to a point.
func (m Matrix) Transform(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// ScaleY returns the effective vertical scale factor of the matrix,
// used to derive the rendered font size from the nominal one.
func (m Matrix) ScaleY() float64 {
	return math.Hypot(m[2], m[3])
}

// ScaleX returns the effective horizontal scale factor of the matrix.
func (m Matrix) ScaleX() float64 {
	return math.Hypot(m[0], m[1])
}
