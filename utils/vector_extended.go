package utils

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type Vector struct {
	V *mat.VecDense
}

// NewVector allocates a zeroed vector of length N, or wraps dataO[0] without
// copying when supplied.
func NewVector(N int, dataO ...[]float64) Vector {
	var (
		data []float64
	)
	if len(dataO) != 0 {
		data = dataO[0]
	}
	return Vector{mat.NewVecDense(N, data)}
}

func (v Vector) Len() int        { return v.V.Len() }
func (v Vector) Data() []float64 { return v.V.RawVector().Data }

// Norm is the L-norm of the vector, L = 2 gives sqrt(sum(x^2)).
func (v Vector) Norm(L float64) float64 { return floats.Norm(v.Data(), L) }

// Distance is the L-norm of v - a.
func (v Vector) Distance(a Vector, L float64) float64 {
	return floats.Distance(v.Data(), a.Data(), L)
}

func (v Vector) Max() float64 { return floats.Max(v.Data()) }

// RelativeL2 returns ||cand - ref||_2 / ||ref||_2
func RelativeL2(ref, cand Vector) float64 {
	return cand.Distance(ref, 2) / ref.Norm(2)
}
