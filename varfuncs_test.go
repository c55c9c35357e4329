package spglm

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
)

// A variance function test problem.  The means are interior points of
// the variance function's valid domain.
type vartestprob struct {
	title string
	vari  *Variance
	means []float64
	want  []float64
}

var varTests = []vartestprob{
	{
		title: "Constant",
		vari:  NewVariance(ConstantVar),
		means: []float64{-1, 0.5, 2, 10},
		want:  []float64{1, 1, 1, 1},
	},
	{
		title: "Identity",
		vari:  NewVariance(IdentityVar),
		means: []float64{0.5, 1, 2, 10},
		want:  []float64{0.5, 1, 2, 10},
	},
	{
		title: "Squared",
		vari:  NewVariance(SquaredVar),
		means: []float64{0.5, 1, 2, 10},
		want:  []float64{0.25, 1, 4, 100},
	},
	{
		title: "Cubed",
		vari:  NewVariance(CubedVar),
		means: []float64{0.5, 1, 2, 10},
		want:  []float64{0.125, 1, 8, 1000},
	},
	{
		title: "Power 1.5",
		vari:  NewPowerVariance(1.5),
		means: []float64{0.25, 1, 4},
		want:  []float64{0.125, 1, 8},
	},
	{
		title: "Binomial",
		vari:  NewBinomialVariance(nil),
		means: []float64{0.1, 0.5, 0.9},
		want:  []float64{0.09, 0.25, 0.09},
	},
	{
		title: "Binomial n=10",
		vari:  NewBinomialVariance([]float64{10, 10, 10}),
		means: []float64{1, 5, 9},
		want:  []float64{0.9, 2.5, 0.9},
	},
	{
		title: "NegBinom 1",
		vari:  NewNegBinomVariance(1),
		means: []float64{0.5, 1, 2},
		want:  []float64{0.75, 2, 6},
	},
	{
		title: "NegBinom 0.5",
		vari:  NewNegBinomVariance(0.5),
		means: []float64{0.5, 1, 2},
		want:  []float64{0.625, 1.5, 4},
	},
}

func TestVarianceValues(t *testing.T) {

	for _, vt := range varTests {

		v := make([]float64, len(vt.means))
		vt.vari.Var(vt.means, v)

		if !floats.EqualApprox(v, vt.want, 1e-10) {
			t.Errorf("%s: Var(%v)=%v, want %v", vt.title, vt.means, v, vt.want)
		}

		for i := range v {
			if v[i] < 0 {
				t.Errorf("%s: negative variance %v at mean %v", vt.title, v[i], vt.means[i])
			}
		}
	}
}

func TestVarianceDeriv(t *testing.T) {

	for _, vt := range varTests {

		if vt.title == "Binomial n=10" {
			// The trial counts are positional, handled below.
			continue
		}

		f := scalar(vt.vari.Var)
		dv := make([]float64, len(vt.means))
		vt.vari.Deriv(vt.means, dv)

		for i, m := range vt.means {
			nd := fd.Derivative(f, m, &fd.Settings{Formula: fd.Central})
			if !scalarClose(dv[i], nd, 1e-4*(1+math.Abs(nd))) {
				t.Errorf("%s: Deriv(%v)=%v, numeric derivative %v", vt.title, m, dv[i], nd)
			}
		}
	}
}

func TestBinomialVarianceTrials(t *testing.T) {

	va := NewBinomialVariance([]float64{10})
	f := scalar(va.Var)

	for _, m := range []float64{1, 5, 9} {
		var dv [1]float64
		va.Deriv([]float64{m}, dv[:])
		nd := fd.Derivative(f, m, &fd.Settings{Formula: fd.Central})
		if !scalarClose(dv[0], nd, 1e-4*(1+math.Abs(nd))) {
			t.Errorf("Binomial n=10: Deriv(%v)=%v, numeric derivative %v", m, dv[0], nd)
		}
	}
}

// The binomial and negative binomial variance functions clip their
// arguments, so boundary means produce small positive variances rather
// than zeros or negative values.
func TestVarianceBoundary(t *testing.T) {

	va := NewBinomialVariance(nil)
	v := make([]float64, 2)
	va.Var([]float64{0, 1}, v)
	for i, x := range v {
		if x < 0 || math.IsNaN(x) {
			t.Errorf("Binomial variance at boundary: got %v at position %d", x, i)
		}
	}

	nb := NewNegBinomVariance(1)
	nb.Var([]float64{0}, v[0:1])
	if v[0] < 0 || math.IsNaN(v[0]) {
		t.Errorf("NegBinom variance at boundary: got %v", v[0])
	}
}

func TestNegBinomVarDeriv(t *testing.T) {

	for _, alpha := range []float64{0.5, 1, 2} {
		va := NewNegBinomVariance(alpha)
		means := []float64{0.5, 1, 3}
		dv := make([]float64, len(means))
		va.Deriv(means, dv)

		for i, m := range means {
			want := 1 + 2*alpha*m
			if !scalarClose(dv[i], want, 1e-10) {
				t.Errorf("NegBinom(%v): Deriv(%v)=%v, want %v", alpha, m, dv[i], want)
			}
		}
	}
}
