package spglm

import (
	"fmt"
	"math"
)

// VarianceType is used to specify a GLM variance function.
type VarianceType uint8

// ConstantVar, etc. indicate the different variance functions.
const (
	ConstantVar VarianceType = iota
	IdentityVar
	SquaredVar
	CubedVar
	PowerVar
	BinomialVar
	NegBinomVar
)

// NewVariance returns a new variance function object corresponding to
// the given type code.  Supported values are constant, identity,
// squared, cubed, and binomial (with one trial per observation).
// Power variance functions with other exponents are obtained from
// NewPowerVariance, binomial variance functions with other trial
// counts from NewBinomialVariance, and negative binomial variance
// functions from NewNegBinomVariance.
func NewVariance(vartype VarianceType) *Variance {

	switch vartype {
	case ConstantVar:
		return &constVariance
	case IdentityVar:
		return &identVariance
	case SquaredVar:
		return &squaredVariance
	case CubedVar:
		return &cubedVariance
	case BinomialVar:
		return NewBinomialVariance(nil)
	case NegBinomVar:
		return NewNegBinomVariance(1)
	case PowerVar:
		panic("Power variance functions must be constructed with NewPowerVariance\n")
	default:
		msg := fmt.Sprintf("Unknown variance function: %d\n", vartype)
		panic(msg)
	}
}

// Variance represents a GLM variance function, relating the variance
// of an observation to its mean.
type Variance struct {
	Name     string
	TypeCode VarianceType
	Var      VecFunc
	Deriv    VecFunc
}

var constVariance = Variance{
	Name:     "Constant",
	TypeCode: ConstantVar,
	Var:      constVar,
	Deriv:    constVarDeriv,
}

var identVariance = Variance{
	Name:     "Identity",
	TypeCode: IdentityVar,
	Var:      identVar,
	Deriv:    identVarDeriv,
}

var squaredVariance = Variance{
	Name:     "Squared",
	TypeCode: SquaredVar,
	Var:      squaredVar,
	Deriv:    squaredVarDeriv,
}

var cubedVariance = Variance{
	Name:     "Cubed",
	TypeCode: CubedVar,
	Var:      cubedVar,
	Deriv:    cubedVarDeriv,
}

func constVar(mn []float64, v []float64) {
	one(v)
}

func constVarDeriv(mn []float64, v []float64) {
	zero(v)
}

func identVar(mn []float64, v []float64) {
	copy(v, mn)
}

func identVarDeriv(mn []float64, v []float64) {
	one(v)
}

func squaredVar(mn []float64, v []float64) {
	for i, m := range mn {
		v[i] = m * m
	}
}

func squaredVarDeriv(mn []float64, v []float64) {
	for i, m := range mn {
		v[i] = 2 * m
	}
}

func cubedVar(mn []float64, v []float64) {
	for i, m := range mn {
		v[i] = m * m * m
	}
}

func cubedVarDeriv(mn []float64, v []float64) {
	for i, m := range mn {
		v[i] = 3 * m * m
	}
}

// NewPowerVariance returns a variance function of the form |m|^pw for
// mean m.  The derivative is obtained by numeric differentiation.
func NewPowerVariance(pw float64) *Variance {

	switch pw {
	case 1:
		return &identVariance
	case 2:
		return &squaredVariance
	case 3:
		return &cubedVariance
	}

	vaf := func(mn []float64, v []float64) {
		for i, m := range mn {
			v[i] = math.Pow(math.Abs(m), pw)
		}
	}

	f := func(m float64) float64 {
		return math.Pow(math.Abs(m), pw)
	}

	vad := func(mn []float64, v []float64) {
		for i, m := range mn {
			v[i] = derivNumeric(f, m)
		}
	}

	return &Variance{
		Name:     fmt.Sprintf("Power(%v)", pw),
		TypeCode: PowerVar,
		Var:      vaf,
		Deriv:    vad,
	}
}

// NewBinomialVariance returns the binomial variance function for the
// given per-observation trial counts.  A nil value for n indicates one
// trial per observation, which is appropriate for a binary response.
// The variance for mean m is p*(1-p)*n with p = m/n, where p is
// clipped away from 0 and 1.
func NewBinomialVariance(n []float64) *Variance {

	trials := func(i int) float64 {
		if n == nil {
			return 1
		}
		return n[i]
	}

	vaf := func(mn []float64, v []float64) {
		for i, m := range mn {
			t := trials(i)
			p := clipProb(m / t)
			v[i] = p * (1 - p) * t
		}
	}

	vad := func(mn []float64, v []float64) {
		for i, m := range mn {
			t := trials(i)
			p := clipProb(m / t)
			v[i] = 1 - 2*p
		}
	}

	return &Variance{
		Name:     "Binomial",
		TypeCode: BinomialVar,
		Var:      vaf,
		Deriv:    vad,
	}
}

// NewNegBinomVariance returns a variance function for the negative
// binomial family, using the given parameter alpha to determine the
// mean/variance relationship.  The variance for mean m is m +
// alpha*m^2.
func NewNegBinomVariance(alpha float64) *Variance {

	vaf := func(mn []float64, v []float64) {
		for i, m := range mn {
			p := clipPos(m)
			v[i] = p + alpha*p*p
		}
	}

	vad := func(mn []float64, v []float64) {
		for i, m := range mn {
			v[i] = 1 + 2*alpha*clipPos(m)
		}
	}

	return &Variance{
		Name:     "NegBinom",
		TypeCode: NegBinomVar,
		Var:      vaf,
		Deriv:    vad,
	}
}

// zero sets all elements of the slice to 0.
func zero(x []float64) {
	for i := range x {
		x[i] = 0
	}
}

// one sets all elements of the slice to 1.
func one(x []float64) {
	for i := range x {
		x[i] = 1
	}
}
