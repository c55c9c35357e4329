package spglm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// VecFunc is a function with two float64 array arguments.  The first
// argument is the input and the second argument holds the result.
type VecFunc func([]float64, []float64)

// floatEps is the machine epsilon for 64-bit floating point values.
var floatEps = math.Nextafter(1, 2) - 1

// clipProb clips p into the open unit interval (floatEps, 1-floatEps).
func clipProb(p float64) float64 {
	if p < floatEps {
		return floatEps
	}
	if p > 1-floatEps {
		return 1 - floatEps
	}
	return p
}

// clipPos clips x into (floatEps, inf).
func clipPos(x float64) float64 {
	if x < floatEps {
		return floatEps
	}
	return x
}

// Link specifies a GLM link function.
type Link struct {
	Name string

	TypeCode LinkType

	// Link calculates the link function (mapping the mean value to
	// the linear predictor).
	Link VecFunc

	// InvLink calculates the inverse of the link function (mapping
	// the linear predictor to the mean value).
	InvLink VecFunc

	// Deriv calculates the derivative of the link function.
	Deriv VecFunc

	// Deriv2 calculates the second derivative of the link function.
	Deriv2 VecFunc

	// InvDeriv calculates the derivative of the inverse link
	// function with respect to the linear predictor.
	InvDeriv VecFunc
}

// LinkType is used to specify a GLM link function.
type LinkType uint8

// LogLink, etc. indicate the different link functions.
const (
	LogLink LinkType = iota
	IdentityLink
	SqrtLink
	RecipLink
	RecipSquaredLink
	PowerLink
	LogitLink
	ProbitLink
	CauchyLink
	CloglogLink
	CDFLink
	NegBinomLink
)

// NewLink returns a link function object corresponding to the given
// type code.  Supported values are log, identity, sqrt, recip,
// recipsquared, logit, probit, cauchy, cloglog, and negbinom (with
// alpha = 1).  Power links with other exponents are obtained from
// NewPowerLink, CDF links for other distributions from NewCDFLink,
// and negative binomial links with other parameters from
// NewNegBinomLink.
func NewLink(link LinkType) *Link {

	switch link {
	case LogLink:
		return &logLink
	case IdentityLink:
		return &idLink
	case SqrtLink:
		return &sqrtLink
	case RecipLink:
		return &recipLink
	case RecipSquaredLink:
		return &recipSquaredLink
	case LogitLink:
		return &logitLink
	case ProbitLink:
		return &probitLink
	case CauchyLink:
		return &cauchyLink
	case CloglogLink:
		return &cLogLogLink
	case NegBinomLink:
		return NewNegBinomLink(1)
	case PowerLink:
		panic("Power links must be constructed with NewPowerLink\n")
	case CDFLink:
		panic("CDF links must be constructed with NewCDFLink\n")
	default:
		msg := fmt.Sprintf("Link unknown: %v\n", link)
		panic(msg)
	}
}

var logLink = Link{
	Name:     "Log",
	TypeCode: LogLink,
	Link:     logFunc,
	InvLink:  expFunc,
	Deriv:    logDerivFunc,
	Deriv2:   logDeriv2Func,
	InvDeriv: expFunc,
}

var idLink = Link{
	Name:     "Identity",
	TypeCode: IdentityLink,
	Link:     idFunc,
	InvLink:  idFunc,
	Deriv:    idDerivFunc,
	Deriv2:   idDeriv2Func,
	InvDeriv: idDerivFunc,
}

var sqrtLink = newPowerLink(0.5, "Sqrt", SqrtLink)

var recipLink = newPowerLink(-1, "Recip", RecipLink)

var recipSquaredLink = newPowerLink(-2, "RecipSquared", RecipSquaredLink)

var logitLink = Link{
	Name:     "Logit",
	TypeCode: LogitLink,
	Link:     logitFunc,
	InvLink:  expitFunc,
	Deriv:    logitDerivFunc,
	Deriv2:   logitDeriv2Func,
	InvDeriv: expitDerivFunc,
}

var probitLink = newCDFLink(distuv.Normal{Mu: 0, Sigma: 1}, "Probit", ProbitLink)

var cauchyLink = newCauchyLink()

var cLogLogLink = Link{
	Name:     "CLogLog",
	TypeCode: CloglogLink,
	Link:     cloglogFunc,
	InvLink:  cloglogInvFunc,
	Deriv:    cloglogDerivFunc,
	Deriv2:   cloglogDeriv2Func,
	InvDeriv: cloglogInvDerivFunc,
}

// NewPowerLink returns a power link function with the given exponent.
// The exponents 1, 0.5, -1, and -2 give the identity, sqrt, recip, and
// recipsquared links respectively.
func NewPowerLink(pw float64) *Link {

	switch pw {
	case 1:
		return &idLink
	case 0.5:
		return &sqrtLink
	case -1:
		return &recipLink
	case -2:
		return &recipSquaredLink
	}

	link := newPowerLink(pw, fmt.Sprintf("Power(%v)", pw), PowerLink)
	return &link
}

func newPowerLink(pw float64, name string, tc LinkType) Link {

	return Link{
		Name:     name,
		TypeCode: tc,
		Link:     genPowFunc(pw, 1),
		InvLink:  genPowFunc(1/pw, 1),
		Deriv:    genPowFunc(pw-1, pw),
		Deriv2:   genPowFunc(pw-2, pw*(pw-1)),
		InvDeriv: genPowFunc((1-pw)/pw, 1/pw),
	}
}

// cdfDist is a probability distribution that can back a CDF link.  The
// continuous univariate distributions in gonum's distuv package satisfy
// this interface.
type cdfDist interface {
	CDF(float64) float64
	Quantile(float64) float64
	Prob(float64) float64
}

// NewCDFLink returns a link function in which the link is the quantile
// function of the given distribution and the inverse link is its CDF.
// The name is used for display only.
func NewCDFLink(dbn cdfDist, name string) *Link {
	link := newCDFLink(dbn, name, CDFLink)
	return &link
}

func newCDFLink(dbn cdfDist, name string, tc LinkType) Link {

	lf := func(x []float64, y []float64) {
		for i := range x {
			y[i] = dbn.Quantile(clipProb(x[i]))
		}
	}

	inv := func(x []float64, y []float64) {
		for i := range x {
			y[i] = dbn.CDF(x[i])
		}
	}

	df := func(x []float64, y []float64) {
		for i := range x {
			y[i] = 1 / dbn.Prob(dbn.Quantile(clipProb(x[i])))
		}
	}

	// No closed form in general, difference the first derivative.
	df2 := func(x []float64, y []float64) {
		f := func(p float64) float64 {
			return 1 / dbn.Prob(dbn.Quantile(clipProb(p)))
		}
		for i := range x {
			y[i] = deriv2Numeric(f, x[i])
		}
	}

	idf := func(x []float64, y []float64) {
		for i := range x {
			y[i] = dbn.Prob(x[i])
		}
	}

	return Link{
		Name:     name,
		TypeCode: tc,
		Link:     lf,
		InvLink:  inv,
		Deriv:    df,
		Deriv2:   df2,
		InvDeriv: idf,
	}
}

func newCauchyLink() Link {

	// Student's t with one degree of freedom is the standard Cauchy
	// distribution.
	link := newCDFLink(distuv.StudentsT{Mu: 0, Sigma: 1, Nu: 1}, "Cauchy", CauchyLink)

	// The Cauchy link has a closed-form second derivative.
	link.Deriv2 = func(x []float64, y []float64) {
		for i := range x {
			a := math.Pi * (clipProb(x[i]) - 0.5)
			c := math.Cos(a)
			y[i] = 2 * math.Pi * math.Pi * math.Sin(a) / (c * c * c)
		}
	}

	return link
}

// NewNegBinomLink returns the negative binomial link function with the
// given parameter alpha.  The link for mean m is log(m / (m + 1/alpha)).
func NewNegBinomLink(alpha float64) *Link {

	lf := func(x []float64, y []float64) {
		for i := range x {
			p := clipPos(x[i])
			y[i] = math.Log(p / (p + 1/alpha))
		}
	}

	inv := func(x []float64, y []float64) {
		for i := range x {
			y[i] = -1 / (alpha * (1 - math.Exp(-x[i])))
		}
	}

	df := func(x []float64, y []float64) {
		for i := range x {
			p := clipPos(x[i])
			y[i] = 1 / (p + alpha*p*p)
		}
	}

	df2 := func(x []float64, y []float64) {
		for i := range x {
			p := clipPos(x[i])
			v := p + alpha*p*p
			y[i] = -(1 + 2*alpha*p) / (v * v)
		}
	}

	idf := func(x []float64, y []float64) {
		for i := range x {
			t := math.Exp(x[i])
			r := 1 - t
			y[i] = t / (alpha * r * r)
		}
	}

	return &Link{
		Name:     "NegBinom",
		TypeCode: NegBinomLink,
		Link:     lf,
		InvLink:  inv,
		Deriv:    df,
		Deriv2:   df2,
		InvDeriv: idf,
	}
}

func logFunc(x []float64, y []float64) {
	for i := range x {
		y[i] = math.Log(clipPos(x[i]))
	}
}

func logDerivFunc(x []float64, y []float64) {
	for i := range x {
		y[i] = 1 / clipPos(x[i])
	}
}

func logDeriv2Func(x []float64, y []float64) {
	for i := range x {
		v := clipPos(x[i])
		y[i] = -1 / (v * v)
	}
}

func expFunc(x []float64, y []float64) {
	for i := range x {
		y[i] = math.Exp(x[i])
	}
}

func logitFunc(x []float64, y []float64) {
	for i := range x {
		p := clipProb(x[i])
		y[i] = math.Log(p / (1 - p))
	}
}

func logitDerivFunc(x []float64, y []float64) {
	for i := range x {
		p := clipProb(x[i])
		y[i] = 1 / (p * (1 - p))
	}
}

func logitDeriv2Func(x []float64, y []float64) {
	for i := range x {
		v := x[i] * (1 - x[i])
		y[i] = (2*x[i] - 1) / (v * v)
	}
}

func expitFunc(x []float64, y []float64) {
	for i := range x {
		y[i] = 1 / (1 + math.Exp(-x[i]))
	}
}

func expitDerivFunc(x []float64, y []float64) {
	for i := range x {
		t := math.Exp(x[i])
		r := 1 + t
		y[i] = t / (r * r)
	}
}

func idFunc(x []float64, y []float64) {
	copy(y, x)
}

func idDerivFunc(x []float64, y []float64) {
	one(y)
}

func idDeriv2Func(x []float64, y []float64) {
	zero(y)
}

func cloglogFunc(x []float64, y []float64) {
	for i, v := range x {
		y[i] = math.Log(-math.Log(1 - clipProb(v)))
	}
}

func cloglogDerivFunc(x []float64, y []float64) {
	for i, v := range x {
		p := clipProb(v)
		y[i] = 1 / ((p - 1) * math.Log(1-p))
	}
}

func cloglogDeriv2Func(x []float64, y []float64) {
	for i, v := range x {
		p := clipProb(v)
		f := math.Log(1 - p)
		r := -1 / ((1 - p) * (1 - p) * f)
		y[i] = r * (1 + 1/f)
	}
}

func cloglogInvFunc(x []float64, y []float64) {
	for i, v := range x {
		y[i] = 1 - math.Exp(-math.Exp(v))
	}
}

func cloglogInvDerivFunc(x []float64, y []float64) {
	for i, v := range x {
		y[i] = math.Exp(v - math.Exp(v))
	}
}

func genPowFunc(p float64, s float64) VecFunc {
	return func(x []float64, y []float64) {
		for i := range x {
			y[i] = s * math.Pow(x[i], p)
		}
	}
}
