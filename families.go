package spglm

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mathext"
)

// FamilyType is the type of GLM family used in a model.
type FamilyType uint8

// PoissonFamily, ... are families for a GLM.
const (
	PoissonFamily FamilyType = iota
	QuasiPoissonFamily
	GaussianFamily
	GammaFamily
	BinomialFamily
	NegBinomFamily
)

// LogLikeFunc evaluates and returns the log-likelihood for a GLM.  The
// arguments are the response, the mean values, the weights, and the scale
// parameter.  The weights may be nil in which case all weights are taken
// to be 1.
type LogLikeFunc func([]float64, []float64, []float64, float64) float64

// DevianceFunc evaluates and returns the deviance for a GLM.  The
// arguments are the response, the mean values, the weights, and the scale
// parameter.  The weights may be nil in which case all weights are taken
// to be 1.
type DevianceFunc func([]float64, []float64, []float64, float64) float64

// ResidFunc evaluates per-observation residuals.  The arguments are the
// response, the mean values, the scale parameter, and the destination
// array for the residuals.
type ResidFunc func([]float64, []float64, float64, []float64)

// AnscombeFunc evaluates per-observation Anscombe residuals.  The
// arguments are the response, the mean values, and the destination array.
type AnscombeFunc func([]float64, []float64, []float64)

// Family represents a generalized linear model family, defined by a
// link function and a variance function.
type Family struct {

	// The name of the family
	Name string

	// The numeric code for the family
	TypeCode FamilyType

	// The log-likelihood function for the family
	LogLike LogLikeFunc

	// The deviance function for the family
	Deviance DevianceFunc

	// The deviance residual function for the family.  The squared
	// deviance residuals sum to the deviance.
	ResidDev ResidFunc

	// The Anscombe (variance stabilized) residual function for the
	// family.
	ResidAnscombe AnscombeFunc

	// StartingMu calculates initial mean values for the IRLS
	// algorithm from the response values.
	StartingMu VecFunc

	// The link in use by the family.
	link *Link

	// The variance function in use by the family.
	vari *Variance

	// The type codes of valid links for this family.  The first
	// listed link is the canonical link.
	validLinks []LinkType

	// The subset of validLinks with guaranteed valid numerical
	// behavior over the family's domain.
	safeLinks []LinkType

	// Lower and upper bounds of the valid response domain.
	valid [2]float64

	// Per-observation binomial trial counts.  Nil means one trial
	// per observation (a binary response).
	n []float64

	// Auxiliary negative binomial parameter.
	alpha float64
}

// NewFamily returns a family object of the given type, using the given
// link function.  If link is nil, the canonical link for the family is
// used.  Supported family types are Poisson, QuasiPoisson, Gaussian,
// Gamma, and Binomial; negative binomial families are obtained from
// NewNegBinomFamily.
func NewFamily(fam FamilyType, link *Link) *Family {

	switch fam {
	case PoissonFamily:
		return newPoissonFamily(link, false)
	case QuasiPoissonFamily:
		return newPoissonFamily(link, true)
	case GaussianFamily:
		return newGaussianFamily(link)
	case GammaFamily:
		return newGammaFamily(link)
	case BinomialFamily:
		return newBinomialFamily(link, nil)
	case NegBinomFamily:
		panic("Negative binomial families must be constructed with NewNegBinomFamily\n")
	default:
		msg := fmt.Sprintf("Unknown family: %v\n", fam)
		panic(msg)
	}
}

// Link returns the link function in use by the family.
func (fam *Family) Link() *Link {
	return fam.link
}

// Variance returns the variance function in use by the family.
func (fam *Family) Variance() *Variance {
	return fam.vari
}

// Trials returns the per-observation binomial trial counts, or nil if
// each observation is a single trial.
func (fam *Family) Trials() []float64 {
	return fam.n
}

// ValidDomain returns the lower and upper bounds of the valid response
// domain for the family.
func (fam *Family) ValidDomain() (float64, float64) {
	return fam.valid[0], fam.valid[1]
}

// IsValidLink returns true or false based on whether the link is
// valid for the family.
func (fam *Family) IsValidLink(link *Link) bool {

	for _, q := range fam.validLinks {
		if link.TypeCode == q {
			return true
		}
	}

	return false
}

// IsSafeLink returns true if the link has guaranteed valid numerical
// behavior over the family's domain.
func (fam *Family) IsSafeLink(link *Link) bool {

	for _, q := range fam.safeLinks {
		if link.TypeCode == q {
			return true
		}
	}

	return false
}

// checkLink panics if the link is not valid for the family.
func (fam *Family) checkLink(link *Link) {

	if fam.IsValidLink(link) {
		return
	}

	var names []string
	for _, q := range fam.validLinks {
		names = append(names, NewLink(q).Name)
	}
	msg := fmt.Sprintf("Link %s is not valid for the %s family; valid links are %s.\n",
		link.Name, fam.Name, strings.Join(names, ", "))
	panic(msg)
}

// Fitted calculates mean values from linear predictor values by
// applying the inverse link function.
func (fam *Family) Fitted(linpred []float64, mn []float64) {
	fam.link.InvLink(linpred, mn)
}

// Predict calculates linear predictor values from mean values by
// applying the link function.
func (fam *Family) Predict(mn []float64, linpred []float64) {
	fam.link.Link(mn, linpred)
}

// Weights calculates the weights for the weighted least squares step
// of an IRLS iteration.  The weight for mean m is
// 1 / (link.Deriv(m)^2 * variance(m)).
func (fam *Family) Weights(mn []float64, w []float64) {

	va := make([]float64, len(mn))
	fam.link.Deriv(mn, w)
	fam.vari.Var(mn, va)

	for i := range w {
		w[i] = 1 / (w[i] * w[i] * va[i])
	}
}

// Initialize prepares a response for fitting.  The response is given
// as one or two columns.  A single column is returned unchanged.  Two
// columns are interpreted as (successes, failures) counts for a
// binomial family: the returned family is a copy bound to the trial
// counts successes+failures, and the returned response holds the
// success proportions.  The receiver is not modified, so a family
// value never carries trial counts from a previous fit.
func (fam *Family) Initialize(endog [][]float64) (*Family, []float64) {

	switch len(endog) {
	case 1:
		return fam, endog[0]
	case 2:
		if fam.TypeCode != BinomialFamily {
			msg := fmt.Sprintf("A two-column response is not valid for the %s family.\n", fam.Name)
			panic(msg)
		}
	default:
		msg := fmt.Sprintf("Initialize: the response must have 1 or 2 columns, got %d.\n", len(endog))
		panic(msg)
	}

	success := endog[0]
	failure := endog[1]

	n := make([]float64, len(success))
	y := make([]float64, len(success))
	for i := range success {
		n[i] = success[i] + failure[i]
		y[i] = success[i] / n[i]
	}

	return newBinomialFamily(fam.link, n), y
}

// defaultStartingMu is the default starting mean for IRLS, the
// average of the response value and its overall mean.
func defaultStartingMu(y []float64, mn []float64) {

	var q float64
	for _, v := range y {
		q += v
	}
	q /= float64(len(y))

	for i := range y {
		mn[i] = (y[i] + q) / 2
	}
}

func newPoissonFamily(link *Link, quasi bool) *Family {

	name := "Poisson"
	tc := PoissonFamily
	if quasi {
		name = "QuasiPoisson"
		tc = QuasiPoissonFamily
	}

	if link == nil {
		link = NewLink(LogLink)
	}

	fam := &Family{
		Name:       name,
		TypeCode:   tc,
		link:       link,
		vari:       NewVariance(IdentityVar),
		validLinks: []LinkType{LogLink, IdentityLink, SqrtLink},
		safeLinks:  []LinkType{LogLink},
		valid:      [2]float64{0, math.Inf(1)},
		StartingMu: defaultStartingMu,
		Deviance:   poissonDeviance,
		ResidDev:   poissonResidDev,
	}

	if quasi {
		// The quasi-Poisson family has no likelihood.
		fam.LogLike = func(y, mn, wt []float64, scale float64) float64 {
			return math.NaN()
		}
	} else {
		fam.LogLike = poissonLogLike
	}

	fam.ResidAnscombe = poissonResidAnscombe

	fam.checkLink(link)

	return fam
}

func poissonLogLike(y []float64, mn []float64, wt []float64, scale float64) float64 {

	var ll float64
	var w float64 = 1
	for i := range y {
		if wt != nil {
			w = wt[i]
		}
		g, _ := math.Lgamma(y[i] + 1)
		ll += w * (y[i]*math.Log(mn[i]) - mn[i] - g)
	}

	return scale * ll
}

func poissonDeviance(y []float64, mn []float64, wt []float64, scale float64) float64 {

	var dev float64
	var w float64 = 1

	for i := range y {
		if wt != nil {
			w = wt[i]
		}

		if y[i] > 0 {
			dev += 2 * w * y[i] * math.Log(clipPos(y[i]/mn[i]))
		}
	}
	dev /= scale

	return dev
}

func poissonResidDev(y []float64, mn []float64, scale float64, resid []float64) {

	for i := range y {
		d := 2 * (y[i]*math.Log(clipPos(y[i]/mn[i])) - (y[i] - mn[i]))
		resid[i] = sign(y[i]-mn[i]) * math.Sqrt(d) / scale
	}
}

func poissonResidAnscombe(y []float64, mn []float64, resid []float64) {

	for i := range y {
		resid[i] = 1.5 * (math.Pow(y[i], 2.0/3) - math.Pow(mn[i], 2.0/3)) / math.Pow(mn[i], 1.0/6)
	}
}

func newGaussianFamily(link *Link) *Family {

	if link == nil {
		link = NewLink(IdentityLink)
	}

	fam := &Family{
		Name:       "Gaussian",
		TypeCode:   GaussianFamily,
		link:       link,
		vari:       NewVariance(ConstantVar),
		validLinks: []LinkType{IdentityLink, LogLink, RecipLink},
		safeLinks:  []LinkType{IdentityLink, LogLink, RecipLink},
		valid:      [2]float64{math.Inf(-1), math.Inf(1)},
		StartingMu: defaultStartingMu,
		Deviance:   gaussianDeviance,
		ResidDev:   gaussianResidDev,
	}

	fam.LogLike = func(y, mn, wt []float64, scale float64) float64 {

		if link.TypeCode == IdentityLink {
			// The exact OLS log-likelihood.  The generic
			// exponential family form is only proportional to
			// this, which matters for model comparison.
			nobs2 := float64(len(y)) / 2
			var ssr float64
			for i := range y {
				r := y[i] - mn[i]
				ssr += r * r
			}
			ll := -math.Log(ssr) * nobs2
			ll -= (1 + math.Log(math.Pi/nobs2)) * nobs2
			return ll
		}

		var ll float64
		var w float64 = 1
		var ws float64
		for i := range y {
			if wt != nil {
				w = wt[i]
			}
			r := y[i] - mn[i]
			ll -= w * r * r / (2 * scale)
			ws += w
		}
		ll -= ws * math.Log(2*math.Pi*scale) / 2
		return ll
	}

	fam.ResidAnscombe = func(y, mn, resid []float64) {
		for i := range y {
			resid[i] = y[i] - mn[i]
		}
	}

	fam.checkLink(link)

	return fam
}

func gaussianDeviance(y []float64, mn []float64, wt []float64, scale float64) float64 {

	var dev float64
	var w float64 = 1

	for i := range y {
		if wt != nil {
			w = wt[i]
		}

		r := y[i] - mn[i]
		dev += w * r * r
	}
	dev /= scale

	return dev
}

func gaussianResidDev(y []float64, mn []float64, scale float64, resid []float64) {

	for i := range y {
		resid[i] = (y[i] - mn[i]) / scale
	}
}

func newGammaFamily(link *Link) *Family {

	if link == nil {
		link = NewLink(RecipLink)
	}

	fam := &Family{
		Name:          "Gamma",
		TypeCode:      GammaFamily,
		link:          link,
		vari:          NewVariance(SquaredVar),
		validLinks:    []LinkType{RecipLink, LogLink, IdentityLink},
		safeLinks:     []LinkType{LogLink},
		valid:         [2]float64{0, math.Inf(1)},
		StartingMu:    defaultStartingMu,
		Deviance:      gammaDeviance,
		ResidDev:      gammaResidDev,
		LogLike:       gammaLogLike,
		ResidAnscombe: gammaResidAnscombe,
	}

	fam.checkLink(link)

	return fam
}

func gammaLogLike(y []float64, mn []float64, wt []float64, scale float64) float64 {

	var ll float64
	var w float64 = 1
	g, _ := math.Lgamma(1 / scale)

	for i := range y {
		if wt != nil {
			w = wt[i]
		}

		v := y[i]/mn[i] + math.Log(mn[i])
		v += (scale - 1) * math.Log(y[i])
		v += math.Log(scale) + scale*g
		ll -= w * v / scale
	}

	return ll
}

func gammaDeviance(y []float64, mn []float64, wt []float64, scale float64) float64 {

	var dev float64
	var w float64 = 1

	for i := range y {
		if wt != nil {
			w = wt[i]
		}

		dev += 2 * w * ((y[i]-mn[i])/mn[i] - math.Log(clipPos(y[i]/mn[i])))
	}

	return dev
}

func gammaResidDev(y []float64, mn []float64, scale float64, resid []float64) {

	for i := range y {
		d := -2 * (-(y[i]-mn[i])/mn[i] + math.Log(clipPos(y[i]/mn[i])))
		resid[i] = sign(y[i]-mn[i]) * math.Sqrt(d)
	}
}

func gammaResidAnscombe(y []float64, mn []float64, resid []float64) {

	for i := range y {
		m3 := math.Pow(mn[i], 1.0/3)
		resid[i] = 3 * (math.Pow(y[i], 1.0/3) - m3) / m3
	}
}

func newBinomialFamily(link *Link, n []float64) *Family {

	if link == nil {
		link = NewLink(LogitLink)
	}

	trials := func(i int) float64 {
		if n == nil {
			return 1
		}
		return n[i]
	}

	fam := &Family{
		Name:       "Binomial",
		TypeCode:   BinomialFamily,
		link:       link,
		vari:       NewBinomialVariance(n),
		validLinks: []LinkType{LogitLink, ProbitLink, CauchyLink, LogLink, CloglogLink, IdentityLink},
		safeLinks:  []LinkType{LogitLink, ProbitLink, CauchyLink, CloglogLink},
		valid:      [2]float64{0, 1},
		n:          n,
	}

	fam.StartingMu = func(y, mn []float64) {
		for i := range y {
			mn[i] = (y[i] + 0.5) / 2
		}
	}

	fam.Deviance = func(y, mn, wt []float64, scale float64) float64 {

		var dev float64
		var w float64 = 1

		if n == nil {
			for i := range y {
				if wt != nil {
					w = wt[i]
				}
				if y[i] == 1 {
					dev -= 2 * w * math.Log(mn[i]+1e-200)
				} else {
					dev -= 2 * w * math.Log(1-mn[i]+1e-200)
				}
			}
			return dev
		}

		for i := range y {
			if wt != nil {
				w = wt[i]
			}
			v := y[i] * math.Log(y[i]/mn[i]+1e-200)
			v += (1 - y[i]) * math.Log((1-y[i])/(1-mn[i])+1e-200)
			dev += 2 * w * trials(i) * v
		}

		return dev
	}

	fam.ResidDev = func(y, mn []float64, scale float64, resid []float64) {

		if n == nil {
			for i := range y {
				m := clipProb(mn[i])
				var v float64
				if y[i] == 1 {
					v = m
				} else {
					v = 1 - m
				}
				resid[i] = sign(y[i]-m) * math.Sqrt(-2*math.Log(v)) / scale
			}
			return
		}

		for i := range y {
			m := clipProb(mn[i])
			v := y[i] * math.Log(y[i]/m+1e-200)
			v += (1 - y[i]) * math.Log((1-y[i])/(1-m)+1e-200)
			resid[i] = sign(y[i]-m) * math.Sqrt(2*trials(i)*v) / scale
		}
	}

	fam.LogLike = func(y, mn, wt []float64, scale float64) float64 {

		var ll float64
		var w float64 = 1

		if n == nil {
			for i := range y {
				if wt != nil {
					w = wt[i]
				}
				ll += w * (y[i]*math.Log(mn[i]/(1-mn[i])+1e-200) + math.Log(1-mn[i]))
			}
			return scale * ll
		}

		for i := range y {
			if wt != nil {
				w = wt[i]
			}

			// Convert the proportion back to a success count.
			t := trials(i)
			s := y[i] * t

			g1, _ := math.Lgamma(t + 1)
			g2, _ := math.Lgamma(s + 1)
			g3, _ := math.Lgamma(t - s + 1)

			v := g1 - g2 - g3
			v += s * math.Log(mn[i]/(1-mn[i]))
			v += t * math.Log(1-mn[i])
			ll += w * v
		}

		return scale * ll
	}

	fam.ResidAnscombe = func(y, mn, resid []float64) {

		// Cox-Snell transform, the integral of v^(-1/3)*(1-v)^(-1/3).
		bv := math.Exp(mathext.Lbeta(2.0/3, 2.0/3))
		coxSnell := func(x float64) float64 {
			return mathext.RegIncBeta(2.0/3, 2.0/3, x) * bv
		}

		for i := range y {
			m := clipProb(mn[i])
			d := math.Pow(m, 1.0/6) * math.Pow(1-m, 1.0/6)
			resid[i] = math.Sqrt(trials(i)) * (coxSnell(y[i]) - coxSnell(m)) / d
		}
	}

	fam.checkLink(link)

	return fam
}

// NewNegBinomFamily returns a new family object for the negative
// binomial family, using the given dispersion parameter alpha and link
// function.  If link is nil, the log link is used.
func NewNegBinomFamily(alpha float64, link *Link) *Family {

	if link == nil {
		link = NewLink(LogLink)
	}

	fam := &Family{
		Name:       "NegBinom",
		TypeCode:   NegBinomFamily,
		link:       link,
		vari:       NewNegBinomVariance(alpha),
		validLinks: []LinkType{LogLink, IdentityLink, NegBinomLink},
		safeLinks:  []LinkType{LogLink},
		valid:      [2]float64{0, math.Inf(1)},
		StartingMu: defaultStartingMu,
		alpha:      alpha,
	}

	fam.LogLike = func(y, mn, wt []float64, scale float64) float64 {

		var ll float64
		var w float64 = 1

		lp := make([]float64, len(y))
		link.Link(mn, lp)
		c3, _ := math.Lgamma(1 / alpha)

		for i := range y {
			if wt != nil {
				w = wt[i]
			}

			elp := math.Exp(lp[i])

			c1, _ := math.Lgamma(y[i] + 1/alpha)
			c2, _ := math.Lgamma(y[i] + 1)
			c := c1 - c2 - c3

			v := y[i] * math.Log(alpha*elp/(1+alpha*elp))
			v -= math.Log(1+alpha*elp) / alpha

			ll += w * (v + c)
		}

		return ll
	}

	devTerm := func(y, mn float64) float64 {
		if y > 0 {
			z1 := y * math.Log(y/mn)
			z2 := (y + 1/alpha) * math.Log((1+alpha*y)/(1+alpha*mn))
			return 2 * (z1 - z2)
		}
		return 2 * math.Log(1+alpha*mn) / alpha
	}

	fam.Deviance = func(y, mn, wt []float64, scale float64) float64 {

		var dev float64
		var w float64 = 1

		for i := range y {
			if wt != nil {
				w = wt[i]
			}
			dev += w * devTerm(y[i], mn[i])
		}
		dev /= scale

		return dev
	}

	fam.ResidDev = func(y, mn []float64, scale float64, resid []float64) {
		for i := range y {
			resid[i] = sign(y[i]-mn[i]) * math.Sqrt(devTerm(y[i], mn[i])) / scale
		}
	}

	fam.ResidAnscombe = func(y, mn, resid []float64) {
		panic("Anscombe residuals are not implemented for the NegBinom family\n")
	}

	fam.checkLink(link)

	return fam
}

// sign returns -1, 0, or 1 according to the sign of x.
func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
