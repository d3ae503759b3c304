package pigment

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/optimize"
)

const (
	// gridSteps is the resolution of the coarse simplex search.
	gridSteps = 8
	// refineEvaluations bounds the Nelder-Mead refinement.
	refineEvaluations = 400
)

// fitConcentrations finds primary concentrations (summing to one) whose
// Kubelka-Munk mix is closest to target. The remainder is carried by the
// residual, so the fit only has to be good, not exact.
func fitConcentrations(target colorful.Color) [numPrimaries]float64 {
	best := gridSearch(target)
	bestCost := fitCost(best[:], target)

	x0 := make([]float64, numPrimaries)
	for i, c := range best {
		x0[i] = math.Log(c + 1e-3)
	}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			conc := softmax(x)
			return fitCost(conc[:], target)
		},
	}
	settings := &optimize.Settings{FuncEvaluations: refineEvaluations}

	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil || res == nil {
		return best
	}
	refined := softmax(res.X)
	if fitCost(refined[:], target) < bestCost {
		return refined
	}
	return best
}

// gridSearch evaluates every point of a regular grid on the simplex.
func gridSearch(target colorful.Color) [numPrimaries]float64 {
	var best [numPrimaries]float64
	bestCost := math.Inf(1)

	for a := 0; a <= gridSteps; a++ {
		for b := 0; a+b <= gridSteps; b++ {
			for c := 0; a+b+c <= gridSteps; c++ {
				d := gridSteps - a - b - c
				conc := [numPrimaries]float64{
					float64(a) / gridSteps,
					float64(b) / gridSteps,
					float64(c) / gridSteps,
					float64(d) / gridSteps,
				}
				if cost := fitCost(conc[:], target); cost < bestCost {
					best, bestCost = conc, cost
				}
			}
		}
	}
	return best
}

func fitCost(conc []float64, target colorful.Color) float64 {
	c := baseColor(conc)
	dr := c.R - target.R
	dg := c.G - target.G
	db := c.B - target.B
	return dr*dr + dg*dg + db*db
}

// softmax maps unconstrained parameters onto the probability simplex.
func softmax(x []float64) [numPrimaries]float64 {
	maxX := math.Inf(-1)
	for _, v := range x {
		maxX = math.Max(maxX, v)
	}
	var out [numPrimaries]float64
	var sum float64
	for i, v := range x {
		out[i] = math.Exp(v - maxX)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
