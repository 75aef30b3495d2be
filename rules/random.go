package rules

import "math/rand/v2"

// Jitter draws a float in [0, 1). Predictors use it for the small random
// spread the tables add to scores and yields; tests inject a constant.
type Jitter func() float64

// DefaultJitter is safe for concurrent use.
var DefaultJitter Jitter = rand.Float64

func (j Jitter) uniform(lo, hi float64) float64 {
	if j == nil {
		j = DefaultJitter
	}
	return lo + (hi-lo)*j()
}
