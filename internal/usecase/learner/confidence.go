package learner

import "math"

// confidence maps the number of analyzed interactions to a learning
// confidence in [0,1). Below minInteractions the history is too thin to
// learn from and confidence is exactly zero; above it confidence grows
// asymptotically with 1-exp(-n/tau), crossing ~0.63 at n=tau.
func confidence(n, minInteractions int, tau float64) float64 {
	if n < minInteractions {
		return 0
	}
	return 1 - math.Exp(-float64(n)/tau)
}
