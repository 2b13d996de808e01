package classifier

import (
	"fmt"
	"math"

	"github.com/avionix/bite-engine/internal/models"
)

// Check thresholds scale against a sensor's tolerance band. Stuck detection
// additionally requires a minimum sample count so a cold window cannot trip it.
const (
	outOfRangeFactor   = 5.0
	stuckMinSamples    = 6
	stuckStdEps        = 1e-6
	noisyFactor        = 0.5
	driftFactor        = 1.5
	intermittentFactor = 2.0
)

// Result pairs a fault code with its human-readable detail.
type Result struct {
	Code   models.FaultCode
	Detail string
}

// Classify runs the BITE checks over the recent window in fixed priority
// order; the first matching check wins. Out-of-range is evaluated against the
// latest value alone so it short-circuits the statistical checks. An empty
// window degenerates to the single latest value.
func Classify(nominal, tol float64, window []float64, latest float64) Result {
	recent := window
	if len(recent) == 0 {
		recent = []float64{latest}
	}

	if math.Abs(latest-nominal) > outOfRangeFactor*tol {
		return Result{models.CodeOutOfRange, fmt.Sprintf("Value %.2f outside safe range (nom %v)", latest, nominal)}
	}

	m := mean(recent)
	sd := stdDev(recent, m)

	if len(recent) >= stuckMinSamples && sd < stuckStdEps {
		return Result{models.CodeStuck, "No variation in readings - possible stuck sensor"}
	}

	if sd > noisyFactor*tol {
		return Result{models.CodeNoisy, fmt.Sprintf("High noise (std=%.2f)", sd)}
	}

	if math.Abs(m-nominal) > driftFactor*tol {
		return Result{models.CodeDrift, fmt.Sprintf("Mean shifted by %.2f from nominal", m-nominal)}
	}

	for i := 1; i < len(recent); i++ {
		if math.Abs(recent[i]-recent[i-1]) > intermittentFactor*tol {
			return Result{models.CodeIntermittent, "Intermittent large deltas observed"}
		}
	}

	return Result{models.CodeOK, "Passed BITE"}
}

func mean(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// stdDev is the population form, matching the windowed statistics the
// thresholds were tuned against.
func stdDev(values []float64, mean float64) float64 {
	sum := 0.0
	for _, v := range values {
		diff := v - mean
		sum += diff * diff
	}
	variance := sum / float64(len(values))
	return math.Sqrt(variance)
}
