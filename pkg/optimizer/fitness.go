package optimizer

import (
	"github.com/PromptOps/PromptForge/pkg/domain/optimization"
	"github.com/PromptOps/PromptForge/pkg/domain/prompt"
)

const qualityEpsilon = 1e-6

// CostReduction is the token saving of candidate relative to original,
// in [negative, 1].
func CostReduction(original, candidate prompt.Metrics) float64 {
	if original.TokenCount == 0 {
		return 0
	}
	return 1 - float64(candidate.TokenCount)/float64(original.TokenCount)
}

// QualityRetention is candidate quality relative to original quality.
func QualityRetention(original, candidate prompt.Metrics) float64 {
	denom := original.Quality
	if denom < qualityEpsilon {
		denom = qualityEpsilon
	}
	return candidate.Quality / denom
}

// Fitness combines cost reduction and quality retention into the scalar
// score used to rank candidates. A candidate whose quality retention
// falls below the configured threshold is capped at zero: gutting quality
// cannot win regardless of cost savings.
func Fitness(
	original, candidate prompt.Metrics,
	weights optimization.FitnessWeights,
	targetQualityThreshold float64,
) float64 {
	costReduction := CostReduction(original, candidate)
	retention := QualityRetention(original, candidate)

	qualityLoss := 0.0
	if retention < 1 {
		qualityLoss = 1 - retention
	}

	score := weights.CostReduction*costReduction +
		weights.QualityRetention*retention -
		weights.QualityLoss*qualityLoss

	if retention < targetQualityThreshold {
		if score > 0 {
			return 0
		}
	}
	return score
}
