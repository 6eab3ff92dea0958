package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PromptOps/PromptForge/pkg/domain/optimization"
	"github.com/PromptOps/PromptForge/pkg/domain/prompt"
)

func TestCostReduction(t *testing.T) {
	orig := prompt.Metrics{TokenCount: 100}

	assert.Equal(t, 0.0, CostReduction(orig, orig))
	assert.InDelta(t, 0.4, CostReduction(orig, prompt.Metrics{TokenCount: 60}), 1e-9)
	assert.InDelta(t, -0.2, CostReduction(orig, prompt.Metrics{TokenCount: 120}), 1e-9)

	// empty original never divides by zero
	assert.Equal(t, 0.0, CostReduction(prompt.Metrics{}, prompt.Metrics{TokenCount: 5}))
}

func TestQualityRetention(t *testing.T) {
	orig := prompt.Metrics{Quality: 0.8}

	assert.InDelta(t, 1.0, QualityRetention(orig, orig), 1e-9)
	assert.InDelta(t, 0.5, QualityRetention(orig, prompt.Metrics{Quality: 0.4}), 1e-9)
	assert.InDelta(t, 1.25, QualityRetention(orig, prompt.Metrics{Quality: 1.0}), 1e-9)

	// zero-quality original does not blow up
	got := QualityRetention(prompt.Metrics{}, prompt.Metrics{Quality: 0.5})
	assert.Greater(t, got, 1.0)
}

func TestFitness(t *testing.T) {
	weights := optimization.DefaultFitnessWeights()
	orig := prompt.Metrics{TokenCount: 100, Quality: 0.8}

	t.Run("identity scores quality retention only", func(t *testing.T) {
		got := Fitness(orig, orig, weights, 0.8)
		assert.InDelta(t, weights.QualityRetention, got, 1e-9)
	})

	t.Run("cheaper with retained quality scores higher", func(t *testing.T) {
		cheap := prompt.Metrics{TokenCount: 60, Quality: 0.8}
		assert.Greater(t, Fitness(orig, cheap, weights, 0.8), Fitness(orig, orig, weights, 0.8))
	})

	t.Run("quality loss is penalized", func(t *testing.T) {
		same := prompt.Metrics{TokenCount: 60, Quality: 0.8}
		worse := prompt.Metrics{TokenCount: 60, Quality: 0.7}
		assert.Less(t, Fitness(orig, worse, weights, 0.8), Fitness(orig, same, weights, 0.8))
	})

	t.Run("positive score capped at zero below quality threshold", func(t *testing.T) {
		// huge cost saving but quality gutted below the threshold
		gutted := prompt.Metrics{TokenCount: 5, Quality: 0.3}
		assert.Equal(t, 0.0, Fitness(orig, gutted, weights, 0.8))
	})

	t.Run("negative score below threshold stays negative", func(t *testing.T) {
		worse := prompt.Metrics{TokenCount: 150, Quality: 0.1}
		assert.Less(t, Fitness(orig, worse, weights, 0.8), 0.0)
	})
}
