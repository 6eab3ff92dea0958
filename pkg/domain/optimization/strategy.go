package optimization

// StrategyKind is the closed set of search strategies. The strategy is
// chosen once at job creation and never switched mid-run.
type StrategyKind string

const (
	StrategyGeneticAlgorithm StrategyKind = "genetic_algorithm"
	StrategyHillClimbing     StrategyKind = "hill_climbing"
)

// SearchStrategy is a tagged variant selecting the search procedure and
// its parameters. Hill climbing is the degenerate genetic search with a
// population of one and no crossover.
type SearchStrategy struct {
	Kind           StrategyKind `json:"kind" mapstructure:"kind"`
	PopulationSize int          `json:"population_size" mapstructure:"population_size"`
	MutationRate   float64      `json:"mutation_rate" mapstructure:"mutation_rate"`
	CrossoverRate  float64      `json:"crossover_rate" mapstructure:"crossover_rate"`
	ElitismCount   int          `json:"elitism_count" mapstructure:"elitism_count"`
}

// GeneticAlgorithm returns the default generational strategy.
func GeneticAlgorithm(populationSize int) SearchStrategy {
	if populationSize < 2 {
		populationSize = 10
	}
	return SearchStrategy{
		Kind:           StrategyGeneticAlgorithm,
		PopulationSize: populationSize,
		MutationRate:   0.3,
		CrossoverRate:  0.8,
		ElitismCount:   2,
	}
}

// HillClimbing returns the single-candidate strategy.
func HillClimbing() SearchStrategy {
	return SearchStrategy{
		Kind:           StrategyHillClimbing,
		PopulationSize: 1,
		MutationRate:   1.0,
		CrossoverRate:  0,
		ElitismCount:   1,
	}
}
