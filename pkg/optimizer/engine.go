package optimizer

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/PromptOps/PromptForge/pkg/domain/guardrail"
	"github.com/PromptOps/PromptForge/pkg/domain/optimization"
	"github.com/PromptOps/PromptForge/pkg/domain/prompt"
	"github.com/PromptOps/PromptForge/pkg/mutation"
)

// State is the engine's own run state machine, distinct from the job
// lifecycle owned by the orchestrator.
type State string

const (
	StateInitialized State = "initialized"
	StateEvolving    State = "evolving"
	StateConverged   State = "converged"
	StateExhausted   State = "exhausted"
	StateRejected    State = "rejected"
)

// Scorer is the scoring oracle capability. Satisfied by the analyzer; an
// LLM is never required.
type Scorer interface {
	Analyze(text string) prompt.Metrics
}

// SafetyOracle gates every input and every candidate. Satisfied by the
// guardrail engine.
type SafetyOracle interface {
	Validate(text string) guardrail.ValidationResult
	ValidateTransition(original, candidate string) guardrail.TransitionResult
}

// Outcome is the result of one engine run.
type Outcome struct {
	State      State
	Best       optimization.Candidate
	Original   optimization.Candidate
	History    []optimization.GenerationSummary
	TargetMet  bool
	Violations []guardrail.Violation
}

// Engine runs the generational search. It holds no per-job state, so one
// engine serves concurrent jobs.
type Engine struct {
	scorer  Scorer
	safety  SafetyOracle
	workers int
	logger  *logrus.Logger

	// retryFactor bounds re-mutation attempts per seeding slot so a
	// pathological original cannot loop forever.
	retryFactor int
	// faultBudget is how many recovered per-candidate faults are
	// tolerated before the run fails with an internal fault.
	faultBudget int
}

// NewEngine builds an optimization engine.
func NewEngine(scorer Scorer, safety SafetyOracle, workers int, logger *logrus.Logger) *Engine {
	if workers < 1 {
		workers = 4
	}
	return &Engine{
		scorer:      scorer,
		safety:      safety,
		workers:     workers,
		logger:      logger,
		retryFactor: 3,
		faultBudget: 10,
	}
}

// Run executes the search for one job. The loop is synchronous; the
// context is only consulted at generation boundaries, so cancellation
// never interrupts a generation midway.
func (e *Engine) Run(ctx context.Context, originalPrompt string, params optimization.Params) (Outcome, error) {
	origValidation := e.safety.Validate(originalPrompt)
	if !origValidation.IsSafe {
		return Outcome{
			State:      StateRejected,
			Violations: origValidation.Violations,
		}, nil
	}

	origMetrics := e.scorer.Analyze(originalPrompt)
	original := optimization.Candidate{
		ID:         "g000-c000",
		Text:       originalPrompt,
		Generation: 0,
		Metrics:    origMetrics,
		Validation: origValidation,
	}
	original.Fitness = Fitness(origMetrics, origMetrics, params.FitnessWeights, params.TargetQualityThreshold)

	run := &searchRun{
		engine:    e,
		params:    params,
		original:  original,
		operators: mutation.Operators(),
		faults:    0,
	}

	population, err := run.seed()
	if err != nil {
		return Outcome{State: StateRejected}, err
	}

	best := original.Clone()
	var history []optimization.GenerationSummary
	state := StateEvolving

	for gen := 1; gen <= params.MaxIterations; gen++ {
		if ctx.Err() != nil {
			state = StateExhausted
			break
		}

		if err := run.evaluate(ctx, population); err != nil {
			return Outcome{State: StateExhausted, Best: best, Original: original, History: history}, err
		}

		sortPopulation(population)
		if population[0].Better(best) {
			best = population[0].Clone()
		}

		history = append(history, summarize(gen-1, population))
		e.logger.WithFields(logrus.Fields{
			"generation":   gen - 1,
			"best_fitness": best.Fitness,
			"best_tokens":  best.Metrics.TokenCount,
		}).Debug("generation completed")

		if run.converged(best) {
			state = StateConverged
			break
		}
		if gen == params.MaxIterations {
			state = StateExhausted
			break
		}

		population = run.nextGeneration(gen, population)
	}

	if state == StateEvolving {
		state = StateExhausted
	}

	// The original is always a member of the search space, so the best
	// candidate can never score below it.
	if original.Better(best) {
		best = original.Clone()
	}

	return Outcome{
		State:     state,
		Best:      best,
		Original:  original,
		History:   history,
		TargetMet: state == StateConverged,
	}, nil
}

// searchRun carries the per-run mutable state of one engine invocation.
type searchRun struct {
	engine    *Engine
	params    optimization.Params
	original  optimization.Candidate
	operators []mutation.Operator
	faults    int
}

// seed builds generation zero: the original plus mutated variants. Slots
// whose variants keep failing validation are re-mutated up to the retry
// budget and then dropped; the original always survives, so the search
// can proceed with an undersized population.
func (r *searchRun) seed() ([]optimization.Candidate, error) {
	size := r.params.Strategy.PopulationSize
	if size < 1 {
		size = 1
	}

	operators := r.operators
	population := []optimization.Candidate{r.original.Clone()}

	attempt := 0
	budget := r.engine.retryFactor * size
	for len(population) < size && attempt < budget {
		seed := deriveSeed(r.params.Seed, 0, attempt)
		op := operators[attempt%len(operators)]

		text, err := r.safeApply(op, r.original.Text, seed)
		if err != nil {
			r.faults++
			if r.faults > r.engine.faultBudget {
				return nil, optimization.NewInternalFault("mutation faults exceeded budget during seeding", err)
			}
			attempt++
			continue
		}

		attempt++
		if text == r.original.Text {
			continue
		}
		if !r.acceptable(text) {
			continue
		}
		population = append(population, optimization.Candidate{
			ID:         fmt.Sprintf("g000-c%03d", len(population)),
			Text:       text,
			Generation: 0,
		})
	}

	return population, nil
}

// evaluate scores and validates every candidate of one generation. The
// work fans out over a bounded errgroup; results land by index, so
// evaluation order never affects selection.
func (r *searchRun) evaluate(ctx context.Context, population []optimization.Candidate) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(r.engine.workers)

	faults := make([]error, len(population))
	for i := range population {
		i := i
		g.Go(func() error {
			c := &population[i]
			if err := r.scoreCandidate(c); err != nil {
				faults[i] = err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, err := range faults {
		if err == nil {
			continue
		}
		r.faults++
		r.engine.logger.WithError(err).WithField("candidate", truncateText(population[i].Text)).
			Warn("candidate evaluation fault, discarding")
		if r.faults > r.engine.faultBudget {
			return optimization.NewInternalFault("candidate evaluation faults exceeded budget", err)
		}
		// discard: replace with a copy of the original baseline
		population[i] = r.original.Clone()
		population[i].ID = population[i].ID + "r"
	}
	return nil
}

// scoreCandidate computes validation-then-fitness for one candidate with
// local panic recovery, so a scorer fault can never escape the
// generation boundary.
func (r *searchRun) scoreCandidate(c *optimization.Candidate) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("scorer panic: %v", rec)
		}
	}()

	if c.Text == r.original.Text {
		c.Metrics = r.original.Metrics
		c.Validation = r.original.Validation
		c.Fitness = r.original.Fitness
		return nil
	}

	c.Validation = r.engine.safety.Validate(c.Text)
	if !c.Validation.IsSafe {
		// rejected candidates never enter ranking with a score
		c.Fitness = -1
		return nil
	}
	c.Metrics = r.engine.scorer.Analyze(c.Text)
	c.Fitness = Fitness(r.original.Metrics, c.Metrics, r.params.FitnessWeights, r.params.TargetQualityThreshold)
	return nil
}

// acceptable runs the full safety gate on a freshly mutated text:
// absolute validation plus the transition check against the original.
func (r *searchRun) acceptable(text string) bool {
	result := r.engine.safety.Validate(text)
	if !result.IsSafe {
		return false
	}
	transition := r.engine.safety.ValidateTransition(r.original.Text, text)
	return transition.OptimizationSafe
}

// nextGeneration applies elitism, tournament selection, mutation and
// crossover to produce the following population of the same size.
func (r *searchRun) nextGeneration(gen int, population []optimization.Candidate) []optimization.Candidate {
	size := len(population)
	strategy := r.params.Strategy
	rng := rand.New(rand.NewSource(deriveSeed(r.params.Seed, gen, 0)))

	// always leave room for at least one offspring, otherwise a
	// population of one could never move
	elite := strategy.ElitismCount
	if elite >= size {
		elite = size - 1
	}
	if elite < 0 {
		elite = 0
	}

	next := make([]optimization.Candidate, 0, size)
	for i := 0; i < elite; i++ {
		c := population[i].Clone()
		c.Generation = gen
		c.ID = fmt.Sprintf("g%03d-c%03d", gen, len(next))
		next = append(next, c)
	}

	offspringTarget := size - elite

	operators := r.operators
	attempts := 0
	budget := r.engine.retryFactor * (offspringTarget + 1)
	produced := 0
	for produced < offspringTarget && attempts < budget {
		attempts++

		parentA := tournament(rng, population)
		text := parentA.Text

		if strategy.CrossoverRate > 0 && rng.Float64() < strategy.CrossoverRate {
			parentB := tournament(rng, population)
			childA, _ := mutation.Crossover(parentA.Text, parentB.Text, deriveSeed(r.params.Seed, gen, attempts))
			text = childA
		}

		if rng.Float64() < strategy.MutationRate || text == parentA.Text {
			op := operators[rng.Intn(len(operators))]
			mutated, err := r.safeApply(op, text, deriveSeed(r.params.Seed, gen, attempts+1000))
			if err != nil {
				r.faults++
				continue
			}
			text = mutated
		}

		if text != r.original.Text && !r.acceptable(text) {
			continue
		}

		produced++
		next = append(next, optimization.Candidate{
			ID:         fmt.Sprintf("g%03d-c%03d", gen, len(next)),
			Text:       text,
			Generation: gen,
		})
	}

	// fill any shortfall with elite copies to preserve the size invariant
	for len(next) < size {
		c := population[0].Clone()
		c.Generation = gen
		c.ID = fmt.Sprintf("g%03d-c%03d", gen, len(next))
		next = append(next, c)
	}

	return next[:size]
}

func (r *searchRun) converged(best optimization.Candidate) bool {
	costReduction := CostReduction(r.original.Metrics, best.Metrics)
	retention := QualityRetention(r.original.Metrics, best.Metrics)
	return costReduction >= r.params.TargetCostReduction &&
		retention >= r.params.TargetQualityThreshold
}

// safeApply runs one mutation operator with panic recovery.
func (r *searchRun) safeApply(op mutation.Operator, text string, seed int64) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("operator %s panic: %v", op.Name(), rec)
		}
	}()
	return op.Apply(text, seed), nil
}

// tournament picks two candidates at random and keeps the better one.
func tournament(rng *rand.Rand, population []optimization.Candidate) optimization.Candidate {
	a := population[rng.Intn(len(population))]
	b := population[rng.Intn(len(population))]
	if b.Better(a) {
		return b
	}
	return a
}

func sortPopulation(population []optimization.Candidate) {
	// insertion sort keeps the deterministic Better ordering explicit
	for i := 1; i < len(population); i++ {
		for j := i; j > 0 && population[j].Better(population[j-1]); j-- {
			population[j], population[j-1] = population[j-1], population[j]
		}
	}
}

func summarize(gen int, population []optimization.Candidate) optimization.GenerationSummary {
	unique := make(map[string]bool, len(population))
	for _, c := range population {
		unique[c.Text] = true
	}
	best := population[0]
	return optimization.GenerationSummary{
		Generation:    gen,
		BestFitness:   best.Fitness,
		BestID:        best.ID,
		BestTokens:    best.Metrics.TokenCount,
		PopulationLen: len(population),
		Diversity:     float64(len(unique)) / float64(len(population)),
	}
}

// deriveSeed mixes the job seed with generation and slot indices so every
// stochastic step is reproducible for a fixed job seed.
func deriveSeed(seed int64, gen, idx int) int64 {
	h := uint64(seed) ^ (uint64(gen)+1)*0x9E3779B97F4A7C15
	h ^= (uint64(idx) + 1) * 0xBF58476D1CE4E5B9
	h ^= h >> 31
	return int64(h)
}

func truncateText(s string) string {
	if len(s) <= 80 {
		return s
	}
	return s[:77] + "..."
}
