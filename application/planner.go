// Package application grounds goal formulas into arm action sequences and
// runs the search regression harness.
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/felixgeelhaar/shrdlu/domain/cache"
	"github.com/felixgeelhaar/shrdlu/domain/config"
	"github.com/felixgeelhaar/shrdlu/domain/goal"
	"github.com/felixgeelhaar/shrdlu/domain/heuristic"
	"github.com/felixgeelhaar/shrdlu/domain/history"
	"github.com/felixgeelhaar/shrdlu/domain/plan"
	"github.com/felixgeelhaar/shrdlu/domain/relation"
	"github.com/felixgeelhaar/shrdlu/domain/search"
	"github.com/felixgeelhaar/shrdlu/domain/statespace"
	"github.com/felixgeelhaar/shrdlu/domain/world"
	"github.com/felixgeelhaar/shrdlu/infrastructure/logging"
	"github.com/felixgeelhaar/shrdlu/infrastructure/resilience"
	"github.com/felixgeelhaar/shrdlu/infrastructure/statemachine"
	"github.com/felixgeelhaar/shrdlu/infrastructure/telemetry"
)

// PlannerConfig contains configuration for the planner.
type PlannerConfig struct {
	Search   config.SearchConfig
	Cache    *cache.Plans
	History  history.Store
	Metrics  *telemetry.MetricsProvider
	Tracer   trace.Tracer
	Executor *resilience.Executor
	Clock    func() time.Time
}

// Planner turns a start state and a goal formula into a plan.
type Planner struct {
	search    config.SearchConfig
	estimator *heuristic.Estimator
	graph     statespace.Graph
	cache     *cache.Plans
	history   history.Store
	metrics   *telemetry.MetricsProvider
	tracer    trace.Tracer
	executor  *resilience.Executor
	lifecycle *statemachine.Lifecycle
	clock     func() time.Time
}

// Request is one planning call. Goal takes precedence over GoalText.
type Request struct {
	Start    *world.State
	Goal     goal.Formula
	GoalText string

	// Timeout overrides the configured search budget when positive.
	Timeout time.Duration

	// NoCache skips the plan cache for this call.
	NoCache bool
}

// NewPlanner creates a planner.
func NewPlanner(cfg PlannerConfig) (*Planner, error) {
	switch cfg.Search.Heuristic {
	case "", config.HeuristicDomain, config.HeuristicZero:
	default:
		return nil, fmt.Errorf("unknown heuristic %q", cfg.Search.Heuristic)
	}
	combiner := heuristic.Combiner(cfg.Search.Combiner)
	if combiner == "" {
		combiner = heuristic.Sum
	}
	if !combiner.IsValid() {
		return nil, fmt.Errorf("unknown combiner %q", cfg.Search.Combiner)
	}

	lifecycle, err := statemachine.NewLifecycle()
	if err != nil {
		return nil, err
	}

	p := &Planner{
		search:    cfg.Search,
		estimator: heuristic.New(heuristic.WithCombiner(combiner)),
		cache:     cfg.Cache,
		history:   cfg.History,
		metrics:   cfg.Metrics,
		tracer:    cfg.Tracer,
		executor:  cfg.Executor,
		lifecycle: lifecycle,
		clock:     cfg.Clock,
	}
	if p.tracer == nil {
		p.tracer = noop.NewTracerProvider().Tracer("")
	}
	if p.executor == nil {
		p.executor = resilience.NewExecutorWithOptions(resilience.WithTimeout(cfg.Search.Timeout.Duration()))
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	return p, nil
}

// Mode names the heuristic settings.
func (p *Planner) Mode() string {
	return p.search.Mode()
}

// call carries one Plan invocation through its phases.
type call struct {
	id      string
	goal    string
	began   time.Time
	machine *statemachine.Interpreter
	span    trace.Span
	stats   search.Stats
}

// Plan grounds the goal in the start state.
//
// The goal is validated against the start state's objects first; if no
// conjunction survives, the call fails with plan.ErrMalformedGoal. A goal
// that already holds yields an empty plan with OutcomeAlreadyTrue. Search
// failures wrap search.ErrExhausted or search.ErrTimeout. Every failure is
// returned as a *plan.Error naming the phase.
func (p *Planner) Plan(ctx context.Context, req Request) (*plan.Plan, error) {
	c := &call{id: plan.NewID(), began: p.clock()}
	c.goal = req.GoalText
	if len(req.Goal) > 0 {
		c.goal = req.Goal.String()
	}

	if p.metrics != nil {
		defer p.metrics.PlanStarted(ctx)()
	}
	ctx, c.span = p.tracer.Start(ctx, "plan", trace.WithAttributes(
		attribute.String("plan.id", c.id),
		attribute.String("plan.goal", c.goal),
		attribute.String("plan.heuristic", p.Mode()),
	))
	defer c.span.End()
	c.machine = p.lifecycle.Begin(c.id, c.goal)

	logging.Debug().
		Add(logging.PlanID(c.id), logging.Goal(c.goal), logging.Heuristic(p.Mode())).
		Msg("planning started")

	if err := ctx.Err(); err != nil {
		return nil, p.fail(ctx, c, "intake", err)
	}

	// Intake
	f, err := p.intake(ctx, c, req)
	if err != nil {
		return nil, p.fail(ctx, c, "intake", err)
	}

	key := cache.Key(req.Start, f, p.Mode())
	if cached := p.lookup(ctx, c, key, req.NoCache); cached != nil {
		return cached, nil
	}

	if relation.SatisfiedAny(req.Start, f) {
		result := p.newPlan(c, plan.OutcomeAlreadyTrue, nil, 0)
		p.advance(c, plan.StateDone, "goal already holds")
		p.finish(ctx, c, result)
		return result, nil
	}

	// Search
	p.advance(c, plan.StateSearch, "goal validated")
	res, err := p.run(ctx, c, req, f)
	if err != nil {
		return nil, p.fail(ctx, c, "search", err)
	}

	// Render
	p.advance(c, plan.StateRender, "path found")
	steps, err := p.render(res.Path)
	if err != nil {
		return nil, p.fail(ctx, c, "render", err)
	}

	result := p.newPlan(c, plan.OutcomePlanned, steps, res.Cost)
	p.advance(c, plan.StateDone, "plan rendered")
	if p.cache != nil && !req.NoCache {
		if err := p.cache.Save(ctx, key, result); err != nil {
			logging.Warn().Add(logging.PlanID(c.id), logging.ErrorField(err)).Msg("plan cache write failed")
		}
	}
	p.finish(ctx, c, result)
	return result, nil
}

func (p *Planner) intake(ctx context.Context, c *call, req Request) (goal.Formula, error) {
	if req.Start == nil {
		return nil, fmt.Errorf("%w: no start state", plan.ErrInvalidRequest)
	}

	f := req.Goal
	if len(f) == 0 {
		if req.GoalText == "" {
			return nil, fmt.Errorf("%w: no goal", plan.ErrMalformedGoal)
		}
		parsed, err := goal.Parse(req.GoalText)
		if err != nil {
			return nil, err
		}
		f = parsed
	}

	objects := req.Start.Objects()
	kept, pruned, err := f.Validate(objects)
	if err != nil {
		return nil, err
	}
	if p.search.PhysicsPruning {
		var dropped []goal.Pruned
		kept, dropped = relation.Feasible(objects, kept)
		pruned = append(pruned, dropped...)
		if len(kept) == 0 {
			return nil, fmt.Errorf("%w: no physically feasible conjunction", plan.ErrMalformedGoal)
		}
	}

	if len(pruned) > 0 {
		if p.metrics != nil {
			p.metrics.RecordPruned(ctx, len(pruned))
		}
		for _, pr := range pruned {
			logging.Debug().
				Add(logging.PlanID(c.id), logging.Str("conjunction", pr.Conjunction.String()), logging.Str("reason", pr.Reason)).
				Msg("goal conjunction dropped")
		}
		logging.Info().Add(logging.PlanID(c.id), logging.Pruned(len(pruned))).Msg("goal pruned")
	}
	return kept, nil
}

func (p *Planner) lookup(ctx context.Context, c *call, key string, skip bool) *plan.Plan {
	if p.cache == nil || skip {
		return nil
	}
	cached, ok, err := p.cache.Lookup(ctx, key)
	if err != nil {
		logging.Warn().Add(logging.PlanID(c.id), logging.ErrorField(err)).Msg("plan cache read failed")
		return nil
	}
	if p.metrics != nil {
		p.metrics.RecordCache(ctx, ok)
	}
	if !ok {
		return nil
	}

	// Each served copy is its own planning call.
	cached.ID = c.id
	cached.Goal = c.goal
	cached.Cached = true
	cached.Stats = search.Stats{}
	cached.CreatedAt = c.began
	cached.Duration = p.clock().Sub(c.began)
	p.advance(c, plan.StateDone, "served from cache")
	p.finish(ctx, c, cached)
	return cached
}

func (p *Planner) estimate(f goal.Formula) search.HeuristicFunc[*world.State] {
	if p.search.Heuristic == config.HeuristicZero {
		return search.Zero[*world.State]
	}
	return func(s *world.State) float64 {
		return float64(p.estimator.Estimate(s, f))
	}
}

func (p *Planner) run(ctx context.Context, c *call, req Request, f goal.Formula) (search.Result[*world.State], error) {
	ctx, span := p.tracer.Start(ctx, "search")
	defer span.End()

	timeout := p.search.Timeout.Duration()
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	isGoal := func(s *world.State) bool { return relation.SatisfiedAny(s, f) }
	res, err := search.Search[*world.State](ctx, p.graph, req.Start, isGoal, p.estimate(f),
		search.WithTimeout(timeout),
		search.WithClock(p.clock),
	)
	c.stats = res.Stats

	span.SetAttributes(
		attribute.Int("search.expanded", res.Stats.Expanded),
		attribute.Int("search.generated", res.Stats.Generated),
		attribute.Int("search.reopened", res.Stats.Reopened),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (p *Planner) newPlan(c *call, outcome plan.Outcome, steps []plan.Step, cost float64) *plan.Plan {
	if steps == nil {
		steps = []plan.Step{}
	}
	return &plan.Plan{
		ID:        c.id,
		Goal:      c.goal,
		Steps:     steps,
		Cost:      cost,
		Outcome:   outcome,
		Heuristic: p.Mode(),
		Stats:     c.stats,
		Duration:  p.clock().Sub(c.began),
		CreatedAt: c.began,
	}
}

func (p *Planner) finish(ctx context.Context, c *call, result *plan.Plan) {
	c.span.SetAttributes(
		attribute.String("plan.outcome", string(result.Outcome)),
		attribute.Float64("plan.cost", result.Cost),
		attribute.String("plan.actions", result.Tokens()),
		attribute.Bool("plan.cached", result.Cached),
	)
	if p.metrics != nil {
		p.metrics.RecordPlan(ctx, result.Outcome, result.Heuristic, result.Cost, result.Stats.Expanded, result.Duration)
	}
	p.record(ctx, c, history.FromPlan(result))

	logging.Info().
		Add(
			logging.PlanID(c.id),
			logging.Goal(c.goal),
			logging.Outcome(result.Outcome),
			logging.Actions(result.Summary()),
			logging.Cost(result.Cost),
			logging.Expanded(result.Stats.Expanded),
			logging.Cached(result.Cached),
			logging.Duration(result.Duration),
			logging.Lifecycle(c.machine.State()),
		).
		Msg("plan ready")
}

// advance moves the call's lifecycle forward. A rejected move is logged
// and reported as false; the plan result is unaffected.
func (p *Planner) advance(c *call, to plan.State, reason string) bool {
	if err := c.machine.Transition(to, reason); err != nil {
		logging.Warn().
			Add(logging.PlanID(c.id), logging.Lifecycle(c.machine.State()), logging.ErrorField(err)).
			Msg("lifecycle transition rejected")
		return false
	}
	return true
}

func (p *Planner) fail(ctx context.Context, c *call, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, search.ErrTimeout) {
		err = fmt.Errorf("%w: %w", search.ErrTimeout, err)
	}
	c.machine.Fail(err.Error())
	outcome := plan.Classify(err)
	elapsed := p.clock().Sub(c.began)

	c.span.RecordError(err)
	c.span.SetStatus(codes.Error, err.Error())
	c.span.SetAttributes(attribute.String("plan.outcome", string(outcome)))
	if p.metrics != nil {
		p.metrics.RecordPlan(ctx, outcome, p.Mode(), 0, c.stats.Expanded, elapsed)
	}

	rec := history.FromFailure(c.id, c.goal, p.Mode(), err, c.stats, c.began)
	rec.Duration = elapsed
	p.record(ctx, c, rec)

	logging.Error().
		Add(
			logging.PlanID(c.id),
			logging.Goal(c.goal),
			logging.Outcome(outcome),
			logging.Expanded(c.stats.Expanded),
			logging.Duration(elapsed),
			logging.ErrorField(err),
		).
		Msg("planning failed")

	return &plan.Error{Op: op, Goal: c.goal, Err: err}
}

func (p *Planner) record(ctx context.Context, c *call, rec history.Record) {
	if p.history == nil {
		return
	}
	// History survives a canceled planning call.
	if err := p.history.Append(context.WithoutCancel(ctx), rec); err != nil {
		logging.Warn().Add(logging.PlanID(c.id), logging.ErrorField(err)).Msg("plan history write failed")
	}
}
