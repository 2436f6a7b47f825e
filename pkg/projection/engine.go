// Package projection computes the forward projection Y = A·x of a
// microstructure-informed tractography dictionary.
//
// A is never formed. Its structure comes from the segment lookup tables of a
// dictionary.Dictionary and its values from the response templates of a
// dictionary.Kernels. An invocation runs three phases in a fixed order:
//
//  1. the intra-axonal (IC) segments, scanned by one goroutine per worker id
//     of the partition and accumulated straight into the shared output
//  2. the extra-axonal (EC) contributions, on the calling goroutine
//  3. the isotropic (ISO) contributions, on the calling goroutine
//
// IC workers write without locks or atomics. The caller must supply a
// partition in which segments of different workers never share a voxel; see
// dictionary.CheckPartition.
package projection

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tractoproj/pkg/dictionary"
)

// ErrConfigOutOfRange is returned by NewEngine for compartment or thread
// counts outside the supported bounds.
var ErrConfigOutOfRange = errors.New("projection: configuration out of range")

// Config fixes the compartment counts and worker count of an Engine.
type Config struct {
	// Counts is the number of IC, EC and ISO compartments, each in [0, 4].
	Counts dictionary.Counts

	// Threads is the number of IC workers, in [1, 16].
	Threads int

	// Checked validates every boundary array before each invocation and
	// reports malformed input instead of producing undefined results.
	Checked bool
}

// Validate reports whether the configuration is within bounds.
func (c Config) Validate() error {
	check := func(name string, v, lo, hi int) error {
		if v < lo || v > hi {
			return fmt.Errorf("%w: %s = %d, must be in [%d, %d]", ErrConfigOutOfRange, name, v, lo, hi)
		}
		return nil
	}
	if err := check("IC compartments", c.Counts.IC, 0, dictionary.MaxCompartments); err != nil {
		return err
	}
	if err := check("EC compartments", c.Counts.EC, 0, dictionary.MaxCompartments); err != nil {
		return err
	}
	if err := check("ISO compartments", c.Counts.ISO, 0, dictionary.MaxCompartments); err != nil {
		return err
	}
	return check("threads", c.Threads, 1, dictionary.MaxThreads)
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for phase transitions and summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics records every invocation in m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithObserver calls fn on every state an invocation enters. fn runs on the
// calling goroutine and must not block.
func WithObserver(fn func(State)) Option {
	return func(e *Engine) { e.observer = fn }
}

// PhaseStats describes one phase of an invocation.
type PhaseStats struct {
	// Active is the number of entries with at least one positive coefficient.
	Active int

	// Skipped is the number of entries whose coefficients were all non-positive.
	Skipped int

	Duration time.Duration
}

// Stats describes one invocation.
type Stats struct {
	IC  PhaseStats
	EC  PhaseStats
	ISO PhaseStats
}

// Result is the output of ProjectWithStats.
type Result struct {
	// Signal is the predicted signal, NumSamples values per voxel with the
	// sample index varying fastest.
	Signal []float64

	Stats Stats
}

// Engine evaluates the forward projection for a fixed dictionary, kernel set
// and partition. An Engine may be used by several goroutines at once; every
// invocation owns its output buffer.
type Engine struct {
	cfg     Config
	dict    *dictionary.Dictionary
	kernels *dictionary.Kernels
	part    dictionary.Partition

	ic  kernelSet
	ec  kernelSet
	iso kernelSet

	icPhase  icPhaseFunc
	ecPhase  sequentialPhaseFunc
	isoPhase sequentialPhaseFunc

	logger   *slog.Logger
	metrics  *Metrics
	observer func(State)
}

// NewEngine creates an Engine. The configuration is checked here, once; the
// dictionary, kernels and partition are only checked per invocation when
// cfg.Checked is set.
func NewEngine(cfg Config, dict *dictionary.Dictionary, kernels *dictionary.Kernels, part dictionary.Partition, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(kernels.IC) < cfg.Counts.IC || len(kernels.EC) < cfg.Counts.EC || len(kernels.ISO) < cfg.Counts.ISO {
		return nil, fmt.Errorf("%w: kernels (IC=%d, EC=%d, ISO=%d) do not cover the configured compartments",
			dictionary.ErrShape, len(kernels.IC), len(kernels.EC), len(kernels.ISO))
	}

	e := &Engine{
		cfg:      cfg,
		dict:     dict,
		kernels:  kernels,
		part:     part,
		icPhase:  icPhaseFor(cfg.Counts.IC),
		ecPhase:  ecPhaseFor(cfg.Counts.EC),
		isoPhase: isoPhaseFor(cfg.Counts.ISO),
		logger:   slog.Default(),
	}
	copy(e.ic[:], kernels.IC[:cfg.Counts.IC])
	copy(e.ec[:], kernels.EC[:cfg.Counts.EC])
	copy(e.iso[:], kernels.ISO[:cfg.Counts.ISO])

	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// SignalLen returns the length of the output buffer of every invocation.
func (e *Engine) SignalLen() int {
	return e.kernels.NumSamples * e.dict.NumVoxels()
}

// Project computes the predicted signal for the coefficient vector x.
// Without Checked mode the only possible error comes from the partition
// assertion of a debug build.
func (e *Engine) Project(x []float64) ([]float64, error) {
	res, err := e.ProjectWithStats(x)
	if err != nil {
		return nil, err
	}
	return res.Signal, nil
}

// ProjectWithStats is Project plus per-phase statistics.
func (e *Engine) ProjectWithStats(x []float64) (*Result, error) {
	if e.cfg.Checked {
		if err := dictionary.Validate(e.cfg.Counts, e.cfg.Threads, e.dict, e.kernels, e.part, len(x)); err != nil {
			return nil, fmt.Errorf("invalid projection input: %w", err)
		}
	} else if partitionAssertions && e.icPhase != nil {
		if err := dictionary.CheckPartition(e.dict.IC, e.part); err != nil {
			return nil, fmt.Errorf("partition assertion failed: %w", err)
		}
	}

	start := time.Now()
	e.enter(StateInit)
	ctx := e.newContext(x)

	var res Result
	e.enter(StateICParallel)
	res.Stats.IC = timed(func() entryCounts { return e.runIC(ctx) })
	e.enter(StateJoined)

	e.enter(StateECSequential)
	res.Stats.EC = timed(func() entryCounts { return runSequential(e.ecPhase, ctx) })

	e.enter(StateISOSequential)
	res.Stats.ISO = timed(func() entryCounts { return runSequential(e.isoPhase, ctx) })

	e.enter(StateDone)
	res.Signal = ctx.y

	elapsed := time.Since(start)
	if e.metrics != nil {
		e.metrics.observe(&res.Stats, elapsed)
	}
	e.logger.Debug("projection complete",
		"ic_active", res.Stats.IC.Active,
		"ec_active", res.Stats.EC.Active,
		"iso_active", res.Stats.ISO.Active,
		"elapsed", elapsed)
	return &res, nil
}

func (e *Engine) newContext(x []float64) *projContext {
	nE, nV := e.dict.EC.Len(), e.dict.ISO.Len()
	nF := e.cfg.Counts.NumFibers(len(x), nE, nV)
	return &projContext{
		dict:      e.dict,
		part:      e.part,
		ic:        &e.ic,
		ec:        &e.ec,
		iso:       &e.iso,
		x:         x,
		y:         make([]float64, e.SignalLen()),
		nS:        e.kernels.NumSamples,
		nF:        nF,
		nE:        nE,
		nV:        nV,
		ecOffset:  e.cfg.Counts.IC * nF,
		isoOffset: e.cfg.Counts.IC*nF + e.cfg.Counts.EC*nE,
	}
}

// runIC starts one goroutine per worker id and waits for all of them.
func (e *Engine) runIC(ctx *projContext) entryCounts {
	if e.icPhase == nil {
		return entryCounts{}
	}

	perThread := make([]entryCounts, e.cfg.Threads)
	var wg sync.WaitGroup
	for t := 0; t < e.cfg.Threads; t++ {
		wg.Add(1)
		go func(task icTask) {
			defer wg.Done()
			e.icPhase(task)
		}(icTask{thread: t, ctx: ctx, counts: &perThread[t]})
	}
	wg.Wait()

	var total entryCounts
	for _, c := range perThread {
		total.active += c.active
		total.skipped += c.skipped
	}
	return total
}

func runSequential(phase sequentialPhaseFunc, ctx *projContext) entryCounts {
	if phase == nil {
		return entryCounts{}
	}
	return phase(ctx)
}

func timed(fn func() entryCounts) PhaseStats {
	start := time.Now()
	c := fn()
	return PhaseStats{Active: c.active, Skipped: c.skipped, Duration: time.Since(start)}
}

func (e *Engine) enter(s State) {
	e.logger.Debug("projection state", "state", s)
	if e.observer != nil {
		e.observer(s)
	}
}
