// Package orchestrator drives the per-run cycle loop: scanning the
// waitlist in flow-index order, dispatching ready inferences to their
// sequence handler, applying the retry policy on failure, checkpointing,
// and detecting success, deadlock, or budget exhaustion.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plandrive/engine/blackboard"
	"github.com/plandrive/engine/concept"
	"github.com/plandrive/engine/config"
	"github.com/plandrive/engine/sequence"
)

// Checkpointer persists a Blackboard snapshot at cycle boundaries. The Run
// Host implements this; tests may pass a no-op.
type Checkpointer interface {
	Checkpoint(ctx context.Context, cycle int, snapshot []byte) error
}

// EventSink receives the orchestrator's structured event stream,
// one call per inference dispatch outcome (complete or failed).
type EventSink interface {
	Emit(event Event)
}

// Event is one entry of the run's execution log.
type Event struct {
	Cycle       int
	InferenceID string
	FlowIndex   string
	Status      blackboard.InferenceStatus
	Steps       []sequence.StepLog
	Err         string
}

// Orchestrator runs one plan execution to completion.
type Orchestrator struct {
	board      *blackboard.Blackboard
	concepts   *concept.ConceptRepo
	inferences *concept.InferenceRepo
	handlers   map[concept.Sequence]sequence.Handler
	env        *sequence.Env

	checkpoint Checkpointer
	events     EventSink
	logger     *slog.Logger

	retry      config.RetryPolicy
	run        config.RunDefaults
	checkpointCfg config.CheckpointConfig

	attempts map[string]int
}

// New builds an Orchestrator for one run. env.RunBodyToCompletion is set to
// the Orchestrator's own scoped cycle loop so the looping sequence can
// drive sub-cycles.
func New(board *blackboard.Blackboard, concepts *concept.ConceptRepo, inferences *concept.InferenceRepo, env *sequence.Env, checkpoint Checkpointer, events EventSink, logger *slog.Logger, run config.RunDefaults, cp config.CheckpointConfig) (*Orchestrator, error) {
	handlers := make(map[concept.Sequence]sequence.Handler)
	for _, seq := range []concept.Sequence{
		concept.SequenceSimple, concept.SequenceGrouping, concept.SequenceLooping,
		concept.SequenceAssigning, concept.SequenceTiming, concept.SequenceImperative,
		concept.SequenceJudgement,
	} {
		h, err := sequence.NewHandler(seq)
		if err != nil {
			return nil, err
		}
		handlers[seq] = h
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		board:       board,
		concepts:    concepts,
		inferences:  inferences,
		handlers:    handlers,
		env:         env,
		checkpoint:  checkpoint,
		events:      events,
		logger:      logger,
		retry:       run.Retry,
		run:         run,
		checkpointCfg: cp,
		attempts:    make(map[string]int),
	}
	env.RunBodyToCompletion = o.runScoped
	return o, nil
}

// Run drives cycles until success, deadlock, budget exhaustion, or ctx
// cancellation.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return &CancelledError{}
		default:
		}

		cycle := o.board.AdvanceCycle()
		if o.run.MaxCycles > 0 && cycle > o.run.MaxCycles {
			return &BudgetExhaustedError{MaxCycles: o.run.MaxCycles}
		}

		transitioned, err := o.runCycle(ctx, cycle, "")
		if err != nil {
			return err
		}

		if o.checkpoint != nil && o.shouldCheckpoint(cycle) {
			snapshot, err := o.board.Snapshot()
			if err == nil {
				_ = o.checkpoint.Checkpoint(ctx, cycle, snapshot)
			}
		}

		if o.allFinalConceptsComplete() {
			return nil
		}
		if !transitioned {
			return o.deadlock()
		}
	}
}

// runScoped drives cycles restricted to inferences under flowPrefix until
// every such inference reaches a terminal status, used by the looping
// sequence to run one iteration's body.
func (o *Orchestrator) runScoped(ctx context.Context, flowPrefix string) error {
	for {
		select {
		case <-ctx.Done():
			return &CancelledError{}
		default:
		}
		cycle := o.board.AdvanceCycle()
		if o.run.MaxCycles > 0 && cycle > o.run.MaxCycles {
			return &BudgetExhaustedError{MaxCycles: o.run.MaxCycles}
		}
		transitioned, err := o.runCycle(ctx, cycle, flowPrefix)
		if err != nil {
			return err
		}
		if o.scopeComplete(flowPrefix) {
			return nil
		}
		if !transitioned {
			return o.deadlock()
		}
	}
}

func (o *Orchestrator) scopeComplete(flowPrefix string) bool {
	for _, inf := range o.inferences.FlowIndexOrder() {
		if flowPrefix != "" && !concept.HasPrefix(inf.FlowInfo.FlowIndex, flowPrefix) {
			continue
		}
		if flowPrefix != "" && inf.FlowInfo.FlowIndex == flowPrefix {
			continue
		}
		switch o.board.InferenceStatus(inf.ID) {
		case blackboard.InferenceComplete, blackboard.InferenceFailed:
		default:
			return false
		}
	}
	return true
}

// runCycle scans the waitlist once, dispatching every admitted ready
// inference (optionally restricted to flowPrefix) in bounded parallel.
func (o *Orchestrator) runCycle(ctx context.Context, cycle int, flowPrefix string) (transitioned bool, err error) {
	ready := o.board.ReadyInferences(o.inferences)
	if flowPrefix != "" {
		filtered := ready[:0:0]
		for _, inf := range ready {
			if concept.HasPrefix(inf.FlowInfo.FlowIndex, flowPrefix) && inf.FlowInfo.FlowIndex != flowPrefix {
				filtered = append(filtered, inf)
			}
		}
		ready = filtered
	}
	if len(ready) == 0 {
		return false, nil
	}

	poolSize := o.run.WorkerPoolSize
	if poolSize < 1 {
		poolSize = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(poolSize)
	written := make([]bool, len(ready))

	for i, inf := range ready {
		i, inf := i, inf
		if _, startErr := o.markInProgress(inf); startErr != nil {
			continue
		}
		g.Go(func() error {
			outcome, callErr := o.dispatch(gctx, inf)
			o.finish(cycle, inf, outcome, callErr)
			written[i] = true // complete or failed, the inference transitioned
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	for _, w := range written {
		if w {
			transitioned = true
		}
	}
	return transitioned, nil
}

func (o *Orchestrator) markInProgress(inf *concept.Inference) (bool, error) {
	if inf.StartWithoutValueOnlyOnce || inf.StartWithoutFunctionOnlyOnce {
		o.board.ConsumeStartFlagOnce(inf.ID)
	}
	if err := o.board.MarkInference(inf.ID, blackboard.InferenceInProgress); err != nil {
		return false, err
	}
	return true, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, inf *concept.Inference) (*sequence.Outcome, error) {
	handler, ok := o.handlers[inf.InferenceSequence]
	if !ok {
		return nil, fmt.Errorf("orchestrator: no handler for sequence %q", inf.InferenceSequence)
	}
	timeout := o.run.InferenceTimeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return handler.Run(ctx, o.env, inf)
}

func (o *Orchestrator) finish(cycle int, inf *concept.Inference, outcome *sequence.Outcome, callErr error) {
	if callErr == nil {
		_ = o.board.MarkInference(inf.ID, blackboard.InferenceComplete)
		o.attempts[inf.ID] = 0
		o.emit(cycle, inf, blackboard.InferenceComplete, outcome, "")
		return
	}

	_ = o.board.MarkInference(inf.ID, blackboard.InferenceFailed)
	o.attempts[inf.ID]++
	o.emit(cycle, inf, blackboard.InferenceFailed, outcome, callErr.Error())

	if o.attempts[inf.ID] <= o.retry.MaxRetries {
		delay := backoffDelay(o.retry, o.attempts[inf.ID])
		time.AfterFunc(delay, func() {
			_ = o.board.MarkInference(inf.ID, blackboard.InferencePending)
		})
	}
}

func backoffDelay(policy config.RetryPolicy, attempt int) time.Duration {
	delay := policy.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
			break
		}
	}
	return delay
}

func (o *Orchestrator) emit(cycle int, inf *concept.Inference, status blackboard.InferenceStatus, outcome *sequence.Outcome, errText string) {
	if o.events == nil {
		return
	}
	var steps []sequence.StepLog
	if outcome != nil {
		steps = outcome.Steps
	}
	o.events.Emit(Event{
		Cycle:       cycle,
		InferenceID: inf.ID,
		FlowIndex:   inf.FlowInfo.FlowIndex,
		Status:      status,
		Steps:       steps,
		Err:         errText,
	})
}

func (o *Orchestrator) shouldCheckpoint(cycle int) bool {
	if o.checkpointCfg.EveryNCycles <= 0 {
		return true
	}
	return cycle%o.checkpointCfg.EveryNCycles == 0
}

func (o *Orchestrator) allFinalConceptsComplete() bool {
	for _, inf := range o.inferences.FlowIndexOrder() {
		c, ok := o.concepts.Get(inf.ConceptToInfer)
		if !ok || !c.IsFinalConcept {
			continue
		}
		if o.board.ConceptStatus(c.ID) != blackboard.ConceptComplete {
			return false
		}
	}
	return true
}

func (o *Orchestrator) deadlock() error {
	var frontier []BlockedInference
	for _, inf := range o.inferences.FlowIndexOrder() {
		if o.board.InferenceStatus(inf.ID) != blackboard.InferencePending {
			continue
		}
		var missing []string
		for _, cid := range inf.EffectiveInputSet() {
			if o.board.ConceptStatus(cid) != blackboard.ConceptComplete {
				missing = append(missing, cid)
			}
		}
		if len(missing) > 0 {
			frontier = append(frontier, BlockedInference{FlowIndex: inf.FlowInfo.FlowIndex, Missing: missing})
		}
	}
	return &DeadlockError{Frontier: frontier}
}
