package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openfroyo/intcode/pkg/intcode"
	"github.com/openfroyo/intcode/pkg/permute"
	"github.com/openfroyo/intcode/pkg/telemetry"
)

// Runner executes programs and records the outcome of each run.
type Runner struct {
	scheduler *TrialScheduler
	recorder  Recorder
	metrics   Metrics
}

// NewRunner creates a runner. A non-positive maxParallel uses the number of
// CPUs. recorder and metrics may be nil.
func NewRunner(maxParallel int, recorder Recorder, metrics Metrics) *Runner {
	return &Runner{
		scheduler: NewTrialScheduler(maxParallel),
		recorder:  recorder,
		metrics:   metrics,
	}
}

// Diagnose runs program once with the given inputs. A machine that suspends
// waiting for more input is reported in the result, not as an error.
func (r *Runner) Diagnose(ctx context.Context, program intcode.Program, inputs []int64) (*DiagnosticResult, error) {
	rc := r.begin(ctx, RunKindDiagnostic, program, map[string]interface{}{
		"inputs": inputs,
	})

	m := intcode.New(program)
	for _, v := range inputs {
		m.SupplyInput(v)
	}

	state, err := m.RunContext(rc.ctx)
	r.trial(RunKindDiagnostic, m.Steps(), err)
	if err != nil {
		return nil, rc.fail(classifyError(err, "diagnose"))
	}

	// An empty program faults on its first fetch, so address 0 exists here.
	cell0, err := m.Peek(0)
	if err != nil {
		return nil, rc.fail(classifyError(err, "diagnose"))
	}
	result := &DiagnosticResult{
		RunID:   rc.run.ID,
		State:   state,
		Outputs: m.DrainOutput(),
		Steps:   m.Steps(),
		Cell0:   cell0,
	}

	rc.run.Detail["state"] = string(state)
	rc.run.Detail["outputs"] = result.Outputs
	rc.run.Detail["steps"] = result.Steps
	if state == intcode.StateSuspended {
		rc.logger.Warn("program suspended waiting for input")
	}

	headline := cell0
	if n := len(result.Outputs); n > 0 {
		headline = result.Outputs[n-1]
	}
	rc.succeed(headline)
	return result, nil
}

// Amplify runs a single amplifier network with the given phase settings,
// starting from signal 0.
func (r *Runner) Amplify(ctx context.Context, program intcode.Program, phases []int64, mode NetworkMode) (*AmplifyResult, error) {
	rc := r.begin(ctx, RunKindAmplify, program, map[string]interface{}{
		"mode":   string(mode),
		"phases": phases,
	})
	rc.network(mode, phases)

	network, err := NewNetwork(intcode.New(program), phases, mode)
	if err != nil {
		return nil, rc.fail(classifyError(err, "amplify"))
	}

	signal, err := network.Run(rc.ctx, 0)
	r.trial(RunKindAmplify, network.Steps(), err)
	if err != nil {
		return nil, rc.fail(classifyError(err, "amplify"))
	}

	rc.run.Detail["rounds"] = network.Rounds()
	rc.succeed(signal)

	return &AmplifyResult{
		RunID:  rc.run.ID,
		Mode:   mode,
		Phases: network.Phases(),
		Signal: signal,
		Rounds: network.Rounds(),
		Steps:  network.Steps(),
	}, nil
}

// SearchPhases tries every ordering of phases and returns the highest final
// signal. Ties go to the ordering generated first.
func (r *Runner) SearchPhases(ctx context.Context, program intcode.Program, phases []int64, mode NetworkMode) (*SearchResult, error) {
	rc := r.begin(ctx, RunKindSearch, program, map[string]interface{}{
		"mode":   string(mode),
		"phases": phases,
	})
	rc.network(mode, phases)
	start := time.Now()

	if err := mode.Validate(); err != nil {
		return nil, rc.fail(classifyError(err, "search"))
	}
	if len(phases) == 0 {
		return nil, rc.fail(NewPermanentError("no phase settings to search", nil).
			WithCode(ErrCodeValidation).WithOperation("search"))
	}
	if len(phases) > MaxPhases {
		return nil, rc.fail(NewPermanentError(
			fmt.Sprintf("cannot search %d phase settings, at most %d", len(phases), MaxPhases), nil).
			WithCode(ErrCodeValidation).WithOperation("search").
			WithDetail("phases", len(phases)))
	}

	prototype := intcode.New(program)

	var (
		mu         sync.Mutex
		bestIndex  = -1
		bestValue  int64
		bestPhases []int64
		trials     int
		steps      uint64
	)

	candidates := permute.New(phases).All()
	err := RunSeq(rc.ctx, r.scheduler, candidates, func(ctx context.Context, index int, candidate []int64) error {
		network, err := NewNetwork(prototype, candidate, mode)
		if err != nil {
			return err
		}
		signal, err := network.Run(ctx, 0)
		r.trial(RunKindSearch, network.Steps(), err)
		if err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		trials++
		steps += network.Steps()
		if bestIndex < 0 || signal > bestValue || (signal == bestValue && index < bestIndex) {
			bestIndex, bestValue, bestPhases = index, signal, candidate
		}
		return nil
	})
	if err != nil {
		return nil, rc.fail(classifyError(err, "search"))
	}

	result := &SearchResult{
		RunID:    rc.run.ID,
		Mode:     mode,
		Signal:   bestValue,
		Phases:   bestPhases,
		Trials:   trials,
		Steps:    steps,
		Duration: time.Since(start),
	}

	rc.run.Detail["best_phases"] = result.Phases
	rc.run.Detail["trials"] = result.Trials
	rc.run.Detail["steps"] = result.Steps
	rc.event(EventTypeNewBest, "info", "highest signal found", map[string]interface{}{
		"signal": result.Signal,
		"phases": result.Phases,
	})
	rc.op.Span.SetAttributes(telemetry.AttrTrials.Int(result.Trials))
	rc.succeed(result.Signal)

	return result, nil
}

// Sweep patches every noun/verb pair into memory and returns the first pair,
// in noun-major order, whose run leaves Target at ResultAddr. Trials that
// fault or suspend count as misses.
func (r *Runner) Sweep(ctx context.Context, program intcode.Program, spec SweepSpec) (*SweepResult, error) {
	rc := r.begin(ctx, RunKindSweep, program, map[string]interface{}{
		"target": spec.Target,
	})

	if err := spec.Validate(); err != nil {
		return nil, rc.fail(classifyError(err, "sweep"))
	}

	prototype := intcode.New(program)
	total := spec.trials()

	var (
		mu        sync.Mutex
		bestIndex = -1
		ran       int
		faulted   int
	)

	err := r.scheduler.Run(rc.ctx, total, func(ctx context.Context, index int) error {
		mu.Lock()
		skip := bestIndex >= 0 && index > bestIndex
		mu.Unlock()
		if skip {
			return nil
		}

		noun, verb := spec.pair(index)
		m := prototype.Clone()
		if err := m.Poke(spec.NounAddr, noun); err != nil {
			return classifyError(err, "sweep")
		}
		if err := m.Poke(spec.VerbAddr, verb); err != nil {
			return classifyError(err, "sweep")
		}

		state, runErr := m.RunContext(ctx)
		r.trial(RunKindSweep, m.Steps(), runErr)
		if runErr != nil && !intcode.IsFault(runErr) {
			return runErr
		}

		mu.Lock()
		defer mu.Unlock()
		ran++
		if runErr != nil {
			faulted++
			return nil
		}
		if state != intcode.StateFinished {
			return nil
		}
		if value, err := m.Peek(spec.ResultAddr); err == nil && value == spec.Target {
			if bestIndex < 0 || index < bestIndex {
				bestIndex = index
			}
		}
		return nil
	})
	if err != nil {
		return nil, rc.fail(classifyError(err, "sweep"))
	}

	if bestIndex < 0 {
		return nil, rc.fail(NewPermanentError("no noun/verb pair produces the target", nil).
			WithCode(ErrCodeNotFound).
			WithOperation("sweep").
			WithDetail("target", spec.Target))
	}

	noun, verb := spec.pair(bestIndex)
	result := &SweepResult{
		RunID:   rc.run.ID,
		Noun:    noun,
		Verb:    verb,
		Answer:  100*noun + verb,
		Trials:  ran,
		Faulted: faulted,
	}

	rc.run.Detail["noun"] = noun
	rc.run.Detail["verb"] = verb
	rc.run.Detail["trials"] = ran
	rc.event(EventTypeMatch, "info", "matching pair found", map[string]interface{}{
		"noun": noun,
		"verb": verb,
	})
	rc.succeed(result.Answer)

	return result, nil
}

// trial reports one execution to the metrics sink.
func (r *Runner) trial(kind RunKind, steps uint64, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordTrial(string(kind), steps)
	if fault, ok := intcode.AsFault(err); ok {
		r.metrics.RecordFault(string(fault.Kind))
	}
}

// network tags the run's span and logger with the amplifier configuration.
func (rc *runContext) network(mode NetworkMode, phases []int64) {
	rc.op.Span.SetAttributes(
		telemetry.AttrNetworkMode.String(string(mode)),
		telemetry.AttrPhases.Int64Slice(phases),
	)
	rc.logger = rc.logger.WithField("mode", string(mode)).WithPhases(phases)
}

// runContext tracks a single run from start to completion.
type runContext struct {
	runner *Runner
	ctx    context.Context
	op     *telemetry.Operation
	logger *telemetry.Logger
	run    *Run
}

func (r *Runner) begin(ctx context.Context, kind RunKind, program intcode.Program, detail map[string]interface{}) *runContext {
	run := &Run{
		ID:          uuid.New().String(),
		Kind:        kind,
		ProgramHash: program.Hash(),
		Status:      RunStatusRunning,
		Detail:      detail,
		StartedAt:   time.Now(),
	}

	op := telemetry.StartOperation(ctx, "run."+string(kind),
		telemetry.AttrRunID.String(run.ID),
		telemetry.AttrRunKind.String(string(kind)),
		telemetry.AttrProgramHash.String(run.ProgramHash),
	)

	logger := op.Logger.WithRunID(run.ID).WithProgram(run.ProgramHash).WithField("kind", string(kind))
	rc := &runContext{
		runner: r,
		ctx:    logger.WithContext(op.Ctx),
		op:     op,
		logger: logger,
		run:    run,
	}

	logger.Debug("run started")
	rc.save()
	rc.event(EventTypeRunStarted, "info", "run started", nil)
	return rc
}

func (rc *runContext) succeed(result int64) {
	rc.run.Result = &result
	rc.complete(RunStatusSucceeded)
	rc.op.Span.SetAttributes(telemetry.AttrRunResult.Int64(result))
	rc.logger.WithField("result", result).Info("run succeeded")
	rc.event(EventTypeRunCompleted, "info", "run succeeded", map[string]interface{}{"result": result})
	rc.op.End(nil)
}

func (rc *runContext) fail(err *EngineError) error {
	status := RunStatusFailed
	if err.Code == ErrCodeCancelled {
		status = RunStatusCancelled
	}
	rc.run.Error = err.Error()
	rc.complete(status)

	rc.op.Span.SetAttributes(telemetry.AttrErrorCode.String(err.Code))
	rc.logger.WithError(err).Error("run failed")
	rc.event(EventTypeRunFailed, "error", err.Message, map[string]interface{}{"code": err.Code})
	rc.op.End(err)
	return err
}

func (rc *runContext) complete(status RunStatus) {
	now := time.Now()
	rc.run.Status = status
	rc.run.CompletedAt = &now
	rc.run.Duration = now.Sub(rc.run.StartedAt)
	rc.op.Span.SetAttributes(telemetry.AttrRunStatus.String(string(status)))

	if rc.runner.metrics != nil {
		rc.runner.metrics.RecordRun(string(rc.run.Kind), string(status), rc.run.Duration)
	}
	rc.save()
}

// save persists the run. Recorder failures are logged only.
func (rc *runContext) save() {
	if rc.runner.recorder == nil {
		return
	}
	if err := rc.runner.recorder.SaveRun(context.WithoutCancel(rc.ctx), rc.run); err != nil {
		rc.logger.WithError(err).Warn("failed to record run")
	}
}

func (rc *runContext) event(eventType EventType, level, message string, payload map[string]interface{}) {
	if rc.runner.recorder == nil {
		return
	}
	event := &Event{
		ID:        uuid.New().String(),
		RunID:     rc.run.ID,
		Type:      eventType,
		Level:     level,
		Message:   message,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	if err := rc.runner.recorder.AppendEvent(context.WithoutCancel(rc.ctx), event); err != nil {
		rc.logger.WithError(err).Warn("failed to record event")
	}
}
