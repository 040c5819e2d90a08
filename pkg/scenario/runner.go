package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"interceptor/pkg/errors"
	"interceptor/pkg/intercept"
	"interceptor/pkg/vm"
)

// Options control a scenario run.
type Options struct {
	// Logger receives progress records. nil discards them.
	Logger *slog.Logger
	// Observer is attached to the scenario's object, e.g. a telemetry.Collector.
	Observer intercept.Observer
	// FailFast stops at the first failing step.
	FailFast bool
	// MaxCallDepth bounds nested delegate calls; 0 keeps the engine default.
	MaxCallDepth int
}

// StepResult is the outcome of one step.
type StepResult struct {
	Step    *Step
	Got     vm.Value
	Err     error
	Failure string
}

func (r StepResult) Passed() bool { return r.Failure == "" }

// Report collects the outcome of every step that ran.
type Report struct {
	Scenario string
	File     string
	Steps    []StepResult
	Failures int
}

func (r *Report) Passed() bool { return r.Failures == 0 }

// Failed returns the failing step results in order.
func (r *Report) Failed() []StepResult {
	var failed []StepResult
	for _, s := range r.Steps {
		if !s.Passed() {
			failed = append(failed, s)
		}
	}
	return failed
}

// Run builds the scenario's object and performs its steps in order. Step
// failures are recorded in the report; the returned error is reserved for
// problems building the object and for context cancellation, which is
// checked between steps.
func Run(ctx context.Context, sc *Scenario, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("scenario", sc.Name)

	in, err := newInstance(sc, opts)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}

	report := &Report{Scenario: sc.Name, File: sc.File}
	for i := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		step := &sc.Steps[i]
		res := in.run(step)
		report.Steps = append(report.Steps, res)

		if res.Passed() {
			logger.Debug("step passed", "step", i+1, "op", string(step.Op), "got", res.Got.Inspect())
			continue
		}
		report.Failures++
		logger.Warn("step failed", "step", i+1, "line", step.Pos.Line, "op", string(step.Op), "failure", res.Failure)
		if opts.FailFast {
			break
		}
	}

	if report.Passed() {
		logger.Info("scenario passed", "steps", len(report.Steps))
	} else {
		logger.Error("scenario failed", "failures", report.Failures, "steps", len(report.Steps))
	}
	return report, nil
}

func (in *instance) run(step *Step) StepResult {
	res := StepResult{Step: step, Got: vm.Undefined}
	res.Got, res.Err = in.perform(step)

	if cfgErr, ok := res.Err.(*errors.ConfigError); ok {
		res.Failure = cfgErr.Message()
		return res
	}
	if step.ExpectError != "" {
		switch {
		case res.Err == nil:
			res.Failure = fmt.Sprintf("expected error containing %q, got %s", step.ExpectError, res.Got.Inspect())
		case !strings.Contains(res.Err.Error(), step.ExpectError):
			res.Failure = fmt.Sprintf("expected error containing %q, got %q", step.ExpectError, res.Err.Error())
		}
		return res
	}
	if res.Err != nil {
		res.Failure = fmt.Sprintf("unexpected error: %v", res.Err)
		return res
	}
	if step.Expect != nil && !step.Expect.Matches(res.Got) {
		res.Failure = fmt.Sprintf("expected %s, got %s", step.Expect, res.Got.InspectNested())
	}
	if step.ExpectDelegate != "" {
		want, _ := vm.OwnProperty(in.obj, step.ExpectDelegate)
		if !want.IsCallable() || !want.Is(res.Got) {
			res.Failure = fmt.Sprintf("expected the %s delegate, got %s", step.ExpectDelegate, res.Got.Inspect())
		}
	}
	return res
}

func (in *instance) perform(step *Step) (vm.Value, error) {
	machine := in.machine
	switch step.Op {
	case OpGet:
		return machine.GetElement(in.obj, vm.NewString(step.Key))
	case OpSet:
		return vm.Undefined, machine.SetElement(in.obj, vm.NewString(step.Key), step.Value.Value())
	case OpGetIndex:
		return machine.GetIndex(in.obj, step.Index)
	case OpSetIndex:
		return vm.Undefined, machine.SetIndex(in.obj, step.Index, step.Value.Value())
	case OpAssign:
		fn := step.Value.Value()
		if step.Delegate != nil {
			var err error
			if fn, err = in.delegate(step.Delegate, step.Key); err != nil {
				return vm.Undefined, err
			}
		}
		// Goes through the engine so the reserved-name bypass is exercised.
		return vm.Undefined, machine.SetProp(in.obj, step.Key, fn)
	case OpRecorded:
		rec, ok := in.recorders[step.Key]
		if !ok {
			return vm.Undefined, &errors.ConfigError{Position: step.Pos, Msg: fmt.Sprintf("no recorder named %q", step.Key)}
		}
		return rec.Log(), nil
	default:
		return vm.Undefined, &errors.ConfigError{Position: step.Pos, Msg: fmt.Sprintf("unknown step %q", step.Op)}
	}
}
