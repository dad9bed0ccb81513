// Package saga runs multi-step workflows whose steps cannot share one transaction.
// When a step fails, the compensations of all previously completed steps run in
// reverse order.
package saga

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

type Step struct {
	Name       string
	Do         func(ctx context.Context) error
	Compensate func(ctx context.Context) error // nil when the step has nothing to undo
}

// StepError reports which step failed and whether every compensation succeeded.
type StepError struct {
	Step          string
	Err           error
	CompensateErr error
}

func (e *StepError) Error() string {
	if e.CompensateErr != nil {
		return fmt.Sprintf("step %q failed: %v (compensation failed: %v)", e.Step, e.Err, e.CompensateErr)
	}
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// RolledBack reports whether all completed steps were compensated.
func (e *StepError) RolledBack() bool { return e.CompensateErr == nil }

type Saga struct {
	name  string
	steps []Step
	log   logrus.FieldLogger
}

func New(name string, log logrus.FieldLogger) *Saga {
	return &Saga{name: name, log: log}
}

func (s *Saga) Add(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

func (s *Saga) Run(ctx context.Context) error {
	done := make([]Step, 0, len(s.steps))

	for _, step := range s.steps {
		if err := step.Do(ctx); err != nil {
			s.log.WithFields(logrus.Fields{"saga": s.name, "step": step.Name}).WithError(err).Warn("saga step failed, compensating")
			return &StepError{Step: step.Name, Err: err, CompensateErr: s.compensate(ctx, done)}
		}
		done = append(done, step)
	}
	return nil
}

func (s *Saga) compensate(ctx context.Context, done []Step) error {
	// compensations must run even when the request context is already cancelled
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.log.WithFields(logrus.Fields{"saga": s.name, "step": step.Name}).WithError(err).Error("compensation failed")
			errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}
