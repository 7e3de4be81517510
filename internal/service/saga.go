package service

import (
	"context"

	"github.com/rs/zerolog"
)

// Step is one stage of a Saga. Compensate undoes whatever Do managed to do and
// must tolerate a Do that failed halfway.
type Step struct {
	Name       string
	Do         func(ctx context.Context) error
	Compensate func(ctx context.Context) error
	// Always runs Compensate when the saga succeeds too.
	Always bool
}

// Saga runs steps in order. When a step fails, the compensations of that step
// and every step before it run in reverse order.
type Saga struct {
	name   string
	steps  []Step
	logger *zerolog.Logger
}

func NewSaga(name string, logger *zerolog.Logger) *Saga {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Saga{name: name, logger: logger}
}

func (s *Saga) Add(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Run executes the saga. The returned error is the failing step's error;
// compensation failures are only logged.
func (s *Saga) Run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.Do(ctx); err != nil {
			s.logger.Warn().Err(err).Str("saga", s.name).Str("step", step.Name).Msg("Saga step failed, compensating")
			s.compensate(ctx, s.steps[:i+1], false)
			return err
		}
	}
	s.compensate(ctx, s.steps, true)
	return nil
}

func (s *Saga) compensate(ctx context.Context, steps []Step, onlyAlways bool) {
	// compensations must still run when the request context is already cancelled
	ctx = context.WithoutCancel(ctx)
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if step.Compensate == nil || (onlyAlways && !step.Always) {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.logger.Error().Err(err).Str("saga", s.name).Str("step", step.Name).Msg("Compensation failed")
		}
	}
}

