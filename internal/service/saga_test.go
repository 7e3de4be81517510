package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSagaCompensatesInReverse(t *testing.T) {
	var trail []string
	step := func(name string, fail bool) Step {
		return Step{
			Name: name,
			Do: func(context.Context) error {
				trail = append(trail, "do:"+name)
				if fail {
					return errors.New(name + " failed")
				}
				return nil
			},
			Compensate: func(context.Context) error {
				trail = append(trail, "undo:"+name)
				return nil
			},
		}
	}

	err := NewSaga("test", nil).
		Add(step("a", false)).
		Add(step("b", false)).
		Add(step("c", true)).
		Add(step("d", false)).
		Run(context.Background())

	require.EqualError(t, err, "c failed")
	assert.Equal(t, []string{"do:a", "do:b", "do:c", "undo:c", "undo:b", "undo:a"}, trail)
}

func TestSagaRunsAlwaysStepsOnSuccess(t *testing.T) {
	var undone []string
	mk := func(name string, always bool) Step {
		return Step{
			Name:       name,
			Do:         func(context.Context) error { return nil },
			Compensate: func(context.Context) error { undone = append(undone, name); return nil },
			Always:     always,
		}
	}

	err := NewSaga("test", nil).Add(mk("hold", true)).Add(mk("commit", false)).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"hold"}, undone)
}

func TestSagaCompensationSurvivesCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var compensated bool

	err := NewSaga("test", nil).
		Add(Step{
			Name: "hold",
			Do:   func(context.Context) error { return nil },
			Compensate: func(ctx context.Context) error {
				compensated = ctx.Err() == nil
				return nil
			},
		}).
		Add(Step{
			Name: "remote",
			Do: func(ctx context.Context) error {
				cancel()
				return ctx.Err()
			},
		}).
		Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, compensated)
}
