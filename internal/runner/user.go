package runner

import (
	"context"
	"math/rand/v2"
	"time"

	"trafficmix/internal/scenario"
)

// User is one simulated user. It holds no state between iterations other
// than its random stream.
type User struct {
	ID string

	picker    *scenario.Picker
	pacing    scenario.Pacing
	rnd       *rand.Rand
	requester Requester

	// requests run under reqCtx so that stopping the loop lets in-flight
	// requests finish; nil means the loop context
	reqCtx context.Context

	// OnOutcome is called once per iteration, before the wait.
	OnOutcome func(Outcome)
	// OnWait is called with each drawn wait before sleeping.
	OnWait func(time.Duration)
}

func NewUser(id string, mix scenario.Mix, rnd *rand.Rand, requester Requester) (*User, error) {
	picker, err := scenario.NewPicker(mix.Tasks, rnd)
	if err != nil {
		return nil, err
	}
	return &User{
		ID:        id,
		picker:    picker,
		pacing:    mix.Pacing,
		rnd:       rnd,
		requester: requester,
	}, nil
}

// Step selects and executes exactly one task.
func (u *User) Step(ctx context.Context) Outcome {
	reqCtx := u.reqCtx
	if reqCtx == nil {
		reqCtx = ctx
	}
	out := u.requester.Do(reqCtx, u.ID, u.picker.Pick())
	if u.OnOutcome != nil {
		u.OnOutcome(out)
	}
	return out
}

// Loop runs select, execute, wait until ctx is done. The wait is the only
// suspension point and is cut short by cancellation.
func (u *User) Loop(ctx context.Context) {
	for ctx.Err() == nil {
		u.Step(ctx)

		wait := u.pacing.Next(u.rnd)
		if u.OnWait != nil {
			u.OnWait(wait)
		}
		if !sleep(ctx, wait) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
