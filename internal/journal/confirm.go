package journal

import (
	"context"
	"errors"
)

var ErrNotConfirmed = errors.New("deletion not confirmed")

// Confirmer asks the user to approve an irreversible action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Confirmed approves everything; for callers that collected consent up front.
var Confirmed Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

func confirmed(ctx context.Context, c Confirmer, prompt string) bool {
	return c != nil && c.Confirm(ctx, prompt)
}
