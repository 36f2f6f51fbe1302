package transfer

import (
	"coinflip/backend/internal/models"
	"context"
	"errors"
)

// Notifier is implemented by anything that reacts to a finished flip.
type Notifier interface {
	Notify(ctx context.Context, req models.TransferRequest) error
}

// Fanout calls every notifier in order. One failure doesn't stop the rest.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, req models.TransferRequest) error {
	var errs []error
	for _, n := range f {
		if err := n.Notify(ctx, req); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
