package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

type Runner struct {
	Seeders []Seeder
}

func (r Runner) Run(ctx context.Context, t Target) error {
	if t.Docs == nil {
		return errors.New("nil document store")
	}
	if t.Owner == "" {
		return errors.New("empty owner")
	}
	if t.Logger == nil {
		t.Logger = slog.Default()
	}
	for _, s := range r.Seeders {
		if s == nil {
			continue
		}
		if err := s.Run(ctx, t); err != nil {
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		t.Logger.Info("seeded", slog.String("seeder", s.Name()), slog.String("user_id", t.Owner))
	}
	return nil
}
