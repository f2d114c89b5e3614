// Package seeder fills a user's journal with demo data.
package seeder

import (
	"context"
	"log/slog"

	"skill-journal/internal/docstore"
)

// Target is the journal a seeder writes into.
type Target struct {
	Docs   docstore.Store
	Owner  string
	Logger *slog.Logger
}

type Seeder interface {
	Name() string
	Run(ctx context.Context, t Target) error
}
