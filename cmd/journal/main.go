package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"skill-journal/internal/analytics"
	"skill-journal/internal/app"
	"skill-journal/internal/config"
	"skill-journal/internal/database/migration"
	dbpostgres "skill-journal/internal/database/postgres"
	"skill-journal/internal/database/seeder"
	"skill-journal/internal/domain/user"
	"skill-journal/internal/journal"
	"skill-journal/internal/report"
	"skill-journal/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "journal",
		Short:         "Skill learning journal tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newWatchCmd())
	return root
}

func loadContainer(ctx context.Context) (*app.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.NewContainer(ctx, cfg, app.NewLoggerTo(cfg.Log, os.Stderr))
}

func lookupUser(ctx context.Context, c *app.Container, email string) (user.User, error) {
	if strings.TrimSpace(email) == "" {
		return user.User{}, errors.New("--email is required")
	}
	u, err := c.Users.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return user.User{}, fmt.Errorf("no account for %s, register one first", email)
	}
	return u, err
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := dbpostgres.Connect(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			runner := migration.Runner{Logger: app.NewLoggerTo(cfg.Log, os.Stderr)}
			if err := runner.Up(ctx, db.SQLDB()); err != nil {
				return err
			}
			version, err := runner.Version(ctx, db.SQLDB())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "database at version %d\n", version)
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill a user's journal with demo skills and sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := loadContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			u, err := lookupUser(ctx, c, email)
			if err != nil {
				return err
			}
			if c.Config.Store.Driver == app.DriverMemory {
				return errors.New("seeding needs the postgres document store")
			}
			if err := seeder.CheckSchema(ctx, c.DB, seeder.DocumentsSchema); err != nil {
				return err
			}

			target := seeder.Target{Docs: c.Docs, Owner: u.ID.String(), Logger: c.Logger}
			if err := (seeder.Runner{Seeders: seeder.Defaults()}).Run(ctx, target); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded journal of %s\n", u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newReportCmd() *cobra.Command {
	var email, output, shape, metric string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a user's dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := analytics.ParseDisplayMode(shape, metric)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			c, err := loadContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			u, err := lookupUser(ctx, c, email)
			if err != nil {
				return err
			}
			owner := u.ID.String()
			skills, err := journal.NewSkillStore(c.Docs, owner, c.Logger).Fetch(ctx)
			if err != nil {
				return err
			}
			entries, err := journal.NewProgressStore(c.Docs, owner, "", c.Logger).Fetch(ctx)
			if err != nil {
				return err
			}
			return report.Render(cmd.OutOrStdout(), report.Build(u.Email, skills, entries, mode, time.Now()), output)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVarP(&output, "output", "o", report.FormatText, "output format: text|json|yaml")
	cmd.Flags().StringVar(&shape, "shape", "", "chart shape: bar|line")
	cmd.Flags().StringVar(&metric, "metric", "", "chart metric: hours|progress|sessions|value")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a user's dashboard as it changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := loadContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			u, err := lookupUser(ctx, c, email)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			provider := session.NewProvider(session.NewStaticAuth(&session.Identity{
				UserID: u.ID.String(), Email: u.Email, Name: u.Name,
			}), c.Logger)
			defer provider.Close()

			view := journal.NewView(ctx, provider, c.Docs, func(up journal.Update) {
				if up.Loading || up.Identity == nil {
					return
				}
				s := up.Summary
				_, _ = fmt.Fprintf(out, "%s skills=%d hours=%.1f sessions=%d avg=%.0f%%\n",
					time.Now().Format(time.TimeOnly), s.TotalSkills, s.TotalHours, s.SessionCount, s.AverageProgress)
			}, journal.WithLogger(c.Logger))
			defer view.Close()

			// Remote changes arrive through the bus; without Redis this just waits.
			return c.Bus.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}
