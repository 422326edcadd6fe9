package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dgw-tools/coursemapper/internal/catalog"
	"github.com/dgw-tools/coursemapper/internal/config"
	"github.com/dgw-tools/coursemapper/internal/emit"
	"github.com/dgw-tools/coursemapper/internal/interp"
	"github.com/dgw-tools/coursemapper/internal/quarantine"
	"github.com/dgw-tools/coursemapper/internal/report"
	"github.com/dgw-tools/coursemapper/internal/storage"
	"github.com/dgw-tools/coursemapper/internal/storage/mysql"
	"github.com/dgw-tools/coursemapper/internal/storage/sqlite"
	"github.com/dgw-tools/coursemapper/internal/telemetry"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Interpret all active plans and write the three mapping tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		return runMap(cmd.Context(), cfg)
	},
}

// backend is what both database stores provide: blocks, courses, plans.
type backend interface {
	storage.Store
	storage.CourseSource
	storage.PlanSource
	Close() error
}

func openBackend(ctx context.Context, cfg *config.Config) (backend, error) {
	if cfg.Store == "sqlite" {
		return sqlite.Open(ctx, cfg.DBFile)
	}
	return mysql.Open(ctx, &mysql.Config{DSN: cfg.DSN})
}

func runMap(ctx context.Context, cfg *config.Config) error {
	started := time.Now()
	runID := uuid.NewString()

	shutdown, err := telemetry.Init(cfg.Debug, Version)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	db, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	cat, err := catalog.New(db)
	if err != nil {
		return err
	}
	quarantined, err := quarantine.Load(cfg.Quarantine)
	if err != nil {
		return err
	}

	rep, err := report.Open(cfg.ReportsDir, runID)
	if err != nil {
		return err
	}
	defer rep.Close()

	sink, err := emit.Open(cfg.ReportsDir)
	if err != nil {
		return err
	}
	defer sink.Close()

	counters, err := telemetry.NewCounters()
	if err != nil {
		return err
	}

	m := interp.New(db, cat, nil, rep, sink, counters, quarantined, interp.Options{
		ConciseConditionals: cfg.ConciseConditionals,
		NoRemarks:           cfg.NoRemarks,
		NoProxyAdvice:       cfg.NoProxyAdvice,
	})

	seeds, err := db.ActivePlans(ctx)
	if err != nil {
		return err
	}
	for _, seed := range seeds {
		if t := seed.Block.BlockType; t != "MAJOR" && t != "MINOR" {
			rep.Anomaly(seed.Block.Institution, seed.Block.RequirementID,
				"Plan %s with block type %s", seed.Plan, t)
		}
		if err := m.ProcessPlan(ctx, seed); err != nil {
			return fmt.Errorf("plan %s %s: %w", seed.Block.Institution, seed.Plan, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	fmt.Print(renderSummary(m, len(seeds), runID, time.Since(started)))
	return nil
}

var (
	summaryHeaderStyle = lipgloss.NewStyle().Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"})
	summaryMutedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"})
)

func renderSummary(m *interp.Mapper, plans int, runID string, elapsed time.Duration) string {
	styled := term.IsTerminal(int(os.Stdout.Fd())) && termenv.ColorProfile() != termenv.Ascii
	paint := func(style lipgloss.Style, s string) string {
		if styled {
			return style.Render(s)
		}
		return s
	}

	var b strings.Builder
	fmt.Fprintln(&b, paint(summaryHeaderStyle, "Processed blocks by type"))

	tally := m.Tally()
	blockTypes := make([]string, 0, len(tally))
	for bt := range tally {
		blockTypes = append(blockTypes, bt)
	}
	sort.Strings(blockTypes)
	for _, bt := range blockTypes {
		fmt.Fprintf(&b, "  %-8s %6d\n", bt, tally[bt])
	}
	fmt.Fprintf(&b, "  %-8s %6d\n", "plans", plans)
	fmt.Fprintf(&b, "  requirement keys assigned: %d\n", m.RequirementCount())
	fmt.Fprintln(&b, paint(summaryMutedStyle,
		fmt.Sprintf("run %s finished in %s", runID, elapsed.Round(time.Millisecond))))
	return b.String()
}
