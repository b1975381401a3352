// Package session loads the dashboard inputs once at startup. The resulting Session
// is immutable and is passed by reference to every consumer.
package session

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pcadash/adapters/excel"
	"pcadash/adapters/limitsfile"
	"pcadash/domain/insights"
	"pcadash/domain/tabular"
	"pcadash/internal/config"
	"pcadash/internal/errors"
	"pcadash/internal/logging"
)

// Session holds the read-only inputs for one dashboard process.
type Session struct {
	ID       uuid.UUID
	LoadedAt time.Time

	Results insights.ResultsTable
	Limits  insights.Limits

	// Processed is the cleaned dataset shown by the data explorer. It is optional:
	// ProcessedErr records why it could not be loaded.
	Processed    tabular.Table
	ProcessedErr error

	// Overview is the markdown shown on the landing page, empty for the built-in text.
	Overview []byte

	Sources config.PathConfig
}

// Load reads the results table, limits and processed dataset concurrently.
// A missing or invalid results table or limits file is fatal.
func Load(ctx context.Context, paths config.PathConfig, logger *slog.Logger) (*Session, error) {
	logger = logging.Component(logger, "session")

	s := &Session{
		ID:       uuid.New(),
		LoadedAt: time.Now().UTC(),
		Sources:  paths,
	}
	start := time.Now()

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		results, err := excel.LoadResults(paths.ResultsFile)
		if err != nil {
			return err
		}
		s.Results = results
		return nil
	})
	g.Go(func() error {
		limits, err := limitsfile.Load(paths.LimitsFile)
		if err != nil {
			return err
		}
		s.Limits = limits
		return nil
	})
	g.Go(func() error {
		processed, err := excel.ReadTable(paths.ProcessedFile)
		if err != nil {
			s.ProcessedErr = err
			return nil
		}
		s.Processed = processed
		return nil
	})
	g.Go(func() error {
		if paths.OverviewFile == "" {
			return nil
		}
		raw, err := os.ReadFile(paths.OverviewFile)
		if err != nil {
			return errors.Wrapf(err, "failed to read overview file %s", paths.OverviewFile)
		}
		s.Overview = raw
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "failed to load dashboard session")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.ProcessedErr != nil {
		logger.Warn("processed dataset unavailable",
			slog.String("path", paths.ProcessedFile),
			slog.String("error", s.ProcessedErr.Error()))
	}
	logger.Info("session loaded",
		slog.String("session_id", s.ID.String()),
		slog.Int("parts", s.Results.Len()),
		slog.Bool("has_reject_type", s.Results.Capabilities.HasRejectType),
		slog.Bool("has_timestamp", s.Results.Capabilities.HasTimestamp),
		slog.Float64("t2_limit", s.Limits.T2Limit),
		slog.Float64("q_limit", s.Limits.QLimit),
		slog.Duration("elapsed", time.Since(start)))
	return s, nil
}

// New builds a session from in-memory inputs, e.g. test fixtures.
func New(results insights.ResultsTable, limits insights.Limits, processed tabular.Table) (*Session, error) {
	if err := limits.Validate(); err != nil {
		return nil, errors.WithCode(errors.CodeLimitsInvalid, err)
	}
	return &Session{
		ID:        uuid.New(),
		LoadedAt:  time.Now().UTC(),
		Results:   results,
		Limits:    limits,
		Processed: processed,
	}, nil
}

// HasProcessed reports whether the data explorer has a table to show.
func (s *Session) HasProcessed() bool {
	return s.ProcessedErr == nil && len(s.Processed.Columns) > 0
}
