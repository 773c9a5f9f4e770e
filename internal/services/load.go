package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vvka-141/reviewseed/internal/generator"
	"github.com/vvka-141/reviewseed/pkg/reviewseed"
)

// DefaultAppName is reported to the server as application_name.
const DefaultAppName = "reviewseed"

// GeneratorFactory builds the review generator for one load.
type GeneratorFactory func(mode reviewseed.DescriptorMode) *generator.Generator

// LoadService implements the Loader interface.
// Thread-Safety: NOT safe for concurrent Load() calls on the same instance.
type LoadService struct {
	opener       reviewseed.StoreOpener
	logger       reviewseed.Logger
	newGenerator GeneratorFactory
	now          func() time.Time
}

// NewLoadService creates a LoadService with its dependencies injected.
// Nil dependencies are programmer errors and panic at construction time.
func NewLoadService(opener reviewseed.StoreOpener, logger reviewseed.Logger) *LoadService {
	if opener == nil {
		panic("opener cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &LoadService{
		opener: opener,
		logger: logger,
		newGenerator: func(mode reviewseed.DescriptorMode) *generator.Generator {
			return generator.New(generator.WithDescriptors(mode))
		},
		now: time.Now,
	}
}

// WithGenerator replaces the generator factory. Used to pin randomness.
func (s *LoadService) WithGenerator(factory GeneratorFactory) *LoadService {
	if factory == nil {
		panic("generator factory cannot be nil")
	}
	s.newGenerator = factory
	return s
}

// Load generates config.Count reviews and inserts them for config.BankName
// in a single transaction.
//
// The bank is resolved before anything is written. Any failing row rolls the
// whole run back and is reported as *reviewseed.InsertError. The store is
// closed on every path.
func (s *LoadService) Load(ctx context.Context, config reviewseed.LoadConfig) (reviewseed.LoadResult, error) {
	if err := config.Validate(); err != nil {
		return reviewseed.LoadResult{}, fmt.Errorf("invalid configuration: %w", err)
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	start := s.now()
	result := reviewseed.LoadResult{RunID: uuid.NewString()}
	s.logger.Verbose("Run %s: loading %d reviews for %q", result.RunID, config.Count, config.BankName)

	st, err := s.openStore(ctx, config.Connection)
	if err != nil {
		return reviewseed.LoadResult{}, err
	}
	defer s.closeStore(st)

	bankID, err := st.LookupBankID(ctx, config.BankName)
	if err != nil {
		return reviewseed.LoadResult{}, err
	}
	result.BankID = bankID
	s.logger.Verbose("Bank %q has bank_id %d", config.BankName, bankID)

	if result.CountBefore, err = st.CountReviews(ctx); err != nil {
		return reviewseed.LoadResult{}, err
	}

	reviews := s.newGenerator(config.Descriptors).Generate(config.Count, config.BankName)
	result.Generated = len(reviews)

	tx, err := st.Begin(ctx)
	if err != nil {
		return reviewseed.LoadResult{}, err
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		// The load's context may already be cancelled; rollback must still reach the server.
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			s.logger.Error("Rollback failed: %v", rbErr)
		}
	}()

	if err := s.insertAll(ctx, tx, bankID, reviews, config); err != nil {
		return reviewseed.LoadResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return reviewseed.LoadResult{}, fmt.Errorf("commit failed: %w: %w", reviewseed.ErrInsertFailed, err)
	}
	committed = true
	result.Inserted = len(reviews)

	if result.CountAfter, err = st.CountReviews(ctx); err != nil {
		return reviewseed.LoadResult{}, err
	}

	result.Elapsed = s.now().Sub(start)
	s.logger.Verbose("Run %s: committed %d rows in %v", result.RunID, result.Inserted, result.Elapsed)
	return result, nil
}

// insertAll writes reviews one row per round trip, or in groups of
// config.BatchSize when it is above 1.
func (s *LoadService) insertAll(
	ctx context.Context,
	tx reviewseed.ReviewTx,
	bankID int64,
	reviews []reviewseed.Review,
	config reviewseed.LoadConfig,
) error {
	total := len(reviews)
	progress := config.OnProgress
	if progress == nil {
		progress = func(int, int) {}
	}

	if config.BatchSize <= 1 {
		for i, r := range reviews {
			if err := ctx.Err(); err != nil {
				return interrupted(i, err)
			}
			if err := tx.Insert(ctx, bankID, r); err != nil {
				if ctx.Err() != nil {
					return interrupted(i, ctx.Err())
				}
				return &reviewseed.InsertError{Index: i, Review: r, Err: err}
			}
			progress(i+1, total)
		}
		return nil
	}

	for start := 0; start < total; start += config.BatchSize {
		end := min(start+config.BatchSize, total)
		chunk := reviews[start:end]

		if err := ctx.Err(); err != nil {
			return interrupted(start, err)
		}
		if offset, err := tx.InsertBatch(ctx, bankID, chunk); err != nil {
			if ctx.Err() != nil {
				return interrupted(start, ctx.Err())
			}
			offset = max(0, min(offset, len(chunk)-1))
			return &reviewseed.InsertError{Index: start + offset, Review: chunk[offset], Err: err}
		}
		s.logger.Verbose("Inserted rows %d-%d", start+1, end)
		progress(end, total)
	}
	return nil
}

// interrupted reports a cancelled or timed-out load. A driver error caused by
// the cancellation is not an insert failure.
func interrupted(row int, cause error) error {
	return fmt.Errorf("%w before row %d, nothing committed: %w", reviewseed.ErrInterrupted, row+1, cause)
}

// Count reports the reviews row count, and the count for one bank when
// config.BankName is set.
func (s *LoadService) Count(ctx context.Context, config reviewseed.CountConfig) (reviewseed.CountResult, error) {
	if config.Connection == nil {
		return reviewseed.CountResult{}, fmt.Errorf("connection is required: %w", reviewseed.ErrInvalidConfig)
	}

	st, err := s.openStore(ctx, config.Connection)
	if err != nil {
		return reviewseed.CountResult{}, err
	}
	defer s.closeStore(st)

	var result reviewseed.CountResult
	if result.Total, err = st.CountReviews(ctx); err != nil {
		return reviewseed.CountResult{}, err
	}

	if config.BankName != "" {
		result.BankName = config.BankName
		if result.BankID, err = st.LookupBankID(ctx, config.BankName); err != nil {
			return reviewseed.CountResult{}, err
		}
		if result.BankTotal, err = st.CountBankReviews(ctx, result.BankID); err != nil {
			return reviewseed.CountResult{}, err
		}
	}
	return result, nil
}

func (s *LoadService) openStore(ctx context.Context, connConfig *reviewseed.ConnectionConfig) (reviewseed.ReviewStore, error) {
	cfg := *connConfig
	if cfg.AppName == "" {
		cfg.AppName = DefaultAppName
	}

	s.logger.Verbose("Connecting to %s at %s:%d/%s (%s)", cfg.Driver, cfg.Host, cfg.Port, cfg.Database, cfg.AuthMethod)
	st, err := s.opener.Open(ctx, &cfg)
	if err != nil {
		if !errors.Is(err, reviewseed.ErrConnectionFailed) && !errors.Is(err, reviewseed.ErrInvalidConfig) &&
			!errors.Is(err, reviewseed.ErrUnsupportedAuthMethod) && !errors.Is(err, reviewseed.ErrUnsupportedDriver) {
			err = fmt.Errorf("%w: %w", reviewseed.ErrConnectionFailed, err)
		}
		return nil, err
	}
	return st, nil
}

func (s *LoadService) closeStore(st reviewseed.ReviewStore) {
	if err := st.Close(); err != nil {
		s.logger.Error("Failed to close connection: %v", err)
	}
}

var _ reviewseed.Loader = (*LoadService)(nil)
