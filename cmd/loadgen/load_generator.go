package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/librarium-io/library-manager-go/library"
	"github.com/librarium-io/library-manager-go/library/postgresengine"
	"github.com/librarium-io/library-manager-go/library/retry"
)

// Report aggregates the outcome counts of one load generation run.
type Report struct {
	Checkouts int64
	Returns   int64
	Conflicts int64
	Errors    int64
}

// LoadGenerator drives concurrent checkout/return rounds against the store.
// Workers deliberately contend for the same small set of books so that the
// serialization conflict path gets exercised under realistic pressure.
type LoadGenerator struct {
	store  *postgresengine.Store
	logger *slog.Logger
	cfg    Config

	userIDs []uuid.UUID
	bookIDs []uuid.UUID

	checkouts atomic.Int64
	returns   atomic.Int64
	conflicts atomic.Int64
	errs      atomic.Int64
}

func NewLoadGenerator(store *postgresengine.Store, logger *slog.Logger, cfg Config) *LoadGenerator {
	return &LoadGenerator{
		store:  store,
		logger: logger,
		cfg:    cfg,
	}
}

// Seed creates the borrower and book fixtures the workers operate on.
func (g *LoadGenerator) Seed(ctx context.Context) error {
	for i := 0; i < g.cfg.Users; i++ {
		user, err := g.store.CreateUser(ctx, library.CreateUser{
			Name:     fmt.Sprintf("Borrower %d", i),
			Email:    fmt.Sprintf("borrower-%s@loadgen.local", uuid.NewString()),
			Password: "loadgen-password",
		})
		if err != nil {
			return fmt.Errorf("creating borrower %d: %w", i, err)
		}

		g.userIDs = append(g.userIDs, user.ID)
	}

	for i := 0; i < g.cfg.Books; i++ {
		owner := g.userIDs[i%len(g.userIDs)]

		bookID, err := g.store.CreateBook(ctx, library.CreateBook{
			Title:       fmt.Sprintf("Load Test Volume %d", i),
			Author:      "Load Generator",
			ISBN:        fmt.Sprintf("978-%010d", i),
			Description: "Seeded for load generation",
			OwnedBy:     owner,
		})
		if err != nil {
			return fmt.Errorf("creating book %d: %w", i, err)
		}

		g.bookIDs = append(g.bookIDs, bookID)
	}

	return nil
}

// Run executes the configured number of rounds on each worker and blocks
// until all workers have finished or the context is canceled.
func (g *LoadGenerator) Run(ctx context.Context) Report {
	var wg sync.WaitGroup

	for w := 0; w < g.cfg.Workers; w++ {
		wg.Add(1)

		go func(workerNum int) {
			defer wg.Done()

			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerNum))) //nolint:gosec // load distribution only

			for r := 0; r < g.cfg.Rounds; r++ {
				if ctx.Err() != nil {
					return
				}

				g.round(ctx, rng)
			}
		}(w)
	}

	wg.Wait()

	return Report{
		Checkouts: g.checkouts.Load(),
		Returns:   g.returns.Load(),
		Conflicts: g.conflicts.Load(),
		Errors:    g.errs.Load(),
	}
}

// round checks out a random book for a random borrower and returns it again.
// Serialization conflicts that survive the retry budget are expected under
// contention and count separately from hard errors.
func (g *LoadGenerator) round(ctx context.Context, rng *rand.Rand) {
	bookID := g.bookIDs[rng.Intn(len(g.bookIDs))]
	userID := g.userIDs[rng.Intn(len(g.userIDs))]

	err := retry.WithExponentialBackoff(ctx, func(ctx context.Context) error {
		return g.store.CreateCheckout(ctx, library.CreateCheckout{
			BookID:       bookID,
			CheckedOutBy: userID,
			CheckedOutAt: time.Now(),
		})
	})

	switch {
	case err == nil:
		g.checkouts.Add(1)
	case errors.Is(err, library.ErrCheckoutConflict):
		g.conflicts.Add(1)
		return
	case errors.Is(err, context.Canceled):
		return
	default:
		g.errs.Add(1)
		g.logger.Error("checkout failed", "error", err, "book_id", bookID)
		return
	}

	checkoutID, found, err := g.findCheckout(ctx, bookID, userID)
	if err != nil {
		g.errs.Add(1)
		g.logger.Error("looking up checkout failed", "error", err, "book_id", bookID)
		return
	}
	if !found {
		// Another worker may have raced the return already.
		return
	}

	err = retry.WithExponentialBackoff(ctx, func(ctx context.Context) error {
		return g.store.ReturnCheckout(ctx, library.ReturnCheckout{
			CheckoutID: checkoutID,
			BookID:     bookID,
			ReturnedBy: userID,
			ReturnedAt: time.Now(),
		})
	})

	switch {
	case err == nil:
		g.returns.Add(1)
	case errors.Is(err, library.ErrCheckoutConflict):
		g.conflicts.Add(1)
	case errors.Is(err, context.Canceled):
	default:
		g.errs.Add(1)
		g.logger.Error("return failed", "error", err, "checkout_id", checkoutID)
	}
}

func (g *LoadGenerator) findCheckout(ctx context.Context, bookID, userID uuid.UUID) (uuid.UUID, bool, error) {
	unreturned, err := g.store.FindUnreturnedByUser(ctx, userID)
	if err != nil {
		return uuid.Nil, false, err
	}

	for _, checkout := range unreturned {
		if checkout.Book.BookID == bookID {
			return checkout.ID, true, nil
		}
	}

	return uuid.Nil, false, nil
}
