package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/SNurali/silkroad-reservation/internal/model"
)

// Sweeper periodically expires PENDING reservations whose
// confirmation deadline has passed.  Every expiry goes through
// Service.Expire, so it appends the same status event and sends the
// same notification a manual transition would; a reservation
// confirmed between the listing and the expiry attempt is simply
// skipped.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	batch    int
}

// NewSweeper builds a sweeper ticking at the given interval and
// expiring at most batch reservations per pass.
func NewSweeper(svc *Service, interval time.Duration, batch int) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if batch <= 0 {
		batch = 100
	}
	return &Sweeper{svc: svc, interval: interval, batch: batch}
}

// Run blocks, sweeping once per tick until the context is cancelled.
// Meant to be launched as a goroutine from main.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Printf("sweeper: started (interval %s, batch %d)", w.interval, w.batch)
	for {
		select {
		case <-ctx.Done():
			log.Println("sweeper: stopped")
			return
		case <-ticker.C:
			if n, err := w.SweepOnce(ctx); err != nil {
				log.Printf("sweeper: pass failed: %v", err)
			} else if n > 0 {
				log.Printf("sweeper: expired %d reservation(s)", n)
			}
		}
	}
}

// SweepOnce expires one batch of overdue reservations and returns
// how many it transitioned.  Races with concurrent confirmations or
// another sweeper instance are benign: the losing attempt observes a
// non-PENDING row and moves on.
func (w *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	ids, err := w.svc.ListExpiredPending(ctx, w.batch)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		itemCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_, err := w.svc.Expire(itemCtx, id)
		cancel()
		switch {
		case err == nil:
			expired++
		case errors.Is(err, model.ErrAlreadyTerminal), errors.Is(err, model.ErrConflict):
			// Lost the race to a confirmation or another sweeper.
		case errors.Is(err, model.ErrReservationNotFound):
		default:
			log.Printf("sweeper: expire reservation %d: %v", id, err)
		}
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
	}
	return expired, nil
}
