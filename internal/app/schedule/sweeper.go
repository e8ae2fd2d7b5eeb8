package schedule

import (
	"context"
	"log/slog"
	"time"

	"gearshare/internal/app/handlers/rental"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/uow"
)

// Sweeper cancels rentals stuck in pending reservation past the payment
// grace period, releasing their calendar blocks so the window frees up.
// Racing against a late payment confirmation is tolerated: whichever side
// commits first wins and the loser's transition is rejected by the state
// machine.
type Sweeper struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Grace      time.Duration
	Interval   time.Duration
	Logger     *slog.Logger
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.sweepOnce(ctx); err != nil {
				s.logger().Error("reservation sweep failed", "error", err)
			}
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) error {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	now := time.Now().UTC()
	cutoff := now.Add(-s.grace())
	stale, err := unit.Rentals().ListPendingBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, rec := range stale {
		cal, err := rental.Release(ctx, unit, rec, "reservation timeout", now)
		if err != nil {
			s.logger().Warn("timeout release failed", "rental_id", string(rec.ID), "error", err)
			continue
		}
		pending := rec.PendingEvents()
		rec.ClearEvents()
		if cal != nil {
			pending = append(pending, cal.PendingEvents()...)
			cal.ClearEvents()
		}
		if err := outbox.RecordDomainEvents(ctx, s.Outbox, s.encoder(), pending); err != nil {
			return err
		}
		s.logger().Info("pending reservation timed out", "rental_id", string(rec.ID))
	}

	if err := unit.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Sweeper) grace() time.Duration {
	if s.Grace <= 0 {
		return 30 * time.Minute
	}
	return s.Grace
}

func (s *Sweeper) interval() time.Duration {
	if s.Interval <= 0 {
		return time.Minute
	}
	return s.Interval
}

func (s *Sweeper) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Sweeper) encoder() outbox.EventEncoder {
	if s.Encoder != nil {
		return s.Encoder
	}
	return outbox.JSONEventEncoder{}
}
