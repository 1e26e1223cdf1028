// Package intake consumes online order requests from the storefront topic
// and records them through inventory.Intake.
package intake

import (
	"context"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-pickup-inventory/internal/inventory"
	kafkax "github.com/ariefcatur/go-pickup-inventory/internal/kafka"
	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
	"github.com/ariefcatur/go-pickup-inventory/internal/redisx"
)

type Deduper interface {
	Mark(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type Idempotency interface {
	Begin(ctx context.Context, scope, key string) (string, bool, error)
	Complete(ctx context.Context, scope, key, id string) error
	Abort(ctx context.Context, scope, key string) error
}

type Worker struct {
	intake *inventory.Intake
	dedup  Deduper
	idem   Idempotency
	log    *slog.Logger
}

func NewWorker(in *inventory.Intake, dedup Deduper, idem Idempotency, log *slog.Logger) *Worker {
	return &Worker{intake: in, dedup: dedup, idem: idem, log: log}
}

// Handle is a kafka.Handler. A request that can never succeed (unknown
// customer or product, bad quantity) is logged and committed; anything else
// is returned so the message is retried.
func (w *Worker) Handle(ctx context.Context, m kafka.Message) error {
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		w.log.WarnContext(ctx, "dropping undecodable message", "offset", m.Offset, "err", err)
		return nil
	}
	if env.EventType != orders.EventOnlineOrderRequested {
		return nil
	}

	first, err := w.dedup.Mark(ctx, env.EventID)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	if err := w.process(ctx, env); err != nil {
		if permanent(err) {
			w.log.WarnContext(ctx, "online order request rejected", "event_id", env.EventID, "err", err)
			return nil
		}
		if ferr := w.dedup.Forget(context.WithoutCancel(ctx), env.EventID); ferr != nil {
			w.log.ErrorContext(ctx, "forget dedup mark", "event_id", env.EventID, "err", ferr)
		}
		return err
	}
	return nil
}

func (w *Worker) process(ctx context.Context, env orders.Envelope) error {
	p, err := kafkax.UnwrapPayload[orders.OnlineOrderRequestedPayload](env.Payload)
	if err != nil {
		return err
	}

	if p.RequestID != "" {
		id, started, err := w.idem.Begin(ctx, redisx.ScopeOnlineOrder, p.RequestID)
		if err != nil {
			return err
		}
		if !started {
			w.log.InfoContext(ctx, "online order request already recorded", "request_id", p.RequestID, "online_order_id", id)
			return nil
		}
	}

	o, err := w.intake.Submit(ctx, p.CustomerID, p.Items)
	if err != nil {
		if p.RequestID != "" {
			_ = w.idem.Abort(context.WithoutCancel(ctx), redisx.ScopeOnlineOrder, p.RequestID)
		}
		return err
	}
	if p.RequestID != "" {
		if err := w.idem.Complete(ctx, redisx.ScopeOnlineOrder, p.RequestID, o.ID); err != nil {
			w.log.WarnContext(ctx, "store idempotency result", "request_id", p.RequestID, "err", err)
		}
	}
	return nil
}

func permanent(err error) bool {
	return errors.Is(err, orders.ErrNotFound) ||
		errors.Is(err, orders.ErrInvalidQuantity) ||
		errors.Is(err, orders.ErrEmptyOrder) ||
		errors.Is(err, orders.ErrDuplicateLineItem)
}
