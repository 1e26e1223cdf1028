package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-pickup-inventory/internal/inventory"
	"github.com/ariefcatur/go-pickup-inventory/internal/logging"
	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
	"github.com/ariefcatur/go-pickup-inventory/internal/redisx"
)

const headerIdempotencyKey = "Idempotency-Key"

type saleLineReq struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
	Comment   string `json:"comment"`
}

type directSaleReq struct {
	CustomerID string        `json:"customer_id"`
	Items      []saleLineReq `json:"items"`
	Status     orders.Status `json:"status"`
	Comment    string        `json:"comment"`
}

type updateOrderReq struct {
	Status  *orders.Status `json:"status"`
	Comment *string        `json:"comment"`
}

// idempotent runs create under the Idempotency-Key header, if any. A replay
// of a completed key calls replay with the stored id instead.
func (a *API) idempotent(w http.ResponseWriter, r *http.Request, scope string,
	create func(ctx context.Context) (string, any, error),
	replay func(ctx context.Context, id string) (any, error),
) {
	ctx := r.Context()
	key := r.Header.Get(headerIdempotencyKey)
	if key == "" || a.Idempotency == nil {
		_, body, err := create(ctx)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, body)
		return
	}

	id, started, err := a.Idempotency.Begin(ctx, scope, key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !started {
		body, err := replay(ctx, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Idempotent-Replayed", "true")
		writeJSON(w, http.StatusOK, body)
		return
	}

	id, body, err := create(ctx)
	if err != nil {
		if aerr := a.Idempotency.Abort(context.WithoutCancel(ctx), scope, key); aerr != nil {
			logging.FromCtx(ctx, a.Log).WarnContext(ctx, "abort idempotency key", "scope", scope, "err", aerr)
		}
		writeError(w, r, err)
		return
	}
	if err := a.Idempotency.Complete(context.WithoutCancel(ctx), scope, key, id); err != nil {
		logging.FromCtx(ctx, a.Log).WarnContext(ctx, "complete idempotency key", "scope", scope, "err", err)
	}
	writeJSON(w, http.StatusCreated, body)
}

func (a *API) directSale(w http.ResponseWriter, r *http.Request) {
	var req directSaleReq
	if !decode(w, r, &req) {
		return
	}
	if req.CustomerID == "" || len(req.Items) == 0 {
		badRequest(w, "customer_id and items required")
		return
	}
	lines := make([]orders.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		li := orders.NewLineItem(it.ProductID, it.Qty)
		li.Comment = it.Comment
		lines = append(lines, li)
	}

	a.idempotent(w, r, redisx.ScopeDirectSale,
		func(ctx context.Context) (string, any, error) {
			o, err := a.DirectSale.Place(ctx, inventory.DirectSaleInput{
				CustomerID: req.CustomerID, Items: lines, Status: req.Status, Comment: req.Comment,
			})
			if err != nil {
				return "", nil, err
			}
			a.cacheStatus(r, o)
			return o.ID, o, nil
		},
		func(ctx context.Context, id string) (any, error) {
			o, err := a.Records.Get(ctx, id)
			return o, err
		},
	)
}

func (a *API) listOrders(w http.ResponseWriter, r *http.Request) {
	list, err := a.Records.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := a.Records.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (a *API) updateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderReq
	if !decode(w, r, &req) {
		return
	}
	o, err := a.Records.Update(r.Context(), chi.URLParam(r, "id"), orders.OrderPatch{Status: req.Status, Comment: req.Comment})
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.cacheStatus(r, o)
	writeJSON(w, http.StatusOK, o)
}

// orderStatus serves from the cache and falls back to the store.
func (a *API) orderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if a.Cache != nil {
		st, ok, err := a.Cache.Get(ctx, id)
		if err == nil && ok {
			writeJSON(w, http.StatusOK, st)
			return
		}
		if err != nil {
			logging.FromCtx(ctx, a.Log).WarnContext(ctx, "status cache read", "order_id", id, "err", err)
		}
	}
	o, err := a.Records.Get(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.cacheStatus(r, o))
}

func (a *API) cacheStatus(r *http.Request, o orders.Order) redisx.OrderStatus {
	st := redisx.OrderStatus{OrderID: o.ID, Status: string(o.Status), UpdatedAt: o.UpdatedAt}
	if a.Cache == nil {
		return st
	}
	ctx := r.Context()
	if err := a.Cache.Set(context.WithoutCancel(ctx), st); err != nil && !errors.Is(err, context.Canceled) {
		logging.FromCtx(ctx, a.Log).WarnContext(ctx, "status cache write", "order_id", o.ID, "err", err)
	}
	return st
}

func (a *API) exportOrder(w http.ResponseWriter, r *http.Request) {
	rows, err := a.Exporter.Order(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
