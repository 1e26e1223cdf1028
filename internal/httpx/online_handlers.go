package httpx

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
	"github.com/ariefcatur/go-pickup-inventory/internal/redisx"
)

type submitOnlineReq struct {
	CustomerID string               `json:"customer_id"`
	Items      []orders.RequestLine `json:"items"`
}

type onlineStatusReq struct {
	Status orders.OnlineStatus `json:"status"`
}

func (a *API) submitOnline(w http.ResponseWriter, r *http.Request) {
	var req submitOnlineReq
	if !decode(w, r, &req) {
		return
	}
	if req.CustomerID == "" {
		badRequest(w, "customer_id required")
		return
	}
	a.idempotent(w, r, redisx.ScopeOnlineOrder,
		func(ctx context.Context) (string, any, error) {
			o, err := a.Intake.Submit(ctx, req.CustomerID, req.Items)
			if err != nil {
				return "", nil, err
			}
			return o.ID, o, nil
		},
		func(ctx context.Context, id string) (any, error) {
			o, err := a.Intake.Get(ctx, id)
			return o, err
		},
	)
}

func (a *API) listOnline(w http.ResponseWriter, r *http.Request) {
	list, err := a.Intake.List(r.Context(), orders.OnlineStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) getOnline(w http.ResponseWriter, r *http.Request) {
	o, err := a.Intake.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (a *API) transferOnline(w http.ResponseWriter, r *http.Request) {
	d, err := a.Intake.TransferToDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (a *API) updateOnlineStatus(w http.ResponseWriter, r *http.Request) {
	var req onlineStatusReq
	if !decode(w, r, &req) {
		return
	}
	o, err := a.Intake.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
