package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

type createDraftReq struct {
	CustomerID string `json:"customer_id"`
}

type putItemReq struct {
	Required int    `json:"required"`
	Picked   *int   `json:"picked"`
	Comment  string `json:"comment"`
}

type pickedReq struct {
	Picked int `json:"picked"`
}

type commitReq struct {
	Status orders.Status `json:"status"`
}

func (a *API) createDraft(w http.ResponseWriter, r *http.Request) {
	var req createDraftReq
	if !decode(w, r, &req) {
		return
	}
	if req.CustomerID == "" {
		badRequest(w, "customer_id required")
		return
	}
	d, err := a.Drafts.CreateDraft(r.Context(), req.CustomerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (a *API) listDrafts(w http.ResponseWriter, r *http.Request) {
	ds, err := a.Drafts.ListDrafts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (a *API) getDraft(w http.ResponseWriter, r *http.Request) {
	d, err := a.Drafts.GetDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) cancelDraft(w http.ResponseWriter, r *http.Request) {
	if err := a.Drafts.CancelDraft(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// putDraftItem replaces the whole line; picked defaults to required.
func (a *API) putDraftItem(w http.ResponseWriter, r *http.Request) {
	var req putItemReq
	if !decode(w, r, &req) {
		return
	}
	li := orders.NewLineItem(chi.URLParam(r, "productID"), req.Required)
	if req.Picked != nil {
		li.Picked = *req.Picked
	}
	li.Comment = req.Comment
	if err := a.Drafts.PutLineItem(r.Context(), chi.URLParam(r, "id"), li); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, li)
}

func (a *API) setPicked(w http.ResponseWriter, r *http.Request) {
	var req pickedReq
	if !decode(w, r, &req) {
		return
	}
	li, err := a.Drafts.SetPicked(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productID"), req.Picked)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, li)
}

func (a *API) deleteDraftItem(w http.ResponseWriter, r *http.Request) {
	if err := a.Drafts.SetLineItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productID"), 0); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) commitDraft(w http.ResponseWriter, r *http.Request) {
	var req commitReq
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	if req.Status == "" {
		req.Status = orders.StatusFulfilled
	}
	o, err := a.Finalizer.Commit(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.cacheStatus(r, o)
	writeJSON(w, http.StatusCreated, o)
}

func (a *API) exportDraft(w http.ResponseWriter, r *http.Request) {
	rows, err := a.Exporter.Draft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
