package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-pickup-inventory/internal/inventory"
)

type createProductReq struct {
	Code  string          `json:"code"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

type qtyReq struct {
	Qty int `json:"qty"`
}

type deltaReq struct {
	Delta int `json:"delta"`
}

type createCustomerReq struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductReq
	if !decode(w, r, &req) {
		return
	}
	p, err := a.Catalog.CreateProduct(r.Context(), inventory.CreateProductInput{
		Code: req.Code, Name: req.Name, Price: req.Price, Stock: req.Stock,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := a.Catalog.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (a *API) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := a.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) getProductByCode(w http.ResponseWriter, r *http.Request) {
	p, err := a.Catalog.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) restockProduct(w http.ResponseWriter, r *http.Request) {
	var req qtyReq
	if !decode(w, r, &req) {
		return
	}
	p, err := a.Catalog.Restock(r.Context(), chi.URLParam(r, "id"), req.Qty)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req deltaReq
	if !decode(w, r, &req) {
		return
	}
	p, err := a.Catalog.AdjustStock(r.Context(), chi.URLParam(r, "id"), req.Delta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerReq
	if !decode(w, r, &req) {
		return
	}
	c, err := a.Customers.Create(r.Context(), inventory.CreateCustomerInput{
		Name: req.Name, Phone: req.Phone, Email: req.Email, Address: req.Address,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) listCustomers(w http.ResponseWriter, r *http.Request) {
	cs, err := a.Customers.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (a *API) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := a.Customers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
