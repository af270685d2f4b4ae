package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/hazina/sacco-engine/internal/domain"
	"github.com/hazina/sacco-engine/pkg/response"
)

// CatalogService is the slice of the product catalog the HTTP layer needs.
type CatalogService interface {
	Create(ctx context.Context, actor domain.Actor, req *domain.CreateLoanProductRequest) (*domain.LoanProduct, error)
	Update(ctx context.Context, actor domain.Actor, reference string, req *domain.UpdateLoanProductRequest) (*domain.LoanProduct, error)
	Get(ctx context.Context, reference string) (*domain.LoanProduct, error)
	List(ctx context.Context) ([]*domain.LoanProduct, error)
}

type LoanProductHandler struct {
	service   CatalogService
	validator *validator.Validate
}

func NewLoanProductHandler(service CatalogService) *LoanProductHandler {
	return &LoanProductHandler{
		service:   service,
		validator: newValidator(),
	}
}

func (h *LoanProductHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/loanproducts", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/loanproducts", h.List).Methods(http.MethodGet)
	r.HandleFunc("/loanproducts/{reference}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/loanproducts/{reference}", h.Update).Methods(http.MethodPatch)
}

func (h *LoanProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLoanProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	product, err := h.service.Create(r.Context(), actorFrom(r), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, product)
}

func (h *LoanProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateLoanProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	product, err := h.service.Update(r.Context(), actorFrom(r), mux.Vars(r)["reference"], &req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, product)
}

func (h *LoanProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Get(r.Context(), mux.Vars(r)["reference"])
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, product)
}

func (h *LoanProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, products)
}
