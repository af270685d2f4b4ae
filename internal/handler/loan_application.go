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

// LoanApplicationService is the slice of the application service the HTTP
// layer needs.
type LoanApplicationService interface {
	Create(ctx context.Context, actor domain.Actor, req *domain.CreateLoanApplicationRequest) (*domain.LoanApplication, error)
	Update(ctx context.Context, actor domain.Actor, reference string, req *domain.UpdateLoanApplicationRequest) (*domain.LoanApplication, error)
	SubmitForAmendment(ctx context.Context, actor domain.Actor, reference string) (*domain.LoanApplication, error)
	Amend(ctx context.Context, actor domain.Actor, reference string, req *domain.AmendLoanApplicationRequest) (*domain.LoanApplication, error)
	AcceptAmendment(ctx context.Context, actor domain.Actor, reference string) (*domain.LoanApplication, error)
	RejectAmendment(ctx context.Context, actor domain.Actor, reference string) (*domain.LoanApplication, error)
	Submit(ctx context.Context, actor domain.Actor, reference string) (*domain.LoanApplication, error)
	Approve(ctx context.Context, actor domain.Actor, reference string) (*domain.LoanApplication, error)
	Decline(ctx context.Context, actor domain.Actor, reference string) (*domain.LoanApplication, error)
	Disburse(ctx context.Context, actor domain.Actor, reference string) (*domain.LoanApplication, error)
	Get(ctx context.Context, actor domain.Actor, reference string) (*domain.LoanApplicationDetail, error)
	List(ctx context.Context, actor domain.Actor) ([]*domain.LoanApplication, error)
}

type LoanApplicationHandler struct {
	service   LoanApplicationService
	validator *validator.Validate
}

func NewLoanApplicationHandler(service LoanApplicationService) *LoanApplicationHandler {
	return &LoanApplicationHandler{
		service:   service,
		validator: newValidator(),
	}
}

// RegisterRoutes mounts the loan application endpoints under the router.
func (h *LoanApplicationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/loanapplications", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/loanapplications", h.List).Methods(http.MethodGet)
	r.HandleFunc("/loanapplications/{reference}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/loanapplications/{reference}", h.Update).Methods(http.MethodPatch)
	r.HandleFunc("/loanapplications/{reference}/submit-amendment", h.SubmitForAmendment).Methods(http.MethodPost)
	// The admin and member clients PATCH amend and status; POST stays for
	// API callers.
	r.HandleFunc("/loanapplications/{reference}/amend", h.Amend).Methods(http.MethodPost, http.MethodPatch)
	r.HandleFunc("/loanapplications/{reference}/accept-amendment", h.AcceptAmendment).Methods(http.MethodPost)
	r.HandleFunc("/loanapplications/{reference}/cancel", h.RejectAmendment).Methods(http.MethodPost)
	r.HandleFunc("/loanapplications/{reference}/submit", h.Submit).Methods(http.MethodPost)
	r.HandleFunc("/loanapplications/{reference}/status", h.ChangeStatus).Methods(http.MethodPost, http.MethodPatch)
	r.HandleFunc("/loanapplications/{reference}/disburse", h.Disburse).Methods(http.MethodPost)
}

func (h *LoanApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLoanApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	app, err := h.service.Create(r.Context(), actorFrom(r), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, app)
}

func (h *LoanApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.List(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, apps)
}

func (h *LoanApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), actorFrom(r), mux.Vars(r)["reference"])
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, detail)
}

func (h *LoanApplicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateLoanApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	app, err := h.service.Update(r.Context(), actorFrom(r), mux.Vars(r)["reference"], &req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, app)
}

func (h *LoanApplicationHandler) SubmitForAmendment(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.service.SubmitForAmendment)
}

func (h *LoanApplicationHandler) Amend(w http.ResponseWriter, r *http.Request) {
	var req domain.AmendLoanApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	app, err := h.service.Amend(r.Context(), actorFrom(r), mux.Vars(r)["reference"], &req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, app)
}

func (h *LoanApplicationHandler) AcceptAmendment(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.service.AcceptAmendment)
}

func (h *LoanApplicationHandler) RejectAmendment(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.service.RejectAmendment)
}

func (h *LoanApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.service.Submit)
}

// ChangeStatus carries the admin approval decision.
func (h *LoanApplicationHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.StatusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	decide := h.service.Approve
	if req.Status == domain.StatusDeclined {
		decide = h.service.Decline
	}

	app, err := decide(r.Context(), actorFrom(r), mux.Vars(r)["reference"])
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, app)
}

func (h *LoanApplicationHandler) Disburse(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.service.Disburse)
}

func (h *LoanApplicationHandler) simpleTransition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(context.Context, domain.Actor, string) (*domain.LoanApplication, error),
) {
	app, err := fn(r.Context(), actorFrom(r), mux.Vars(r)["reference"])
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, app)
}
