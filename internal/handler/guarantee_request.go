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

// GuaranteeService is the slice of the guarantee service the HTTP layer
// needs, covering both guarantee requests and guarantor profiles.
type GuaranteeService interface {
	Create(ctx context.Context, actor domain.Actor, req *domain.CreateGuaranteeRequestRequest) (*domain.GuaranteeRequest, error)
	Respond(ctx context.Context, actor domain.Actor, reference string, req *domain.RespondGuaranteeRequest) (*domain.GuaranteeRequest, error)
	Get(ctx context.Context, actor domain.Actor, reference string) (*domain.GuaranteeRequest, error)
	ListForGuarantor(ctx context.Context, actor domain.Actor) ([]*domain.GuaranteeRequest, error)
	CreateProfile(ctx context.Context, actor domain.Actor, req *domain.CreateGuarantorProfileRequest) (*domain.GuarantorProfile, error)
	GetProfile(ctx context.Context, actor domain.Actor, member string) (*domain.GuarantorProfile, error)
	ListProfiles(ctx context.Context, actor domain.Actor) ([]*domain.GuarantorProfile, error)
}

type GuaranteeHandler struct {
	service   GuaranteeService
	validator *validator.Validate
}

func NewGuaranteeHandler(service GuaranteeService) *GuaranteeHandler {
	return &GuaranteeHandler{
		service:   service,
		validator: newValidator(),
	}
}

// RegisterRoutes mounts the guarantee request and guarantor profile endpoints.
func (h *GuaranteeHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/guaranteerequests", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/guaranteerequests", h.ListForGuarantor).Methods(http.MethodGet)
	r.HandleFunc("/guaranteerequests/{reference}", h.Get).Methods(http.MethodGet)
	// The member client PATCHes the status endpoint; POST stays for API
	// callers.
	r.HandleFunc("/guaranteerequests/{reference}/status", h.Respond).Methods(http.MethodPost, http.MethodPatch)

	r.HandleFunc("/guarantors", h.CreateProfile).Methods(http.MethodPost)
	r.HandleFunc("/guarantors", h.ListProfiles).Methods(http.MethodGet)
	r.HandleFunc("/guarantors/{member}", h.GetProfile).Methods(http.MethodGet)
}

func (h *GuaranteeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateGuaranteeRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	created, err := h.service.Create(r.Context(), actorFrom(r), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, created)
}

func (h *GuaranteeHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req domain.RespondGuaranteeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	resolved, err := h.service.Respond(r.Context(), actorFrom(r), mux.Vars(r)["reference"], &req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, resolved)
}

func (h *GuaranteeHandler) Get(w http.ResponseWriter, r *http.Request) {
	request, err := h.service.Get(r.Context(), actorFrom(r), mux.Vars(r)["reference"])
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, request)
}

func (h *GuaranteeHandler) ListForGuarantor(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.ListForGuarantor(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, requests)
}

func (h *GuaranteeHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateGuarantorProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	profile, err := h.service.CreateProfile(r.Context(), actorFrom(r), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, profile)
}

func (h *GuaranteeHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context(), actorFrom(r), mux.Vars(r)["member"])
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, profile)
}

func (h *GuaranteeHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.ListProfiles(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, profiles)
}
