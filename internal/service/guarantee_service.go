package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/hazina/sacco-engine/internal/config"
	"github.com/hazina/sacco-engine/internal/domain"
	"github.com/hazina/sacco-engine/internal/repository"
	customError "github.com/hazina/sacco-engine/pkg/errors"
	"github.com/hazina/sacco-engine/pkg/utils"
)

// GuaranteeService runs the guarantee-request sub-protocol: the applicant
// invites guarantors, each invited guarantor resolves their request exactly
// once, and every resolution re-evaluates the parent application's coverage
// under its row lock.
type GuaranteeService struct {
	uow        repository.UnitOfWork
	guarantees repository.GuaranteeRequestRepository
	guarantors repository.GuarantorProfileRepository
	redis      *redis.Client
	config     *config.Config
}

func NewGuaranteeService(
	uow repository.UnitOfWork,
	guarantees repository.GuaranteeRequestRepository,
	guarantors repository.GuarantorProfileRepository,
	redisClient *redis.Client,
	cfg *config.Config,
) *GuaranteeService {
	return &GuaranteeService{
		uow:        uow,
		guarantees: guarantees,
		guarantors: guarantors,
		redis:      redisClient,
		config:     cfg,
	}
}

func guarantorCacheKey(member string) string {
	return "guarantor:" + member
}

// Create invites a guarantor to cover part of an In Progress application.
func (s *GuaranteeService) Create(ctx context.Context, actor domain.Actor, req *domain.CreateGuaranteeRequestRequest) (*domain.GuaranteeRequest, error) {
	var created *domain.GuaranteeRequest

	err := s.uow.WithinApplicationTx(ctx, req.LoanApplication, func(r repository.Repos, app *domain.LoanApplication) error {
		if !actor.IsMember() || actor.MemberNo != app.Member {
			return customError.WrapForbidden("only the applicant may request guarantees")
		}

		if !domain.CanPerform(app.Status, domain.ActionRequestGuarantee) {
			return customError.WrapInvalidTransition(string(domain.ActionRequestGuarantee), app.Status)
		}

		if req.Guarantor == app.Member {
			return customError.WrapSelfGuarantee(app.Member)
		}

		// Evaluate against fresh coverage, not the stored snapshot.
		if err := recomputeCoverage(ctx, r, app); err != nil {
			return err
		}
		if app.IsFullyCovered {
			return customError.WrapAlreadyCovered(app.Reference)
		}

		if _, err := r.Guarantors.GetByMember(ctx, req.Guarantor); err != nil {
			return asNotFound(err, "guarantor profile", req.Guarantor)
		}

		pending, err := r.Guarantees.HasPending(ctx, app.Reference, req.Guarantor)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if pending {
			return customError.WrapDuplicateRequest(req.Guarantor)
		}

		created = &domain.GuaranteeRequest{
			ID:               uuid.New(),
			Reference:        utils.NewReference("GR"),
			LoanApplication:  app.Reference,
			Applicant:        app.Member,
			Guarantor:        req.Guarantor,
			Status:           domain.GuaranteeStatusPending,
			GuaranteedAmount: decimal.Zero,
			CreatedAt:        time.Now(),
		}

		if err := r.Guarantees.Create(ctx, created); err != nil {
			return customError.WrapDatabaseError(err)
		}

		if err := r.Applications.Update(ctx, app); err != nil {
			return customError.WrapDatabaseError(err)
		}

		return nil
	})
	if err != nil {
		return nil, wrapTxErr(err, "loan application", req.LoanApplication)
	}

	cacheInvalidate(ctx, s.redis, applicationCacheKey(req.LoanApplication))
	publishEvent(ctx, s.redis, s.config.Business.NotificationChannel, Event{
		Type:      "guarantee_request.created",
		Reference: created.Reference,
		Member:    created.Guarantor,
	})

	return created, nil
}

// Respond resolves a guarantee request. Accepting moves capacity on the
// guarantor profile and may advance the parent application to Ready for
// Submission; both writes commit atomically with the status change.
func (s *GuaranteeService) Respond(ctx context.Context, actor domain.Actor, reference string, req *domain.RespondGuaranteeRequest) (*domain.GuaranteeRequest, error) {
	// Resolve the parent application first so locks are always taken in
	// application → request → guarantor order.
	existing, err := s.guarantees.GetByReference(ctx, reference)
	if err != nil {
		return nil, asNotFound(err, "guarantee request", reference)
	}

	var resolved *domain.GuaranteeRequest

	err = s.uow.WithinApplicationTx(ctx, existing.LoanApplication, func(r repository.Repos, app *domain.LoanApplication) error {
		request, err := r.Guarantees.GetByReferenceForUpdate(ctx, reference)
		if err != nil {
			return asNotFound(err, "guarantee request", reference)
		}

		if !actor.IsMember() || actor.MemberNo != request.Guarantor {
			return customError.WrapForbidden("only the invited guarantor may respond to this request")
		}

		if request.IsResolved() {
			return customError.WrapAlreadyResolved(reference)
		}

		now := time.Now()
		switch req.Status {
		case domain.GuaranteeStatusDeclined:
			request.Status = domain.GuaranteeStatusDeclined
			request.GuaranteedAmount = decimal.Zero
			request.ResolvedAt = &now

		case domain.GuaranteeStatusAccepted:
			if req.GuaranteedAmount.LessThanOrEqual(decimal.Zero) {
				return customError.WrapValidation("guaranteed_amount must be positive")
			}

			profile, err := r.Guarantors.GetByMemberForUpdate(ctx, request.Guarantor)
			if err != nil {
				return asNotFound(err, "guarantor profile", request.Guarantor)
			}

			if ok, reason := profile.CanAccept(req.GuaranteedAmount); !ok {
				return customError.WrapCapacityExceeded(request.Guarantor, reason)
			}

			request.Status = domain.GuaranteeStatusAccepted
			request.GuaranteedAmount = req.GuaranteedAmount
			request.ResolvedAt = &now

			profile.Commit(req.GuaranteedAmount)
			if err := r.Guarantors.Update(ctx, profile); err != nil {
				return customError.WrapDatabaseError(err)
			}

		default:
			return customError.WrapValidation("status must be Accepted or Declined")
		}

		if err := r.Guarantees.Update(ctx, request); err != nil {
			return customError.WrapDatabaseError(err)
		}

		// Any resolution re-evaluates coverage; full coverage advances the
		// application without a member action.
		if err := recomputeCoverage(ctx, r, app); err != nil {
			return err
		}
		if app.Status == domain.StatusInProgress && app.IsFullyCovered {
			app.Status = domain.StatusReadyForSubmission
		}

		if err := r.Applications.Update(ctx, app); err != nil {
			return customError.WrapDatabaseError(err)
		}

		resolved = request
		return nil
	})
	if err != nil {
		return nil, wrapTxErr(err, "guarantee request", reference)
	}

	cacheInvalidate(ctx, s.redis,
		applicationCacheKey(existing.LoanApplication),
		guarantorCacheKey(resolved.Guarantor),
	)
	publishEvent(ctx, s.redis, s.config.Business.NotificationChannel, Event{
		Type:      "guarantee_request." + resolved.Status,
		Reference: resolved.Reference,
		Member:    resolved.Applicant,
	})

	return resolved, nil
}

// Get returns one guarantee request. Only the parties involved, or an admin,
// may see it.
func (s *GuaranteeService) Get(ctx context.Context, actor domain.Actor, reference string) (*domain.GuaranteeRequest, error) {
	request, err := s.guarantees.GetByReference(ctx, reference)
	if err != nil {
		return nil, asNotFound(err, "guarantee request", reference)
	}

	if actor.IsMember() && actor.MemberNo != request.Guarantor && actor.MemberNo != request.Applicant {
		return nil, customError.WrapForbidden("members may only view their own guarantee requests")
	}

	return request, nil
}

// ListForGuarantor returns the requests addressed to the calling member.
func (s *GuaranteeService) ListForGuarantor(ctx context.Context, actor domain.Actor) ([]*domain.GuaranteeRequest, error) {
	requests, err := s.guarantees.ListByGuarantor(ctx, actor.MemberNo)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return requests, nil
}

// CreateProfile registers a member as an eligible guarantor (admin
// bootstrap).
func (s *GuaranteeService) CreateProfile(ctx context.Context, actor domain.Actor, req *domain.CreateGuarantorProfileRequest) (*domain.GuarantorProfile, error) {
	if !actor.IsAdmin() {
		return nil, customError.WrapForbidden("only admins may create guarantor profiles")
	}

	maxActive := req.MaxActiveGuarantees
	if maxActive <= 0 {
		maxActive = s.config.Business.MaxActiveGuarantees
	}

	now := time.Now()
	profile := &domain.GuarantorProfile{
		ID:                  uuid.New(),
		Reference:           utils.NewReference("GP"),
		Member:              req.Member,
		MemberName:          req.MemberName,
		AvailableAmount:     req.AvailableAmount,
		CommittedAmount:     decimal.Zero,
		ActiveGuarantees:    0,
		MaxActiveGuarantees: maxActive,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.guarantors.Create(ctx, profile); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return profile, nil
}

// GetProfile returns a guarantor profile with a short cache in front of it.
func (s *GuaranteeService) GetProfile(ctx context.Context, actor domain.Actor, member string) (*domain.GuarantorProfile, error) {
	var profile domain.GuarantorProfile
	if cacheGet(ctx, s.redis, guarantorCacheKey(member), &profile) {
		return &profile, nil
	}

	loaded, err := s.guarantors.GetByMember(ctx, member)
	if err != nil {
		return nil, asNotFound(err, "guarantor profile", member)
	}

	cacheSet(ctx, s.redis, guarantorCacheKey(member), loaded, s.config.GetCacheTTL())
	return loaded, nil
}

// ListProfiles returns all guarantor profiles; members use this to pick
// guarantors to invite.
func (s *GuaranteeService) ListProfiles(ctx context.Context, actor domain.Actor) ([]*domain.GuarantorProfile, error) {
	profiles, err := s.guarantors.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return profiles, nil
}
