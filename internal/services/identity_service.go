package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yukikurage/projects-crm/internal/agencycrm"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
	"github.com/yukikurage/projects-crm/internal/metrics"
	"github.com/yukikurage/projects-crm/internal/models"
	"github.com/yukikurage/projects-crm/internal/repository"
	"gorm.io/gorm"
)

// ReconcileOutcome reports what an upsert did to the local user store.
type ReconcileOutcome int

const (
	OutcomeRejected ReconcileOutcome = iota
	OutcomeCreated
	OutcomeUpdated
)

func (o ReconcileOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	default:
		return "rejected"
	}
}

// IdentityRecord is a user as announced by the agency CRM. Nil fields were
// absent from the payload and are never written.
type IdentityRecord struct {
	Email     string
	RemoteID  *int64
	FirstName *string
	LastName  *string
	IsActive  *bool
}

// RecordFromRemote converts a remote user listing entry.
func RecordFromRemote(u agencycrm.RemoteUser) IdentityRecord {
	rec := IdentityRecord{
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsActive:  u.IsActive,
	}
	if u.ID != 0 {
		id := u.ID
		rec.RemoteID = &id
	}
	return rec
}

// UserDirectory is the remote listing used by pull reconciliation.
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]agencycrm.RemoteUser, error)
}

// SyncResult summarizes a pull reconciliation batch.
type SyncResult struct {
	Fetched int
	Created int
	Skipped int
}

// IdentityService keeps the local user store aligned with the agency CRM.
type IdentityService struct {
	users   repository.UserRepository
	remote  UserDirectory
	metrics *metrics.Recorder
	log     zerolog.Logger
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(users repository.UserRepository, remote UserDirectory, rec *metrics.Recorder, log zerolog.Logger) *IdentityService {
	return &IdentityService{
		users:   users,
		remote:  remote,
		metrics: rec,
		log:     log,
	}
}

// PushUpsert applies a webhook record keyed by email. Existing users take the
// supplied fields, including the active flag; missing users are created active.
func (s *IdentityService) PushUpsert(ctx context.Context, rec IdentityRecord) (ReconcileOutcome, *models.User, error) {
	outcome, user, err := s.upsertByEmail(ctx, rec, true)
	s.metrics.Reconciliation(metrics.ModePush, outcome.String())
	return outcome, user, err
}

// PullUpsert applies a listing record keyed by email. It refreshes names and
// the remote id but never changes the active flag of an existing user.
func (s *IdentityService) PullUpsert(ctx context.Context, rec IdentityRecord) (ReconcileOutcome, *models.User, error) {
	outcome, user, err := s.upsertByEmail(ctx, rec, false)
	s.metrics.Reconciliation(metrics.ModePull, outcome.String())
	return outcome, user, err
}

func (s *IdentityService) upsertByEmail(ctx context.Context, rec IdentityRecord, applyActive bool) (ReconcileOutcome, *models.User, error) {
	email := strings.TrimSpace(rec.Email)
	if email == "" {
		return OutcomeRejected, nil, apierrors.Field("email", "is required")
	}

	run := func() (ReconcileOutcome, *models.User, error) {
		var (
			outcome ReconcileOutcome
			user    *models.User
		)
		err := s.users.Transaction(ctx, func(repo repository.UserRepository) error {
			existing, err := repo.FindByEmail(ctx, email)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				user = &models.User{Email: email, IsActive: true}
				applyProfile(user, rec)
				outcome = OutcomeCreated
				return repo.Create(ctx, user)
			case err != nil:
				return err
			}

			applyProfile(existing, rec)
			if applyActive && rec.IsActive != nil {
				existing.IsActive = *rec.IsActive
			}
			user, outcome = existing, OutcomeUpdated
			return repo.Save(ctx, existing)
		})
		return outcome, user, err
	}

	outcome, user, err := run()
	if errors.Is(err, repository.ErrDuplicate) {
		// A concurrent writer created the email first; the retry updates it.
		outcome, user, err = run()
	}
	if err != nil {
		return OutcomeRejected, nil, reconcileError(err, email)
	}

	s.log.Info().Str("email", email).Str("outcome", outcome.String()).Msg("identity reconciled")
	return outcome, user, nil
}

// SyncByRemoteID upserts keyed on the remote identity id. An unknown id links
// to the same-email user or creates one.
func (s *IdentityService) SyncByRemoteID(ctx context.Context, rec IdentityRecord) (ReconcileOutcome, *models.User, error) {
	if rec.RemoteID == nil || *rec.RemoteID <= 0 {
		s.metrics.Reconciliation(metrics.ModeRemoteID, OutcomeRejected.String())
		return OutcomeRejected, nil, apierrors.Field("id", "is required")
	}
	email := strings.TrimSpace(rec.Email)

	var (
		outcome ReconcileOutcome
		user    *models.User
	)
	err := s.users.Transaction(ctx, func(repo repository.UserRepository) error {
		existing, err := repo.FindByAgencyCRMID(ctx, *rec.RemoteID)
		switch {
		case err == nil:
			if email != "" {
				existing.Email = email
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if email == "" {
				return apierrors.Field("email", "is required for a new user")
			}
			existing, err = repo.FindByEmail(ctx, email)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				user = &models.User{Email: email, IsActive: true}
				applyProfile(user, rec)
				outcome = OutcomeCreated
				return repo.Create(ctx, user)
			}
			if err != nil {
				return err
			}
		default:
			return err
		}

		applyProfile(existing, rec)
		if rec.IsActive != nil {
			existing.IsActive = *rec.IsActive
		}
		user, outcome = existing, OutcomeUpdated
		return repo.Save(ctx, existing)
	})
	if err != nil {
		s.metrics.Reconciliation(metrics.ModeRemoteID, OutcomeRejected.String())
		return OutcomeRejected, nil, reconcileError(err, email)
	}

	s.metrics.Reconciliation(metrics.ModeRemoteID, outcome.String())
	s.log.Info().Int64("agency_crm_id", *rec.RemoteID).Str("outcome", outcome.String()).Msg("identity reconciled by remote id")
	return outcome, user, nil
}

// Deactivate marks the user inactive. Owned projects are untouched and an
// unknown email is not an error.
func (s *IdentityService) Deactivate(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apierrors.Field("email", "is required")
	}

	matched, err := s.users.Deactivate(ctx, email)
	if err != nil {
		s.metrics.Reconciliation(metrics.ModeDelete, "error")
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	outcome := "deactivated"
	if !matched {
		outcome = "unknown"
	}
	s.metrics.Reconciliation(metrics.ModeDelete, outcome)
	s.log.Info().Str("email", email).Str("outcome", outcome).Msg("identity deactivated")
	return nil
}

// SyncAll pulls every remote user. Records failing validation are skipped;
// any other failure stops the batch and reports what was created so far.
// Each record commits on its own.
func (s *IdentityService) SyncAll(ctx context.Context) (SyncResult, error) {
	var result SyncResult
	if s.remote == nil {
		return result, fmt.Errorf("%w: agency crm client not configured", apierrors.ErrRemoteUnavailable)
	}

	remoteUsers, err := s.remote.ListUsers(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: list users: %v", apierrors.ErrRemoteUnavailable, err)
	}
	result.Fetched = len(remoteUsers)

	for _, ru := range remoteUsers {
		outcome, _, err := s.PullUpsert(ctx, RecordFromRemote(ru))
		if err != nil {
			if errors.Is(err, apierrors.ErrValidation) {
				result.Skipped++
				s.log.Warn().Err(err).Int64("agency_crm_id", ru.ID).Msg("skipping remote user")
				continue
			}
			return result, err
		}
		if outcome == OutcomeCreated {
			result.Created++
		}
	}

	s.log.Info().
		Int("fetched", result.Fetched).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Msg("synced users from agency crm")
	return result, nil
}

func applyProfile(user *models.User, rec IdentityRecord) {
	if rec.FirstName != nil {
		user.FirstName = *rec.FirstName
	}
	if rec.LastName != nil {
		user.LastName = *rec.LastName
	}
	if rec.RemoteID != nil {
		id := *rec.RemoteID
		user.AgencyCRMID = &id
	}
}

func reconcileError(err error, email string) error {
	switch {
	case errors.Is(err, apierrors.ErrValidation):
		return err
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: remote id or email of %q already belongs to another user", apierrors.ErrConflict, email)
	}
	return fmt.Errorf("failed to reconcile user %q: %w", email, err)
}
