package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yukikurage/projects-crm/internal/agencycrm"
	"github.com/yukikurage/projects-crm/internal/constants"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
	"github.com/yukikurage/projects-crm/internal/metrics"
	"github.com/yukikurage/projects-crm/internal/models"
	"github.com/yukikurage/projects-crm/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RemoteAuthenticator verifies credentials against the agency CRM.
type RemoteAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (*agencycrm.RemoteUser, error)
}

// AuthService delegates logins to the agency CRM and falls back to the local
// credential store only when the agency CRM cannot be reached.
type AuthService struct {
	users   repository.UserRepository
	remote  RemoteAuthenticator
	metrics *metrics.Recorder
	log     zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repository.UserRepository, remote RemoteAuthenticator, rec *metrics.Recorder, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:   users,
		remote:  remote,
		metrics: rec,
		log:     log,
	}
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login authenticates the credentials and returns the local user.
//
// The agency CRM decides first. A success links or creates the local user; a
// rejection is final. Only when the agency CRM is unavailable is the local
// bcrypt hash consulted, and then only for an active user.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, apierrors.ErrAuthentication
	}

	if s.remote == nil {
		return s.localLogin(ctx, email, input.Password)
	}

	remoteUser, err := s.remote.Authenticate(ctx, email, input.Password)
	switch {
	case err == nil:
		user, err := s.linkRemoteUser(ctx, remoteUser)
		if err != nil {
			s.metrics.Login(metrics.PathRemote, metrics.ResultError)
			return nil, err
		}
		s.metrics.Login(metrics.PathRemote, metrics.ResultSuccess)
		s.log.Info().Uint64("user_id", user.ID).Msg("login via agency crm")
		return user, nil
	case errors.Is(err, agencycrm.ErrRejected):
		s.metrics.Login(metrics.PathRemote, metrics.ResultRejected)
		s.log.Warn().Str("email", email).Msg("agency crm rejected login")
		return nil, apierrors.ErrAuthentication
	case errors.Is(err, agencycrm.ErrUnavailable):
		s.log.Warn().Err(err).Msg("agency crm unavailable, trying local credentials")
		return s.localLogin(ctx, email, input.Password)
	default:
		s.metrics.Login(metrics.PathRemote, metrics.ResultError)
		s.log.Error().Err(err).Msg("agency crm login failed")
		return nil, apierrors.ErrAuthentication
	}
}

func (s *AuthService) localLogin(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.Login(metrics.PathFallback, metrics.ResultRejected)
			return nil, apierrors.ErrAuthentication
		}
		s.metrics.Login(metrics.PathFallback, metrics.ResultError)
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.IsActive || !user.HasLocalCredential() ||
		bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		s.metrics.Login(metrics.PathFallback, metrics.ResultRejected)
		return nil, apierrors.ErrAuthentication
	}

	s.metrics.Login(metrics.PathFallback, metrics.ResultSuccess)
	s.log.Info().Uint64("user_id", user.ID).Msg("login via local fallback")
	return user, nil
}

// linkRemoteUser finds the local user for a remote identity: by remote id,
// then by email, else a new user. The local password hash is never touched.
func (s *AuthService) linkRemoteUser(ctx context.Context, remote *agencycrm.RemoteUser) (*models.User, error) {
	rec := RecordFromRemote(*remote)

	var user *models.User
	err := s.users.Transaction(ctx, func(repo repository.UserRepository) error {
		if rec.RemoteID != nil {
			existing, err := repo.FindByAgencyCRMID(ctx, *rec.RemoteID)
			if err == nil {
				applyProfile(existing, rec)
				existing.IsActive = true
				user = existing
				return repo.Save(ctx, existing)
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		existing, err := repo.FindByEmail(ctx, rec.Email)
		switch {
		case err == nil:
			if existing.AgencyCRMID != nil && rec.RemoteID != nil && *existing.AgencyCRMID != *rec.RemoteID {
				s.log.Warn().
					Int64("previous_id", *existing.AgencyCRMID).
					Int64("agency_crm_id", *rec.RemoteID).
					Msg("relinking user to new agency crm id")
			}
			applyProfile(existing, rec)
			existing.IsActive = true
			user = existing
			return repo.Save(ctx, existing)
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = &models.User{Email: rec.Email, IsActive: true}
			applyProfile(user, rec)
			return repo.Create(ctx, user)
		default:
			return err
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to link agency crm user: %w", err)
	}
	return user, nil
}

// SetLocalPassword stores the bcrypt hash used by the fallback path.
func (s *AuthService) SetLocalPassword(ctx context.Context, email, password string) error {
	if len(password) < constants.MinPasswordLength {
		return apierrors.Field("password", fmt.Sprintf("must be at least %d characters", constants.MinPasswordLength))
	}

	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return storeError(err, "user %q", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.SetPasswordHash(ctx, user.ID, string(hash)); err != nil {
		return storeError(err, "user %d", user.ID)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "user %d", id)
	}
	return user, nil
}
