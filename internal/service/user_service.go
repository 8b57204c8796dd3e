package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"saarthi-chat/internal/domain"
	"saarthi-chat/internal/repository"
)

var (
	ErrFederationInvalid = fmt.Errorf("%w: federated identity requires a provider", domain.ErrValidation)
	ErrAlreadyFederated  = fmt.Errorf("%w: account is already linked to a provider", domain.ErrValidation)
)

// FederatedProfile son los datos que aporta un proveedor de identidad real.
type FederatedProfile struct {
	Provider    string
	Email       string
	DisplayName string
	AvatarURL   string
}

// UserService coordina el ciclo de vida del perfil: alta anónima o
// federada, upgrade en el lugar y edición de ajustes.
type UserService struct {
	logger *zap.Logger
	users  repository.UserRepository
	now    func() time.Time
}

func NewUserService(logger *zap.Logger, users repository.UserRepository) *UserService {
	return &UserService{
		logger: logger,
		users:  users,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateAnonymous da de alta un perfil anónimo con uid nuevo.
func (s *UserService) CreateAnonymous(ctx context.Context) (domain.User, error) {
	now := s.now()
	user := domain.User{
		ID:          uuid.NewString(),
		IsAnonymous: true,
		Provider:    domain.ProviderAnonymous,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("users: creating anonymous: %w", err)
	}
	return user, nil
}

// EnsureProfile crea el perfil en el primer ingreso o lo actualiza en el
// lugar cuando una sesión anónima vuelve con una identidad federada.
func (s *UserService) EnsureProfile(ctx context.Context, ident domain.Identity) (domain.User, error) {
	user, err := s.users.GetByID(ctx, ident.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return s.createFromIdentity(ctx, ident)
	}
	if err != nil {
		return domain.User{}, err
	}
	if user.IsAnonymous && ident.Federated() {
		return s.upgrade(ctx, user, FederatedProfile{
			Provider:    ident.Provider,
			Email:       ident.Email,
			DisplayName: ident.DisplayName,
			AvatarURL:   ident.AvatarURL,
		})
	}
	return user, nil
}

// Federate vincula la sesión anónima actual con un proveedor real, conservando el uid.
func (s *UserService) Federate(ctx context.Context, ident domain.Identity, profile FederatedProfile) (domain.User, error) {
	profile.Provider = strings.ToLower(strings.TrimSpace(profile.Provider))
	if profile.Provider == "" || profile.Provider == domain.ProviderAnonymous {
		return domain.User{}, ErrFederationInvalid
	}
	user, err := s.users.GetByID(ctx, ident.UserID)
	if err != nil {
		return domain.User{}, err
	}
	if !user.IsAnonymous {
		return domain.User{}, ErrAlreadyFederated
	}
	return s.upgrade(ctx, user, profile)
}

func (s *UserService) Get(ctx context.Context, ident domain.Identity) (domain.User, error) {
	return s.users.GetByID(ctx, ident.UserID)
}

// UpdateSettings recorta los campos a sus límites y devuelve el perfil guardado.
func (s *UserService) UpdateSettings(ctx context.Context, ident domain.Identity, settings domain.Settings) (domain.User, error) {
	user, err := s.users.GetByID(ctx, ident.UserID)
	if err != nil {
		return domain.User{}, err
	}
	settings.Name = strings.TrimSpace(settings.Name)
	settings.Occupation = strings.TrimSpace(settings.Occupation)
	settings.Preferences = strings.TrimSpace(settings.Preferences)
	user.Apply(settings, s.now())
	if err := s.users.Update(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("users: updating settings: %w", err)
	}
	return s.users.GetByID(ctx, ident.UserID)
}

// Hints devuelve los campos del perfil para el system prompt. Si el perfil
// no se puede leer, el turno sigue sin personalización.
func (s *UserService) Hints(ctx context.Context, ident domain.Identity) UserHints {
	user, err := s.users.GetByID(ctx, ident.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn("profile unavailable for prompt", zap.String("user_id", ident.UserID), zap.Error(err))
		}
		return UserHints{}
	}
	return UserHints{Name: user.DisplayName, Occupation: user.Occupation, Preferences: user.Preferences}
}

func (s *UserService) createFromIdentity(ctx context.Context, ident domain.Identity) (domain.User, error) {
	now := s.now()
	provider := ident.Provider
	if provider == "" {
		provider = domain.ProviderAnonymous
	}
	user := domain.User{
		ID:          ident.UserID,
		Email:       normalizeEmail(ident.Email),
		DisplayName: strings.TrimSpace(ident.DisplayName),
		AvatarURL:   strings.TrimSpace(ident.AvatarURL),
		IsAnonymous: !ident.Federated(),
		Provider:    provider,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	user.Apply(user.Settings(), now)
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("users: creating %s: %w", user.ID, err)
	}
	return user, nil
}

// upgrade completa los datos del proveedor sin pisar los que el usuario ya editó.
func (s *UserService) upgrade(ctx context.Context, user domain.User, p FederatedProfile) (domain.User, error) {
	if email := normalizeEmail(p.Email); email != "" {
		user.Email = email
	}
	if name := strings.TrimSpace(p.DisplayName); name != "" && user.DisplayName == "" {
		user.DisplayName = name
	}
	if avatar := strings.TrimSpace(p.AvatarURL); avatar != "" {
		user.AvatarURL = avatar
	}
	user.Provider = p.Provider
	user.IsAnonymous = false
	user.Apply(user.Settings(), s.now())
	if err := s.users.Update(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("users: federating %s: %w", user.ID, err)
	}
	s.logger.Info("anonymous profile federated", zap.String("user_id", user.ID), zap.String("provider", user.Provider))
	return s.users.GetByID(ctx, user.ID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
