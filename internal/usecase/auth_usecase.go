package usecase

import (
	"context"
	"log"
	"strings"
	"time"

	"campusaid/internal/domain/entity"
	"campusaid/internal/domain/repository"
	"campusaid/pkg/errors"
)

type AuthUseCase struct {
	userRepo      repository.UserRepository
	firebaseAuth  FirebaseAuthClient
	sessions      SessionCloser
	allowedDomain string
}

// NewAuthUseCase builds the auth use case. An empty allowedDomain accepts any address; sessions
// may be nil when no live sessions exist.
func NewAuthUseCase(userRepo repository.UserRepository, firebaseAuth FirebaseAuthClient, sessions SessionCloser, allowedDomain string) *AuthUseCase {
	return &AuthUseCase{
		userRepo:      userRepo,
		firebaseAuth:  firebaseAuth,
		sessions:      sessions,
		allowedDomain: strings.TrimPrefix(strings.ToLower(allowedDomain), "@"),
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	Major       string
	Year        int
}

type UpdateProfileInput struct {
	DisplayName string
	Major       string
	Year        int
}

func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !uc.emailAllowed(email) {
		return nil, errors.BadRequest("Registration requires a @"+uc.allowedDomain+" email address", nil)
	}

	existingUser, err := uc.userRepo.GetByEmail(ctx, email)
	if err == nil && existingUser != nil {
		return nil, errors.Conflict("Email already in use")
	}
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	uid, err := uc.firebaseAuth.CreateUser(ctx, email, input.Password, input.DisplayName)
	if err != nil {
		return nil, errors.Internal("Failed to create user in authentication provider", err)
	}

	now := time.Now()
	user := &entity.User{
		ID:          uid,
		Email:       email,
		DisplayName: strings.TrimSpace(input.DisplayName),
		Major:       input.Major,
		Year:        input.Year,
		Status:      "active",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		if delErr := uc.firebaseAuth.DeleteUser(ctx, uid); delErr != nil {
			log.Printf("Register Error: Failed to roll back auth user %s: %v", uid, delErr)
		}
		return nil, errors.Internal("Failed to create user record", err)
	}

	return user, nil
}

func (uc *AuthUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.NotFound("User", err)
	}
	return user, nil
}

func (uc *AuthUseCase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.NotFound("User", err)
	}

	if name := strings.TrimSpace(input.DisplayName); name != "" {
		user.DisplayName = name
	}
	if input.Major != "" {
		user.Major = input.Major
	}
	if input.Year > 0 {
		user.Year = input.Year
	}
	user.UpdatedAt = time.Now()

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Internal("Failed to update user profile", err)
	}

	return user, nil
}

// Logout revokes the user's refresh tokens and tears down their live overlay sessions.
func (uc *AuthUseCase) Logout(ctx context.Context, userID string) error {
	if err := uc.firebaseAuth.RevokeRefreshTokens(ctx, userID); err != nil {
		return errors.Internal("Failed to revoke tokens", err)
	}

	if uc.sessions != nil {
		closed := uc.sessions.CloseUser(userID)
		log.Printf("Logout: closed %d live sessions for user %s", closed, userID)
	}
	return nil
}

func (uc *AuthUseCase) emailAllowed(email string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	if uc.allowedDomain == "" {
		return true
	}
	return email[at+1:] == uc.allowedDomain
}
