package usecase

import (
	"context"
	"io"
	"time"
)

type FirebaseAuthClient interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	DeleteUser(ctx context.Context, uid string) error
	VerifyToken(ctx context.Context, token string) (string, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

type StorageClient interface {
	UploadFile(ctx context.Context, file io.Reader, contentType, folder string) (string, error)
}

// SessionCloser tears down every live overlay session of a user.
type SessionCloser interface {
	CloseUser(userID string) int
}

// Limiter is satisfied by *ratelimit.RateLimiter.
type Limiter interface {
	Allow(key, action string) (bool, time.Duration)
}
