// Package session resolves the client-held session token to a user
// identity and authenticates credentials against the credential store.
package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/avelar/dropship-store/internal/database"
	"github.com/avelar/dropship-store/internal/models"
)

// ErrInvalidCredentials covers both an unknown email and a failed
// password check, so callers cannot distinguish the two.
var ErrInvalidCredentials = errors.New("invalid email or password")

// CredentialStore owns identity lookup and password verification.
type CredentialStore interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	UpdateLastLogin(ctx context.Context, id int64) error
}

type token struct {
	UserID int64 `json:"user_id"`
}

// EncodeToken wraps a user id into the session cookie value, the same
// URL-safe JSON scheme the cart token uses.
func EncodeToken(userID int64) string {
	data, _ := json.Marshal(token{UserID: userID})
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeToken returns the referenced user id, or 0 for an absent or
// malformed token. It never fails the caller.
func DecodeToken(value string) int64 {
	if value == "" {
		return 0
	}
	data, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return 0
	}
	var t token
	if err := json.Unmarshal(data, &t); err != nil {
		return 0
	}
	if t.UserID < 1 {
		return 0
	}
	return t.UserID
}

// ResolveUser maps a session token to a user. A bad token or an id that
// no longer exists resolves to nil, the default unauthenticated case;
// only storage failures surface as errors.
func ResolveUser(ctx context.Context, value string, creds CredentialStore) (*models.User, error) {
	userID := DecodeToken(value)
	if userID == 0 {
		return nil, nil
	}

	user, err := creds.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks a credential pair. Email matching is
// case-insensitive; the password check is delegated to the store's
// verifier. The caller records the login timestamp on success.
func Authenticate(ctx context.Context, creds CredentialStore, email, password string) (*models.User, error) {
	user, err := creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !creds.VerifyPassword(user, password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
