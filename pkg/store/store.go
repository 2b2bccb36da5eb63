package store

import (
	"errors"

	"viralstudio/pkg/domain"
)

var (
	// ErrNotFound means no matching row, or the caller cannot see it.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the row exists but belongs to another user.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated means a write was attempted without an owner id.
	ErrUnauthenticated = errors.New("caller identity required")
)

// Store defines persistence for accounts, profiles, and generated content.
// Content ids are opaque to callers; the caller identity is an explicit
// parameter so ownership is enforced here, not at call sites.
type Store interface {
	// accounts (credentials)
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)

	// profiles
	GetProfile(id string) (domain.UserProfile, bool, error)
	SaveProfile(domain.UserProfile) error

	// generated content
	SaveContent(topic string, data domain.GeneratedContent, ownerID string) (domain.ContentItem, error)
	UpdateContent(id int64, callerID string, data domain.GeneratedContent) error
	DeleteContent(id int64, callerID string) error
	ListContents(ownerID string) ([]domain.ContentItem, error)
	GetContentByID(id int64, callerID string) (domain.ContentItem, error)
}

// SessionStore issues and resolves session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
