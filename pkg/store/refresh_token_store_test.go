package store

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func testRefreshStores(t *testing.T) map[string]RefreshTokenStore {
	t.Helper()
	mr := miniredis.RunT(t)
	return map[string]RefreshTokenStore{
		"memory": NewMemoryRefreshTokenStore(),
		"redis":  NewRedisRefreshTokenStore(mr.Addr(), ""),
	}
}

func TestRefreshTokenRotate(t *testing.T) {
	for name, s := range testRefreshStores(t) {
		t.Run(name, func(t *testing.T) {
			token, err := s.NewToken("user-1", time.Hour)
			if err != nil {
				t.Fatalf("new token: %v", err)
			}
			uid, newToken, err := s.RotateToken(token, time.Hour)
			if err != nil {
				t.Fatalf("rotate: %v", err)
			}
			if uid != "user-1" {
				t.Fatalf("rotate user = %q, want user-1", uid)
			}
			if newToken == token {
				t.Fatalf("rotation returned the same token")
			}
			// The rotated-out token must not work again.
			if _, _, err := s.RotateToken(token, time.Hour); !errors.Is(err, ErrInvalidRefreshToken) {
				t.Fatalf("replay: got %v, want ErrInvalidRefreshToken", err)
			}
			// The replacement still does.
			if _, _, err := s.RotateToken(newToken, time.Hour); err != nil {
				t.Fatalf("rotate replacement: %v", err)
			}
		})
	}
}

func TestRefreshTokenUnknown(t *testing.T) {
	for name, s := range testRefreshStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, _, err := s.RotateToken("never-issued", time.Hour); !errors.Is(err, ErrInvalidRefreshToken) {
				t.Fatalf("got %v, want ErrInvalidRefreshToken", err)
			}
		})
	}
}

func TestRefreshTokenDelete(t *testing.T) {
	for name, s := range testRefreshStores(t) {
		t.Run(name, func(t *testing.T) {
			token, err := s.NewToken("user-1", time.Hour)
			if err != nil {
				t.Fatalf("new token: %v", err)
			}
			if err := s.DeleteToken(token); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, _, err := s.RotateToken(token, time.Hour); !errors.Is(err, ErrInvalidRefreshToken) {
				t.Fatalf("got %v, want ErrInvalidRefreshToken", err)
			}
		})
	}
}
