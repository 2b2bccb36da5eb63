package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrInvalidRefreshToken indicates the token is unknown, expired, or
// already rotated (a rotated token presented again reads as invalid).
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// RefreshTokenStore persists refresh tokens for rotation. Only hashes are
// stored; the raw token exists only in the client's hands.
type RefreshTokenStore interface {
	NewToken(userID string, ttl time.Duration) (string, error)
	RotateToken(token string, ttl time.Duration) (userID string, newToken string, err error)
	DeleteToken(token string) error
}

type refreshEntry struct {
	userID string
	expiry time.Time
}

// MemoryRefreshTokenStore keeps refresh tokens in memory.
type MemoryRefreshTokenStore struct {
	mu     sync.Mutex
	tokens map[string]refreshEntry // token hash -> entry
}

// NewMemoryRefreshTokenStore constructs an in-memory refresh token store.
func NewMemoryRefreshTokenStore() *MemoryRefreshTokenStore {
	return &MemoryRefreshTokenStore{tokens: make(map[string]refreshEntry)}
}

// NewToken issues and stores a new refresh token.
func (s *MemoryRefreshTokenStore) NewToken(userID string, ttl time.Duration) (string, error) {
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.tokens[refreshTokenHash(token)] = refreshEntry{
		userID: userID,
		expiry: time.Now().UTC().Add(ttl),
	}
	s.mu.Unlock()
	return token, nil
}

// RotateToken invalidates the presented token and issues a replacement.
func (s *MemoryRefreshTokenStore) RotateToken(token string, ttl time.Duration) (string, string, error) {
	hash := refreshTokenHash(token)
	s.mu.Lock()
	entry, ok := s.tokens[hash]
	if ok {
		delete(s.tokens, hash)
	}
	s.mu.Unlock()
	if !ok || time.Now().UTC().After(entry.expiry) {
		return "", "", ErrInvalidRefreshToken
	}
	newToken, err := s.NewToken(entry.userID, ttl)
	if err != nil {
		return "", "", err
	}
	return entry.userID, newToken, nil
}

// DeleteToken removes a refresh token (logout).
func (s *MemoryRefreshTokenStore) DeleteToken(token string) error {
	s.mu.Lock()
	delete(s.tokens, refreshTokenHash(token))
	s.mu.Unlock()
	return nil
}

// RedisRefreshTokenStore keeps refresh token hashes in Redis with TTL.
type RedisRefreshTokenStore struct {
	client *redis.Client
}

// NewRedisRefreshTokenStore connects a refresh token store to Redis.
func NewRedisRefreshTokenStore(addr, password string) *RedisRefreshTokenStore {
	return &RedisRefreshTokenStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

// NewToken issues and stores a new refresh token.
func (s *RedisRefreshTokenStore) NewToken(userID string, ttl time.Duration) (string, error) {
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.client.Set(ctx, refreshKey(token), userID, ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// RotateToken invalidates the presented token and issues a replacement.
// GETDEL makes the take-and-invalidate step atomic.
func (s *RedisRefreshTokenStore) RotateToken(token string, ttl time.Duration) (string, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	userID, err := s.client.GetDel(ctx, refreshKey(token)).Result()
	if err == redis.Nil {
		return "", "", ErrInvalidRefreshToken
	}
	if err != nil {
		return "", "", err
	}
	newToken, err := s.NewToken(userID, ttl)
	if err != nil {
		return "", "", err
	}
	return userID, newToken, nil
}

// DeleteToken removes a refresh token (logout).
func (s *RedisRefreshTokenStore) DeleteToken(token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.client.Del(ctx, refreshKey(token)).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func refreshTokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func refreshKey(token string) string {
	return "refresh:" + refreshTokenHash(token)
}
