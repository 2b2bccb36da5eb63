package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"viralstudio/pkg/ai"
	"viralstudio/pkg/auth"
	"viralstudio/pkg/crypto"
	"viralstudio/pkg/domain"
	"viralstudio/pkg/session"
	"viralstudio/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	SessionTTL    time.Duration
	RefreshTTL    time.Duration
	EncryptionKey string
	GeminiModel   string

	// Optional injection points; defaults are wired from the fields above.
	Store         store.Store
	Sessions      store.SessionStore
	RefreshTokens store.RefreshTokenStore
	Generator     *ai.ContentGenerator
}

// App is the core application service wiring together generation, storage,
// profile sync, and session handling.
//
// A nil data store (no database configured) degrades content and profile
// operations to ErrStorageUnavailable rather than failing at startup.
type App struct {
	store         store.Store
	sessions      store.SessionStore
	refreshTokens store.RefreshTokenStore
	refreshTTL    time.Duration
	cipher        *crypto.Cipher
	generator     *ai.ContentGenerator
	events        *session.Broadcaster
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}

	dataStore := cfg.Store
	if dataStore == nil && cfg.DatabaseURL != "" {
		gormStore, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		dataStore = gormStore
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		var revoker store.TokenRevoker
		if strings.TrimSpace(cfg.RedisAddr) != "" {
			revoker = store.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword)
		} else {
			revoker = store.NewMemoryTokenRevoker()
		}
		jwtStore, err := store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL, revoker)
		if err != nil {
			return nil, fmt.Errorf("init jwt session store: %w", err)
		}
		sessionStore = jwtStore
	}

	refreshStore := cfg.RefreshTokens
	if refreshStore == nil {
		if strings.TrimSpace(cfg.RedisAddr) != "" {
			refreshStore = store.NewRedisRefreshTokenStore(cfg.RedisAddr, cfg.RedisPassword)
		} else {
			refreshStore = store.NewMemoryRefreshTokenStore()
		}
	}

	generator := cfg.Generator
	if generator == nil {
		generator = ai.NewContentGenerator(cfg.GeminiModel)
	}

	return &App{
		store:         dataStore,
		sessions:      sessionStore,
		refreshTokens: refreshStore,
		refreshTTL:    cfg.RefreshTTL,
		cipher:        crypto.New(cfg.EncryptionKey),
		generator:     generator,
		events:        session.NewBroadcaster(),
	}, nil
}

// Session bundles the outcome of a successful sign-in, sign-up, or refresh.
type Session struct {
	User         domain.User        `json:"user"`
	Profile      domain.UserProfile `json:"profile"`
	Token        string             `json:"token"`
	RefreshToken string             `json:"refreshToken"`
}

// OnSessionChange registers a session event handler and returns its
// unsubscribe function. Callers must unsubscribe on teardown.
func (a *App) OnSessionChange(handler session.Handler) func() {
	return a.events.OnChange(handler)
}

// AnnounceInitialSession emits the initial session state to subscribers,
// once, at startup.
func (a *App) AnnounceInitialSession() {
	a.events.Emit(session.Change{Event: session.InitialSession})
}

// SignUp registers a new user. The API key arrives as plaintext and is
// encrypted before it is stored anywhere.
func (a *App) SignUp(email, password, fullname, apiKey string) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return Session{}, ErrEmailAndPasswordRequired
	}
	if err := auth.ValidatePassword(password); err != nil {
		return Session{}, err
	}
	if a.store == nil {
		return Session{}, ErrStorageUnavailable
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return Session{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return Session{}, ErrEmailAlreadyExists
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	encryptedKey, err := a.cipher.Encrypt(strings.TrimSpace(apiKey))
	if err != nil {
		return Session{}, fmt.Errorf("encrypt api key: %w", err)
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Fullname:     strings.TrimSpace(fullname),
		APIKey:       encryptedKey,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return Session{}, fmt.Errorf("save user: %w", err)
	}
	return a.openSession(user, session.SignedIn)
}

// SignIn validates credentials, syncs the profile, and issues tokens.
func (a *App) SignIn(email, password string) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return Session{}, ErrEmailAndPasswordRequired
	}
	if a.store == nil {
		return Session{}, ErrStorageUnavailable
	}
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return Session{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	if user.Status == domain.StatusDisabled {
		return Session{}, ErrUserDisabled
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return Session{}, ErrInvalidCredentials
	}
	return a.openSession(user, session.SignedIn)
}

// SignOut invalidates the access token and optional refresh token.
func (a *App) SignOut(accessToken, refreshToken string) error {
	if err := a.sessions.DeleteSession(accessToken); err != nil {
		return err
	}
	if refreshToken != "" {
		if err := a.refreshTokens.DeleteToken(refreshToken); err != nil {
			return err
		}
	}
	a.events.Emit(session.Change{Event: session.SignedOut})
	return nil
}

// Refresh rotates the refresh token and issues a new token pair.
func (a *App) Refresh(refreshToken string) (Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return Session{}, ErrRefreshTokenRequired
	}
	userID, newRefreshToken, err := a.refreshTokens.RotateToken(refreshToken, a.refreshTTL)
	if err != nil {
		if err == store.ErrInvalidRefreshToken {
			return Session{}, ErrInvalidRefreshToken
		}
		return Session{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	if a.store == nil {
		return Session{}, ErrStorageUnavailable
	}
	user, found, err := a.store.GetUserByID(userID)
	if err != nil {
		return Session{}, fmt.Errorf("fetch user: %w", err)
	}
	if !found || user.Status == domain.StatusDisabled {
		return Session{}, ErrInvalidRefreshToken
	}
	accessToken, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue session: %w", err)
	}
	sync := a.SyncProfile(identityOf(user))
	a.events.Emit(session.Change{Event: session.TokenRefreshed, UserID: user.ID})
	return Session{User: user, Profile: sync.Profile, Token: accessToken, RefreshToken: newRefreshToken}, nil
}

// CurrentUser resolves a user from a session token.
func (a *App) CurrentUser(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	if a.store == nil {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	if user.Status == domain.StatusDisabled {
		return domain.User{}, false
	}
	return user, true
}

// SyncResult reports whether the returned profile is backed by a stored row
// or is an in-memory fallback that failed to persist.
type SyncResult struct {
	Profile   domain.UserProfile
	Persisted bool
}

// SyncProfile ensures a profile row exists for the identity. Stored rows
// win over identity metadata. Sync is best-effort: it never fails, it only
// reports whether the profile is durable.
func (a *App) SyncProfile(identity domain.Identity) SyncResult {
	fallback := fallbackProfile(identity)
	if a.store == nil {
		return SyncResult{Profile: fallback}
	}
	existing, found, err := a.store.GetProfile(identity.ID)
	if err != nil {
		slog.Warn("profile lookup failed, using fallback", "user_id", identity.ID, "err", err)
		return SyncResult{Profile: fallback}
	}
	if found {
		return SyncResult{Profile: existing, Persisted: true}
	}
	if err := a.store.SaveProfile(fallback); err != nil {
		slog.Warn("profile insert failed, using fallback", "user_id", identity.ID, "err", err)
		return SyncResult{Profile: fallback}
	}
	return SyncResult{Profile: fallback, Persisted: true}
}

// Generate produces structured content for a signed-in user with their own
// decrypted API key.
func (a *App) Generate(ctx context.Context, user domain.User, req domain.GenerationRequest) (domain.GeneratedContent, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return domain.GeneratedContent{}, ErrTopicRequired
	}
	sync := a.SyncProfile(identityOf(user))
	apiKey := a.cipher.Decrypt(sync.Profile.APIKey)
	return a.generator.Generate(ctx, req, apiKey)
}

// SaveContent persists a generation under the caller's ownership.
func (a *App) SaveContent(topic string, data domain.GeneratedContent, ownerID string) (domain.ContentItem, error) {
	if ownerID == "" {
		return domain.ContentItem{}, store.ErrUnauthenticated
	}
	if a.store == nil {
		return domain.ContentItem{}, ErrStorageUnavailable
	}
	return a.store.SaveContent(topic, data, ownerID)
}

// UpdateContent replaces the data payload of a row the caller owns.
func (a *App) UpdateContent(id int64, callerID string, data domain.GeneratedContent) error {
	if a.store == nil {
		return ErrStorageUnavailable
	}
	return a.store.UpdateContent(id, callerID, data)
}

// DeleteContent removes a row the caller owns.
func (a *App) DeleteContent(id int64, callerID string) error {
	if a.store == nil {
		return ErrStorageUnavailable
	}
	return a.store.DeleteContent(id, callerID)
}

// ListContents returns the caller's saved generations, most recent first.
func (a *App) ListContents(ownerID string) ([]domain.ContentItem, error) {
	if a.store == nil {
		return nil, ErrStorageUnavailable
	}
	return a.store.ListContents(ownerID)
}

// GetContent fetches one saved generation visible to the caller.
func (a *App) GetContent(id int64, callerID string) (domain.ContentItem, error) {
	if a.store == nil {
		return domain.ContentItem{}, ErrStorageUnavailable
	}
	return a.store.GetContentByID(id, callerID)
}

func (a *App) openSession(user domain.User, event session.Event) (Session, error) {
	accessToken, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue session: %w", err)
	}
	refreshToken, err := a.refreshTokens.NewToken(user.ID, a.refreshTTL)
	if err != nil {
		return Session{}, fmt.Errorf("issue refresh token: %w", err)
	}
	sync := a.SyncProfile(identityOf(user))
	a.events.Emit(session.Change{Event: event, UserID: user.ID})
	return Session{User: user, Profile: sync.Profile, Token: accessToken, RefreshToken: refreshToken}, nil
}

func identityOf(user domain.User) domain.Identity {
	return domain.Identity{
		ID:       user.ID,
		Email:    user.Email,
		Fullname: user.Fullname,
		Avatar:   user.Avatar,
		APIKey:   user.APIKey,
	}
}

// fallbackProfile builds a profile from identity metadata: display name,
// else the email local part, else "Creator".
func fallbackProfile(identity domain.Identity) domain.UserProfile {
	fullname := strings.TrimSpace(identity.Fullname)
	if fullname == "" {
		if at := strings.Index(identity.Email, "@"); at > 0 {
			fullname = identity.Email[:at]
		}
	}
	if fullname == "" {
		fullname = "Creator"
	}
	return domain.UserProfile{
		ID:       identity.ID,
		Fullname: fullname,
		Avatar:   identity.Avatar,
		APIKey:   identity.APIKey,
	}
}
