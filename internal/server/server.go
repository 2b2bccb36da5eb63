package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"viralstudio/internal/app"
	"viralstudio/internal/util"
	"viralstudio/pkg/ai"
	"viralstudio/pkg/domain"
	"viralstudio/pkg/store"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
}

// Server exposes the HTTP API.
type Server struct {
	app *app.App
	mux *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app: cfg.App,
		mux: http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("api", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/auth/signup", s.handleSignup)
	s.mux.HandleFunc("/auth/login", s.handleLogin)
	s.mux.HandleFunc("/auth/logout", s.handleLogout)
	s.mux.HandleFunc("/auth/refresh", s.handleRefresh)
	s.mux.Handle("/auth/me", s.withUser(s.handleMe))

	// generation and saved content
	s.mux.Handle("/generate", s.withUser(s.handleGenerate))
	s.mux.Handle("/contents", s.withUser(s.handleContents))
	s.mux.Handle("/contents/", s.withUser(s.handleContentByID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, ok := s.app.CurrentUser(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

// auth handlers

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req signupRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess, err := s.app.SignUp(req.Email, req.Password, req.Fullname, req.APIKey)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess, err := s.app.SignIn(req.Email, req.Password)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req logoutRequest
	if r.Body != nil {
		// Body is optional; a refresh token may accompany the logout.
		_ = json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req)
	}
	if err := s.app.SignOut(token, req.RefreshToken); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req refreshRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess, err := s.app.Refresh(req.RefreshToken)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sync := s.app.SyncProfile(identityOf(user))
	writeJSON(w, http.StatusOK, meResponse{User: user, Profile: sync.Profile})
}

// generation handler

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req generateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	content, err := s.app.Generate(r.Context(), user, domain.GenerationRequest{
		Topic:  req.Topic,
		Mode:   domain.ContentMode(req.Mode),
		Style:  domain.ContentStyle(req.Style),
		Length: domain.ContentLength(req.Length),
	})
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	item := struct {
		Topic   string                  `json:"topic"`
		Content domain.GeneratedContent `json:"content"`
		Saved   *domain.ContentItem     `json:"saved,omitempty"`
	}{Topic: req.Topic, Content: content}
	if req.Save {
		saved, err := s.app.SaveContent(req.Topic, content, user.ID)
		if err == nil {
			item.Saved = &saved
		}
		// Generation succeeded; a failed save never discards the result.
	}
	writeJSON(w, http.StatusOK, item)
}

// content handlers

func (s *Server) handleContents(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		items, err := s.app.ListContents(user.ID)
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": items,
			"count": len(items),
		})
	case http.MethodPost:
		var req saveContentRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Topic) == "" {
			writeError(w, http.StatusBadRequest, "topic is required")
			return
		}
		saved, err := s.app.SaveContent(req.Topic, req.Data, user.ID)
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	default:
		methodNotAllowed(w)
	}
}

// /contents/{id}
func (s *Server) handleContentByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	raw := strings.TrimPrefix(r.URL.Path, "/contents/")
	if raw == "" || strings.Contains(raw, "/") {
		notFound(w, "not found")
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		notFound(w, "content not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		item, err := s.app.GetContent(id, user.ID)
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodPut:
		var req updateContentRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := s.app.UpdateContent(id, user.ID, req.Data); err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}
		item, err := s.app.GetContent(id, user.ID)
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodDelete:
		if err := s.app.DeleteContent(id, user.ID); err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, app.ErrInvalidCredentials),
		errors.Is(err, app.ErrInvalidRefreshToken),
		errors.Is(err, store.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrUserDisabled), errors.Is(err, store.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrEmailAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, app.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ai.ErrEmptyResponse), errors.Is(err, ai.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, app.ErrEmailAndPasswordRequired),
		errors.Is(err, app.ErrRefreshTokenRequired),
		errors.Is(err, app.ErrTopicRequired),
		errors.Is(err, ai.ErrMissingKey):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
	APIKey   string `json:"apikey"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type meResponse struct {
	User    domain.User        `json:"user"`
	Profile domain.UserProfile `json:"profile"`
}

type generateRequest struct {
	Topic  string `json:"topic"`
	Mode   string `json:"mode"`
	Style  string `json:"style"`
	Length string `json:"length"`
	Save   bool   `json:"save"`
}

type saveContentRequest struct {
	Topic string                  `json:"topic"`
	Data  domain.GeneratedContent `json:"data"`
}

type updateContentRequest struct {
	Data domain.GeneratedContent `json:"data"`
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

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCodeFor(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCodeFor(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "unauthorized":
		return "AUTH_INVALID_TOKEN"
	case message == strings.ToLower(app.ErrInvalidCredentials.Error()):
		return "AUTH_INVALID_CREDENTIALS"
	case message == strings.ToLower(app.ErrEmailAlreadyExists.Error()):
		return "AUTH_EMAIL_EXISTS"
	case message == strings.ToLower(app.ErrInvalidRefreshToken.Error()):
		return "AUTH_INVALID_REFRESH_TOKEN"
	case message == strings.ToLower(app.ErrTopicRequired.Error()):
		return "GENERATE_TOPIC_REQUIRED"
	case message == strings.ToLower(ai.ErrMissingKey.Error()):
		return "GENERATE_API_KEY_MISSING"
	case message == "content not found", message == strings.ToLower(store.ErrNotFound.Error()):
		return "CONTENT_NOT_FOUND"
	case message == strings.ToLower(store.ErrForbidden.Error()):
		return "CONTENT_FORBIDDEN"
	case message == "invalid json body":
		return "REQUEST_INVALID_BODY"
	case message == "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case message == "not found":
		return "SYSTEM_NOT_FOUND"
	}

	switch status {
	case http.StatusBadRequest:
		return "REQUEST_INVALID"
	case http.StatusUnauthorized:
		return "AUTH_INVALID_TOKEN"
	case http.StatusForbidden:
		return "CONTENT_FORBIDDEN"
	case http.StatusNotFound:
		return "CONTENT_NOT_FOUND"
	case http.StatusConflict:
		return "AUTH_EMAIL_EXISTS"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusServiceUnavailable:
		return "STORAGE_UNAVAILABLE"
	case http.StatusBadGateway:
		return "GENERATE_UPSTREAM_ERROR"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
