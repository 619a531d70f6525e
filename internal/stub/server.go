package stub

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/datacendia/datacendia-go/internal/audit"
	"github.com/datacendia/datacendia-go/internal/metrics"
	"github.com/datacendia/datacendia-go/pkg/identity"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Options configure the stub server.
type Options struct {
	Logger  *zap.Logger
	Users   *UserStore
	Tokens  *TokenIssuer
	Auditor audit.Emitter
}

// Server is the HTTP surface of the development identity service.
type Server struct {
	logger  *zap.Logger
	users   *UserStore
	tokens  *TokenIssuer
	auditor audit.Emitter
	router  chi.Router
}

// NewServer builds the router with health, metrics, and auth routes mounted.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Auditor == nil {
		opts.Auditor = audit.NewNoopEmitter()
	}

	s := &Server{
		logger:  opts.Logger,
		users:   opts.Users,
		tokens:  opts.Tokens,
		auditor: opts.Auditor,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(s.logRequests)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})
	router.Get("/metrics", promhttp.Handler().ServeHTTP)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Post("/logout", s.handleLogout)
		r.Get("/me", s.handleMe)
	})

	s.router = router
	return s
}

// Handler exposes the router for mounting and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the server until ctx is canceled, then drains with a
// short grace period.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		metrics.RequestDurationSeconds.
			WithLabelValues(r.URL.Path, strconv.Itoa(ww.statusCode)).
			Observe(duration.Seconds())
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.statusCode),
			zap.Duration("duration", duration),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// Envelope shapes shared by every endpoint.

type envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *envelopeError `json:"error,omitempty"`
}

type envelopeError struct {
	Message string `json:"message"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	Name             string `json:"name"`
	OrganizationName string `json:"organizationName"`
}

type sessionResponse struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresIn    int64         `json:"expiresIn"`
	User         identity.User `json:"user"`
}

func (s *Server) writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		s.logger.Warn("encode response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: false, Error: &envelopeError{Message: message}}); err != nil {
		s.logger.Warn("encode response failed", zap.Error(err))
	}
}

func decodeJSON(r *http.Request, out any) error {
	defer io.Copy(io.Discard, r.Body) //nolint:errcheck
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(out)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	user, err := s.users.Authenticate(req.Email, req.Password)
	if err != nil {
		metrics.RecordAuthFailure("password", "invalid_credentials")
		s.emitAudit(r, audit.WithRequest(audit.BuildEvent("", "", audit.ActorTypeSystem, audit.ActionLoginFailed), r))
		s.writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	s.issueSession(w, r, user, "password", audit.ActionLogin)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "Email, password and name are required")
		return
	}

	user, err := s.users.Create(req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			metrics.RecordAuthFailure("register", "email_taken")
			s.writeError(w, http.StatusConflict, "Email already registered")
			return
		}
		s.logger.Error("create account failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	s.issueSession(w, r, user, "register", audit.ActionRegister)
}

// issueSession mints tokens for an authenticated principal and writes the
// session payload. Shared by login and register.
func (s *Server) issueSession(w http.ResponseWriter, r *http.Request, user identity.User, method, action string) {
	access, refresh, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("issue tokens failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Could not issue session")
		return
	}

	metrics.RecordAuthSuccess(method)
	s.emitAudit(r, audit.WithRequest(audit.BuildEvent(user.OrganizationID, user.ID, audit.ActorTypeUser, action), r))

	s.writeData(w, http.StatusOK, sessionResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.TTL() / time.Second),
		User:         user,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token, ok := bearerToken(r); ok {
		s.tokens.Revoke(token)
		metrics.RecordSessionRevoked()
	}
	// Logout succeeds regardless of token validity; the caller is leaving
	// either way.
	s.emitAudit(r, audit.WithRequest(audit.BuildEvent("", "", audit.ActorTypeUser, audit.ActionLogout), r))
	s.writeData(w, http.StatusOK, map[string]bool{"loggedOut": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		metrics.RecordIdentityLookup("unauthenticated")
		s.writeError(w, http.StatusUnauthorized, "Missing bearer token")
		return
	}

	userID, err := s.tokens.Validate(token)
	if err != nil {
		metrics.RecordIdentityLookup("unauthenticated")
		s.emitAudit(r, audit.WithRequest(audit.BuildEvent("", "", audit.ActorTypeSystem, audit.ActionTokenRejected), r))
		s.writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		metrics.RecordIdentityLookup("unauthenticated")
		s.writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	metrics.RecordIdentityLookup("success")
	s.writeData(w, http.StatusOK, user)
}

func (s *Server) emitAudit(r *http.Request, event audit.Event) {
	if err := s.auditor.Emit(r.Context(), event); err != nil {
		s.logger.Warn("audit emit failed", zap.Error(err))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
