// Package audit provides audit event emission for the identity stub.
//
// Every state-mutating authentication operation emits an Event. The Emitter
// interface abstracts the backend: LoggerEmitter writes structured JSON for
// development, KafkaEmitter produces to a topic for environments with a
// broker, NoopEmitter discards everything.
//
// Thread Safety:
//   - Emitter implementations must be safe for concurrent use.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is the audit record schema. The Hash field makes tampering with a
// stored event detectable; Signature is reserved for future signing.
type Event struct {
	EventID   uuid.UUID      `json:"event_id"`
	OrgID     string         `json:"org_id,omitempty"`
	ActorID   string         `json:"actor_id,omitempty"`
	ActorType string         `json:"actor_type"` // "user", "system"
	Action    string         `json:"action"`     // "auth.login", "auth.logout", etc.
	Resource  string         `json:"resource,omitempty"`
	IPAddress string         `json:"ip_address,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Hash      string         `json:"hash"`
	Signature string         `json:"signature"`
	CreatedAt time.Time      `json:"created_at"`
}

// Emitter defines the interface for audit event emission.
type Emitter interface {
	// Emit sends an audit event. Returns an error if emission fails so
	// callers can alert on it; callers must not block request handling
	// on a failed emit.
	Emit(ctx context.Context, event Event) error
}

// LoggerEmitter logs audit events as structured JSON. The default backend
// when no Kafka brokers are configured.
type LoggerEmitter struct {
	logger zerolog.Logger
}

// NewLoggerEmitter creates a logger-based audit emitter.
func NewLoggerEmitter(logger zerolog.Logger) *LoggerEmitter {
	return &LoggerEmitter{logger: logger.With().Str("component", "audit").Logger()}
}

// Emit logs the audit event. Never fails.
func (e *LoggerEmitter) Emit(_ context.Context, event Event) error {
	e.logger.Info().
		Str("event_id", event.EventID.String()).
		Str("org_id", event.OrgID).
		Str("actor_id", event.ActorID).
		Str("actor_type", event.ActorType).
		Str("action", event.Action).
		Str("resource", event.Resource).
		Interface("metadata", event.Metadata).
		Msg("audit event")
	return nil
}

// NoopEmitter discards all events. Useful in tests.
type NoopEmitter struct{}

// NewNoopEmitter creates a no-op audit emitter.
func NewNoopEmitter() *NoopEmitter {
	return &NoopEmitter{}
}

// Emit discards the event.
func (e *NoopEmitter) Emit(context.Context, Event) error {
	return nil
}

// BuildEvent constructs an audit event with a fresh event ID, timestamp, and
// payload hash.
func BuildEvent(orgID, actorID, actorType, action string) Event {
	event := Event{
		EventID:   uuid.New(),
		OrgID:     orgID,
		ActorID:   actorID,
		ActorType: actorType,
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}
	event.Hash = computeEventHash(event)
	return event
}

// WithRequest enriches an audit event with HTTP request metadata.
func WithRequest(event Event, r *http.Request) Event {
	event.IPAddress = clientIP(r)
	event.UserAgent = r.Header.Get("User-Agent")
	if event.Resource == "" {
		event.Resource = r.Method + " " + r.URL.Path
	}
	return event
}

// computeEventHash hashes the event payload excluding hash and signature.
func computeEventHash(event Event) string {
	event.Hash = ""
	event.Signature = ""

	payload, err := json.Marshal(event)
	if err != nil {
		payload = []byte(fmt.Sprintf("%+v", event))
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// clientIP extracts the client IP from the request, handling proxies.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}

// Action constants.
const (
	ActionLogin         = "auth.login"
	ActionLoginFailed   = "auth.login_failed"
	ActionRegister      = "auth.register"
	ActionLogout        = "auth.logout"
	ActionTokenRejected = "auth.token_rejected"
)

// Actor type constants.
const (
	ActorTypeUser   = "user"
	ActorTypeSystem = "system"
)
