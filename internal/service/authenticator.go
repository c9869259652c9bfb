package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/aman-churiwal/event-gateway/internal/models"
	"github.com/aman-churiwal/event-gateway/internal/ratelimit"
)

type VerdictStatus int

const (
	// StatusUnauthenticated - missing, unknown, inactive, or expired credential
	StatusUnauthenticated VerdictStatus = iota

	// StatusRateLimited - valid credential, window quota exhausted
	StatusRateLimited

	// StatusAdmitted - request may proceed to the business handler
	StatusAdmitted
)

// Verdict is the authentication outcome handed to the request boundary.
// Internal marks verdicts caused by a dependency failure rather than the
// credential itself, so the boundary can answer 503 instead of 401; the
// externally visible message never distinguishes wrong key from unknown
// key.
type Verdict struct {
	Status     VerdictStatus
	Client     *models.Client
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
	Internal   bool
}

// CredentialSource resolves a raw key to a client record. (nil, nil)
// means the key is unknown.
type CredentialSource interface {
	Validate(ctx context.Context, rawKey string) (*models.Client, error)
}

// Limiter decides admission against the shared per-client counter.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (ratelimit.Decision, error)
	FailOpen() bool
}

// Authenticator orchestrates credential lookup and rate limiting into a
// single verdict per request.
type Authenticator struct {
	credentials  CredentialSource
	limiter      Limiter
	defaultLimit int
	window       time.Duration
	now          func() time.Time
}

func NewAuthenticator(credentials CredentialSource, limiter Limiter, defaultLimit int, window time.Duration) *Authenticator {
	return &Authenticator{
		credentials:  credentials,
		limiter:      limiter,
		defaultLimit: defaultLimit,
		window:       window,
		now:          time.Now,
	}
}

// Authenticate validates the credential and charges the request against
// the client's window quota. The per-client limit is read from the client
// record on every call, so an admin change applies to the window already
// in progress.
func (a *Authenticator) Authenticate(ctx context.Context, rawCredential, endpoint, method string) Verdict {
	rawCredential = strings.TrimSpace(rawCredential)
	if rawCredential == "" {
		return Verdict{Status: StatusUnauthenticated}
	}

	client, err := a.credentials.Validate(ctx, rawCredential)
	if err != nil {
		log.Printf("Credential store lookup failed: %v", err)
		return Verdict{Status: StatusUnauthenticated, Internal: true}
	}

	if client == nil || !client.Usable(a.now()) {
		return Verdict{Status: StatusUnauthenticated}
	}

	limit := client.RequestsPerWindow
	if limit <= 0 {
		limit = a.defaultLimit
	}

	decision, err := a.limiter.Allow(ctx, client.ID.String(), limit, a.window)
	if err != nil {
		if decision.Allowed {
			log.Printf("Rate counter store unreachable, admitting %s (fail-open): %v", client.ID, err)
		} else {
			log.Printf("Rate counter store unreachable, rejecting %s (fail-closed): %v", client.ID, err)
			return Verdict{
				Status:     StatusRateLimited,
				Client:     client,
				RetryAfter: decision.RetryAfter,
				ResetAt:    decision.ResetAt,
				Internal:   true,
			}
		}
	}

	if !decision.Allowed {
		return Verdict{
			Status:     StatusRateLimited,
			Client:     client,
			RetryAfter: decision.RetryAfter,
			ResetAt:    decision.ResetAt,
		}
	}

	return Verdict{
		Status:    StatusAdmitted,
		Client:    client,
		Remaining: decision.Remaining,
		ResetAt:   decision.ResetAt,
	}
}
