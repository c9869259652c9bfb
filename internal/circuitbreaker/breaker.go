package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when a call is refused because the circuit is open
var ErrOpen = errors.New("circuit breaker is open")

// Breaker guards one downstream endpoint. Consecutive failures trip it
// open; after the cool-down one probe call is let through, and its outcome
// decides whether the circuit closes again.
type Breaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
	maxFailures int
	coolDown    time.Duration
}

type Config struct {
	MaxFailures int           // consecutive failures before opening, default 5
	CoolDown    time.Duration // how long to refuse calls, default 30s
}

func New(cfg Config) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = 30 * time.Second
	}

	return &Breaker{
		state:       StateClosed,
		maxFailures: cfg.MaxFailures,
		coolDown:    cfg.CoolDown,
	}
}

// Allow reports whether a call may proceed. In the open state it starts
// refusing until the cool-down elapses, then admits a single probe.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if time.Since(b.lastFailure) < b.coolDown {
			return false
		}
		b.state = StateHalfOpen
	}

	return true
}

func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
}

func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = time.Now()

	if b.state == StateHalfOpen || b.failures >= b.maxFailures {
		b.state = StateOpen
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Set hands out one breaker per key so independent endpoints trip
// independently.
type Set struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
	cfg      Config
}

func NewSet(cfg Config) *Set {
	return &Set{
		breakers: make(map[string]*Breaker),
		cfg:      cfg,
	}
}

func (s *Set) Get(key string) *Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.breakers[key]
	if !ok {
		b = New(s.cfg)
		s.breakers[key] = b
	}
	return b
}
