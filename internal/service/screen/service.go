package screen

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/pdf-qa/frontend/internal/model/persona"
)

var ErrScreenNotFound = errors.New("screen not found")

// Options tunes the screen registry.
type Options struct {
	DefaultPersona string
	IdleTTL        time.Duration
}

type entry struct {
	screen   *Screen
	lastSeen time.Time
}

// Service keeps every open screen in memory. Nothing survives a restart.
type Service struct {
	backend  Backend
	personas persona.Store
	opts     Options
	now      func() time.Time

	mu      sync.RWMutex
	screens map[string]*entry
}

// NewService bootstraps an empty in-memory registry.
func NewService(b Backend, personas persona.Store, opts Options) *Service {
	if opts.DefaultPersona == "" {
		opts.DefaultPersona = persona.Default
	}
	return &Service{
		backend:  b,
		personas: personas,
		opts:     opts,
		now:      time.Now,
		screens:  make(map[string]*entry),
	}
}

// Create opens a fresh screen with no session.
func (s *Service) Create(_ context.Context) *Screen {
	sc := New(uuid.NewString(), s.backend, s.personas, s.opts.DefaultPersona)

	s.mu.Lock()
	s.screens[sc.ID()] = &entry{screen: sc, lastSeen: s.now()}
	s.mu.Unlock()

	return sc
}

// Get retrieves a screen by identifier and marks it as recently used.
func (s *Service) Get(_ context.Context, id string) (*Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.screens[id]
	if !ok {
		return nil, ErrScreenNotFound
	}
	e.lastSeen = s.now()
	return e.screen, nil
}

// Len reports the number of open screens.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.screens)
}

// Prune drops screens idle for longer than the configured TTL.
// Screens with a call in flight or a live subscriber are kept.
func (s *Service) Prune() int {
	if s.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.opts.IdleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.screens {
		if e.lastSeen.Before(cutoff) && !e.screen.View().Loading && !e.screen.Active() {
			delete(s.screens, id)
			removed++
		}
	}
	return removed
}

// Run prunes idle screens until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if s.opts.IdleTTL <= 0 {
		return
	}
	interval := s.opts.IdleTTL / 2
	if interval > time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Prune(); n > 0 {
				log.Printf("[screen] pruned %d idle screens, %d open", n, s.Len())
			}
		}
	}
}
