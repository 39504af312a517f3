package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/social-blog-api/internal/repository"
)

// sessionJanitor is the concrete implementation of SessionJanitor
type sessionJanitor struct {
	sessions repository.SessionRepository
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
	running  bool
	mu       sync.Mutex
}

func newSessionJanitor(sessions repository.SessionRepository, interval time.Duration, log zerolog.Logger) *sessionJanitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &sessionJanitor{
		sessions: sessions,
		interval: interval,
		now:      time.Now,
		log:      log.With().Str("service", "session_janitor").Logger(),
	}
}

// StartProcessor starts sweeping expired sessions every interval until ctx
// is cancelled or StopProcessor is called. It returns immediately; the
// processor is registered before it returns, so a following StopProcessor
// always stops it.
func (s *sessionJanitor) StartProcessor(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
}

func (s *sessionJanitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.log.Info().Dur("interval", s.interval).Msg("Session janitor started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Session janitor stopping")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.log.Error().Err(err).Msg("Failed to sweep expired sessions")
			}
		}
	}
}

// StopProcessor stops the janitor and waits for it to exit
func (s *sessionJanitor) StopProcessor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	<-s.done
	s.running = false
	s.log.Info().Msg("Session janitor stopped")
}

// Sweep deletes every session that has expired
func (s *sessionJanitor) Sweep(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info().Int64("deleted", n).Msg("Expired sessions removed")
	}
	return n, nil
}
