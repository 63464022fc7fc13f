package service

import (
	repository "github.com/okian/triplecrown/internal/adapters/repository"
	"github.com/okian/triplecrown/internal/domain/aggregate"
	"github.com/okian/triplecrown/internal/domain/blocking"
	"github.com/okian/triplecrown/internal/domain/normalize"
	"github.com/okian/triplecrown/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithBlockingParams sets the blocking key widths and checks.
func WithBlockingParams(p blocking.Params) Option {
	return func(s *Service) {
		if p.FirstWidth > 0 && p.LastWidth > 0 {
			s.params = p
		}
	}
}

// WithRowPolicy sets what happens to malformed rows.
func WithRowPolicy(p normalize.Policy) Option {
	return func(s *Service) {
		if p != "" {
			s.policy = p
		}
	}
}

// WithTieMode sets how dead heats are positioned.
func WithTieMode(m aggregate.TieMode) Option {
	return func(s *Service) {
		if m != "" {
			s.tieMode = m
		}
	}
}

// WithPreferredSource shows names and cities from the source tagged tag.
func WithPreferredSource(tag string) Option {
	return func(s *Service) {
		s.preferred = tag
	}
}

// WithStore publishes leaderboards to store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.leaderboard = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
