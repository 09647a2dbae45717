package taxon

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/yanqian/phenology/pkg/errors"
)

// Matcher resolves a name against the species backbone.
type Matcher interface {
	MatchName(ctx context.Context, name string) (int64, error)
}

// Service exposes taxon name utilities.
type Service interface {
	MatchKey(ctx context.Context, name string) (int64, error)
	Canonical(scientificName, rank string) (string, error)
}

type service struct {
	matcher Matcher
	logger  *slog.Logger
}

// NewService wires the taxon domain.
func NewService(matcher Matcher, logger *slog.Logger) Service {
	return &service{matcher: matcher, logger: logger.With("component", "taxon.service")}
}

// MatchKey returns the backbone usage key for name, or a not_found error.
func (s *service) MatchKey(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, apperrors.Wrap(apperrors.CodeInvalidInput, "name cannot be empty", nil)
	}
	key, err := s.matcher.MatchName(ctx, name)
	if err != nil {
		if apperrors.CodeOf(err) != "" {
			return 0, err
		}
		return 0, apperrors.Wrap(apperrors.CodeUpstreamError, "species match failed", err)
	}
	s.logger.Debug("species matched", "name", name, "usageKey", key)
	return key, nil
}

func (s *service) Canonical(scientificName, rank string) (string, error) {
	return CanonicalName(scientificName, rank)
}
