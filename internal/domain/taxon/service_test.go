package taxon

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/phenology/pkg/errors"
)

type stubMatcher struct {
	key   int64
	err   error
	calls []string
}

func (s *stubMatcher) MatchName(_ context.Context, name string) (int64, error) {
	s.calls = append(s.calls, name)
	return s.key, s.err
}

func newTestService(m Matcher) Service {
	return NewService(m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestMatchKeyTrimsName(t *testing.T) {
	matcher := &stubMatcher{key: 5133088}
	svc := newTestService(matcher)

	key, err := svc.MatchKey(context.Background(), "  Danaus plexippus ")
	require.NoError(t, err)
	require.Equal(t, int64(5133088), key)
	require.Equal(t, []string{"Danaus plexippus"}, matcher.calls)
}

func TestMatchKeyRejectsEmptyName(t *testing.T) {
	matcher := &stubMatcher{}
	svc := newTestService(matcher)

	_, err := svc.MatchKey(context.Background(), "   ")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Empty(t, matcher.calls)
}

func TestMatchKeyWrapsUpstreamFailure(t *testing.T) {
	svc := newTestService(&stubMatcher{err: errors.New("connection reset")})

	_, err := svc.MatchKey(context.Background(), "Danaus plexippus")
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstreamError))
}

func TestMatchKeyKeepsNotFound(t *testing.T) {
	svc := newTestService(&stubMatcher{err: apperrors.Wrap(apperrors.CodeNotFound, "no usage key", nil)})

	_, err := svc.MatchKey(context.Background(), "Nonexistent species")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}
