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

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		name string
		rank string
		want string
	}{
		{"Danaus plexippus (Linnaeus, 1758)", "SPECIES", "Danaus plexippus"},
		{"Turdus Linnaeus, 1758", "GENUS", "Turdus"},
		{"Turdidae Rafinesque, 1815", "family", "Turdidae"},
		{"Acer saccharum subsp. nigrum (F.Michx.) Desmarais", "SUBSPECIES", "Acer saccharum nigrum"},
		{"Trillium erectum var. album (Michx.) Pursh", "VARIETY", "Trillium erectum album"},
		{"Quercus rubra f. ambigua Fernald", "FORM", "Quercus rubra ambigua"},
		{"Canis lupus familiaris Linnaeus, 1758", "SUBSPECIES", "Canis lupus familiaris"},
	}
	for _, tc := range tests {
		got, err := CanonicalName(tc.name, tc.rank)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestCanonicalNameTooShort(t *testing.T) {
	_, err := CanonicalName("Danaus", "SPECIES")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	_, err = CanonicalName("Acer saccharum subsp.", "SUBSPECIES")
	require.Error(t, err)
	_, err = CanonicalName("   ", "GENUS")
	require.Error(t, err)
}

func TestServiceMatchKey(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewService(&stubMatcher{key: 5133088}, logger)
	key, err := svc.MatchKey(context.Background(), " Danaus plexippus ")
	require.NoError(t, err)
	require.Equal(t, int64(5133088), key)

	_, err = svc.MatchKey(context.Background(), "")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	svc = NewService(&stubMatcher{err: errors.New("timeout")}, logger)
	_, err = svc.MatchKey(context.Background(), "Danaus")
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstreamError))

	svc = NewService(&stubMatcher{err: apperrors.Wrap(apperrors.CodeNotFound, "no usage key", nil)}, logger)
	_, err = svc.MatchKey(context.Background(), "Nonesuch")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}
