package modelstore

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/ddlparse"
	"github.com/ggm-tools/ddlmodel/testutils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewLocalStore(zerolog.Nop(), dir)

	loc, err := s.WriteModel(ctx, "client.sql", []byte("SELECT 1"), false)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "client.sql"), loc)
	require.Equal(t, "SELECT 1", testutils.ReadFile(t, loc))

	_, err = s.WriteModel(ctx, "client.sql", []byte("SELECT 2"), false)
	require.True(t, errors.Is(err, ErrModelExists), "%+v", err)
	require.Equal(t, "SELECT 1", testutils.ReadFile(t, loc))

	_, err = s.WriteModel(ctx, "client.sql", []byte("SELECT 2"), true)
	require.NoError(t, err)
	require.Equal(t, "SELECT 2", testutils.ReadFile(t, loc))

	_, err = s.WriteModel(ctx, "sub/zaak.sql", []byte("SELECT 3"), false)
	require.NoError(t, err)
	testutils.WriteFiles(t, dir, map[string]string{"notes.txt": "not a model"})

	names, err := s.ListModels(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"client.sql", "sub/zaak.sql"}, names)

	sources, err := ReadAll(ctx, s)
	require.NoError(t, err)
	require.Equal(t, []ddlparse.Source{
		{Name: "client.sql", Text: "SELECT 2"},
		{Name: "sub/zaak.sql", Text: "SELECT 3"},
	}, sources)

	_, err = s.ReadModel(ctx, "missing.sql")
	require.Error(t, err)

	for _, name := range []string{"../escape.sql", "/abs.sql", "sub/../../escape.sql"} {
		_, err = s.WriteModel(ctx, name, []byte("SELECT 4"), true)
		require.Error(t, err, name)
		require.Contains(t, err.Error(), "is outside")
		_, err = s.ReadModel(ctx, name)
		require.Error(t, err, name)
	}
	require.NoFileExists(t, filepath.Join(filepath.Dir(dir), "escape.sql"))
}

func TestPreviewStore(t *testing.T) {
	ctx := context.Background()
	var sb strings.Builder
	s := NewPreviewStore(&sb)

	_, err := s.WriteModel(ctx, "b.sql", []byte("SELECT 2"), false)
	require.NoError(t, err)
	_, err = s.WriteModel(ctx, "a.sql", []byte("SELECT 1"), false)
	require.NoError(t, err)
	_, err = s.WriteModel(ctx, "a.sql", []byte("SELECT 1"), false)
	require.True(t, errors.Is(err, ErrModelExists))

	require.Equal(t, "-- b.sql\nSELECT 2\n-- a.sql\nSELECT 1\n", sb.String())
	names, err := s.ListModels(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a.sql", "b.sql"}, names)
	b, err := s.ReadModel(ctx, "b.sql")
	require.NoError(t, err)
	require.Equal(t, "SELECT 2", string(b))
}

func TestObjectKey(t *testing.T) {
	require.Equal(t, "client.sql", objectKey("", "client.sql"))
	require.Equal(t, "models/silver/client.sql", objectKey("models/silver", "client.sql"))
}
