package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contentbuild/internal/content"
)

func TestStaticFetchReturnsCopies(t *testing.T) {
	s := Static{Entries: []content.Entry{content.New("1", "PageLayout", map[string]any{"slug": "about"})}}
	assert.Equal(t, "static", s.Name())

	got, err := s.Fetch(t.Context())
	require.NoError(t, err)
	require.Len(t, got, 1)
	got[0].Fields["slug"] = "changed"
	assert.Equal(t, "about", s.Entries[0].Fields["slug"])
}

func TestStaticFetchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := Static{}.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
