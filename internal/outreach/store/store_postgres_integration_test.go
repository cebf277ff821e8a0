//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"utsav/internal/outreach/models"
	"utsav/pkg/testutil/containers"
)

func TestPostgresOutreachStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	store := NewPostgres(pg.DB)
	ctx := context.Background()
	require.NoError(t, store.EnsureSchema(ctx))

	newMessage := func(body string) *models.Message {
		msg, err := models.New(uuid.NewString(), models.Input{
			Kind:  models.KindContact,
			Name:  "Asha",
			Email: "asha@example.com",
			Body:  body,
		}, time.Now().UTC())
		require.NoError(t, err)
		return msg
	}

	t.Run("create is deduplicated on content", func(t *testing.T) {
		first := newMessage("hello")
		_, created, err := store.CreateIfAbsent(ctx, first)
		require.NoError(t, err)
		assert.True(t, created)

		retry := newMessage("hello")
		stored, created, err := store.CreateIfAbsent(ctx, retry)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, stored.ID)
	})

	t.Run("different content creates a new row", func(t *testing.T) {
		_, created, err := store.CreateIfAbsent(ctx, newMessage("another question"))
		require.NoError(t, err)
		assert.True(t, created)

		msgs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, msgs, 2)
	})

	t.Run("social links survive the round trip", func(t *testing.T) {
		msg, err := models.New(uuid.NewString(), models.Input{
			Kind:        models.KindInfluencer,
			Email:       "riya@example.com",
			SocialLinks: []string{"https://instagram.com/riya", "https://youtube.com/@riya"},
		}, time.Now().UTC())
		require.NoError(t, err)

		stored, created, err := store.CreateIfAbsent(ctx, msg)
		require.NoError(t, err)
		require.True(t, created)
		assert.Equal(t, msg.SocialLinks, stored.SocialLinks)
	})
}
