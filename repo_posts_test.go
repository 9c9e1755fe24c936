package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestPostsRepositoryCreateForAuthor(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	users := accounts.NewUsersRepository(db)
	posts := accounts.NewPostsRepository(db)

	author := seedUser(t, users, "author", "author@example.com", "secret-a")

	t.Run("creates a post linked to its author", func(t *testing.T) {
		post, err := posts.CreateForAuthor(ctx, author.ID, "First post", "hello")
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, post.ID)
		assert.Equal(t, author.ID, post.AuthorID)
		assert.Equal(t, "First post", post.Title)
	})

	t.Run("requires a title", func(t *testing.T) {
		_, err := posts.CreateForAuthor(ctx, author.ID, "", "hello")
		assert.Error(t, err)
	})

	t.Run("requires an author", func(t *testing.T) {
		_, err := posts.CreateForAuthor(ctx, uuid.Nil, "Orphan", "hello")
		assert.Error(t, err)
	})

	t.Run("rejects unknown authors", func(t *testing.T) {
		_, err := posts.CreateForAuthor(ctx, uuid.New(), "Ghost writer", "hello")
		assert.Error(t, err)
	})
}

func TestRepositoryManager(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	manager := accounts.NewRepositoryManager(db)

	require.NoError(t, manager.Validate())
	require.NotNil(t, manager.Users())
	require.NotNil(t, manager.Posts())

	t.Run("commits work done in a transaction", func(t *testing.T) {
		err := manager.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			user, err := manager.Users().RegisterTx(ctx, tx, &accounts.User{
				Username:     "txuser",
				Email:        "tx@example.com",
				Secret:       "tx-secret",
				PasswordHash: "hash",
			})
			if err != nil {
				return err
			}

			_, err = manager.Posts().CreateForAuthorTx(ctx, tx, user.ID, "Tx post", "body")
			return err
		})
		require.NoError(t, err)

		got, err := manager.Users().GetByUsername(ctx, "txuser")
		require.NoError(t, err)
		assert.Equal(t, "tx@example.com", got.Email)
	})

	t.Run("rolls back when the function fails", func(t *testing.T) {
		err := manager.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := manager.Users().RegisterTx(ctx, tx, &accounts.User{
				Username:     "rollback",
				Email:        "rollback@example.com",
				Secret:       "rb-secret",
				PasswordHash: "hash",
			}); err != nil {
				return err
			}
			return assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)

		_, err = manager.Users().GetByUsername(ctx, "rollback")
		assert.Error(t, err)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		err := manager.RunInTx(canceled, nil, func(ctx context.Context, tx bun.Tx) error {
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
