package accounts

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Posts stores author linked content records.
type Posts interface {
	repository.Repository[*Post]

	CreateForAuthor(ctx context.Context, authorID uuid.UUID, title, content string) (*Post, error)
	CreateForAuthorTx(ctx context.Context, tx bun.IDB, authorID uuid.UUID, title, content string) (*Post, error)
}

type posts struct {
	repository.Repository[*Post]
	db *bun.DB
}

var _ Posts = (*posts)(nil)

func NewPostsRepository(db *bun.DB) Posts {
	repo := repository.NewRepository[*Post](db, repository.ModelHandlers[*Post]{
		NewRecord: func() *Post { return &Post{} },
		GetID: func(p *Post) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Post, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &posts{
		Repository: repo,
		db:         db,
	}
}

func (a *posts) CreateForAuthor(ctx context.Context, authorID uuid.UUID, title, content string) (*Post, error) {
	return a.CreateForAuthorTx(ctx, a.db, authorID, title, content)
}

func (a *posts) CreateForAuthorTx(ctx context.Context, tx bun.IDB, authorID uuid.UUID, title, content string) (*Post, error) {
	if err := validation.Validate(title, validation.Required); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "post title is required")
	}

	if authorID == uuid.Nil {
		return nil, errors.New("post author is required", errors.CategoryBadInput)
	}

	return a.CreateTx(ctx, tx, &Post{
		ID:       uuid.New(),
		AuthorID: authorID,
		Title:    title,
		Content:  content,
	})
}
