package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"mini-todo/models"
)

var userColumns = []string{"id", "email", "password_hash", "created_at"}

// CreateUser stores a new account with a freshly generated id.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.UserByEmail(ctx, email); err == nil {
		return models.User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return models.User{}, err
	}

	id := uuid.NewString()
	query, args, err := s.sq.Insert("users").
		Columns("id", "email", "password_hash").
		Values(id, email, passwordHash).
		ToSql()
	if err != nil {
		return models.User{}, err
	}
	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		if isDuplicate(err) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return s.UserByID(ctx, id)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findUser(ctx, squirrel.Eq{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *Store) UserByID(ctx context.Context, id string) (models.User, error) {
	return s.findUser(ctx, squirrel.Eq{"id": id})
}

func (s *Store) findUser(ctx context.Context, where squirrel.Eq) (models.User, error) {
	query, args, err := s.sq.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return models.User{}, err
	}
	var (
		user    models.User
		created timestamp
	)
	err = s.DB.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.Email, &user.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	user.CreatedAt = created.Time
	return user, nil
}
