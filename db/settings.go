package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"mini-todo/models"
)

func (s *Store) Settings(ctx context.Context, owner string) (models.UserSettings, error) {
	query, args, err := s.sq.Select("owner", "display_name").
		From("user_settings").
		Where(squirrel.Eq{"owner": owner}).
		ToSql()
	if err != nil {
		return models.UserSettings{}, err
	}
	var settings models.UserSettings
	err = s.DB.QueryRowContext(ctx, query, args...).Scan(&settings.Owner, &settings.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserSettings{}, ErrNotFound
	}
	if err != nil {
		return models.UserSettings{}, fmt.Errorf("select settings: %w", err)
	}
	return settings, nil
}

// UpsertSettings inserts the owner's settings row or overwrites the display
// name of the existing one. Last writer wins.
func (s *Store) UpsertSettings(ctx context.Context, owner, displayName string) (models.UserSettings, error) {
	suffix := "ON DUPLICATE KEY UPDATE display_name = VALUES(display_name)"
	if s.driver == DriverSQLite {
		suffix = "ON CONFLICT(owner) DO UPDATE SET display_name = excluded.display_name"
	}
	query, args, err := s.sq.Insert("user_settings").
		Columns("owner", "display_name").
		Values(owner, displayName).
		Suffix(suffix).
		ToSql()
	if err != nil {
		return models.UserSettings{}, err
	}
	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return models.UserSettings{}, fmt.Errorf("upsert settings: %w", err)
	}
	return models.UserSettings{Owner: owner, DisplayName: displayName}, nil
}
