package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"mini-todo/models"
)

var itemColumns = []string{"id", "title", "content", "completed", "owner", "created_at"}

// ListItems returns the owner's items in insertion order. An owner with no
// items gets an empty, non-nil slice.
func (s *Store) ListItems(ctx context.Context, owner string) ([]models.Item, error) {
	query, args, err := s.sq.Select(itemColumns...).
		From("items").
		Where(squirrel.Eq{"owner": owner}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// InsertItem stores a new, not yet completed item for owner.
func (s *Store) InsertItem(ctx context.Context, owner, title, content string) (models.Item, error) {
	query, args, err := s.sq.Insert("items").
		Columns("title", "content", "completed", "owner").
		Values(title, content, false, owner).
		ToSql()
	if err != nil {
		return models.Item{}, err
	}
	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return models.Item{}, fmt.Errorf("insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Item{}, fmt.Errorf("insert item id: %w", err)
	}
	return s.Item(ctx, owner, id)
}

func (s *Store) Item(ctx context.Context, owner string, id int64) (models.Item, error) {
	query, args, err := s.sq.Select(itemColumns...).
		From("items").
		Where(squirrel.Eq{"id": id, "owner": owner}).
		ToSql()
	if err != nil {
		return models.Item{}, err
	}
	item, err := scanItem(s.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Item{}, ErrNotFound
	}
	return item, err
}

// SetCompleted updates the completion flag and reports the affected row count.
func (s *Store) SetCompleted(ctx context.Context, owner string, id int64, completed bool) (int64, error) {
	query, args, err := s.sq.Update("items").
		Set("completed", completed).
		Where(squirrel.Eq{"id": id, "owner": owner}).
		ToSql()
	if err != nil {
		return 0, err
	}
	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update item: %w", err)
	}
	return res.RowsAffected()
}

// DeleteItem removes the item. Unknown ids are not an error; they affect zero rows.
func (s *Store) DeleteItem(ctx context.Context, owner string, id int64) (int64, error) {
	query, args, err := s.sq.Delete("items").
		Where(squirrel.Eq{"id": id, "owner": owner}).
		ToSql()
	if err != nil {
		return 0, err
	}
	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete item: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (models.Item, error) {
	var (
		item    models.Item
		created timestamp
	)
	if err := row.Scan(&item.ID, &item.Title, &item.Content, &item.Completed, &item.Owner, &created); err != nil {
		return models.Item{}, err
	}
	item.CreatedAt = created.Time
	return item, nil
}
