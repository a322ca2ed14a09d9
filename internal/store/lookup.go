package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/simp/internal/model"
)

// LookupStore reads the seeded categories and roles.
type LookupStore struct {
	db *sql.DB
}

func NewLookupStore(db *sql.DB) *LookupStore {
	return &LookupStore{db: db}
}

func (s *LookupStore) Categories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *LookupStore) Roles(ctx context.Context) ([]model.Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	roles := []model.Role{}
	for rows.Next() {
		var r model.Role
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

func (s *LookupStore) CategoryExists(ctx context.Context, name string) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE name = ?)`, name)
}

func (s *LookupStore) RoleExists(ctx context.Context, name string) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS(SELECT 1 FROM roles WHERE name = ?)`, name)
}

func (s *LookupStore) exists(ctx context.Context, query, name string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("check lookup %q: %w", name, err)
	}
	return exists, nil
}
