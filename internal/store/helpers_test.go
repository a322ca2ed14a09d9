package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/simp/internal/database"
	"github.com/dukerupert/simp/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestPerson(t *testing.T, ps *PersonStore, username, phone string) *model.Person {
	t.Helper()
	p, err := ps.Create(context.Background(), model.NewPerson{
		Name:         "Test Person",
		Username:     username,
		PhoneNo:      phone,
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("create person %s: %v", username, err)
	}
	return p
}
