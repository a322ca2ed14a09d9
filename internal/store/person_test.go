package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/simp/internal/model"
)

func TestPersonCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPersonStore(db)
	ctx := context.Background()

	email := "ada@example.com"
	category := "personal"
	role := "scheduler"
	p, err := ps.Create(ctx, model.NewPerson{
		Name:         "Ada Obi",
		Username:     "adaobi",
		PhoneNo:      "+2348031234567",
		PasswordHash: "hash",
		Email:        &email,
		Category:     &category,
		Role:         &role,
	})
	if err != nil {
		t.Fatalf("create person: %v", err)
	}
	if p.ID == 0 {
		t.Fatal("expected non-zero id")
	}
	if p.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
	if p.Category == nil || *p.Category != "personal" {
		t.Errorf("category = %v, want personal", p.Category)
	}

	byName, err := ps.GetByUsername(ctx, "adaobi")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName == nil || byName.ID != p.ID {
		t.Errorf("get by username = %v, want id %d", byName, p.ID)
	}

	byPhone, err := ps.GetByPhone(ctx, "+2348031234567")
	if err != nil {
		t.Fatalf("get by phone: %v", err)
	}
	if byPhone == nil || byPhone.Username != "adaobi" {
		t.Errorf("get by phone = %v, want adaobi", byPhone)
	}

	byEmail, err := ps.GetByEmail(ctx, email)
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != p.ID {
		t.Errorf("get by email = %v, want id %d", byEmail, p.ID)
	}

	missing, err := ps.GetByUsername(ctx, "nobody")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing person, got %+v", missing)
	}
}

func TestPersonGetByIDCached(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPersonStore(db)
	ctx := context.Background()

	p := createTestPerson(t, ps, "adaobi", "+2348031234567")

	// Rows are never updated by the app, so a cached read survives a direct write.
	if _, err := db.Exec(`UPDATE persons SET name = 'Changed Name' WHERE id = ?`, p.ID); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := ps.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Name != "Test Person" {
		t.Errorf("name = %q, want cached %q", got.Name, "Test Person")
	}
}

func TestPersonUniqueConflicts(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPersonStore(db)
	ctx := context.Background()

	createTestPerson(t, ps, "adaobi", "+2348031234567")

	tests := []struct {
		name   string
		np     model.NewPerson
		column string
	}{
		{"username", model.NewPerson{Name: "Other", Username: "adaobi", PhoneNo: "+2348039999999", PasswordHash: "h"}, "username"},
		{"phone", model.NewPerson{Name: "Other", Username: "other", PhoneNo: "+2348031234567", PasswordHash: "h"}, "phoneNo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ps.Create(ctx, tt.np)
			if !errors.Is(err, ErrConflict) {
				t.Fatalf("err = %v, want ErrConflict", err)
			}
			var ce *ConflictError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want *ConflictError", err)
			}
			if ce.Column != tt.column {
				t.Errorf("column = %q, want %q", ce.Column, tt.column)
			}
		})
	}
}

func TestPersonUnknownCategoryRejected(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPersonStore(db)

	category := "astronauts"
	_, err := ps.Create(context.Background(), model.NewPerson{
		Name: "Ada Obi", Username: "adaobi", PhoneNo: "+2348031234567", PasswordHash: "h", Category: &category,
	})
	if err == nil {
		t.Fatal("expected foreign key error for unknown category")
	}
}
