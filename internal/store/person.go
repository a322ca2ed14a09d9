package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dukerupert/simp/internal/model"
)

const profileCacheSize = 512

// PersonStore persists people. Profiles never change after signup, so reads
// by id are served from an LRU cache.
type PersonStore struct {
	db    *sql.DB
	cache *lru.Cache[int64, model.Person]
	now   func() time.Time
}

func NewPersonStore(db *sql.DB) *PersonStore {
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[int64, model.Person](profileCacheSize)
	return &PersonStore{db: db, cache: cache, now: time.Now}
}

func scanPerson(scanner interface{ Scan(...any) error }) (*model.Person, error) {
	var (
		p                     model.Person
		email, category, role sql.NullString
		createdAt             string
	)
	err := scanner.Scan(&p.ID, &p.Name, &p.Username, &p.PhoneNo, &email, &category, &role, &p.PasswordHash, &createdAt)
	if err != nil {
		return nil, err
	}
	p.Email = stringPtr(email)
	p.Category = stringPtr(category)
	p.Role = stringPtr(role)
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &p, nil
}

const personCols = `id, name, username, phone_no, email, category, role, password_hash, created_at`

var personConflictColumns = map[string]string{
	"persons.username": "username",
	"persons.phone_no": "phoneNo",
	"persons.email":    "email",
}

func (s *PersonStore) Create(ctx context.Context, np model.NewPerson) (*model.Person, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO persons (name, username, phone_no, email, category, role, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		np.Name, np.Username, np.PhoneNo, nullString(np.Email), nullString(np.Category), nullString(np.Role),
		np.PasswordHash, formatTime(s.now()),
	)
	if err != nil {
		if cols, ok := uniqueViolation(err); ok {
			return nil, fmt.Errorf("insert person: %w", &ConflictError{Column: personConflictColumns[cols]})
		}
		return nil, fmt.Errorf("insert person: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *PersonStore) GetByID(ctx context.Context, id int64) (*model.Person, error) {
	if p, ok := s.cache.Get(id); ok {
		return &p, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+personCols+` FROM persons WHERE id = ?`, id)
	p, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get person: %w", err)
	}
	s.cache.Add(p.ID, *p)
	return p, nil
}

func (s *PersonStore) GetByUsername(ctx context.Context, username string) (*model.Person, error) {
	return s.getBy(ctx, "username", username)
}

func (s *PersonStore) GetByPhone(ctx context.Context, phoneNo string) (*model.Person, error) {
	return s.getBy(ctx, "phone_no", phoneNo)
}

func (s *PersonStore) GetByEmail(ctx context.Context, email string) (*model.Person, error) {
	return s.getBy(ctx, "email", email)
}

// getBy looks a person up by one of the unique columns. column is never
// user supplied.
func (s *PersonStore) getBy(ctx context.Context, column, value string) (*model.Person, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+personCols+` FROM persons WHERE `+column+` = ?`, value)
	p, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get person by %s: %w", column, err)
	}
	s.cache.Add(p.ID, *p)
	return p, nil
}
