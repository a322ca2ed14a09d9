package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/simp/internal/model"
)

const DefaultPageSize = 4

type ScheduleStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db, now: time.Now}
}

// WithClock returns a copy of the store that stamps created_at using now.
func (s *ScheduleStore) WithClock(now func() time.Time) *ScheduleStore {
	return &ScheduleStore{db: s.db, now: now}
}

func scanSchedule(scanner interface{ Scan(...any) error }) (*model.Schedule, error) {
	var (
		sc          model.Schedule
		owner       model.Owner
		description sql.NullString
		createdAt   string
		startDate   sql.NullString
	)
	err := scanner.Scan(&sc.ID, &sc.Title, &description, &sc.TotalDurationSeconds, &sc.Status,
		&sc.PersonID, &createdAt, &startDate, &owner.ID, &owner.Username, &owner.Name)
	if err != nil {
		return nil, err
	}
	sc.Description = stringPtr(description)
	if sc.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if sc.StartDate, err = parseNullTime(startDate); err != nil {
		return nil, err
	}
	sc.Person = &owner
	sc.SubTasks = []model.SubTask{}
	return &sc, nil
}

const scheduleSelect = `SELECT s.id, s.title, s.description, s.total_duration_seconds, s.status,
	s.person_id, s.created_at, s.start_date, p.id, p.username, p.name
	FROM schedules s JOIN persons p ON p.id = s.person_id`

const subTaskCols = `id, name, duration_seconds, status, schedule_id`

// Create inserts the schedule and its sub-tasks in one transaction and
// returns the stored aggregate.
func (s *ScheduleStore) Create(ctx context.Context, ownerID int64, ns model.NewSchedule) (*model.Schedule, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM persons WHERE id = ?`, ownerID).Scan(&one)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("schedule owner %d: %w", ownerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("check schedule owner: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO schedules (title, description, total_duration_seconds, status, person_id, created_at, start_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ns.Title, nullString(ns.Description), ns.TotalDurationSeconds, model.StatusPending,
		ownerID, formatTime(s.now()), formatNullTime(ns.StartDate),
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return nil, fmt.Errorf("insert schedule %q: %w", ns.Title, &ConflictError{Column: "title"})
		}
		return nil, fmt.Errorf("insert schedule: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sub_tasks (name, duration_seconds, status, schedule_id) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare sub-task insert: %w", err)
	}
	defer stmt.Close()
	for _, st := range ns.SubTasks {
		if _, err := stmt.ExecContext(ctx, st.Name, st.DurationSeconds, model.StatusPending, id); err != nil {
			return nil, fmt.Errorf("insert sub-task: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit schedule: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ScheduleStore) GetByID(ctx context.Context, id int64) (*model.Schedule, error) {
	row := s.db.QueryRowContext(ctx, scheduleSelect+` WHERE s.id = ?`, id)
	sc, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	subs, err := s.SubTasks(ctx, id)
	if err != nil {
		return nil, err
	}
	sc.SubTasks = subs
	return sc, nil
}

func (s *ScheduleStore) SubTasks(ctx context.Context, scheduleID int64) ([]model.SubTask, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subTaskCols+` FROM sub_tasks WHERE schedule_id = ? ORDER BY id`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("list sub-tasks: %w", err)
	}
	defer rows.Close()

	subs := []model.SubTask{}
	for rows.Next() {
		var st model.SubTask
		if err := rows.Scan(&st.ID, &st.Name, &st.DurationSeconds, &st.Status, &st.ScheduleID); err != nil {
			return nil, fmt.Errorf("scan sub-task: %w", err)
		}
		subs = append(subs, st)
	}
	return subs, rows.Err()
}

// ListForUser returns one page of the owner's schedules, newest first.
// Pages start at 1; a page past the end is empty.
func (s *ScheduleStore) ListForUser(ctx context.Context, ownerID int64, page, pageSize int) (*model.SchedulePage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedules WHERE person_id = ?`, ownerID).Scan(&total); err != nil {
		return nil, fmt.Errorf("count schedules: %w", err)
	}

	result := &model.SchedulePage{
		Schedules: []model.Schedule{},
		Pagination: model.Pagination{
			CurrentPage:    page,
			TotalPages:     (total + pageSize - 1) / pageSize,
			TotalSchedules: total,
			Limit:          pageSize,
		},
	}
	// Checked before computing the offset, which overflows for huge pages.
	if page > result.Pagination.TotalPages {
		return result, nil
	}

	schedules, err := s.list(ctx,
		scheduleSelect+` WHERE s.person_id = ? ORDER BY s.created_at DESC, s.id DESC LIMIT ? OFFSET ?`,
		ownerID, pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, err
	}
	result.Schedules = schedules
	return result, nil
}

// ListStartingBetween returns schedules whose start date is in [from, to),
// earliest first.
func (s *ScheduleStore) ListStartingBetween(ctx context.Context, ownerID int64, from, to time.Time) ([]model.Schedule, error) {
	return s.list(ctx,
		scheduleSelect+` WHERE s.person_id = ? AND s.start_date >= ? AND s.start_date < ?
		ORDER BY s.start_date ASC, s.id ASC`,
		ownerID, formatTime(from), formatTime(to),
	)
}

// ListCreatedBetween returns schedules created in [from, to), newest first.
func (s *ScheduleStore) ListCreatedBetween(ctx context.Context, ownerID int64, from, to time.Time) ([]model.Schedule, error) {
	return s.list(ctx,
		scheduleSelect+` WHERE s.person_id = ? AND s.created_at >= ? AND s.created_at < ?
		ORDER BY s.created_at DESC, s.id DESC`,
		ownerID, formatTime(from), formatTime(to),
	)
}

// Delete removes a schedule owned by requesterID together with its sub-tasks.
func (s *ScheduleStore) Delete(ctx context.Context, scheduleID, requesterID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var ownerID int64
	err = tx.QueryRowContext(ctx, `SELECT person_id FROM schedules WHERE id = ?`, scheduleID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("schedule %d: %w", scheduleID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get schedule owner: %w", err)
	}
	if ownerID != requesterID {
		return fmt.Errorf("schedule %d: %w", scheduleID, ErrForbidden)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sub_tasks WHERE schedule_id = ?`, scheduleID); err != nil {
		return fmt.Errorf("delete sub-tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, scheduleID); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return tx.Commit()
}

// list runs a schedule query and attaches sub-tasks. The rows are fully read
// and closed before the sub-task query runs.
func (s *ScheduleStore) list(ctx context.Context, query string, args ...any) ([]model.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	schedules := []model.Schedule{}
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, *sc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	rows.Close()

	if len(schedules) == 0 {
		return schedules, nil
	}
	if err := s.attachSubTasks(ctx, schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (s *ScheduleStore) attachSubTasks(ctx context.Context, schedules []model.Schedule) error {
	index := make(map[int64]int, len(schedules))
	args := make([]any, len(schedules))
	for i, sc := range schedules {
		index[sc.ID] = i
		args[i] = sc.ID
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(schedules)), ",")

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subTaskCols+` FROM sub_tasks WHERE schedule_id IN (`+placeholders+`) ORDER BY id`, args...)
	if err != nil {
		return fmt.Errorf("list sub-tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st model.SubTask
		if err := rows.Scan(&st.ID, &st.Name, &st.DurationSeconds, &st.Status, &st.ScheduleID); err != nil {
			return fmt.Errorf("scan sub-task: %w", err)
		}
		i := index[st.ScheduleID]
		schedules[i].SubTasks = append(schedules[i].SubTasks, st)
	}
	return rows.Err()
}
