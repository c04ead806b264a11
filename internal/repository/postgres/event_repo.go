package postgres

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"volunteerhub/internal/domain"

	"github.com/lib/pq"
)

const eventColumns = `id, owner_id, title, description, location, location_lat, location_lng, start_time, end_time, recurrence_group_id, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var descNull, locNull, groupNull sql.NullString
	var latNull, lngNull sql.NullFloat64
	if err := row.Scan(
		&e.ID, &e.OwnerID, &e.Title, &descNull, &locNull, &latNull, &lngNull,
		&e.StartTime, &e.EndTime, &groupNull, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if descNull.Valid {
		e.Description = &descNull.String
	}
	if locNull.Valid {
		e.Location = &locNull.String
	}
	if latNull.Valid {
		e.LocationLat = &latNull.Float64
	}
	if lngNull.Valid {
		e.LocationLng = &lngNull.Float64
	}
	if groupNull.Valid {
		e.RecurrenceGroupID = &groupNull.String
	}
	return e, nil
}

func scanEvents(rows *sql.Rows) ([]*domain.Event, error) {
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

const insertEventQuery = `
	INSERT INTO events (owner_id, title, description, location, location_lat, location_lng, start_time, end_time, recurrence_group_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id
`

func insertArgs(e *domain.Event) []any {
	return []any{
		e.OwnerID, e.Title, e.Description, e.Location, e.LocationLat, e.LocationLng,
		e.StartTime, e.EndTime, e.RecurrenceGroupID, e.CreatedAt, e.UpdatedAt,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	return r.DB.QueryRowContext(ctx, insertEventQuery, insertArgs(e)...).Scan(&e.ID)
}

// CreateSeries records the group and inserts every occurrence in one transaction.
func (r *eventRepository) CreateSeries(ctx context.Context, group *domain.RecurrenceGroup, events []*domain.Event) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recurrence_groups (id, owner_id, rrule, created_at) VALUES ($1, $2, $3, $4)`,
			group.ID, group.OwnerID, group.RRule, group.CreatedAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				return fmt.Errorf("%w: recurrence group %s already exists", domain.ErrInvalidInput, group.ID)
			}
			return fmt.Errorf("insert recurrence group: %w", err)
		}
		for i, e := range events {
			if err := tx.QueryRowContext(ctx, insertEventQuery, insertArgs(e)...).Scan(&e.ID); err != nil {
				return fmt.Errorf("insert occurrence %d: %w", i, err)
			}
		}
		return nil
	})
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// isInvalidText reports whether err is postgres rejecting a malformed literal,
// such as an id that is not a UUID.
func isInvalidText(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "22P02"
}

func (r *eventRepository) ListByOwnerID(ctx context.Context, ownerID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE owner_id = $1
		ORDER BY start_time, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, ownerID, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	events, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ListByRecurrenceGroup returns the current members of a group ordered by start time, then id.
func (r *eventRepository) ListByRecurrenceGroup(ctx context.Context, groupID string) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE recurrence_group_id = $1
		ORDER BY start_time, id
	`
	rows, err := r.DB.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

// UpdateMany applies patch to every id in one transaction. If any id is
// missing nothing is changed and domain.ErrNotFound is returned.
func (r *eventRepository) UpdateMany(ctx context.Context, ids []string, patch domain.EventPatch) ([]*domain.Event, error) {
	if len(ids) == 0 {
		return []*domain.Event{}, nil
	}
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	n := 1
	add := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.LocationLat != nil {
		add("location_lat", *patch.LocationLat)
	}
	if patch.LocationLng != nil {
		add("location_lng", *patch.LocationLng)
	}
	if patch.StartTime != nil {
		add("start_time", *patch.StartTime)
	}
	if patch.EndTime != nil {
		add("end_time", *patch.EndTime)
	}
	args = append(args, pq.Array(ids))
	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE id = ANY($%d)
		RETURNING %s
	`, strings.Join(setClauses, ", "), n, eventColumns)

	var updated []*domain.Event
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update events: %w", err)
		}
		updated, err = scanEvents(rows)
		if err != nil {
			return fmt.Errorf("scan updated events: %w", err)
		}
		if len(updated) != len(ids) {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(updated, func(a, b *domain.Event) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return updated, nil
}

// DeleteMany removes every id in one transaction. If any id is missing nothing
// is deleted and domain.ErrNotFound is returned.
func (r *eventRepository) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ANY($1)`, pq.Array(ids))
		if err != nil {
			return fmt.Errorf("delete events: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete events: %w", err)
		}
		if affected != int64(len(ids)) {
			return domain.ErrNotFound
		}
		return nil
	})
}
