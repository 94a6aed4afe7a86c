package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// Create inserts all occurrences atomically. Conflicting active bookings are
	// returned; when force is false and conflicts exist nothing is written.
	Create(ctx context.Context, occurrences []*Booking, force bool) ([]*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	// Update writes the editable fields of b under the same conflict rule as Create.
	Update(ctx context.Context, b *Booking, force bool) ([]*Booking, error)
	UpdateStatus(ctx context.Context, b *Booking) error
	// FindConflicts lists active bookings in the space overlapping any of the candidates.
	FindConflicts(ctx context.Context, spaceID string, candidates []*Booking, excludeID string) ([]*Booking, error)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var selectColumns = []string{
	"b.id", "b.titulo", "b.user_id", "u.name", "u.email", "u.role",
	"b.espaco_id", "e.name",
	"to_char(b.data_inicio, 'YYYY-MM-DD')", "to_char(b.hora_inicio, 'HH24:MI')",
	"to_char(b.data_fim, 'YYYY-MM-DD')", "to_char(b.hora_fim, 'HH24:MI')",
	"b.justificativa", "b.observacoes", "b.status",
	"b.recorrencia_tipo", "to_char(b.recorrencia_fim, 'YYYY-MM-DD')", "b.series_id::text",
	"b.created_at", "b.updated_at", "b.approved_by::text", "b.approved_at", "b.rejection_reason",
}

func selectBookings(extra ...string) squirrel.SelectBuilder {
	cols := append(append([]string{}, selectColumns...), extra...)
	return psql.Select(cols...).
		From("public.agendamentos b").
		Join("public.users u ON b.user_id = u.id").
		Join("public.espacos e ON b.espaco_id = e.id")
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var (
		b       Booking
		recKind *string
		recEnd  *string
	)
	dest := []any{
		&b.ID, &b.Title, &b.UserID, &b.UserName, &b.UserEmail, &b.UserRole,
		&b.SpaceID, &b.SpaceName,
		&b.StartDate, &b.StartTime, &b.EndDate, &b.EndTime,
		&b.Justification, &b.Notes, &b.Status,
		&recKind, &recEnd, &b.SeriesID,
		&b.CreatedAt, &b.UpdatedAt, &b.ApprovedBy, &b.ApprovedAt, &b.RejectionReason,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if recKind != nil && recEnd != nil {
		b.Recurrence = &Recurrence{Kind: RecurrenceKind(*recKind), SeriesEndDate: *recEnd}
	}
	return &b, nil
}

// lockSpace serializes writers of one space for the rest of the transaction.
func lockSpace(ctx context.Context, tx pgx.Tx, spaceID string) error {
	var id string
	err := tx.QueryRow(ctx, "SELECT id FROM public.espacos WHERE id = $1 FOR UPDATE", spaceID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSpaceNotFound
		}
		return fmt.Errorf("lock space failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Create(ctx context.Context, occurrences []*Booking, force bool) ([]*Booking, error) {
	if len(occurrences) == 0 {
		return nil, nil
	}
	spaceID := occurrences[0].SpaceID

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create booking tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockSpace(ctx, tx, spaceID); err != nil {
		return nil, err
	}

	conflicts, err := findConflicts(ctx, tx, spaceID, occurrences, "")
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 && !force {
		return conflicts, nil
	}

	for _, b := range occurrences {
		var recKind, recEnd *string
		if b.Recurrence != nil {
			k := string(b.Recurrence.Kind)
			recKind, recEnd = &k, &b.Recurrence.SeriesEndDate
		}

		query, args, err := psql.Insert("public.agendamentos").
			Columns(
				"titulo", "user_id", "espaco_id", "data_inicio", "hora_inicio", "data_fim", "hora_fim",
				"justificativa", "observacoes", "status", "recorrencia_tipo", "recorrencia_fim", "series_id",
			).
			Values(
				b.Title, b.UserID, b.SpaceID, b.StartDate, b.StartTime, b.EndDate, b.EndTime,
				b.Justification, b.Notes, b.Status, recKind, recEnd, b.SeriesID,
			).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build create booking query failed: %w", err)
		}
		if err := tx.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("create booking failed: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create booking failed: %w", err)
	}
	return conflicts, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query, args, err := selectBookings().
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	query := selectBookings("count(*) OVER() as total_count")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"b.user_id": filter.UserID})
	}
	if filter.SpaceID != "" {
		query = query.Where(squirrel.Eq{"b.espaco_id": filter.SpaceID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}
	// Date range filtering (intersection logic)
	if filter.DateFrom != "" {
		query = query.Where(squirrel.Expr("b.data_fim >= ?::date", filter.DateFrom))
	}
	if filter.DateTo != "" {
		query = query.Where(squirrel.Expr("b.data_inicio <= ?::date", filter.DateTo))
	}

	orderBy := "b.data_inicio"
	switch filter.SortBy {
	case "data_inicio", "data_fim", "created_at", "status", "titulo":
		orderBy = "b." + filter.SortBy
	}
	orderDir := "ASC"
	if filter.SortOrder == "desc" || filter.SortOrder == "DESC" {
		orderDir = "DESC"
	}
	query = query.OrderBy(orderBy+" "+orderDir, "b.hora_inicio "+orderDir, "b.id")

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings failed: %w", err)
	}

	return bookings, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, b *Booking, force bool) ([]*Booking, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin update booking tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockSpace(ctx, tx, b.SpaceID); err != nil {
		return nil, err
	}

	var conflicts []*Booking
	if b.Status.Active() {
		conflicts, err = findConflicts(ctx, tx, b.SpaceID, []*Booking{b}, b.ID)
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 && !force {
			return conflicts, nil
		}
	}

	query, args, err := psql.Update("public.agendamentos").
		Set("titulo", b.Title).
		Set("espaco_id", b.SpaceID).
		Set("data_inicio", b.StartDate).
		Set("hora_inicio", b.StartTime).
		Set("data_fim", b.EndDate).
		Set("hora_fim", b.EndTime).
		Set("justificativa", b.Justification).
		Set("observacoes", b.Notes).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": b.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update booking query failed: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update booking failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit update booking failed: %w", err)
	}
	return conflicts, nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, b *Booking) error {
	query, args, err := psql.Update("public.agendamentos").
		Set("status", b.Status).
		Set("approved_by", b.ApprovedBy).
		Set("approved_at", b.ApprovedAt).
		Set("rejection_reason", b.RejectionReason).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": b.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking status query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update booking status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) FindConflicts(ctx context.Context, spaceID string, candidates []*Booking, excludeID string) ([]*Booking, error) {
	return findConflicts(ctx, r.pool, spaceID, candidates, excludeID)
}

// findConflicts selects active bookings of the space where
// existing.start < candidate.end AND existing.end > candidate.start
// for at least one candidate.
func findConflicts(ctx context.Context, q querier, spaceID string, candidates []*Booking, excludeID string) ([]*Booking, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	overlap := squirrel.Or{}
	for _, c := range candidates {
		overlap = append(overlap, squirrel.And{
			squirrel.Expr("(b.data_inicio + b.hora_inicio) < ?::timestamp", timestampParam(c.EndDate, c.EndTime)),
			squirrel.Expr("(b.data_fim + b.hora_fim) > ?::timestamp", timestampParam(c.StartDate, c.StartTime)),
		})
	}

	query := selectBookings().
		Where(squirrel.Eq{"b.espaco_id": spaceID}).
		Where(squirrel.Eq{"b.status": []Status{StatusPending, StatusApproved}}).
		Where(overlap)
	if excludeID != "" {
		query = query.Where(squirrel.NotEq{"b.id": excludeID})
	}
	query = query.OrderBy("b.data_inicio", "b.hora_inicio", "b.id")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find conflicts query failed: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find conflicts failed: %w", err)
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conflict failed: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conflicts failed: %w", err)
	}
	return out, nil
}

func timestampParam(date, clock string) string {
	return datePart(date) + " " + clock
}
