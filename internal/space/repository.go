package space

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines data access methods for spaces.
type Repository interface {
	Create(ctx context.Context, sp *Space) error
	GetByID(ctx context.Context, id string) (*Space, error)
	List(ctx context.Context, filter Filter) ([]*Space, int, error)
	Update(ctx context.Context, sp *Space) error
	Delete(ctx context.Context, id string) error
	AddResponsible(ctx context.Context, spaceID, userID string) error
	RemoveResponsible(ctx context.Context, spaceID, userID string) error
	SetPhoto(ctx context.Context, id string, photoPath, thumbnailPath *string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const responsiblesColumn = `COALESCE(
	(SELECT array_agg(r.user_id::text ORDER BY r.user_id) FROM public.espaco_responsaveis r WHERE r.espaco_id = s.id),
	'{}'::text[]
)`

func selectSpaces(extra ...string) squirrel.SelectBuilder {
	cols := []string{
		"s.id", "s.name", "s.capacity", "s.location", "s.available", "s.created_by::text",
		responsiblesColumn, "s.photo_path", "s.thumbnail_path", "s.created_at",
	}
	return psql.Select(append(cols, extra...)...).From("public.espacos s")
}

func scanSpace(row pgx.Row, extra ...any) (*Space, error) {
	var sp Space
	dest := []any{
		&sp.ID, &sp.Name, &sp.Capacity, &sp.Location, &sp.Available, &sp.CreatedBy,
		&sp.Responsibles, &sp.PhotoPath, &sp.ThumbnailPath, &sp.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &sp, nil
}

func (r *pgxRepository) Create(ctx context.Context, sp *Space) error {
	query, args, err := psql.Insert("public.espacos").
		Columns("name", "capacity", "location", "available", "created_by").
		Values(sp.Name, sp.Capacity, sp.Location, sp.Available, sp.CreatedBy).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create space query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&sp.ID, &sp.CreatedAt); err != nil {
		return fmt.Errorf("create space failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Space, error) {
	query, args, err := selectSpaces().Where(squirrel.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get space query failed: %w", err)
	}

	sp, err := scanSpace(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get space failed: %w", err)
	}
	return sp, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Space, int, error) {
	query := selectSpaces("count(*) OVER() as total_count")

	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where(squirrel.Or{
			squirrel.ILike{"s.name": like},
			squirrel.ILike{"s.location": like},
		})
	}
	if filter.Available != nil {
		query = query.Where(squirrel.Eq{"s.available": *filter.Available})
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.OrderBy("s.name ASC").Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list spaces query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list spaces failed: %w", err)
	}
	defer rows.Close()

	var spaces []*Space
	var total int
	for rows.Next() {
		sp, err := scanSpace(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan space failed: %w", err)
		}
		spaces = append(spaces, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate spaces failed: %w", err)
	}
	return spaces, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, sp *Space) error {
	query, args, err := psql.Update("public.espacos").
		Set("name", sp.Name).
		Set("capacity", sp.Capacity).
		Set("location", sp.Location).
		Set("available", sp.Available).
		Where(squirrel.Eq{"id": sp.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update space query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update space failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, "DELETE FROM public.espacos WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete space failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) AddResponsible(ctx context.Context, spaceID, userID string) error {
	const query = `
		INSERT INTO public.espaco_responsaveis (espaco_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (espaco_id, user_id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, spaceID, userID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			if pgErr.ConstraintName == "espaco_responsaveis_user_id_fkey" {
				return ErrUserNotFound
			}
			return ErrNotFound
		}
		return fmt.Errorf("add space responsible failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) RemoveResponsible(ctx context.Context, spaceID, userID string) error {
	_, err := r.pool.Exec(ctx,
		"DELETE FROM public.espaco_responsaveis WHERE espaco_id = $1 AND user_id = $2",
		spaceID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove space responsible failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) SetPhoto(ctx context.Context, id string, photoPath, thumbnailPath *string) error {
	query, args, err := psql.Update("public.espacos").
		Set("photo_path", photoPath).
		Set("thumbnail_path", thumbnailPath).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set space photo query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set space photo failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
