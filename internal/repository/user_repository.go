package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/account-service/internal/domain"
)

const pgUniqueViolation = "23505"

const userColumns = `
        u.id, u.login, u.password_hash, u.first_name, u.last_name, u.email, u.image_url,
        u.activated, u.lang_key, u.activation_key, u.reset_key, u.reset_date,
        u.created_by, u.created_at, u.last_modified_by, u.last_modified_at,
        COALESCE((SELECT string_agg(ua.authority_name, ',' ORDER BY ua.authority_name)
            FROM user_authorities ua WHERE ua.user_id = u.id), '')`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, login, password_hash, first_name, last_name, email, image_url,
            activated, lang_key, activation_key, reset_key, reset_date,
            created_by, created_at, last_modified_by, last_modified_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`

	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query,
			user.ID,
			user.Login,
			user.PasswordHash,
			user.FirstName,
			user.LastName,
			user.Email,
			user.ImageURL,
			user.Activated,
			user.LangKey,
			user.ActivationKey,
			user.ResetKey,
			user.ResetDate,
			user.CreatedBy,
			user.CreatedAt,
			user.LastModifiedBy,
			user.LastModifiedAt,
		); err != nil {
			return err
		}
		return insertAuthorities(ctx, tx, user.ID, user.Authorities)
	})
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET login=$1, password_hash=$2, first_name=$3, last_name=$4, email=$5, image_url=$6,
            activated=$7, lang_key=$8, activation_key=$9, reset_key=$10, reset_date=$11,
            last_modified_by=$12, last_modified_at=$13
        WHERE id=$14`

	return r.inTx(ctx, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, query,
			user.Login,
			user.PasswordHash,
			user.FirstName,
			user.LastName,
			user.Email,
			user.ImageURL,
			user.Activated,
			user.LangKey,
			user.ActivationKey,
			user.ResetKey,
			user.ResetDate,
			user.LastModifiedBy,
			user.LastModifiedAt,
			user.ID,
		)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_authorities WHERE user_id=$1`, user.ID); err != nil {
			return err
		}
		return insertAuthorities(ctx, tx, user.ID, user.Authorities)
	})
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `u.id=$1`, id)
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	return r.fetchSingle(ctx, `u.login=$1`, strings.ToLower(login))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `LOWER(u.email)=LOWER($1)`, email)
}

func (r *userRepository) GetByActivationKey(ctx context.Context, key string) (*domain.User, error) {
	return r.fetchSingle(ctx, `u.activation_key=$1`, key)
}

func (r *userRepository) GetByResetKey(ctx context.Context, key string) (*domain.User, error) {
	return r.fetchSingle(ctx, `u.reset_key=$1`, key)
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users u WHERE u.login <> $1`, filter.ExcludeLogin,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM users u WHERE u.login <> $1 ORDER BY u.login LIMIT %d OFFSET %d`,
		userColumns, limit, max(filter.Offset, 0))

	rows, err := r.pool.Query(ctx, query, filter.ExcludeLogin)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users, err := scanUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) ListNotActivatedBefore(ctx context.Context, before time.Time) ([]domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users u WHERE u.activated = FALSE AND u.created_at < $1 ORDER BY u.created_at`, userColumns)
	rows, err := r.pool.Query(ctx, query, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *userRepository) fetchSingle(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users u WHERE %s`, userColumns, where)
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, normalizeErr(err)
	}
	return user, nil
}

func (r *userRepository) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return translatePgErr(err)
	}
	return tx.Commit(ctx)
}

func insertAuthorities(ctx context.Context, tx pgx.Tx, userID string, authorities []string) error {
	for _, name := range authorities {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_authorities (user_id, authority_name) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			userID, name,
		); err != nil {
			return err
		}
	}
	return nil
}

func translatePgErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	return normalizeErr(err)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user        domain.User
		authorities string
	)
	if err := row.Scan(
		&user.ID,
		&user.Login,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.ImageURL,
		&user.Activated,
		&user.LangKey,
		&user.ActivationKey,
		&user.ResetKey,
		&user.ResetDate,
		&user.CreatedBy,
		&user.CreatedAt,
		&user.LastModifiedBy,
		&user.LastModifiedAt,
		&authorities,
	); err != nil {
		return nil, err
	}
	if authorities != "" {
		user.Authorities = strings.Split(authorities, ",")
	}
	return &user, nil
}

func scanUsers(rows pgx.Rows) ([]domain.User, error) {
	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

type authorityRepository struct {
	pool *pgxpool.Pool
}

// NewAuthorityRepository returns a Postgres-backed authority catalogue.
func NewAuthorityRepository(pool *pgxpool.Pool) AuthorityRepository {
	return &authorityRepository{pool: pool}
}

func (r *authorityRepository) List(ctx context.Context) ([]domain.Authority, error) {
	rows, err := r.pool.Query(ctx, `SELECT name FROM authorities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Authority
	for rows.Next() {
		var a domain.Authority
		if err := rows.Scan(&a.Name); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *authorityRepository) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM authorities WHERE name=$1)`, name).Scan(&exists)
	return exists, err
}
