package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/model"
	"github.com/vasapolrittideah/berberpazar/shared/identifier"
)

const (
	uniqueViolation = "23505"

	userColumns = `id, email, secondary_email, phone, name, city, avatar_url, password_hash, created_at, updated_at`
)

type userPostgresRepository struct {
	db *sql.DB
}

func NewUserPostgresRepository(db *sql.DB) UserRepository {
	return &userPostgresRepository{db: db}
}

func (r *userPostgresRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	query :=
		`INSERT INTO users (email, secondary_email, phone, name, city, avatar_url, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Email,
		nullable(user.SecondaryEmail),
		nullable(user.Phone),
		nullable(user.Name),
		nullable(user.City),
		nullable(user.AvatarURL),
		nullable(user.PasswordHash),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, mapPostgresError(err)
	}

	return user, nil
}

func (r *userPostgresRepository) GetUser(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userPostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userPostgresRepository) FindUserByIdentifier(
	ctx context.Context,
	id identifier.Identifier,
) (*model.User, error) {
	switch id.Kind {
	case identifier.KindEmail:
		query := `SELECT ` + userColumns + ` FROM users
		 WHERE email = $1 OR secondary_email = $1
		 ORDER BY (email = $1) DESC, id
		 LIMIT 1`
		return scanUser(r.db.QueryRowContext(ctx, query, id.Email))
	case identifier.KindPhone:
		query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
		return scanUser(r.db.QueryRowContext(ctx, query, id.Phone))
	default:
		return nil, ErrUserNotFound
	}
}

func (r *userPostgresRepository) UpdateUser(
	ctx context.Context,
	id int64,
	params UpdateUserParams,
) (*model.User, error) {
	if params.empty() {
		return nil, ErrNoFieldsToUpdate
	}

	fields := params.fields()
	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	for i, f := range fields {
		sets = append(sets, fmt.Sprintf("%s = $%d", f.name, i+1))
		if f.clears() {
			args = append(args, nil)
		} else {
			args = append(args, *f.value)
		}
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	return scanUser(r.db.QueryRowContext(ctx, query, args...))
}

func (r *userPostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		user                                                       model.User
		secondaryEmail, phone, name, city, avatarURL, passwordHash sql.NullString
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&secondaryEmail,
		&phone,
		&name,
		&city,
		&avatarURL,
		&passwordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, mapPostgresError(err)
	}

	user.SecondaryEmail = fromNull(secondaryEmail)
	user.Phone = fromNull(phone)
	user.Name = fromNull(name)
	user.City = fromNull(city)
	user.AvatarURL = fromNull(avatarURL)
	user.PasswordHash = fromNull(passwordHash)

	return &user, nil
}

func mapPostgresError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case "users_email_key":
			return ErrDuplicateEmail
		case "users_secondary_email_key":
			return ErrDuplicateSecondaryEmail
		case "users_phone_key":
			return ErrDuplicatePhone
		}
	}

	return fmt.Errorf("db error: %w", err)
}

func nullable(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
