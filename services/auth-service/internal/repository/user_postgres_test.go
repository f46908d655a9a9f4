package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/model"
	"github.com/vasapolrittideah/berberpazar/shared/identifier"
)

var userRowColumns = []string{
	"id", "email", "secondary_email", "phone", "name", "city", "avatar_url", "password_hash", "created_at", "updated_at",
}

func newRepoWithMock(t *testing.T) (UserRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return NewUserPostgresRepository(db), mock
}

func ptr(s string) *string { return &s }

func TestCreateUser_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users\s*\(email,.*password_hash\)\s*VALUES\s*\(\$1,.*\$7\)\s*RETURNING\s+id,\s*created_at,\s*updated_at$`).
		WithArgs("ali@example.com", nil, "05321234567", "Ali", nil, nil, "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), now, now))

	user, err := repo.CreateUser(context.Background(), &model.User{
		Email:        "ali@example.com",
		Phone:        ptr("05321234567"),
		Name:         ptr("Ali"),
		City:         ptr(""),
		PasswordHash: ptr("hash"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, now, user.CreatedAt)
}

func TestCreateUser_Duplicates(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{constraint: "users_email_key", want: ErrDuplicateEmail},
		{constraint: "users_secondary_email_key", want: ErrDuplicateSecondaryEmail},
		{constraint: "users_phone_key", want: ErrDuplicatePhone},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)

			mock.ExpectQuery(`INSERT\s+INTO\s+users`).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			_, err := repo.CreateUser(context.Background(), &model.User{Email: "ali@example.com"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateUser_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	_, err := repo.CreateUser(context.Background(), &model.User{Email: "ali@example.com"})
	assert.ErrorContains(t, err, "db error: db down")
}

func TestGetUser(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(int64(7), "ali@example.com", nil, "05321234567", "Ali", "İzmir", nil, "hash", now, now))

	user, err := repo.GetUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "ali@example.com", user.Email)
	assert.Nil(t, user.SecondaryEmail)
	require.NotNil(t, user.Phone)
	assert.Equal(t, "05321234567", *user.Phone)
	require.NotNil(t, user.City)
	assert.Equal(t, "İzmir", *user.City)
	assert.True(t, user.HasPassword())
}

func TestGetUser_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id`).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUser(context.Background(), 9)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUserByEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`).
		WithArgs("ali@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(int64(1), "ali@example.com", nil, nil, nil, nil, nil, nil, now, now))

	user, err := repo.GetUserByEmail(context.Background(), "ali@example.com")
	require.NoError(t, err)
	assert.False(t, user.HasPassword())
}

func TestFindUserByIdentifier(t *testing.T) {
	now := time.Now()

	t.Run("email matches primary or secondary", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)

		mock.ExpectQuery(`(?s)WHERE\s+email\s*=\s*\$1\s+OR\s+secondary_email\s*=\s*\$1\s+` +
			`ORDER\s+BY\s+\(email\s*=\s*\$1\)\s+DESC,\s*id\s+LIMIT\s+1`).
			WithArgs("veli@example.com").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(int64(3), "ali@example.com", "veli@example.com", nil, nil, nil, nil, "hash", now, now))

		user, err := repo.FindUserByIdentifier(context.Background(), identifier.Parse("Veli@Example.com"))
		require.NoError(t, err)
		assert.Equal(t, int64(3), user.ID)
	})

	t.Run("phone matches local form", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)

		mock.ExpectQuery(`WHERE\s+phone\s*=\s*\$1$`).
			WithArgs("05321234567").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(int64(4), "ali@example.com", nil, "05321234567", nil, nil, nil, "hash", now, now))

		user, err := repo.FindUserByIdentifier(context.Background(), identifier.Parse("5321234567"))
		require.NoError(t, err)
		assert.Equal(t, int64(4), user.ID)
	})

	t.Run("invalid identifier never queries", func(t *testing.T) {
		repo, _ := newRepoWithMock(t)

		_, err := repo.FindUserByIdentifier(context.Background(), identifier.Parse("123"))
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUpdateUser(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)^UPDATE\s+users\s+SET\s+phone\s*=\s*\$1,\s*city\s*=\s*\$2,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$3\s+RETURNING`).
		WithArgs(nil, "Ankara", int64(5)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(int64(5), "ali@example.com", nil, nil, nil, "Ankara", nil, "hash", now, now))

	user, err := repo.UpdateUser(context.Background(), 5, UpdateUserParams{
		Phone: ptr(""),
		City:  ptr("Ankara"),
	})
	require.NoError(t, err)
	assert.Nil(t, user.Phone)
	assert.Equal(t, "Ankara", *user.City)
}

func TestUpdateUser_NoFields(t *testing.T) {
	repo, _ := newRepoWithMock(t)

	_, err := repo.UpdateUser(context.Background(), 5, UpdateUserParams{})
	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)
}

func TestUpdateUser_DuplicatePhone(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`UPDATE\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_phone_key"})

	_, err := repo.UpdateUser(context.Background(), 5, UpdateUserParams{Phone: ptr("05321234567")})
	assert.ErrorIs(t, err, ErrDuplicatePhone)
}

func TestUpdateUser_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`UPDATE\s+users`).WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateUser(context.Background(), 5, UpdateUserParams{PasswordHash: ptr("h")})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
