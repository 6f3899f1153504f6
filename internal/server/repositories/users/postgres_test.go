package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/devtv/devtv/internal/common"
	"github.com/devtv/devtv/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var (
	insertQ  = `^INSERT INTO users \(id, name, email, hashed_password, email_verified, image\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\) RETURNING created_at, updated_at$`
	byIDQ    = `^SELECT id, name, email, hashed_password, email_verified, image, created_at, updated_at FROM users WHERE id = \$1$`
	byEmailQ = `^SELECT id, name, email, hashed_password, email_verified, image, created_at, updated_at FROM users WHERE email = \$1$`
	updateQ  = `^UPDATE users SET name = COALESCE\(\$2, name\), email = COALESCE\(\$3, email\), email_verified = COALESCE\(\$4, email_verified\), image = COALESCE\(\$5, image\), updated_at = now\(\) WHERE id = \$1 RETURNING id, name`
)

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "hashed_password", "email_verified", "image", "created_at", "updated_at"})
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(insertQ).
		WithArgs(sqlmock.AnyArg(), "Neo", "neo@devtv.io", "$2a$hash", sqlmock.AnyArg(), "").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	verified := now
	u := &models.User{Name: "Neo", Email: "neo@devtv.io", HashedPassword: "$2a$hash", EmailVerified: &verified}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)

	assert.NotEmpty(t, got.ID, "id must be generated")
	assert.True(t, got.CreatedAt.Equal(now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_EmptyEmailStoredAsNull(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(insertQ).
		WithArgs("u-oauth", "Trinity", nil, "", nil, "").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	got, err := repo.Create(context.Background(), &models.User{ID: "u-oauth", Name: "Trinity"})
	require.NoError(t, err)
	assert.Equal(t, "u-oauth", got.ID, "given id is kept")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{Email: "a@b.com"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "a@b.com"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	assert.NotErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(byIDQ).
		WithArgs("u-1").
		WillReturnRows(userRows().AddRow("u-1", "Neo", "neo@devtv.io", "$2a$hash", now, "avatars/x", now, now))

	got, err := repo.GetByID(context.Background(), "u-1")
	require.NoError(t, err)

	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, "neo@devtv.io", got.Email)
	assert.Equal(t, "$2a$hash", got.HashedPassword)
	assert.Equal(t, "avatars/x", got.Image)
	require.NotNil(t, got.EmailVerified)
	assert.True(t, got.EmailVerified.Equal(now))
}

func TestGetByID_NullColumns(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(byIDQ).
		WithArgs("u-2").
		WillReturnRows(userRows().AddRow("u-2", "Trinity", nil, "", nil, "", now, now))

	got, err := repo.GetByID(context.Background(), "u-2")
	require.NoError(t, err)
	assert.Empty(t, got.Email)
	assert.Nil(t, got.EmailVerified)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byIDQ).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(byEmailQ).
		WithArgs("neo@devtv.io").
		WillReturnRows(userRows().AddRow("u-1", "Neo", "neo@devtv.io", "$2a$hash", nil, "", now, now))

	got, err := repo.GetByEmail(context.Background(), "neo@devtv.io")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
}

func TestGetByEmail_EmptyNeverQueries(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.GetByEmail(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmail_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byEmailQ).WithArgs("a@b.com").WillReturnError(errors.New("db err"))

	_, err := repo.GetByEmail(context.Background(), "a@b.com")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(updateQ).
		WithArgs("u-1", "Thomas", nil, nil, nil).
		WillReturnRows(userRows().AddRow("u-1", "Thomas", "neo@devtv.io", "", nil, "", now, now))

	name := "Thomas"
	got, err := repo.Update(context.Background(), "u-1", models.UserUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Thomas", got.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_EmptyEmailIsIgnored(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(updateQ).
		WithArgs("u-1", nil, nil, nil, "avatars/new").
		WillReturnRows(userRows().AddRow("u-1", "Neo", "neo@devtv.io", "", nil, "avatars/new", now, now))

	empty, image := "", "avatars/new"
	got, err := repo.Update(context.Background(), "u-1", models.UserUpdate{Email: &empty, Image: &image})
	require.NoError(t, err)
	assert.Equal(t, "neo@devtv.io", got.Email)
	assert.Equal(t, "avatars/new", got.Image)
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(updateQ).WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), "ghost", models.UserUpdate{})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdate_EmailTaken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(updateQ).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	email := "taken@devtv.io"
	_, err := repo.Update(context.Background(), "u-1", models.UserUpdate{Email: &email})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE FROM users WHERE id = \$1$`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "u-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE FROM users`).WillReturnError(errors.New("conn reset"))

	err := repo.Delete(context.Background(), "u-1")
	assert.ErrorContains(t, err, "db error")
}

func TestColumns(t *testing.T) {
	assert.Equal(t, "id, name, email, hashed_password, email_verified, image, created_at, updated_at", Columns(""))
	assert.Equal(t, "u.id, u.name, u.email, u.hashed_password, u.email_verified, u.image, u.created_at, u.updated_at", Columns("u"))
}
