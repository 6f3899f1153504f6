package users

import (
	"database/sql"
	"strings"

	"github.com/devtv/devtv/internal/dbx"
	"github.com/devtv/devtv/internal/server/models"
)

var userColumns = []string{"id", "name", "email", "hashed_password", "email_verified", "image", "created_at", "updated_at"}

// Columns lists the user columns in scan order, each qualified with the
// given table alias when it is not empty.
func Columns(alias string) string {
	if alias == "" {
		return strings.Join(userColumns, ", ")
	}
	cols := make([]string, len(userColumns))
	for i, c := range userColumns {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

// Row is a scan target for Columns. Other repositories joining users append
// Dest() to their own destinations.
type Row struct {
	user     models.User
	email    sql.NullString
	verified sql.NullTime
}

func (r *Row) Dest() []any {
	return []any{
		&r.user.ID, &r.user.Name, &r.email, &r.user.HashedPassword,
		&r.verified, &r.user.Image, &r.user.CreatedAt, &r.user.UpdatedAt,
	}
}

func (r *Row) User() *models.User {
	u := r.user
	u.Email = r.email.String
	u.EmailVerified = dbx.TimePtr(r.verified)
	return &u
}

func scanUser(s dbx.RowScanner) (*models.User, error) {
	r := &Row{}
	if err := s.Scan(r.Dest()...); err != nil {
		return nil, err
	}
	return r.User(), nil
}
