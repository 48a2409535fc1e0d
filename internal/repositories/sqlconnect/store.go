package sqlconnect

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

// Store is the MySQL implementation of the invitation, application, video
// and identity stores.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// duplicateKey reports whether err is a unique-key violation and, if so,
// the name of the violated key as found in the server message.
func duplicateKey(err error) (string, bool) {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) || mysqlErr.Number != mysqlDuplicateEntry {
		return "", false
	}
	msg := mysqlErr.Message
	if i := strings.LastIndex(msg, "for key "); i >= 0 {
		return strings.Trim(msg[i+len("for key "):], "'"), true
	}
	return msg, true
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

type rowScanner interface {
	Scan(dest ...any) error
}
