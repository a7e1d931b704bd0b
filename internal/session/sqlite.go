package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/isdelr/ender-auth-be/internal/models"
)

// SQLiteBackend stores session records in the sessions table. Expired rows
// are ignored on load and removed by DeleteExpired.
type SQLiteBackend struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteBackend creates a backend over a migrated database.
func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db, now: time.Now}
}

func (b *SQLiteBackend) Load(ctx context.Context, id string) ([]byte, error) {
	var (
		rec     models.SessionRecord
		expires int64
	)
	row := b.db.QueryRowContext(ctx, "SELECT id, data, expires_at FROM sessions WHERE id = ?", id)
	if err := row.Scan(&rec.ID, &rec.Data, &expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.ExpiresAt = time.Unix(expires, 0)
	if !rec.ExpiresAt.After(b.now()) {
		return nil, ErrNotFound
	}
	return rec.Data, nil
}

func (b *SQLiteBackend) Save(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	rec := models.SessionRecord{ID: id, Data: data, ExpiresAt: b.now().Add(ttl)}
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO sessions (id, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		rec.ID, rec.Data, rec.ExpiresAt.Unix(),
	)
	return err
}

func (b *SQLiteBackend) Delete(ctx context.Context, id string) error {
	_, err := b.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	return err
}

// DeleteExpired removes every record that expired before now and reports how many.
func (b *SQLiteBackend) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := b.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", b.now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
