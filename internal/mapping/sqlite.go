package mapping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore reads button mappings from the console database shared with
// the web admin. The daemon only reads it; the admin owns the schema and
// writes mappings, profiles and the active channel.
type SQLiteStore struct {
	table
	db *sql.DB
}

// NewSQLite opens the database at path. Opening is lazy, so a missing file
// does not fail here; the first Reload reports it instead.
func NewSQLite(path string) (*SQLiteStore, error) {
	// busy_timeout keeps reads from failing with SQLITE_BUSY while the
	// web admin is mid-write.
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open mapping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	s.swap(make(map[int]string), "")
	return s, nil
}

// Reload re-reads the active channel and rebuilds the whole table in one
// query pass.
func (s *SQLiteStore) Reload(ctx context.Context) error {
	channel, err := s.configValue(ctx, "active_channel", "1")
	if err != nil {
		return err
	}
	channelNum, convErr := strconv.Atoi(strings.TrimSpace(channel))
	if convErr != nil {
		channelNum = 1
	}

	device, err := s.configValue(ctx, "aplayDevice", "")
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT bm.button_id, af.filepath
		FROM channels c
		JOIN button_mappings bm ON bm.profile_id = c.profile_id
		JOIN audio_files af ON af.id = bm.audio_file_id
		WHERE c.channel_number = ?`, channelNum)
	if err != nil {
		return fmt.Errorf("query button mappings: %w", err)
	}
	defer rows.Close()

	buttons := make(map[int]string)
	for rows.Next() {
		var id int
		var path string
		if scanErr := rows.Scan(&id, &path); scanErr != nil {
			return fmt.Errorf("scan mapping row: %w", scanErr)
		}
		buttons[id] = path
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read button mappings: %w", err)
	}

	s.swap(buttons, device)
	return nil
}

func (s *SQLiteStore) configValue(ctx context.Context, key, fallback string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM system_config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("read system config %q: %w", key, err)
	}
	return value, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
