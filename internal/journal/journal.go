// Package journal keeps a local SQLite record of every purge hcpctl runs.
// State purges also store the state they replaced so it can be restored
// by hand.
package journal

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// Kind is the operation an entry records.
type Kind string

const (
	KindRunPurge   Kind = "purge-run"
	KindStatePurge Kind = "purge-state"
)

// timeFormat is fixed width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned by Get when no entry matches.
var ErrNotFound = errors.New("journal entry not found")

// Entry is one journaled operation. StateBackup is only populated by Get.
type Entry struct {
	ID            string          `json:"id" yaml:"id"`
	Kind          Kind            `json:"kind" yaml:"kind"`
	Host          string          `json:"host" yaml:"host"`
	WorkspaceID   string          `json:"workspace_id" yaml:"workspace_id"`
	WorkspaceName string          `json:"workspace_name,omitempty" yaml:"workspace_name,omitempty"`
	StartedAt     time.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt    time.Time       `json:"finished_at" yaml:"finished_at"`
	Outcome       string          `json:"outcome" yaml:"outcome"`
	LockReleased  bool            `json:"lock_released" yaml:"lock_released"`
	Error         string          `json:"error,omitempty" yaml:"error,omitempty"`
	Detail        json.RawMessage `json:"detail,omitempty" yaml:"-"`
	StateDigest   string          `json:"state_digest,omitempty" yaml:"state_digest,omitempty"`
	StateBackup   []byte          `json:"-" yaml:"-"`
}

// Journal is an open journal database.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal at path. Paths on network
// filesystems are rejected.
func Open(ctx context.Context, path string) (*Journal, error) {
	if path != ":memory:" {
		if err := checkLocalFilesystem(path, filesystemType); err != nil {
			return nil, err
		}
	}
	db, err := openSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Journal{db: db, now: time.Now}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Digest returns the hex BLAKE3-256 digest of b.
func Digest(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Record appends e, filling in ID, FinishedAt and StateDigest when unset.
func (j *Journal) Record(ctx context.Context, e *Entry) error {
	if e.Kind == "" || e.WorkspaceID == "" {
		return fmt.Errorf("journal entry needs a kind and a workspace")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.FinishedAt.IsZero() {
		e.FinishedAt = j.now()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = e.FinishedAt
	}
	if len(e.StateBackup) > 0 && e.StateDigest == "" {
		e.StateDigest = Digest(e.StateBackup)
	}
	detail := e.Detail
	if len(detail) == 0 {
		detail = json.RawMessage(`{}`)
	}
	if !json.Valid(detail) {
		return fmt.Errorf("journal detail is invalid JSON")
	}

	_, err := j.db.ExecContext(ctx, `
INSERT INTO operations(id, kind, host, workspace_id, workspace_name, started_at, finished_at,
  outcome, lock_released, error, detail, state_digest, state_backup)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`, e.ID, string(e.Kind), e.Host, e.WorkspaceID, nullable(e.WorkspaceName),
		e.StartedAt.UTC().Format(timeFormat), e.FinishedAt.UTC().Format(timeFormat),
		e.Outcome, e.LockReleased, nullable(e.Error), string(detail), nullable(e.StateDigest), e.StateBackup)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// ListOptions filter List.
type ListOptions struct {
	WorkspaceID string
	Limit       int
}

// List returns entries newest first, without state backups.
func (j *Journal) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	query := `SELECT id, kind, host, workspace_id, workspace_name, started_at, finished_at,
  outcome, lock_released, error, detail, state_digest FROM operations`
	var args []any
	if opts.WorkspaceID != "" {
		query += ` WHERE workspace_id = ?`
		args = append(args, opts.WorkspaceID)
	}
	query += ` ORDER BY started_at DESC, id`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query+";", args...)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	return entries, nil
}

// Get returns the entry whose id is or starts with id, including the
// state backup. An ambiguous prefix is an error.
func (j *Journal) Get(ctx context.Context, id string) (*Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("journal id is empty")
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT id, kind, host, workspace_id, workspace_name, started_at, finished_at,
  outcome, lock_released, error, detail, state_digest, state_backup
FROM operations WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id LIMIT 2;
`, id, escapeLike(id)+"%")
	if err != nil {
		return nil, fmt.Errorf("read journal entry: %w", err)
	}
	defer rows.Close()

	var found []*Entry
	for rows.Next() {
		var backup []byte
		e, err := scanEntry(func(dest ...any) error {
			return rows.Scan(append(dest, &backup)...)
		})
		if err != nil {
			return nil, err
		}
		e.StateBackup = backup
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read journal entry: %w", err)
	}
	switch {
	case len(found) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case len(found) > 1 && found[0].ID != id:
		return nil, fmt.Errorf("journal id prefix %q is ambiguous", id)
	}
	return found[0], nil
}

// VerifyBackup checks the stored state against its digest.
func (e *Entry) VerifyBackup() error {
	if len(e.StateBackup) == 0 {
		return fmt.Errorf("journal entry %s has no state backup", e.ID)
	}
	if got := Digest(e.StateBackup); got != e.StateDigest {
		return fmt.Errorf("state backup of %s is corrupt: digest %s, recorded %s", e.ID, got, e.StateDigest)
	}
	return nil
}

func scanEntry(scan func(dest ...any) error) (*Entry, error) {
	var (
		e                     Entry
		kind                  string
		started, finished     string
		name, errText, digest sql.NullString
		detail                string
	)
	if err := scan(&e.ID, &kind, &e.Host, &e.WorkspaceID, &name, &started, &finished,
		&e.Outcome, &e.LockReleased, &errText, &detail, &digest); err != nil {
		return nil, fmt.Errorf("scan journal entry: %w", err)
	}
	e.Kind = Kind(kind)
	e.WorkspaceName = name.String
	e.Error = errText.String
	e.StateDigest = digest.String
	e.Detail = json.RawMessage(detail)

	var err error
	if e.StartedAt, err = time.Parse(timeFormat, started); err != nil {
		return nil, fmt.Errorf("parse started_at of %s: %w", e.ID, err)
	}
	if e.FinishedAt, err = time.Parse(timeFormat, finished); err != nil {
		return nil, fmt.Errorf("parse finished_at of %s: %w", e.ID, err)
	}
	return &e, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
