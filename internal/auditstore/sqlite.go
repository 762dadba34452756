package auditstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/diagnostic"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/syncer"
)

var ErrNotFound = errors.New("audit not found")

const schema = `
CREATE TABLE IF NOT EXISTS audits (
	verdict_id      TEXT PRIMARY KEY,
	session_id      TEXT NOT NULL DEFAULT '',
	bottleneck      TEXT NOT NULL,
	soft_bottleneck TEXT NOT NULL DEFAULT '',
	verdict_json    TEXT NOT NULL,
	plan_json       TEXT NOT NULL DEFAULT '',
	completed_at    TEXT NOT NULL,
	updated_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS audits_session ON audits (session_id, completed_at);
CREATE INDEX IF NOT EXISTS audits_bottleneck ON audits (bottleneck);
`

// Audit is a completed verdict as stored for later lookup and reporting.
type Audit struct {
	VerdictID   string                    `json:"verdict_id"`
	SessionID   string                    `json:"session_id,omitempty"`
	Verdict     diagnostic.Verdict        `json:"verdict"`
	Plan        *diagnostic.GeneratedPlan `json:"plan,omitempty"`
	CompletedAt time.Time                 `json:"completed_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

type auditRow struct {
	VerdictID      string `db:"verdict_id"`
	SessionID      string `db:"session_id"`
	Bottleneck     string `db:"bottleneck"`
	SoftBottleneck string `db:"soft_bottleneck"`
	VerdictJSON    string `db:"verdict_json"`
	PlanJSON       string `db:"plan_json"`
	CompletedAt    string `db:"completed_at"`
	UpdatedAt      string `db:"updated_at"`
}

// Store persists audits in SQLite. It doubles as a syncer.Sink.
type Store struct {
	db *sqlx.DB
}

func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Name() string { return "sqlite" }

// Write applies a sync record. Verdict records insert once; plan records
// fill the soft bottleneck and plan on an existing row. Records are synced
// concurrently, so a plan that arrives first inserts the full row and the
// later verdict insert is ignored.
func (s *Store) Write(ctx context.Context, rec syncer.Record) error {
	switch rec.Kind {
	case syncer.KindVerdict:
		_, err := s.Insert(ctx, Audit{
			VerdictID:   rec.VerdictID,
			SessionID:   rec.SessionID,
			Verdict:     rec.Verdict,
			CompletedAt: rec.At,
		})
		return err
	case syncer.KindPlan:
		err := s.AttachPlan(ctx, rec.VerdictID, rec.Verdict, rec.Plan, rec.At)
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		if _, err := s.Insert(ctx, Audit{
			VerdictID:   rec.VerdictID,
			SessionID:   rec.SessionID,
			Verdict:     rec.Verdict,
			Plan:        rec.Plan,
			CompletedAt: rec.At,
		}); err != nil {
			return err
		}
		// The verdict may have landed between the update and the insert.
		return s.AttachPlan(ctx, rec.VerdictID, rec.Verdict, rec.Plan, rec.At)
	default:
		return fmt.Errorf("unknown record kind %q", rec.Kind)
	}
}

// Insert stores a new audit. It reports false when the verdict id already
// exists; the stored row is left untouched.
func (s *Store) Insert(ctx context.Context, a Audit) (bool, error) {
	verdict, err := json.Marshal(a.Verdict)
	if err != nil {
		return false, err
	}
	plan := ""
	if a.Plan != nil {
		blob, err := json.Marshal(a.Plan)
		if err != nil {
			return false, err
		}
		plan = string(blob)
	}
	soft := ""
	if a.Verdict.SoftBottleneck != nil {
		soft = string(*a.Verdict.SoftBottleneck)
	}
	ts := a.CompletedAt.UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO audits (verdict_id, session_id, bottleneck, soft_bottleneck, verdict_json, plan_json, completed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.VerdictID, a.SessionID, string(a.Verdict.Bottleneck), soft, string(verdict), plan, ts, ts)
	if err != nil {
		return false, fmt.Errorf("insert audit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Store) AttachPlan(ctx context.Context, verdictID string, v diagnostic.Verdict, plan *diagnostic.GeneratedPlan, at time.Time) error {
	verdict, err := json.Marshal(v)
	if err != nil {
		return err
	}
	planJSON := ""
	if plan != nil {
		blob, err := json.Marshal(plan)
		if err != nil {
			return err
		}
		planJSON = string(blob)
	}
	soft := ""
	if v.SoftBottleneck != nil {
		soft = string(*v.SoftBottleneck)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE audits SET soft_bottleneck = ?, verdict_json = ?, plan_json = ?, updated_at = ? WHERE verdict_id = ?`,
		soft, string(verdict), planJSON, at.UTC().Format(time.RFC3339Nano), verdictID)
	if err != nil {
		return fmt.Errorf("attach plan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Get(ctx context.Context, verdictID string) (Audit, error) {
	var row auditRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM audits WHERE verdict_id = ?`, verdictID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Audit{}, ErrNotFound
		}
		return Audit{}, err
	}
	return row.toAudit()
}

// ListBySession returns a session's audits, newest first.
func (s *Store) ListBySession(ctx context.Context, sessionID string, limit int) ([]Audit, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []auditRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM audits WHERE session_id = ? ORDER BY completed_at DESC LIMIT ?`, sessionID, limit); err != nil {
		return nil, err
	}
	out := make([]Audit, 0, len(rows))
	for _, r := range rows {
		a, err := r.toAudit()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// CountByBottleneck tallies stored verdicts per bottleneck.
func (s *Store) CountByBottleneck(ctx context.Context) (map[diagnostic.BottleneckType]int, error) {
	var rows []struct {
		Bottleneck string `db:"bottleneck"`
		N          int    `db:"n"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT bottleneck, COUNT(*) AS n FROM audits GROUP BY bottleneck`); err != nil {
		return nil, err
	}
	out := make(map[diagnostic.BottleneckType]int, len(rows))
	for _, r := range rows {
		out[diagnostic.BottleneckType(r.Bottleneck)] = r.N
	}
	return out, nil
}

func (r auditRow) toAudit() (Audit, error) {
	a := Audit{VerdictID: r.VerdictID, SessionID: r.SessionID}
	if err := json.Unmarshal([]byte(r.VerdictJSON), &a.Verdict); err != nil {
		return Audit{}, fmt.Errorf("decode verdict %s: %w", r.VerdictID, err)
	}
	if r.PlanJSON != "" {
		var p diagnostic.GeneratedPlan
		if err := json.Unmarshal([]byte(r.PlanJSON), &p); err != nil {
			return Audit{}, fmt.Errorf("decode plan %s: %w", r.VerdictID, err)
		}
		a.Plan = &p
	}
	a.CompletedAt, _ = time.Parse(time.RFC3339Nano, r.CompletedAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339Nano, r.UpdatedAt)
	return a, nil
}
