package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"SSPCommandCenter/internal/logger"
	"SSPCommandCenter/internal/model"
)

// SQLiteRecorder persists runs and digests to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log logger.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log logger.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so the API and dashboards can read while a recompute writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", logger.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS score_runs (
			id             TEXT PRIMARY KEY,
			started_at     INTEGER NOT NULL,
			finished_at    INTEGER NOT NULL,
			weights_source TEXT,
			total          INTEGER,
			failures       INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON score_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS opportunity_scores (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL REFERENCES score_runs(id),
			opportunity_id TEXT NOT NULL,
			account_id     TEXT,
			name           TEXT,
			state          TEXT,
			stage          TEXT,
			amount         REAL,
			co_sell        INTEGER,
			score          INTEGER,
			error          TEXT,
			signal_count   INTEGER,
			tags           TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_run ON opportunity_scores(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_opp ON opportunity_scores(opportunity_id)`,

		`CREATE TABLE IF NOT EXISTS digests (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			run_id    TEXT,
			status    TEXT,
			items     INTEGER,
			title     TEXT,
			body      TEXT,
			error     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_digests_ts ON digests(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun writes the run and all of its results in one transaction.
// Unavailable scores are stored as NULL.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, run *model.ScoreRun) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `INSERT INTO score_runs
		(id, started_at, finished_at, weights_source, total, failures)
		VALUES (?,?,?,?,?,?)`,
		run.ID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
		run.WeightsSource, len(run.Results), run.Failures(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO opportunity_scores
		(run_id, opportunity_id, account_id, name, state, stage, amount, co_sell,
		 score, error, signal_count, tags)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare score insert: %w", err)
	}
	defer stmt.Close()

	for i := range run.Results {
		res := &run.Results[i]
		var score sql.NullInt64
		if res.Score != nil {
			score = sql.NullInt64{Int64: int64(*res.Score), Valid: true}
		}
		tags, mErr := json.Marshal(res.Tags)
		if mErr != nil {
			return fmt.Errorf("encode tags: %w", mErr)
		}
		if _, err = stmt.ExecContext(ctx,
			run.ID, res.OpportunityID, res.AccountID, res.Name, string(res.State), string(res.Stage),
			res.Amount, res.CoSell, score, res.Error, res.SignalCount, string(tags),
		); err != nil {
			return fmt.Errorf("insert score %s: %w", res.OpportunityID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) LatestRun(ctx context.Context) (*model.ScoreRun, error) {
	run := &model.ScoreRun{}
	var started, finished int64
	var source sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT id, started_at, finished_at, weights_source
		FROM score_runs ORDER BY started_at DESC, rowid DESC LIMIT 1`,
	).Scan(&run.ID, &started, &finished, &source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	run.StartedAt = time.UnixMilli(started).UTC()
	run.FinishedAt = time.UnixMilli(finished).UTC()
	run.WeightsSource = source.String

	rows, err := r.db.QueryContext(ctx, `SELECT opportunity_id, account_id, name, state, stage,
		amount, co_sell, score, error, signal_count, tags
		FROM opportunity_scores WHERE run_id = ? ORDER BY id`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	run.Results = []model.OpportunityScore{}
	for rows.Next() {
		var (
			res                     model.OpportunityScore
			accountID, name, errMsg sql.NullString
			state, stage, tags      sql.NullString
			coSell                  int64
			score                   sql.NullInt64
		)
		if err := rows.Scan(&res.OpportunityID, &accountID, &name, &state, &stage,
			&res.Amount, &coSell, &score, &errMsg, &res.SignalCount, &tags); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		res.AccountID = accountID.String
		res.Name = name.String
		res.State = model.StateCode(state.String)
		res.Stage = model.Stage(stage.String)
		res.CoSell = coSell != 0
		res.Error = errMsg.String
		if score.Valid {
			v := int(score.Int64)
			res.Score = &v
		}
		if tags.Valid && tags.String != "" && tags.String != "null" {
			if err := json.Unmarshal([]byte(tags.String), &res.Tags); err != nil {
				return nil, fmt.Errorf("decode tags: %w", err)
			}
		}
		run.Results = append(run.Results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return run, nil
}

func (r *SQLiteRecorder) RecordDigest(ctx context.Context, evt *DigestEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sentAt := evt.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO digests
		(timestamp, run_id, status, items, title, body, error)
		VALUES (?,?,?,?,?,?,?)`,
		sentAt.UnixMilli(), evt.RunID, evt.Status, evt.Items, evt.Title, evt.Body, evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
