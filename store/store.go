package store

import (
	"context"
	"database/sql"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sartorproj/goeda/boxplot"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// ErrRunNotFound is returned by LoadRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS boxplot_runs (
    id         VARCHAR(36) PRIMARY KEY,
    name       VARCHAR(255) NOT NULL,
    mode       VARCHAR(16) NOT NULL,
    frequency  VARCHAR(16) NOT NULL,
    sigma_clip DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS boxplot_rows (
    run_id            VARCHAR(36) NOT NULL REFERENCES boxplot_runs(id),
    position          INTEGER NOT NULL,
    group_key         VARCHAR(255) NOT NULL,
    count             INTEGER NOT NULL,
    clipped           INTEGER NOT NULL,
    q1                DOUBLE PRECISION NOT NULL,
    q2                DOUBLE PRECISION NOT NULL,
    q3                DOUBLE PRECISION NOT NULL,
    iqr               DOUBLE PRECISION NOT NULL,
    lower_inner_fence DOUBLE PRECISION NOT NULL,
    upper_inner_fence DOUBLE PRECISION NOT NULL,
    lower_outer_fence DOUBLE PRECISION NOT NULL,
    upper_outer_fence DOUBLE PRECISION NOT NULL,
    upper_whisker     DOUBLE PRECISION NOT NULL,
    lower_whisker     DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS boxplot_outliers (
    run_id    VARCHAR(36) NOT NULL REFERENCES boxplot_runs(id),
    position  INTEGER NOT NULL,
    group_key VARCHAR(255) NOT NULL,
    value     DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS boxplot_diagnostics (
    run_id    VARCHAR(36) NOT NULL REFERENCES boxplot_runs(id),
    position  INTEGER NOT NULL,
    group_key VARCHAR(255) NOT NULL,
    kind      VARCHAR(16) NOT NULL,
    reason    TEXT NOT NULL,
    PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS boxplot_runs_created ON boxplot_runs(created_at);
`

const (
	insertRunSQL = `
INSERT INTO boxplot_runs (
	id, name, mode, frequency, sigma_clip, created_at
) VALUES (
	:id, :name, :mode, :frequency, :sigma_clip, :created_at
)`

	insertRowSQL = `
INSERT INTO boxplot_rows (
	run_id, position, group_key, count, clipped,
	q1, q2, q3, iqr,
	lower_inner_fence, upper_inner_fence, lower_outer_fence, upper_outer_fence,
	upper_whisker, lower_whisker
) VALUES (
	:run_id, :position, :group_key, :count, :clipped,
	:q1, :q2, :q3, :iqr,
	:lower_inner_fence, :upper_inner_fence, :lower_outer_fence, :upper_outer_fence,
	:upper_whisker, :lower_whisker
)`

	insertOutlierSQL = `
INSERT INTO boxplot_outliers (
	run_id, position, group_key, value
) VALUES (
	:run_id, :position, :group_key, :value
)`

	insertDiagnosticSQL = `
INSERT INTO boxplot_diagnostics (
	run_id, position, group_key, kind, reason
) VALUES (
	:run_id, :position, :group_key, :kind, :reason
)`
)

// Run describes one saved aggregation.
type Run struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Mode      string    `db:"mode" json:"mode"`
	Frequency string    `db:"frequency" json:"frequency"`
	SigmaClip float64   `db:"sigma_clip" json:"sigma_clip"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Store persists aggregation results in a SQL database.
type Store struct {
	db  *sqlx.DB
	log logrus.FieldLogger
}

// Open connects to the database and creates the tables if they don't exist.
// driver is DriverSQLite or DriverPostgres. A nil log discards messages.
func Open(driver, dsn string, log logrus.FieldLogger) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, errors.Errorf("unsupported driver %q", driver)
	}
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", driver)
	}
	if driver == DriverSQLite {
		// Writes from several connections would fail with SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create schema")
	}

	log.WithField("driver", driver).Debug("store opened")
	return &Store{db: db, log: log}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowRecord struct {
	RunID    string `db:"run_id"`
	Position int    `db:"position"`
	Key      string `db:"group_key"`
	Count    int    `db:"count"`
	Clipped  int    `db:"clipped"`

	Q1              float64 `db:"q1"`
	Q2              float64 `db:"q2"`
	Q3              float64 `db:"q3"`
	IQR             float64 `db:"iqr"`
	LowerInnerFence float64 `db:"lower_inner_fence"`
	UpperInnerFence float64 `db:"upper_inner_fence"`
	LowerOuterFence float64 `db:"lower_outer_fence"`
	UpperOuterFence float64 `db:"upper_outer_fence"`
	UpperWhisker    float64 `db:"upper_whisker"`
	LowerWhisker    float64 `db:"lower_whisker"`
}

func newRowRecord(runID string, pos int, r boxplot.Row) rowRecord {
	f := r.Stats
	return rowRecord{
		RunID: runID, Position: pos, Key: r.Key, Count: r.Count, Clipped: r.Clipped,
		Q1: f.Q1, Q2: f.Q2, Q3: f.Q3, IQR: f.IQR,
		LowerInnerFence: f.LowerInnerFence, UpperInnerFence: f.UpperInnerFence,
		LowerOuterFence: f.LowerOuterFence, UpperOuterFence: f.UpperOuterFence,
		UpperWhisker: f.UpperWhisker, LowerWhisker: f.LowerWhisker,
	}
}

func (r rowRecord) row() boxplot.Row {
	return boxplot.Row{
		Key:     r.Key,
		Count:   r.Count,
		Clipped: r.Clipped,
		Stats: boxplot.FenceStats{
			Q1: r.Q1, Q2: r.Q2, Q3: r.Q3, IQR: r.IQR,
			LowerInnerFence: r.LowerInnerFence, UpperInnerFence: r.UpperInnerFence,
			LowerOuterFence: r.LowerOuterFence, UpperOuterFence: r.UpperOuterFence,
			UpperWhisker: r.UpperWhisker, LowerWhisker: r.LowerWhisker,
		},
	}
}

type outlierRecord struct {
	RunID    string  `db:"run_id"`
	Position int     `db:"position"`
	Key      string  `db:"group_key"`
	Value    float64 `db:"value"`
}

type diagnosticRecord struct {
	RunID    string `db:"run_id"`
	Position int    `db:"position"`
	Key      string `db:"group_key"`
	Kind     string `db:"kind"`
	Reason   string `db:"reason"`
}

// SaveRun stores an aggregation result with the configuration that produced
// it, in one transaction, and returns the new run.
func (s *Store) SaveRun(ctx context.Context, name string, cfg *boxplot.Config, res *boxplot.Result) (*Run, error) {
	if cfg == nil {
		cfg = boxplot.DefaultConfig()
	}
	run := &Run{
		ID:        uuid.NewString(),
		Name:      name,
		Mode:      cfg.Mode.String(),
		Frequency: cfg.Frequency.String(),
		SigmaClip: cfg.SigmaClip,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin")
	}
	if err := insertRun(ctx, tx, run, res); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}

	s.log.WithFields(logrus.Fields{
		"run":      run.ID,
		"name":     name,
		"rows":     len(res.Rows),
		"outliers": len(res.Outliers),
	}).Debug("run saved")
	return run, nil
}

func insertRun(ctx context.Context, tx *sqlx.Tx, run *Run, res *boxplot.Result) error {
	if _, err := tx.NamedExecContext(ctx, insertRunSQL, run); err != nil {
		return errors.Wrap(err, "insert run")
	}
	for i, r := range res.Rows {
		if _, err := tx.NamedExecContext(ctx, insertRowSQL, newRowRecord(run.ID, i, r)); err != nil {
			return errors.Wrapf(err, "insert row %q", r.Key)
		}
	}
	for i, o := range res.Outliers {
		rec := outlierRecord{RunID: run.ID, Position: i, Key: o.Group, Value: o.Value}
		if _, err := tx.NamedExecContext(ctx, insertOutlierSQL, rec); err != nil {
			return errors.Wrapf(err, "insert outlier of %q", o.Group)
		}
	}
	for i, d := range res.Diagnostics {
		rec := diagnosticRecord{RunID: run.ID, Position: i, Key: d.Group, Kind: d.Kind.String(), Reason: d.Reason}
		if _, err := tx.NamedExecContext(ctx, insertDiagnosticSQL, rec); err != nil {
			return errors.Wrapf(err, "insert diagnostic of %q", d.Group)
		}
	}
	return nil
}

// LoadRun returns a saved run and its result. Skipped diagnostics get their
// *boxplot.InsufficientDataError back.
func (s *Store) LoadRun(ctx context.Context, id string) (*Run, *boxplot.Result, error) {
	var run Run
	err := s.db.GetContext(ctx, &run, s.db.Rebind(
		`SELECT id, name, mode, frequency, sigma_clip, created_at FROM boxplot_runs WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, nil, errors.Wrapf(ErrRunNotFound, "run %s", id)
	}
	if err != nil {
		return nil, nil, errors.Wrapf(err, "load run %s", id)
	}

	var rows []rowRecord
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT * FROM boxplot_rows WHERE run_id = ? ORDER BY position`), id); err != nil {
		return nil, nil, errors.Wrap(err, "load rows")
	}
	var outliers []outlierRecord
	if err := s.db.SelectContext(ctx, &outliers, s.db.Rebind(
		`SELECT * FROM boxplot_outliers WHERE run_id = ? ORDER BY position`), id); err != nil {
		return nil, nil, errors.Wrap(err, "load outliers")
	}
	var diags []diagnosticRecord
	if err := s.db.SelectContext(ctx, &diags, s.db.Rebind(
		`SELECT * FROM boxplot_diagnostics WHERE run_id = ? ORDER BY position`), id); err != nil {
		return nil, nil, errors.Wrap(err, "load diagnostics")
	}

	res := &boxplot.Result{
		Rows:     make([]boxplot.Row, len(rows)),
		Outliers: make([]boxplot.Outlier, len(outliers)),
	}
	for i, r := range rows {
		res.Rows[i] = r.row()
	}
	for i, o := range outliers {
		res.Outliers[i] = boxplot.Outlier{Group: o.Key, Value: o.Value}
	}
	for _, d := range diags {
		diag := boxplot.Diagnostic{Group: d.Key, Reason: d.Reason}
		if err := diag.Kind.UnmarshalText([]byte(d.Kind)); err != nil {
			return nil, nil, errors.Wrapf(err, "diagnostic of %q", d.Key)
		}
		if diag.Kind == boxplot.Skipped {
			diag.Err = &boxplot.InsufficientDataError{Group: d.Key}
		}
		res.Diagnostics = append(res.Diagnostics, diag)
	}
	return &run, res, nil
}

// Runs lists the saved runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	var runs []Run
	err := s.db.SelectContext(ctx, &runs,
		`SELECT id, name, mode, frequency, sigma_clip, created_at FROM boxplot_runs ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	// SQLite compares timestamps as text, so order here.
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}
