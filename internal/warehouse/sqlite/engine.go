// Package sqlite is a local warehouse backed by an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/kailas-cloud/colmap/internal/domain"
	"github.com/kailas-cloud/colmap/internal/domain/dataset"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Engine runs forecast queries against a SQLite file or ":memory:".
type Engine struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the database at path.
func Open(path string, logger *zap.Logger) (*Engine, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: warehouse path is required", domain.ErrInvalidInput)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	return &Engine{db: db, logger: logger}, nil
}

// Ping checks that the database file is usable.
func (e *Engine) Ping(ctx context.Context) error {
	if err := e.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (e *Engine) Close() error {
	return e.db.Close()
}

// Run executes query with named parameters and returns a fresh job ID with
// the result rows. Column order follows the SELECT list.
func (e *Engine) Run(ctx context.Context, query string, params map[string]any) (string, []dataset.Row, error) {
	jobID := uuid.NewString()

	rows, err := e.db.QueryContext(ctx, query, namedArgs(params)...)
	if err != nil {
		return "", nil, fmt.Errorf("job %s: query: %w", jobID, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", nil, fmt.Errorf("job %s: columns: %w", jobID, err)
	}

	out := make([]dataset.Row, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", nil, fmt.Errorf("job %s: scan: %w", jobID, err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, dataset.NewRow(cols, vals))
	}
	if err := rows.Err(); err != nil {
		return "", nil, fmt.Errorf("job %s: rows: %w", jobID, err)
	}

	e.logger.Debug("Warehouse query completed",
		zap.String("job_id", jobID),
		zap.Int("rows", len(out)),
	)
	return jobID, out, nil
}

// Load replaces table with the given rows. Columns come from the first row;
// types are inferred per column (INTEGER, REAL, otherwise TEXT).
func (e *Engine) Load(ctx context.Context, table string, rows []dataset.Row) (int, error) {
	if !identRe.MatchString(table) {
		return 0, fmt.Errorf("%w: invalid table name %q", domain.ErrInvalidInput, table)
	}
	cols := dataset.Columns(rows)
	if len(cols) == 0 {
		return 0, fmt.Errorf("%w: dataset has no columns", domain.ErrInvalidInput)
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin load: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	defs := make([]string, len(cols))
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
		defs[i] = quoted[i] + " " + columnType(c, rows)
	}

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+quoteIdent(table)); err != nil {
		return 0, fmt.Errorf("drop %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, `CREATE TABLE `+quoteIdent(table)+` (`+strings.Join(defs, ", ")+`)`); err != nil {
		return 0, fmt.Errorf("create %s: %w", table, err)
	}

	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO `+quoteIdent(table)+` (`+strings.Join(quoted, ", ")+`) VALUES (`+ph+`)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for n, r := range rows {
		args := make([]any, len(cols))
		for i, c := range cols {
			v, _ := r.Get(c)
			args[i] = sqliteValue(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", n, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit load: %w", err)
	}

	e.logger.Info("Dataset loaded into warehouse",
		zap.String("table", table),
		zap.Int("rows", len(rows)),
		zap.Int("columns", len(cols)),
	)
	return len(rows), nil
}

// namedArgs sorts names so statements bind deterministically.
func namedArgs(params map[string]any) []any {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	args := make([]any, len(names))
	for i, k := range names {
		args[i] = sql.Named(k, params[k])
	}
	return args
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
