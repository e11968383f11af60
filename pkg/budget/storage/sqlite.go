package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"breakapp-hq/tally/pkg/budget"
)

// SQLiteStore implements budget.Store using SQLite for persistence.
// It provides durable storage suitable for single-instance deployments
// where budgets and alert history must survive restarts.
//
// SQLiteStore uses a write-ahead log (WAL) for better concurrent
// performance and periodic checkpointing to balance write performance with
// durability. CommitBudget runs inside a transaction with a version guard,
// so the budget update, charge record and alert are atomic.
type SQLiteStore struct {
	db               *sql.DB
	dbPath           string
	snapshotInterval time.Duration
	done             chan struct{}
	closeOnce        sync.Once

	// preparedStatements contains pre-compiled SQL statements for the hot
	// read paths
	getBudgetStmt   *sql.Stmt
	getAlertStmt    *sql.Stmt
	latestOpenStmt  *sql.Stmt
	sumChargesStmt  *sql.Stmt
	updateAlertStmt *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// SnapshotInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	SnapshotInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a new SQLite store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{
		DBPath:           dbPath,
		SnapshotInterval: 5 * time.Minute,
		BusyTimeout:      5 * time.Second,
	})
}

// NewSQLiteStoreWithConfig creates a new SQLite store with custom
// configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.SnapshotInterval == 0 {
		cfg.SnapshotInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:               db,
		dbPath:           cfg.DBPath,
		snapshotInterval: cfg.SnapshotInterval,
		done:             make(chan struct{}),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go store.checkpointLoop()

	return store, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS budgets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		target_user_id TEXT NOT NULL DEFAULT '',
		max_limit REAL NOT NULL,
		used_amount REAL NOT NULL DEFAULT 0,
		warning_threshold REAL NOT NULL,
		critical_multiplier REAL NOT NULL DEFAULT 0,
		exceeded_multiplier REAL NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		expires_at INTEGER,
		version INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS charges (
		id TEXT PRIMARY KEY,
		budget_id TEXT NOT NULL REFERENCES budgets(id),
		user_id TEXT NOT NULL DEFAULT '',
		amount REAL NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cost_alerts (
		id TEXT PRIMARY KEY,
		budget_id TEXT NOT NULL REFERENCES budgets(id),
		user_id TEXT NOT NULL DEFAULT '',
		alert_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		current_amount REAL NOT NULL,
		budget_limit REAL NOT NULL,
		percentage REAL NOT NULL,
		is_read INTEGER NOT NULL DEFAULT 0,
		is_resolved INTEGER NOT NULL DEFAULT 0,
		resolved_by TEXT NOT NULL DEFAULT '',
		resolved_at INTEGER,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_charges_budget ON charges(budget_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_alerts_budget ON cost_alerts(budget_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_alerts_open ON cost_alerts(budget_id, is_resolved, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

const budgetColumns = `id, name, type, target_user_id, max_limit, used_amount,
	warning_threshold, critical_multiplier, exceeded_multiplier, is_active,
	expires_at, version, created_at, updated_at`

const alertColumns = `id, budget_id, user_id, alert_type, severity, title,
	message, current_amount, budget_limit, percentage, is_read, is_resolved,
	resolved_by, resolved_at, created_at`

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getBudgetStmt, err = s.db.Prepare(
		`SELECT ` + budgetColumns + ` FROM budgets WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare get budget statement: %w", err)
	}

	s.getAlertStmt, err = s.db.Prepare(
		`SELECT ` + alertColumns + ` FROM cost_alerts WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare get alert statement: %w", err)
	}

	s.latestOpenStmt, err = s.db.Prepare(
		`SELECT ` + alertColumns + ` FROM cost_alerts
		WHERE budget_id = ? AND is_resolved = 0
		ORDER BY created_at DESC LIMIT 1`)
	if err != nil {
		return fmt.Errorf("failed to prepare latest open alert statement: %w", err)
	}

	s.sumChargesStmt, err = s.db.Prepare(
		`SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM charges
		WHERE budget_id = ? AND created_at >= ? AND created_at <= ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare sum charges statement: %w", err)
	}

	s.updateAlertStmt, err = s.db.Prepare(
		`UPDATE cost_alerts SET is_read = ?, is_resolved = ?, resolved_by = ?,
		resolved_at = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare update alert statement: %w", err)
	}

	return nil
}

// CreateBudget persists a new budget with Version 1.
func (s *SQLiteStore) CreateBudget(ctx context.Context, b *budget.Budget) error {
	b.Version = 1

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (`+budgetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, string(b.Type), b.TargetUserID, b.MaxLimit, b.UsedAmount,
		b.WarningThreshold, b.CriticalMultiplier, b.ExceededMultiplier,
		boolToInt(b.IsActive), nanosOrNil(b.ExpiresAt), b.Version,
		b.CreatedAt.UnixNano(), b.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert budget: %w", err)
	}
	return nil
}

// GetBudget returns the budget by id.
func (s *SQLiteStore) GetBudget(ctx context.Context, id string) (*budget.Budget, error) {
	b, err := scanBudget(s.getBudgetStmt.QueryRowContext(ctx, id))
	if err == sql.ErrNoRows {
		return nil, budget.ErrBudgetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load budget: %w", err)
	}
	return b, nil
}

// ListBudgets returns all budgets ordered by creation time.
func (s *SQLiteStore) ListBudgets(ctx context.Context) ([]*budget.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var out []*budget.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}
	return out, nil
}

// CommitBudget runs the version-guarded update, the charge insert and the
// alert insert in one transaction.
func (s *SQLiteStore) CommitBudget(ctx context.Context, b *budget.Budget, expectedVersion int64, charge *budget.Charge, alert *budget.CostAlert) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE budgets SET name = ?, type = ?, target_user_id = ?,
		max_limit = ?, used_amount = ?, warning_threshold = ?,
		critical_multiplier = ?, exceeded_multiplier = ?, is_active = ?,
		expires_at = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		b.Name, string(b.Type), b.TargetUserID, b.MaxLimit, b.UsedAmount,
		b.WarningThreshold, b.CriticalMultiplier, b.ExceededMultiplier,
		boolToInt(b.IsActive), nanosOrNil(b.ExpiresAt), expectedVersion+1,
		b.UpdatedAt.UnixNano(), b.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM budgets WHERE id = ?`, b.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check budget existence: %w", err)
		}
		if exists == 0 {
			return budget.ErrBudgetNotFound
		}
		return budget.ErrConflict
	}

	if charge != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO charges (id, budget_id, user_id, amount, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			charge.ID, charge.BudgetID, charge.UserID, charge.Amount,
			charge.CreatedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert charge: %w", err)
		}
	}

	if alert != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO cost_alerts (`+alertColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			alert.ID, alert.BudgetID, alert.UserID, string(alert.Type),
			string(alert.Severity), alert.Title, alert.Message,
			alert.CurrentAmount, alert.BudgetLimit, alert.Percentage,
			boolToInt(alert.IsRead), boolToInt(alert.IsResolved),
			alert.ResolvedBy, nanosOrNil(alert.ResolvedAt),
			alert.CreatedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert alert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	b.Version = expectedVersion + 1
	return nil
}

// GetAlert returns the alert by id.
func (s *SQLiteStore) GetAlert(ctx context.Context, id string) (*budget.CostAlert, error) {
	a, err := scanAlert(s.getAlertStmt.QueryRowContext(ctx, id))
	if err == sql.ErrNoRows {
		return nil, budget.ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}
	return a, nil
}

// UpdateAlert persists the alert's triage fields.
func (s *SQLiteStore) UpdateAlert(ctx context.Context, a *budget.CostAlert) error {
	res, err := s.updateAlertStmt.ExecContext(ctx,
		boolToInt(a.IsRead), boolToInt(a.IsResolved), a.ResolvedBy,
		nanosOrNil(a.ResolvedAt), a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return budget.ErrAlertNotFound
	}
	return nil
}

// LatestUnresolvedAlert returns the newest unresolved alert for the budget,
// or nil when none exists.
func (s *SQLiteStore) LatestUnresolvedAlert(ctx context.Context, budgetID string) (*budget.CostAlert, error) {
	a, err := scanAlert(s.latestOpenStmt.QueryRowContext(ctx, budgetID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest unresolved alert: %w", err)
	}
	return a, nil
}

// ListAlerts returns the budget's alerts inside the range, newest first.
func (s *SQLiteStore) ListAlerts(ctx context.Context, budgetID string, rng budget.TimeRange) ([]*budget.CostAlert, error) {
	start, end := rangeBounds(rng)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM cost_alerts
		WHERE budget_id = ? AND created_at >= ? AND created_at <= ?
		ORDER BY created_at DESC`,
		budgetID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var out []*budget.CostAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}
	return out, nil
}

// CountAlertsBySeverity counts alerts inside the range across all budgets.
func (s *SQLiteStore) CountAlertsBySeverity(ctx context.Context, rng budget.TimeRange) (map[budget.AlertSeverity]int, error) {
	start, end := rangeBounds(rng)
	rows, err := s.db.QueryContext(ctx,
		`SELECT severity, COUNT(*) FROM cost_alerts
		WHERE created_at >= ? AND created_at <= ?
		GROUP BY severity`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}
	defer rows.Close()

	counts := make(map[budget.AlertSeverity]int)
	for rows.Next() {
		var severity string
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, fmt.Errorf("failed to scan alert count: %w", err)
		}
		counts[budget.AlertSeverity(severity)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert counts: %w", err)
	}
	return counts, nil
}

// SumCharges returns the total amount and count of the budget's charges
// inside the range.
func (s *SQLiteStore) SumCharges(ctx context.Context, budgetID string, rng budget.TimeRange) (float64, int, error) {
	start, end := rangeBounds(rng)

	var total float64
	var count int
	err := s.sumChargesStmt.QueryRowContext(ctx, budgetID, start, end).Scan(&total, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum charges: %w", err)
	}
	return total, count, nil
}

// Close releases any resources held by the store.
// Close is idempotent and safe to call multiple times.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		for _, stmt := range []*sql.Stmt{
			s.getBudgetStmt, s.getAlertStmt, s.latestOpenStmt,
			s.sumChargesStmt, s.updateAlertStmt,
		} {
			if stmt != nil {
				stmt.Close()
			}
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *SQLiteStore) checkpointLoop() {
	ticker := time.NewTicker(s.snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}

// scanner abstracts sql.Row and sql.Rows for the shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanBudget(row scanner) (*budget.Budget, error) {
	var (
		b         budget.Budget
		typ       string
		isActive  int
		expiresAt sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(
		&b.ID, &b.Name, &typ, &b.TargetUserID, &b.MaxLimit, &b.UsedAmount,
		&b.WarningThreshold, &b.CriticalMultiplier, &b.ExceededMultiplier,
		&isActive, &expiresAt, &b.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Type = budget.BudgetType(typ)
	b.IsActive = isActive != 0
	if expiresAt.Valid {
		t := time.Unix(0, expiresAt.Int64)
		b.ExpiresAt = &t
	}
	b.CreatedAt = time.Unix(0, createdAt)
	b.UpdatedAt = time.Unix(0, updatedAt)
	return &b, nil
}

func scanAlert(row scanner) (*budget.CostAlert, error) {
	var (
		a          budget.CostAlert
		typ        string
		severity   string
		isRead     int
		isResolved int
		resolvedAt sql.NullInt64
		createdAt  int64
	)
	err := row.Scan(
		&a.ID, &a.BudgetID, &a.UserID, &typ, &severity, &a.Title, &a.Message,
		&a.CurrentAmount, &a.BudgetLimit, &a.Percentage, &isRead, &isResolved,
		&a.ResolvedBy, &resolvedAt, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	a.Type = budget.AlertType(typ)
	a.Severity = budget.AlertSeverity(severity)
	a.IsRead = isRead != 0
	a.IsResolved = isResolved != 0
	if resolvedAt.Valid {
		t := time.Unix(0, resolvedAt.Int64)
		a.ResolvedAt = &t
	}
	a.CreatedAt = time.Unix(0, createdAt)
	return &a, nil
}

// rangeBounds converts a TimeRange into inclusive nanosecond bounds for SQL
// comparison. Nil endpoints become the widest representable bounds.
func rangeBounds(rng budget.TimeRange) (int64, int64) {
	start := int64(-1 << 62)
	end := int64(1<<62 - 1)
	if rng.Start != nil {
		start = rng.Start.UnixNano()
	}
	if rng.End != nil {
		end = rng.End.UnixNano()
	}
	return start, end
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nanosOrNil converts an optional time into a nullable nanosecond column
// value.
func nanosOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}
