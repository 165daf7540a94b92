package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/samhithabhogadi/budget-manager/internal/core"

	_ "modernc.org/sqlite"
)

var (
	// ErrUsernameTaken is returned when registering a username that already exists.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrNotFound is returned when a row lookup matches nothing for the given user.
	ErrNotFound = errors.New("record not found")
)

// SQLiteRepository persists users, transactions and goals. A single *sql.DB
// is shared across requests; database/sql serializes writes on the SQLite
// connection, which keeps per-user record sets consistent under concurrency.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the underlying database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateUser inserts a credential row. A UNIQUE violation on the username
// column maps to ErrUsernameTaken rather than surfacing as a driver error.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
		username, passwordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.User{}, ErrUsernameTaken
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("create user id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", id, "username", username)

	return core.User{ID: id, Username: username, PasswordHash: passwordHash}, nil
}

// GetUserByUsername returns the credential row for a username, or ErrNotFound.
func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = ?`,
		username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// AppendTransaction inserts a transaction and returns it with its assigned id.
// Validation happens before this call; the store performs no range checks.
func (r *SQLiteRepository) AppendTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, tx_date, tx_type, category, amount, notes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tx.UserID, tx.Date.String(), string(tx.Type), tx.Category, tx.Amount.String(), tx.Notes)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("append transaction id: %w", err)
	}
	tx.ID = id

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"user_id", tx.UserID,
		"type", tx.Type,
		"category", tx.Category,
		"amount", tx.Amount.String())

	return tx, nil
}

// ListTransactions returns the user's transactions in insertion order.
// Callers sort separately for display.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, tx_date, tx_type, category, amount, notes
		 FROM transactions WHERE user_id = ? ORDER BY id ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions rows: %w", err)
	}

	return txs, nil
}

// GetTransaction returns a single transaction scoped to its owning user.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, tx_date, tx_type, category, amount, notes
		 FROM transactions WHERE user_id = ? AND id = ?`,
		userID, id)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// UpdateTransaction overwrites the row identified by the transaction's stable
// id, scoped to the owning user. Missing rows (or rows belonging to another
// user) report ErrNotFound.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET tx_date = ?, tx_type = ?, category = ?, amount = ?, notes = ?
		 WHERE user_id = ? AND id = ?`,
		tx.Date.String(), string(tx.Type), tx.Category, tx.Amount.String(), tx.Notes,
		tx.UserID, tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction updated", "id", tx.ID, "user_id", tx.UserID)
	return nil
}

// DeleteTransaction removes exactly one row by id, scoped to the owning user.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = ? AND id = ?`,
		userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "user_id", userID)
	return nil
}

// AppendGoal inserts a goal and returns it with its assigned id. Goals have
// no update or delete path.
func (r *SQLiteRepository) AppendGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, name, target_amount, saved_amount, deadline)
		 VALUES (?, ?, ?, ?, ?)`,
		g.UserID, g.Name, g.Target.String(), g.Saved.String(), g.Deadline.String())
	if err != nil {
		return core.Goal{}, fmt.Errorf("append goal: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Goal{}, fmt.Errorf("append goal id: %w", err)
	}
	g.ID = id

	slog.InfoContext(ctx, "Goal saved",
		"id", g.ID,
		"user_id", g.UserID,
		"name", g.Name,
		"target", g.Target.String())

	return g, nil
}

// ListGoals returns the user's goals in insertion order.
func (r *SQLiteRepository) ListGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, target_amount, saved_amount, deadline
		 FROM goals WHERE user_id = ? ORDER BY id ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		var (
			g                      core.Goal
			target, saved, dueDate string
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &target, &saved, &dueDate); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if g.Target, err = decimal.NewFromString(target); err != nil {
			return nil, fmt.Errorf("parse goal target %q: %w", target, err)
		}
		if g.Saved, err = decimal.NewFromString(saved); err != nil {
			return nil, fmt.Errorf("parse goal saved %q: %w", saved, err)
		}
		if g.Deadline, err = core.ParseDate(dueDate); err != nil {
			return nil, fmt.Errorf("parse goal deadline %q: %w", dueDate, err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list goals rows: %w", err)
	}

	return goals, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx                     core.Transaction
		txDate, txType, amount string
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &txDate, &txType, &tx.Category, &amount, &tx.Notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	var err error
	if tx.Date, err = core.ParseDate(txDate); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date %q: %w", txDate, err)
	}
	tx.Type = core.TransactionType(txType)
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction amount %q: %w", amount, err)
	}

	return tx, nil
}
