package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	"financas/internal/core"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store over a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
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

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user *core.User) (*core.User, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO usuario (nome, email, senha) VALUES (?, ?, ?)",
		user.Name, user.Email, user.Password,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	stored := *user
	stored.ID = id
	return &stored, nil
}

func (s *SQLiteStore) FindUserByID(ctx context.Context, id int64) (*core.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, nome, email, senha FROM usuario WHERE id = ?", id))
}

func (s *SQLiteStore) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, nome, email, senha FROM usuario WHERE email = ?", email))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (s *SQLiteStore) UserEmailExists(ctx context.Context, email string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM usuario WHERE email = ? LIMIT 1", email).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return true, nil
}

// SaveEntry inserts when the entry has no id yet and updates the existing
// row otherwise. Updates reset the export flag so the worker picks up the
// new values.
func (s *SQLiteStore) SaveEntry(ctx context.Context, entry *core.Entry) (*core.Entry, error) {
	stored := *entry
	if entry.ID == 0 {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO lancamento (descricao, mes, ano, valor, tipo, status, data_cadastro, usuario_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.Description, entry.Month, entry.Year, entry.Amount.String(),
			string(entry.Type), string(entry.Status), formatDate(entry.RegisteredAt), entry.User.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("insert entry: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("entry id: %w", err)
		}
		stored.ID = id
		return &stored, nil
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE lancamento
		 SET descricao = ?, mes = ?, ano = ?, valor = ?, tipo = ?, status = ?, usuario_id = ?, exportado = 0
		 WHERE id = ?`,
		entry.Description, entry.Month, entry.Year, entry.Amount.String(),
		string(entry.Type), string(entry.Status), entry.User.ID, entry.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	return &stored, nil
}

func (s *SQLiteStore) DeleteEntry(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM lancamento WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

const sqliteEntryColumns = `l.id, l.descricao, l.mes, l.ano, l.valor, l.tipo, l.status, l.data_cadastro,
	u.id, u.nome, u.email, u.senha`

func (s *SQLiteStore) FindEntryByID(ctx context.Context, id int64) (*core.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteEntryColumns+`
		 FROM lancamento l JOIN usuario u ON u.id = l.usuario_id
		 WHERE l.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query entry: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query entry: %w", err)
		}
		return nil, nil
	}
	entry, err := scanEntry(rows)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *SQLiteStore) FindEntries(ctx context.Context, filter core.EntryFilter) ([]core.Entry, error) {
	query := `SELECT ` + sqliteEntryColumns + `
	 FROM lancamento l JOIN usuario u ON u.id = l.usuario_id`
	where, args := sqliteFilterConditions(filter)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// sqliteFilterConditions maps each set filter field to one predicate.
// Description is a case-insensitive substring match, everything else is
// exact.
func sqliteFilterConditions(filter core.EntryFilter) ([]string, []any) {
	var (
		where []string
		args  []any
	)
	if filter.Description != "" {
		where = append(where, "LOWER(l.descricao) LIKE '%' || LOWER(?) || '%'")
		args = append(args, filter.Description)
	}
	if filter.Month != 0 {
		where = append(where, "l.mes = ?")
		args = append(args, filter.Month)
	}
	if filter.Year != 0 {
		where = append(where, "l.ano = ?")
		args = append(args, filter.Year)
	}
	if filter.Type != "" {
		where = append(where, "l.tipo = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Status != "" {
		where = append(where, "l.status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.UserID != 0 {
		where = append(where, "l.usuario_id = ?")
		args = append(args, filter.UserID)
	}
	return where, args
}

// SumEntries aggregates amounts in Go with decimal arithmetic; SQLite's
// SUM over the TEXT column would go through floats.
func (s *SQLiteStore) SumEntries(ctx context.Context, userID int64, entryType core.EntryType, status core.EntryStatus) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT valor FROM lancamento WHERE usuario_id = ? AND tipo = ? AND status = ?",
		userID, string(entryType), string(status))
	if err != nil {
		return decimal.Zero, fmt.Errorf("query amounts: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scan amount: %w", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse stored amount %q: %w", raw, err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("iterate amounts: %w", err)
	}
	return total, nil
}

func (s *SQLiteStore) ListPendingExport(ctx context.Context, limit int) ([]core.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteEntryColumns+`
		 FROM lancamento l JOIN usuario u ON u.id = l.usuario_id
		 WHERE l.exportado = 0 AND l.status = ?
		 ORDER BY l.id LIMIT ?`, string(core.StatusSettled), limit)
	if err != nil {
		return nil, fmt.Errorf("query pending export: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (s *SQLiteStore) MarkExported(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE lancamento SET exportado = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

func collectEntries(rows *sql.Rows) ([]core.Entry, error) {
	var entries []core.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (*core.Entry, error) {
	var (
		entry     core.Entry
		user      core.User
		rawAmount string
		rawDate   sql.NullString
	)
	err := rows.Scan(
		&entry.ID, &entry.Description, &entry.Month, &entry.Year, &rawAmount,
		&entry.Type, &entry.Status, &rawDate,
		&user.ID, &user.Name, &user.Email, &user.Password,
	)
	if err != nil {
		return nil, fmt.Errorf("scan entry: %w", err)
	}

	entry.Amount, err = decimal.NewFromString(rawAmount)
	if err != nil {
		return nil, fmt.Errorf("parse stored amount %q: %w", rawAmount, err)
	}
	if rawDate.Valid {
		entry.RegisteredAt, _ = time.Parse("2006-01-02", rawDate.String)
	}
	entry.User = &user
	return &entry, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
