package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // postgres driver
	"github.com/shopspring/decimal"

	"financas/internal/core"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store over a shared Postgres database, the
// deployment shape the schema started from.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunPostgresMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *core.User) (*core.User, error) {
	const query = `INSERT INTO usuario (nome, email, senha) VALUES ($1, $2, $3) RETURNING id`

	stored := *user
	if err := s.db.QueryRowContext(ctx, query, user.Name, user.Email, user.Password).Scan(&stored.ID); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &stored, nil
}

func (s *PostgresStore) FindUserByID(ctx context.Context, id int64) (*core.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, nome, email, senha FROM usuario WHERE id = $1`, id))
}

func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, nome, email, senha FROM usuario WHERE email = $1`, email))
}

func (s *PostgresStore) scanUser(row *sql.Row) (*core.User, error) {
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

func (s *PostgresStore) UserEmailExists(ctx context.Context, email string) (bool, error) {
	const query = `SELECT 1 FROM usuario WHERE email = $1 LIMIT 1`

	var one int
	err := s.db.QueryRowContext(ctx, query, email).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) SaveEntry(ctx context.Context, entry *core.Entry) (*core.Entry, error) {
	stored := *entry
	if entry.ID == 0 {
		const query = `INSERT INTO lancamento (descricao, mes, ano, valor, tipo, status, data_cadastro, usuario_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

		var registeredAt any
		if !entry.RegisteredAt.IsZero() {
			registeredAt = entry.RegisteredAt
		}
		err := s.db.QueryRowContext(ctx, query,
			entry.Description, entry.Month, entry.Year, entry.Amount.String(),
			string(entry.Type), string(entry.Status), registeredAt, entry.User.ID,
		).Scan(&stored.ID)
		if err != nil {
			return nil, fmt.Errorf("insert entry: %w", err)
		}
		return &stored, nil
	}

	const query = `UPDATE lancamento
	 SET descricao = $1, mes = $2, ano = $3, valor = $4, tipo = $5, status = $6, usuario_id = $7, exportado = FALSE
	 WHERE id = $8`

	_, err := s.db.ExecContext(ctx, query,
		entry.Description, entry.Month, entry.Year, entry.Amount.String(),
		string(entry.Type), string(entry.Status), entry.User.ID, entry.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	return &stored, nil
}

func (s *PostgresStore) DeleteEntry(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM lancamento WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

const pgEntryColumns = `l.id, l.descricao, l.mes, l.ano, l.valor::text, l.tipo, l.status, l.data_cadastro,
	u.id, u.nome, u.email, u.senha`

func (s *PostgresStore) FindEntryByID(ctx context.Context, id int64) (*core.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pgEntryColumns+`
		 FROM lancamento l JOIN usuario u ON u.id = l.usuario_id
		 WHERE l.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query entry: %w", err)
	}
	defer rows.Close()

	entries, err := collectPgEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (s *PostgresStore) FindEntries(ctx context.Context, filter core.EntryFilter) ([]core.Entry, error) {
	query := `SELECT ` + pgEntryColumns + `
	 FROM lancamento l JOIN usuario u ON u.id = l.usuario_id`
	where, args := pgFilterConditions(filter)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	return collectPgEntries(rows)
}

func pgFilterConditions(filter core.EntryFilter) ([]string, []any) {
	var (
		where []string
		args  []any
	)
	next := func() int { return len(args) + 1 }

	if filter.Description != "" {
		where = append(where, fmt.Sprintf("l.descricao ILIKE '%%' || $%d || '%%'", next()))
		args = append(args, filter.Description)
	}
	if filter.Month != 0 {
		where = append(where, fmt.Sprintf("l.mes = $%d", next()))
		args = append(args, filter.Month)
	}
	if filter.Year != 0 {
		where = append(where, fmt.Sprintf("l.ano = $%d", next()))
		args = append(args, filter.Year)
	}
	if filter.Type != "" {
		where = append(where, fmt.Sprintf("l.tipo = $%d", next()))
		args = append(args, string(filter.Type))
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("l.status = $%d", next()))
		args = append(args, string(filter.Status))
	}
	if filter.UserID != 0 {
		where = append(where, fmt.Sprintf("l.usuario_id = $%d", next()))
		args = append(args, filter.UserID)
	}
	return where, args
}

func (s *PostgresStore) SumEntries(ctx context.Context, userID int64, entryType core.EntryType, status core.EntryStatus) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(valor), 0)::text
	 FROM lancamento WHERE usuario_id = $1 AND tipo = $2 AND status = $3`

	var raw string
	if err := s.db.QueryRowContext(ctx, query, userID, string(entryType), string(status)).Scan(&raw); err != nil {
		return decimal.Zero, fmt.Errorf("sum amounts: %w", err)
	}
	total, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse aggregate %q: %w", raw, err)
	}
	return total, nil
}

func (s *PostgresStore) ListPendingExport(ctx context.Context, limit int) ([]core.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pgEntryColumns+`
		 FROM lancamento l JOIN usuario u ON u.id = l.usuario_id
		 WHERE NOT l.exportado AND l.status = $1
		 ORDER BY l.id LIMIT $2`, string(core.StatusSettled), limit)
	if err != nil {
		return nil, fmt.Errorf("query pending export: %w", err)
	}
	defer rows.Close()

	return collectPgEntries(rows)
}

func (s *PostgresStore) MarkExported(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE lancamento SET exportado = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

func collectPgEntries(rows *sql.Rows) ([]core.Entry, error) {
	var entries []core.Entry
	for rows.Next() {
		var (
			entry     core.Entry
			user      core.User
			rawAmount string
			rawDate   sql.NullTime
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
			entry.RegisteredAt = rawDate.Time
		}
		entry.User = &user
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}
