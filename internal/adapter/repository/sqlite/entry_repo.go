package sqlite

import (
	"context"
	"database/sql"
	"iter"
	"strings"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

const entryColumns = `id, created_at, actor_id, actor_name, kind, category, account, amount, currency, note, pair_id`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db DB
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Append inserts entry and sets its ID.
func (r *EntryRepository) Append(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	res, err := conn(r.db, tx).ExecContext(ctx, `
		INSERT INTO entries (created_at, actor_id, actor_name, kind, category, account, amount, currency, note, pair_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(entry.CreatedAt),
		entry.Actor.ID,
		entry.Actor.Name,
		string(entry.Kind),
		entry.Category,
		entry.Account,
		entry.Amount.String(),
		entry.Currency,
		entry.Note,
		entry.PairID,
	)
	if err != nil {
		return domain.StorageError("append entry", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.StorageError("append entry", err)
	}
	entry.ID = id

	return nil
}

// Query streams entries in id order. The single connection stays busy until
// the range finishes, so callers must not issue other queries while ranging.
func (r *EntryRepository) Query(ctx context.Context, tx usecase.Transaction, filter domain.EntryFilter) iter.Seq2[*domain.Entry, error] {
	query, args := buildEntryQuery(filter)

	return func(yield func(*domain.Entry, error) bool) {
		rows, err := conn(r.db, tx).QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, domain.StorageError("query entries", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanEntry(rows)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, domain.StorageError("query entries", err))
		}
	}
}

// LockAccount is a no-op: SQLite serialises writers on the database file and
// the pool holds a single connection.
func (r *EntryRepository) LockAccount(context.Context, usecase.Transaction, string) error {
	return nil
}

func buildEntryQuery(filter domain.EntryFilter) (string, []any) {
	var (
		where []string
		args  []any
	)

	if filter.Account != "" {
		where = append(where, "account = ?")
		args = append(args, filter.Account)
	}
	if len(filter.Kinds) > 0 {
		marks := make([]string, len(filter.Kinds))
		for i, k := range filter.Kinds {
			marks[i] = "?"
			args = append(args, string(k))
		}
		where = append(where, "kind IN ("+strings.Join(marks, ", ")+")")
	}
	if !filter.From.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, formatTime(filter.From))
	}
	if !filter.To.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, formatTime(filter.To))
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + entryColumns + " FROM entries")
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY id")

	return sb.String(), args
}

func scanEntry(rows *sql.Rows) (*domain.Entry, error) {
	var (
		e       domain.Entry
		created string
		kind    string
		amount  string
	)

	err := rows.Scan(
		&e.ID,
		&created,
		&e.Actor.ID,
		&e.Actor.Name,
		&kind,
		&e.Category,
		&e.Account,
		&amount,
		&e.Currency,
		&e.Note,
		&e.PairID,
	)
	if err != nil {
		return nil, domain.StorageError("scan entry", err)
	}

	if e.CreatedAt, err = parseTime(created); err != nil {
		return nil, domain.StorageError("scan entry", err)
	}
	if e.Amount, err = parseDecimal(amount); err != nil {
		return nil, domain.StorageError("scan entry", err)
	}
	e.Kind = domain.Kind(kind)

	return &e, nil
}
