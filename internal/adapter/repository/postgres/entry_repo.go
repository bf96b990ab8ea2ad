package postgres

import (
	"context"
	"iter"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

const entryColumns = `id, created_at, actor_id, actor_name, kind, category, account, amount::text, currency, note, pair_id`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool DB
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool DB) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Append inserts entry and sets its ID.
func (r *EntryRepository) Append(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	err := conn(r.pool, tx).QueryRow(ctx, `
		INSERT INTO entries (created_at, actor_id, actor_name, kind, category, account, amount, currency, note, pair_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		timeToPgTimestamptz(entry.CreatedAt),
		entry.Actor.ID,
		entry.Actor.Name,
		string(entry.Kind),
		entry.Category,
		entry.Account,
		decimalToNumeric(entry.Amount),
		entry.Currency,
		entry.Note,
		entry.PairID,
	).Scan(&entry.ID)

	return domain.StorageError("append entry", err)
}

// Query streams entries in id order. Rows are read lazily; stopping the
// range early closes them.
func (r *EntryRepository) Query(ctx context.Context, tx usecase.Transaction, filter domain.EntryFilter) iter.Seq2[*domain.Entry, error] {
	sql, args := buildEntryQuery(filter)

	return func(yield func(*domain.Entry, error) bool) {
		rows, err := conn(r.pool, tx).Query(ctx, sql, args...)
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

// LockAccount takes a transaction-scoped advisory lock on the account.
func (r *EntryRepository) LockAccount(ctx context.Context, tx usecase.Transaction, accountID string) error {
	_, err := conn(r.pool, tx).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, accountID)
	return domain.StorageError("lock account", err)
}

func buildEntryQuery(filter domain.EntryFilter) (string, []any) {
	var (
		where []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Account != "" {
		where = append(where, "account = "+arg(filter.Account))
	}
	if len(filter.Kinds) > 0 {
		kinds := make([]string, len(filter.Kinds))
		for i, k := range filter.Kinds {
			kinds[i] = string(k)
		}
		where = append(where, "kind = ANY("+arg(kinds)+")")
	}
	if !filter.From.IsZero() {
		where = append(where, "created_at >= "+arg(filter.From.UTC()))
	}
	if !filter.To.IsZero() {
		where = append(where, "created_at <= "+arg(filter.To.UTC()))
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + entryColumns + " FROM entries")
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY id")

	return sb.String(), args
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var (
		e      domain.Entry
		kind   string
		amount string
	)

	err := row.Scan(
		&e.ID,
		&e.CreatedAt,
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

	e.CreatedAt = e.CreatedAt.UTC()
	e.Kind = domain.Kind(kind)
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, domain.StorageError("scan entry amount", err)
	}

	return &e, nil
}
