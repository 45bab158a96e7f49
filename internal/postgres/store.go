package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ariefcatur/greengrove-market/internal/market"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool    *pgxpool.Pool
	catalog *CatalogRepo
	ledger  *LedgerRepo
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:    pool,
		catalog: &CatalogRepo{db: pool},
		ledger:  &LedgerRepo{db: pool},
	}
}

func (s *Store) Catalog() market.CatalogStore { return s.catalog }
func (s *Store) Ledger() market.LedgerStore   { return s.ledger }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return market.StorageErr("ping", err)
	}
	return nil
}

type txRepos struct {
	catalog *CatalogRepo
	ledger  *LedgerRepo
}

func (t txRepos) Catalog() market.CatalogStore { return t.catalog }
func (t txRepos) Ledger() market.LedgerStore   { return t.ledger }

// WithinTx runs fn at READ COMMITTED; consistency for stock and payment
// updates comes from the FOR UPDATE row locks taken inside fn.
func (s *Store) WithinTx(ctx context.Context, fn func(tx market.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return classify("begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(txRepos{catalog: &CatalogRepo{db: tx}, ledger: &LedgerRepo{db: tx}}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return classify("commit", err)
	}
	return nil
}

// classify maps driver errors into the market error kinds.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%w: %s", market.ErrReferenceNotFound, pgErr.ConstraintName)
		case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
			return fmt.Errorf("%w: %s", market.ErrConstraint, pgErr.ConstraintName)
		case pgerrcode.NumericValueOutOfRange:
			return fmt.Errorf("%w: %s", market.ErrOutOfRange, op)
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", market.ErrDuplicate, pgErr.ConstraintName)
		case pgerrcode.DeadlockDetected, pgerrcode.SerializationFailure, pgerrcode.LockNotAvailable:
			return fmt.Errorf("%w: %s", market.ErrConcurrentUpdate, op)
		}
	}
	return market.StorageErr(op, err)
}

// notFound returns sentinel for pgx.ErrNoRows and classifies anything else.
func notFound(op string, err error, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return classify(op, err)
}

// where accumulates AND-ed conditions with positional arguments.
// Each cond uses a single ? that is rewritten to the next $n.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.Replace(cond, "?", "$"+strconv.Itoa(len(w.args)), 1))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *where) page(p market.Page) string {
	if p.Limit <= 0 {
		p = market.NewPage(1, 0)
	}
	w.args = append(w.args, p.Limit, p.Offset)
	n := len(w.args)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n-1, n)
}

// sets builds an UPDATE ... SET list the same way.
type sets struct {
	cols []string
	args []any
}

func (s *sets) add(col string, arg any) {
	s.args = append(s.args, arg)
	s.cols = append(s.cols, col+" = $"+strconv.Itoa(len(s.args)))
}

func (s *sets) exec(ctx context.Context, db querier, table string, id int64) (int64, error) {
	if len(s.cols) == 0 {
		return 0, nil
	}
	s.args = append(s.args, id)
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(s.cols, ", "), len(s.args))
	tag, err := db.Exec(ctx, sql, s.args...)
	if err != nil {
		return 0, classify("update "+table, err)
	}
	return tag.RowsAffected(), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func collect[T any](rows pgx.Rows, op string, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}
