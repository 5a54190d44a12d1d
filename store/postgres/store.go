// Package postgres implements the vault store on PostgreSQL via Grove ORM.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cosmossdk.io/math"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/vault"
	"github.com/xraph/vault/account"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/paramchange"
	"github.com/xraph/vault/state"
	vaultstore "github.com/xraph/vault/store"
	"github.com/xraph/vault/withdrawal"
)

// compile-time interface check
var _ vaultstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("vault/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("vault/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== State ====================

func (s *Store) GetState(ctx context.Context) (*state.State, error) {
	m := new(stateModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", stateKey).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, vault.ErrStateNotInitialized
		}
		return nil, err
	}
	return fromStateModel(m)
}

// ==================== Accounts ====================

func (s *Store) GetAccount(ctx context.Context, address string) (*account.Account, error) {
	m := new(accountModel)
	err := s.pg.NewSelect(m).
		Where("address = $1", address).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, vault.ErrAccountNotFound
		}
		return nil, err
	}
	return fromAccountModel(m)
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	var models []accountModel
	q := s.pg.NewSelect(&models)

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("address ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*account.Account, len(models))
	for i := range models {
		a, err := fromAccountModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

func (s *Store) SumAccountShares(ctx context.Context) (math.Int, error) {
	// Quantities are TEXT columns, so the sum happens here rather than in
	// SQL. This is a reconciliation path, not a hot path.
	var models []accountModel
	if err := s.pg.NewSelect(&models).Scan(ctx); err != nil {
		return math.ZeroInt(), err
	}

	sum := math.ZeroInt()
	for i := range models {
		shares, err := parseInt(models[i].Shares)
		if err != nil {
			return math.ZeroInt(), err
		}
		sum = sum.Add(shares)
	}
	return sum, nil
}

// ==================== Withdrawal queue ====================

func (s *Store) GetWithdrawal(ctx context.Context, seq uint64) (*withdrawal.Request, error) {
	m := new(withdrawalModel)
	err := s.pg.NewSelect(m).
		Where("seq = $1", int64(seq)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, vault.ErrRequestNotFound
		}
		return nil, err
	}
	return fromWithdrawalModel(m)
}

func (s *Store) ListWithdrawals(ctx context.Context, opts withdrawal.ListOpts) ([]*withdrawal.Request, error) {
	var models []withdrawalModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Requester != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("requester = $%d", argIdx), opts.Requester)
	}
	if opts.Status != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("status = $%d", argIdx), string(opts.Status))
	}
	if opts.FromSeq > 0 {
		argIdx++
		q = q.Where(fmt.Sprintf("seq >= $%d", argIdx), int64(opts.FromSeq))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("seq ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*withdrawal.Request, len(models))
	for i := range models {
		r, err := fromWithdrawalModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) CountPendingByRequester(ctx context.Context, requester string) (int, error) {
	var n int64
	err := s.pg.NewRaw(`
		SELECT COUNT(*) FROM vault_withdrawals
		WHERE requester = $1 AND status = $2
	`, requester, string(withdrawal.StatusPending)).Scan(ctx, &n)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Store) PurgeWithdrawals(ctx context.Context, beforeSeq uint64) (int64, error) {
	res, err := s.pg.NewDelete((*withdrawalModel)(nil)).
		Where("seq < $1", int64(beforeSeq)).
		Where("status != $2", string(withdrawal.StatusPending)).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ==================== Parameter changes ====================

func (s *Store) GetParamChange(ctx context.Context, changeID id.ParamChangeID) (*paramchange.Change, error) {
	m := new(paramChangeModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", changeID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, vault.ErrChangeNotFound
		}
		return nil, err
	}
	return fromParamChangeModel(m)
}

func (s *Store) ListParamChanges(ctx context.Context, opts paramchange.ListOpts) ([]*paramchange.Change, error) {
	var models []paramChangeModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Status != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("status = $%d", argIdx), string(opts.Status))
	}
	if opts.Kind != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("kind = $%d", argIdx), string(opts.Kind))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("queued_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*paramchange.Change, len(models))
	for i := range models {
		c, err := fromParamChangeModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

// ==================== Apply ====================

// Apply upserts every entity in the change set. The engine serializes units
// of work behind its writer lock, so records never race; each record is
// updated in place or inserted if absent.
//
// Grove exposes no transaction primitive, so ordering stands in for
// atomicity: the state row goes last. A crash before it leaves the previous
// state row authoritative, so the ledger never acts on counters whose backing
// account or queue rows are missing, and the conservation check surfaces any
// stranded partial write on restart. State first would instead persist e.g. a
// decremented pending-shares counter with the escrow balance untouched.
func (s *Store) Apply(ctx context.Context, cs *vaultstore.ChangeSet) error {
	for _, a := range cs.Accounts {
		if err := s.upsert(ctx, toAccountModel(a)); err != nil {
			return fmt.Errorf("vault/postgres: apply account %s: %w", a.Address, err)
		}
	}
	for _, r := range cs.Withdrawals {
		if err := s.upsert(ctx, toWithdrawalModel(r)); err != nil {
			return fmt.Errorf("vault/postgres: apply withdrawal %d: %w", r.Seq, err)
		}
	}
	for _, c := range cs.ParamChanges {
		if err := s.upsert(ctx, toParamChangeModel(c)); err != nil {
			return fmt.Errorf("vault/postgres: apply param change %s: %w", c.ID.String(), err)
		}
	}
	if cs.State != nil {
		if err := s.upsert(ctx, toStateModel(cs.State)); err != nil {
			return fmt.Errorf("vault/postgres: apply state: %w", err)
		}
	}
	return nil
}

// upsert updates by primary key, inserting when no row matched.
func (s *Store) upsert(ctx context.Context, m any) error {
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}
	_, err = s.pg.NewInsert(m).Exec(ctx)
	return err
}

// ==================== Helpers ====================

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func errMalformedQuantity(s string) error {
	return fmt.Errorf("vault/postgres: malformed quantity %q", s)
}
