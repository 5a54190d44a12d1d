// Package sqlite implements the vault store on SQLite via Grove ORM.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cosmossdk.io/math"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
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

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("vault/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("vault/sqlite: migration failed: %w", err)
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
	err := s.sdb.NewSelect(m).
		Where("id = ?", stateKey).
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
	err := s.sdb.NewSelect(m).
		Where("address = ?", address).
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
	q := s.sdb.NewSelect(&models)

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
	var models []accountModel
	if err := s.sdb.NewSelect(&models).Scan(ctx); err != nil {
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
	err := s.sdb.NewSelect(m).
		Where("seq = ?", int64(seq)).
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
	q := s.sdb.NewSelect(&models)

	if opts.Requester != "" {
		q = q.Where("requester = ?", opts.Requester)
	}
	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.FromSeq > 0 {
		q = q.Where("seq >= ?", int64(opts.FromSeq))
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
	err := s.sdb.NewRaw(`
		SELECT COUNT(*) FROM vault_withdrawals
		WHERE requester = ? AND status = ?
	`, requester, string(withdrawal.StatusPending)).Scan(ctx, &n)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Store) PurgeWithdrawals(ctx context.Context, beforeSeq uint64) (int64, error) {
	res, err := s.sdb.NewDelete((*withdrawalModel)(nil)).
		Where("seq < ?", int64(beforeSeq)).
		Where("status != ?", string(withdrawal.StatusPending)).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ==================== Parameter changes ====================

func (s *Store) GetParamChange(ctx context.Context, changeID id.ParamChangeID) (*paramchange.Change, error) {
	m := new(paramChangeModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", changeID.String()).
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
	q := s.sdb.NewSelect(&models)

	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.Kind != "" {
		q = q.Where("kind = ?", string(opts.Kind))
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
// of work behind its writer lock, so records never race. The state row is
// written last; see the postgres driver for the ordering rationale.
func (s *Store) Apply(ctx context.Context, cs *vaultstore.ChangeSet) error {
	for _, a := range cs.Accounts {
		if err := s.upsert(ctx, toAccountModel(a)); err != nil {
			return fmt.Errorf("vault/sqlite: apply account %s: %w", a.Address, err)
		}
	}
	for _, r := range cs.Withdrawals {
		if err := s.upsert(ctx, toWithdrawalModel(r)); err != nil {
			return fmt.Errorf("vault/sqlite: apply withdrawal %d: %w", r.Seq, err)
		}
	}
	for _, c := range cs.ParamChanges {
		if err := s.upsert(ctx, toParamChangeModel(c)); err != nil {
			return fmt.Errorf("vault/sqlite: apply param change %s: %w", c.ID.String(), err)
		}
	}
	if cs.State != nil {
		if err := s.upsert(ctx, toStateModel(cs.State)); err != nil {
			return fmt.Errorf("vault/sqlite: apply state: %w", err)
		}
	}
	return nil
}

// upsert updates by primary key, inserting when no row matched.
func (s *Store) upsert(ctx context.Context, m any) error {
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
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
	_, err = s.sdb.NewInsert(m).Exec(ctx)
	return err
}

// ==================== Helpers ====================

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func errMalformedQuantity(s string) error {
	return fmt.Errorf("vault/sqlite: malformed quantity %q", s)
}
