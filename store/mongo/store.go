// Package mongo implements the vault store on MongoDB via Grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"cosmossdk.io/math"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/vault"
	"github.com/xraph/vault/account"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/paramchange"
	"github.com/xraph/vault/state"
	vaultstore "github.com/xraph/vault/store"
	"github.com/xraph/vault/withdrawal"
)

// Collection name constants.
const (
	colState        = "vault_state"
	colAccounts     = "vault_accounts"
	colWithdrawals  = "vault_withdrawals"
	colParamChanges = "vault_param_changes"
)

// compile-time interface check
var _ vaultstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all vault collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("vault/mongo: migrate %s indexes: %w", col, err)
		}
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
	var m stateModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": stateKey}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, vault.ErrStateNotInitialized
		}
		return nil, fmt.Errorf("vault/mongo: get state: %w", err)
	}
	return fromStateModel(&m)
}

// ==================== Accounts ====================

func (s *Store) GetAccount(ctx context.Context, address string) (*account.Account, error) {
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": address}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, vault.ErrAccountNotFound
		}
		return nil, fmt.Errorf("vault/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	var models []accountModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vault/mongo: list accounts: %w", err)
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
	// Quantities are stored as strings, so the sum happens here rather than
	// in an aggregation pipeline. This is a reconciliation path.
	var models []accountModel
	if err := s.mdb.NewFind(&models).Filter(bson.M{}).Scan(ctx); err != nil {
		return math.ZeroInt(), fmt.Errorf("vault/mongo: sum shares: %w", err)
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
	var m withdrawalModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(seq)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, vault.ErrRequestNotFound
		}
		return nil, fmt.Errorf("vault/mongo: get withdrawal: %w", err)
	}
	return fromWithdrawalModel(&m)
}

func (s *Store) ListWithdrawals(ctx context.Context, opts withdrawal.ListOpts) ([]*withdrawal.Request, error) {
	var models []withdrawalModel

	filter := bson.M{}
	if opts.Requester != "" {
		filter["requester"] = opts.Requester
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if opts.FromSeq > 0 {
		filter["_id"] = bson.M{"$gte": int64(opts.FromSeq)}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vault/mongo: list withdrawals: %w", err)
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
	n, err := s.mdb.Collection(colWithdrawals).CountDocuments(ctx, bson.M{
		"requester": requester,
		"status":    string(withdrawal.StatusPending),
	})
	if err != nil {
		return 0, fmt.Errorf("vault/mongo: count pending: %w", err)
	}
	return int(n), nil
}

func (s *Store) PurgeWithdrawals(ctx context.Context, beforeSeq uint64) (int64, error) {
	res, err := s.mdb.NewDelete((*withdrawalModel)(nil)).
		Filter(bson.M{
			"_id":    bson.M{"$lt": int64(beforeSeq)},
			"status": bson.M{"$ne": string(withdrawal.StatusPending)},
		}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("vault/mongo: purge withdrawals: %w", err)
	}
	return res.DeletedCount(), nil
}

// ==================== Parameter changes ====================

func (s *Store) GetParamChange(ctx context.Context, changeID id.ParamChangeID) (*paramchange.Change, error) {
	var m paramChangeModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": changeID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, vault.ErrChangeNotFound
		}
		return nil, fmt.Errorf("vault/mongo: get param change: %w", err)
	}
	return fromParamChangeModel(&m)
}

func (s *Store) ListParamChanges(ctx context.Context, opts paramchange.ListOpts) ([]*paramchange.Change, error) {
	var models []paramChangeModel

	filter := bson.M{}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "queued_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vault/mongo: list param changes: %w", err)
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
// of work behind its writer lock, so documents never race. The state document
// is written last; see the postgres driver for the ordering rationale.
func (s *Store) Apply(ctx context.Context, cs *vaultstore.ChangeSet) error {
	for _, a := range cs.Accounts {
		m := toAccountModel(a)
		if err := s.upsert(ctx, m, bson.M{"_id": m.Address}); err != nil {
			return fmt.Errorf("vault/mongo: apply account %s: %w", a.Address, err)
		}
	}
	for _, r := range cs.Withdrawals {
		m := toWithdrawalModel(r)
		if err := s.upsert(ctx, m, bson.M{"_id": m.Seq}); err != nil {
			return fmt.Errorf("vault/mongo: apply withdrawal %d: %w", r.Seq, err)
		}
	}
	for _, c := range cs.ParamChanges {
		m := toParamChangeModel(c)
		if err := s.upsert(ctx, m, bson.M{"_id": m.ID}); err != nil {
			return fmt.Errorf("vault/mongo: apply param change %s: %w", c.ID.String(), err)
		}
	}
	if cs.State != nil {
		m := toStateModel(cs.State)
		if err := s.upsert(ctx, m, bson.M{"_id": m.ID}); err != nil {
			return fmt.Errorf("vault/mongo: apply state: %w", err)
		}
	}
	return nil
}

// upsert replaces by _id, inserting when no document matched.
func (s *Store) upsert(ctx context.Context, m any, filter bson.M) error {
	res, err := s.mdb.NewUpdate(m).
		Filter(filter).
		Exec(ctx)
	if err != nil {
		return err
	}
	if res.MatchedCount() > 0 {
		return nil
	}
	_, err = s.mdb.NewInsert(m).Exec(ctx)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		// Lost the insert race to an earlier retry of the same record.
		_, err = s.mdb.NewUpdate(m).Filter(filter).Exec(ctx)
	}
	return err
}

// ==================== Helpers ====================

// isNoDocuments checks for the driver's no-documents sentinel.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all vault collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colState: {},
		colAccounts: {
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colWithdrawals: {
			{Keys: bson.D{{Key: "requester", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colParamChanges: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "queued_at", Value: 1}}},
		},
	}
}
