package vault_test

import (
	"context"
	"log/slog"
	"testing"

	vault "github.com/xraph/vault"
	"github.com/xraph/vault/authority"
	"github.com/xraph/vault/custody"
	"github.com/xraph/vault/store/memory"
	"github.com/xraph/vault/types"
)

// TestDocumentationExamples verifies that the examples in the package
// documentation compile and run against the memory store.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		auth := authority.NewStatic("addr:owner", "addr:operator")
		venue := custody.NewSim()

		v := vault.New(store,
			vault.WithLogger(slog.Default()),
			vault.WithAuthority(auth),
			vault.WithCustodyVenue(venue, "custody:prime-broker"),
			vault.WithDenom("uusdc"),
			vault.WithTreasury("addr:treasury"),
		)

		ctx := context.Background()
		if err := v.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer v.Stop()

		// A holder deposits 1,000 value units and receives shares.
		shares, err := v.Deposit(ctx, "addr:holder", types.Units(1000))
		if err != nil {
			t.Fatal(err)
		}
		if !shares.IsPositive() {
			t.Fatal("expected minted shares")
		}

		// The holder queues a withdrawal of half the position.
		seq, err := v.RequestWithdrawal(ctx, "addr:holder", shares.QuoRaw(2))
		if err != nil {
			t.Fatal(err)
		}

		// The operator reports yield realized at the custody venue.
		if _, err := v.ReportYieldAndCollectFees(ctx, "addr:owner", types.Units(50)); err != nil {
			t.Fatal(err)
		}

		// Before the cooldown elapses the queue does not move.
		res, err := v.FulfillWithdrawals(ctx, "addr:operator", 10)
		if err != nil {
			t.Fatal(err)
		}
		if res.Processed != 0 {
			t.Fatalf("expected cooldown to hold request %d", seq)
		}

		stats, err := v.Stats(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if stats.QueueDepth != 1 {
			t.Fatalf("queue depth: got %d, want 1", stats.QueueDepth)
		}
	})

	t.Run("QuoteExample", func(t *testing.T) {
		v := vault.New(memory.New())
		ctx := context.Background()
		if err := v.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer v.Stop()

		shares, err := v.ConvertToShares(ctx, types.Units(100))
		if err != nil {
			t.Fatal(err)
		}
		if types.FormatUnits(shares) != "100.000000000000000000" {
			t.Fatalf("quote: got %s", types.FormatUnits(shares))
		}
	})
}
