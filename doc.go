// Package vault provides a custodial accounting engine for pooled-capital
// savings products.
//
// Vault is designed as a library, not a service. Import it directly into your
// Go application. It provides:
//
//   - NAV and share-price accounting with 18-decimal fixed-point math
//   - Share minting on deposit at the current price, with per-user and
//     global capacity caps
//   - An asynchronous FIFO withdrawal queue with share escrow, cooldown
//     enforcement and graceful liquidity degradation
//   - Profit-only performance fees gated by a price high-water mark
//   - Bounded yield reporting from an external custody venue
//   - Timelocked governance for high-blast-radius parameters
//   - Pluggable hooks for metrics, audit trails and reconciliation
//
// # Quick Start
//
// Create a vault instance with your preferred store:
//
//	import (
//	    "github.com/xraph/vault"
//	    "github.com/xraph/vault/store/postgres"
//	)
//
//	store, err := postgres.New(databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	v := vault.New(store,
//	    vault.WithDenom("usdc"),
//	    vault.WithTreasury("acct:treasury"),
//	)
//
//	if err := v.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer v.Stop()
//
// # Core Concepts
//
// Deposits mint shares at the current share price:
//
//	shares, err := v.Deposit(ctx, "acct:alice", vault.Units(1_000))
//
// Withdrawals are asynchronous. Shares move into escrow when requested and
// burn at fulfillment time, paying out at the then-current price:
//
//	seq, err := v.RequestWithdrawal(ctx, "acct:alice", shares)
//	// ... after the cooldown elapses, an operator drains the queue:
//	res, err := v.FulfillWithdrawals(ctx, "acct:operator", 100)
//
// The owner reports custody yield, which moves the share price; performance
// fees are minted to the treasury only on gains above the high-water mark:
//
//	feeShares, err := v.ReportYieldAndCollectFees(ctx, "acct:owner", delta)
//
// # Accounting
//
// All value and share quantities are math.Int scaled to 18 decimals
// (vault.Precision). Every conversion rounds down, so rounding dust always
// accrues to the pool, never to the individual. Share price is defined as
// TotalAssets * Precision / TotalShares, with an empty pool priced at
// vault.InitialSharePrice.
//
// # TypeID
//
// Withdrawal requests and parameter changes carry TypeID identifiers:
//
//	wdr_01h2xcejqtf2nbrexx3vqjhp41  // Withdrawal request ID
//	chg_01h455vb4pex5vsknk084sn02q  // Parameter change ID
//
// The queue itself is keyed by dense uint64 sequence numbers; TypeIDs exist
// for external correlation and audit trails.
package vault
