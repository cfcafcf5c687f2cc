// Package builders provides fluent order and batch builders for testing.
//
// # Order Builder
//
// Create orders trading tokenS for tokenB:
//
//	// Sell 100 LRC for 10 WETH, paying a flat 1 LRC fee
//	Order(alice).
//	    Sell(lrc, Tokens(100)).
//	    Buy(weth, Tokens(10)).
//	    Fee(lrc, Tokens(1)).
//	    Build()
//
//	// Peer-to-peer order paying 2.5% of tokenS through a wallet
//	Order(bob).
//	    Sell(weth, Tokens(10)).
//	    Buy(lrc, Tokens(100)).
//	    P2P(25, 0).
//	    Wallet(wallet, 100).
//	    Build()
//
// Orders are built unhashed and unsigned; the test environment hashes and
// signs them under its domain.
//
// # Batch Builder
//
// Group orders into rings together with the expected fill of each order:
//
//	Batch("two-order ring").
//	    Miner(miner).
//	    Ring(Fill(a, "1"), Fill(b, "1")).
//	    Build()
//
// Orders shared between rings are stored once in the batch.
package builders
