// Package testing provides test infrastructure for ring settlement testing.
//
// # Overview
//
// The testing package provides:
//   - TestEnv: A test environment backed by an in-memory chain state
//   - Account: Deterministic test accounts with secp256k1 keys
//   - Amount helpers: Functions for creating token amounts in base units
//   - ReportBuilder: Records execution reports from chain state changes
//   - Assertions: Test assertion helpers for common checks
//
// Orders and batches are built with the builders subpackage.
//
// # Basic Usage
//
//	func TestRing(t *testing.T) {
//	    env := testing.NewTestEnv(t)
//
//	    alice := testing.NewAccount("alice")
//	    bob := testing.NewAccount("bob")
//	    lrc, weth := testing.NewToken("LRC"), testing.NewToken("WETH")
//
//	    env.Fund(alice.Address, lrc, testing.Tokens(1000))
//	    env.Fund(bob.Address, weth, testing.Tokens(50))
//
//	    a := builders.Order(alice.Address).Sell(lrc, testing.Tokens(100)).Buy(weth, testing.Tokens(10)).Build()
//	    b := builders.Order(bob.Address).Sell(weth, testing.Tokens(10)).Buy(lrc, testing.Tokens(100)).Build()
//	    env.Sign(a, alice, crypto.AlgorithmEIP712)
//	    env.Submit(b)
//
//	    batch := builders.Batch("ring").Miner(miner).
//	        Ring(builders.Fill(a, "1"), builders.Fill(b, "1")).
//	        Build()
//
//	    rep := env.BeginReport()
//	    env.Transfer(alice.Address, bob.Address, lrc, testing.Tokens(100))
//	    env.Transfer(bob.Address, alice.Address, weth, testing.Tokens(10))
//	    rep.Filled(a, testing.Tokens(100)).Filled(b, testing.Tokens(10))
//
//	    res, err := env.Verify(batch, rep.Finish())
//	    testing.RequirePass(t, res, err)
//	}
//
// # TestEnv
//
// TestEnv owns a chain state store and the protocol configuration. The
// trade delegate and fee holder are fixed to TradeDelegate and FeeHolder.
//
//	env.Fund(acc, token, amount)            // balance plus delegate allowance
//	env.SetBalance(acc, token, amount)      // balance only
//	env.Approve(acc, token, amount)         // allowance only
//	env.SetBurnRate(token, p2p, standard)
//	env.RegisterBroker(owner, broker, interceptor)
//	env.Balance(acc, token)
//
// # Clock Control
//
// Orders are validated at the environment block timestamp:
//
//	env.AdvanceTime(10 * time.Second)
//	env.Now()  // Current block timestamp
package testing
