package chainstate

import (
	"context"
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Writer collects chain state updates and commits them atomically.
// The first invalid update is kept and returned by Commit.
type Writer struct {
	store *Store
	ops   []batchOp
	err   error
}

// NewWriter starts a new set of updates.
func (s *Store) NewWriter() *Writer {
	return &Writer{store: s}
}

func (w *Writer) put(key, value []byte) *Writer {
	w.ops = append(w.ops, batchOp{typ: opPut, key: key, value: value})
	return w
}

func (w *Writer) putAmount(key []byte, v *big.Int) *Writer {
	if w.err != nil {
		return w
	}
	val, err := encodeAmount(v)
	if err != nil {
		w.err = err
		return w
	}
	return w.put(key, val)
}

// SetBalance sets the fungible balance of owner.
func (w *Writer) SetBalance(token, owner common.Address, amount *big.Int) *Writer {
	return w.putAmount(balanceKey(token, owner), amount)
}

// SetAllowance sets what spender may transfer from owner.
func (w *Writer) SetAllowance(token, owner, spender common.Address, amount *big.Int) *Writer {
	return w.putAmount(allowanceKey(token, owner, spender), amount)
}

// SetTrancheBalance sets the tranche balance of owner.
func (w *Writer) SetTrancheBalance(token common.Address, tranche common.Hash, owner common.Address, amount *big.Int) *Writer {
	return w.putAmount(trancheBalanceKey(token, tranche, owner), amount)
}

// SetOperator authorises operator on every tranche of owner, or revokes it.
func (w *Writer) SetOperator(token, operator, owner common.Address, authorised bool) *Writer {
	return w.flag(operatorKey(token, operator, owner), authorised)
}

// SetTrancheOperator authorises operator on one tranche of owner, or revokes it.
func (w *Writer) SetTrancheOperator(token common.Address, tranche common.Hash, operator, owner common.Address, authorised bool) *Writer {
	return w.flag(trancheOperatorKey(token, tranche, operator, owner), authorised)
}

// RegisterBroker registers broker for owner. A zero interceptor means none.
func (w *Writer) RegisterBroker(owner, broker, interceptor common.Address) *Writer {
	return w.put(brokerKey(owner, broker), interceptor.Bytes())
}

// UnregisterBroker removes the registration of broker for owner.
func (w *Writer) UnregisterBroker(owner, broker common.Address) *Writer {
	return w.flag(brokerKey(owner, broker), false)
}

// SetInterceptorAllowance sets what interceptor lets broker spend for owner.
func (w *Writer) SetInterceptorAllowance(interceptor, owner, broker, token common.Address, amount *big.Int) *Writer {
	return w.putAmount(interceptorAllowanceKey(interceptor, owner, broker, token), amount)
}

// RegisterOrder records orderHash as pre-approved by broker.
func (w *Writer) RegisterOrder(broker common.Address, orderHash common.Hash) *Writer {
	return w.flag(registeredOrderKey(broker, orderHash), true)
}

// SubmitOrder records orderHash as submitted on-chain.
func (w *Writer) SubmitOrder(orderHash common.Hash) *Writer {
	return w.flag(submittedOrderKey(orderHash), true)
}

// SetBurnRate sets the packed burn rate of token.
func (w *Writer) SetBurnRate(token common.Address, packed uint32) *Writer {
	val := make([]byte, 4)
	binary.BigEndian.PutUint32(val, packed)
	return w.put(burnRateKey(token), val)
}

func (w *Writer) flag(key []byte, set bool) *Writer {
	if set {
		return w.put(key, []byte{1})
	}
	w.ops = append(w.ops, batchOp{typ: opDelete, key: key})
	return w
}

// Len returns the number of pending updates.
func (w *Writer) Len() int {
	return len(w.ops)
}

// Commit writes every pending update at once. Nothing is written when any
// update was invalid.
func (w *Writer) Commit(ctx context.Context) error {
	if w.err != nil {
		return w.err
	}
	if len(w.ops) == 0 {
		return nil
	}
	if err := w.store.db.batch(ctx, w.ops); err != nil {
		return err
	}
	w.store.logger.Debug("chain state updated", zap.Int("updates", len(w.ops)))
	w.ops = w.ops[:0]
	return nil
}
