package chainstate

import (
	"github.com/ethereum/go-ethereum/common"
)

// Key prefixes. Every key is a prefix byte followed by fixed-width fields.
const (
	prefixBalance              byte = 'b' // token | owner
	prefixAllowance            byte = 'a' // token | owner | spender
	prefixTrancheBalance       byte = 't' // token | tranche | owner
	prefixOperator             byte = 'o' // token | operator | owner
	prefixTrancheOperator      byte = 'p' // token | tranche | operator | owner
	prefixBroker               byte = 'k' // owner | broker
	prefixInterceptorAllowance byte = 'i' // interceptor | owner | broker | token
	prefixRegisteredOrder      byte = 'r' // broker | order hash
	prefixSubmittedOrder       byte = 's' // order hash
	prefixBurnRate             byte = 'u' // token
)

func makeKey(prefix byte, parts ...[]byte) []byte {
	n := 1
	for _, p := range parts {
		n += len(p)
	}
	key := make([]byte, 0, n)
	key = append(key, prefix)
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}

func balanceKey(token, owner common.Address) []byte {
	return makeKey(prefixBalance, token.Bytes(), owner.Bytes())
}

func allowanceKey(token, owner, spender common.Address) []byte {
	return makeKey(prefixAllowance, token.Bytes(), owner.Bytes(), spender.Bytes())
}

func trancheBalanceKey(token common.Address, tranche common.Hash, owner common.Address) []byte {
	return makeKey(prefixTrancheBalance, token.Bytes(), tranche.Bytes(), owner.Bytes())
}

func operatorKey(token, operator, owner common.Address) []byte {
	return makeKey(prefixOperator, token.Bytes(), operator.Bytes(), owner.Bytes())
}

func trancheOperatorKey(token common.Address, tranche common.Hash, operator, owner common.Address) []byte {
	return makeKey(prefixTrancheOperator, token.Bytes(), tranche.Bytes(), operator.Bytes(), owner.Bytes())
}

func brokerKey(owner, broker common.Address) []byte {
	return makeKey(prefixBroker, owner.Bytes(), broker.Bytes())
}

func interceptorAllowanceKey(interceptor, owner, broker, token common.Address) []byte {
	return makeKey(prefixInterceptorAllowance, interceptor.Bytes(), owner.Bytes(), broker.Bytes(), token.Bytes())
}

func registeredOrderKey(broker common.Address, orderHash common.Hash) []byte {
	return makeKey(prefixRegisteredOrder, broker.Bytes(), orderHash.Bytes())
}

func submittedOrderKey(orderHash common.Hash) []byte {
	return makeKey(prefixSubmittedOrder, orderHash.Bytes())
}

func burnRateKey(token common.Address) []byte {
	return makeKey(prefixBurnRate, token.Bytes())
}
