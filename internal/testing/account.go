package testing

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/LeJamon/goRingSim/internal/crypto"
	"github.com/ethereum/go-ethereum/common"
	gethCrypto "github.com/ethereum/go-ethereum/crypto"
)

// Account represents a test account with a deterministic secp256k1 key.
type Account struct {
	// Name is a human-readable identifier for the account (used for debugging).
	Name string

	// Key is the private key derived from Name.
	Key *ecdsa.PrivateKey

	// Address is the account address controlled by Key.
	Address common.Address
}

// NewAccount creates a new test account with a keypair derived from the name.
// Using the same name will always produce the same account, making tests
// reproducible.
func NewAccount(name string) *Account {
	key, err := crypto.KeyFromSeed(name)
	if err != nil {
		panic("failed to derive key for account " + name + ": " + err.Error())
	}
	return &Account{
		Name:    name,
		Key:     key,
		Address: crypto.AddressOf(key),
	}
}

// String returns the name and address of the account.
func (a *Account) String() string {
	return fmt.Sprintf("%s (%s)", a.Name, a.Address.Hex())
}

// NewToken returns a deterministic token contract address for symbol.
func NewToken(symbol string) common.Address {
	return common.BytesToAddress(gethCrypto.Keccak256([]byte("token:" + symbol))[12:])
}
