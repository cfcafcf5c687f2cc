package crypto

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"
	gethCrypto "github.com/ethereum/go-ethereum/crypto"
)

// ErrEmptySeed is returned when a key is requested for an empty seed.
var ErrEmptySeed = errors.New("empty key seed")

// KeyFromSeed derives a deterministic secp256k1 key from a human readable
// seed. Used to give fixture accounts stable addresses; never use it for
// real funds.
func KeyFromSeed(seed string) (*ecdsa.PrivateKey, error) {
	if seed == "" {
		return nil, ErrEmptySeed
	}
	digest := sha256.Sum256([]byte(seed))
	privKey, _ := btcec.PrivKeyFromBytes(digest[:])
	return gethCrypto.ToECDSA(privKey.Serialize())
}

// KeyFromHex parses a hex encoded private key with or without 0x prefix.
func KeyFromHex(hexKey string) (*ecdsa.PrivateKey, error) {
	return gethCrypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
}

// AddressOf returns the account address controlled by key.
func AddressOf(key *ecdsa.PrivateKey) common.Address {
	return gethCrypto.PubkeyToAddress(key.PublicKey)
}
