package secp256k1

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	gethCrypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	// SignatureLength is the length of an [R || S || V] signature.
	SignatureLength = 65

	// legacyVOffset is added to the recovery id by eth_sign style signers.
	legacyVOffset = 27
)

// Common error definitions
var (
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrInvalidSignature  = errors.New("invalid signature format")
	ErrInvalidDigest     = errors.New("digest must be 32 bytes")
)

// SECP256K1SignatureProvider signs and recovers Ethereum style secp256k1
// signatures over 32 byte digests.
type SECP256K1SignatureProvider struct{}

func NewSECP256K1Provider() *SECP256K1SignatureProvider {
	return &SECP256K1SignatureProvider{}
}

// Sign produces a 65 byte [V || R || S] signature with V in {27, 28}.
func (p *SECP256K1SignatureProvider) Sign(digest []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	if key == nil {
		return nil, ErrInvalidPrivateKey
	}
	if len(digest) != 32 {
		return nil, ErrInvalidDigest
	}
	sig, err := gethCrypto.Sign(digest, key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest: %w", err)
	}
	out := make([]byte, SignatureLength)
	out[0] = sig[64] + legacyVOffset
	copy(out[1:], sig[:64])
	return out, nil
}

// RecoverSigner returns the address that produced sig over digest.
// sig is laid out as [V || R || S]; V may be 0/1 or 27/28.
func (p *SECP256K1SignatureProvider) RecoverSigner(digest, sig []byte) (common.Address, error) {
	if len(digest) != 32 {
		return common.Address{}, ErrInvalidDigest
	}
	if len(sig) != SignatureLength {
		return common.Address{}, ErrInvalidSignature
	}
	v := sig[0]
	if v >= legacyVOffset {
		v -= legacyVOffset
	}
	if v > 1 {
		return common.Address{}, ErrInvalidSignature
	}

	rsv := make([]byte, SignatureLength)
	copy(rsv, sig[1:])
	rsv[64] = v

	pub, err := gethCrypto.SigToPub(digest, rsv)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return gethCrypto.PubkeyToAddress(*pub), nil
}
