package crypto

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
)

// SignAlgorithm identifies how a signature was produced.
type SignAlgorithm uint8

const (
	// AlgorithmEthereum signs keccak("\x19Ethereum Signed Message:\n32" || hash).
	AlgorithmEthereum SignAlgorithm = 0
	// AlgorithmEIP712 signs the typed data digest directly.
	AlgorithmEIP712 SignAlgorithm = 1
	// AlgorithmNone marks an unsigned order.
	AlgorithmNone SignAlgorithm = 255
)

func (a SignAlgorithm) String() string {
	switch a {
	case AlgorithmEthereum:
		return "ethereum"
	case AlgorithmEIP712:
		return "eip712"
	case AlgorithmNone:
		return "none"
	default:
		return "unknown"
	}
}

// ParseSignAlgorithm parses the name returned by SignAlgorithm.String.
func ParseSignAlgorithm(name string) (SignAlgorithm, error) {
	switch strings.ToLower(name) {
	case "", "ethereum":
		return AlgorithmEthereum, nil
	case "eip712":
		return AlgorithmEIP712, nil
	case "none":
		return AlgorithmNone, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
}

// SignatureProvider signs and recovers signatures over raw 32 byte digests.
type SignatureProvider interface {
	Sign(digest []byte, key *ecdsa.PrivateKey) ([]byte, error)
	RecoverSigner(digest, sig []byte) (common.Address, error)
}

// CryptoWrapper binds a provider to the digest scheme of one algorithm.
type CryptoWrapper struct {
	provider  SignatureProvider
	algorithm SignAlgorithm
}

func NewCryptoWrapper(provider SignatureProvider, algorithm SignAlgorithm) *CryptoWrapper {
	return &CryptoWrapper{
		provider:  provider,
		algorithm: algorithm,
	}
}

func (w *CryptoWrapper) Algorithm() SignAlgorithm {
	return w.algorithm
}

// Digest returns the bytes actually signed for hash.
func (w *CryptoWrapper) Digest(hash common.Hash) []byte {
	if w.algorithm == AlgorithmEthereum {
		return accounts.TextHash(hash.Bytes())
	}
	return hash.Bytes()
}

func (w *CryptoWrapper) Sign(hash common.Hash, key *ecdsa.PrivateKey) ([]byte, error) {
	return w.provider.Sign(w.Digest(hash), key)
}

// Verify reports whether sig over hash was produced by signer.
func (w *CryptoWrapper) Verify(signer common.Address, hash common.Hash, sig []byte) bool {
	recovered, err := w.provider.RecoverSigner(w.Digest(hash), sig)
	if err != nil {
		return false
	}
	return recovered == signer
}

// Helper constructors for specific algorithms
func NewEthereumWrapper(provider SignatureProvider) *CryptoWrapper {
	return NewCryptoWrapper(provider, AlgorithmEthereum)
}

func NewEIP712Wrapper(provider SignatureProvider) *CryptoWrapper {
	return NewCryptoWrapper(provider, AlgorithmEIP712)
}
