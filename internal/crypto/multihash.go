package crypto

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/LeJamon/goRingSim/internal/crypto/algorithms/secp256k1"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrMalformedMultiHash is returned when a signature blob cannot be decoded.
	ErrMalformedMultiHash = errors.New("malformed multihash signature")
	// ErrUnsupportedAlgorithm is returned for algorithms without a provider.
	ErrUnsupportedAlgorithm = errors.New("unsupported signature algorithm")
)

// EncodeMultiHash packs a signature as [algorithm][length][data].
func EncodeMultiHash(algorithm SignAlgorithm, sig []byte) ([]byte, error) {
	if len(sig) > 0xff {
		return nil, fmt.Errorf("%w: signature of %d bytes", ErrMalformedMultiHash, len(sig))
	}
	out := make([]byte, 0, len(sig)+2)
	out = append(out, byte(algorithm), byte(len(sig)))
	return append(out, sig...), nil
}

// DecodeMultiHash splits a signature blob into its algorithm and data.
func DecodeMultiHash(blob []byte) (SignAlgorithm, []byte, error) {
	if len(blob) < 2 {
		return 0, nil, ErrMalformedMultiHash
	}
	size := int(blob[1])
	if len(blob) != size+2 {
		return 0, nil, fmt.Errorf("%w: declared %d bytes, have %d", ErrMalformedMultiHash, size, len(blob)-2)
	}
	return SignAlgorithm(blob[0]), blob[2:], nil
}

// MultiHashVerifier verifies multihash signature blobs.
type MultiHashVerifier struct {
	wrappers map[SignAlgorithm]*CryptoWrapper
}

// NewMultiHashVerifier returns a verifier supporting eth_sign and EIP-712 signatures.
func NewMultiHashVerifier() *MultiHashVerifier {
	provider := secp256k1.NewSECP256K1Provider()
	return &MultiHashVerifier{
		wrappers: map[SignAlgorithm]*CryptoWrapper{
			AlgorithmEthereum: NewEthereumWrapper(provider),
			AlgorithmEIP712:   NewEIP712Wrapper(provider),
		},
	}
}

// VerifySignature reports whether blob is a valid signature by signer over hash.
// Malformed blobs and unknown algorithms never verify.
func (v *MultiHashVerifier) VerifySignature(signer common.Address, hash common.Hash, blob []byte) bool {
	algorithm, sig, err := DecodeMultiHash(blob)
	if err != nil {
		return false
	}
	w, ok := v.wrappers[algorithm]
	if !ok {
		return false
	}
	return w.Verify(signer, hash, sig)
}

// Sign signs hash with key and returns the multihash blob.
func (v *MultiHashVerifier) Sign(algorithm SignAlgorithm, hash common.Hash, key *ecdsa.PrivateKey) ([]byte, error) {
	w, ok := v.wrappers[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}
	sig, err := w.Sign(hash, key)
	if err != nil {
		return nil, err
	}
	return EncodeMultiHash(algorithm, sig)
}
