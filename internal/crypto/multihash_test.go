package crypto

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethCrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiHashRoundTrip(t *testing.T) {
	blob, err := EncodeMultiHash(AlgorithmEIP712, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 3, 1, 2, 3}, blob)

	alg, data, err := DecodeMultiHash(blob)
	require.NoError(t, err)
	assert.Equal(t, AlgorithmEIP712, alg)
	assert.Equal(t, []byte{1, 2, 3}, data)
}

func TestDecodeMultiHashRejectsBadLength(t *testing.T) {
	_, _, err := DecodeMultiHash([]byte{0})
	assert.ErrorIs(t, err, ErrMalformedMultiHash)

	_, _, err = DecodeMultiHash([]byte{0, 3, 1})
	assert.ErrorIs(t, err, ErrMalformedMultiHash)

	_, err = EncodeMultiHash(AlgorithmEthereum, make([]byte, 256))
	assert.ErrorIs(t, err, ErrMalformedMultiHash)
}

func TestVerifySignatureBothAlgorithms(t *testing.T) {
	key, err := KeyFromSeed("alice")
	require.NoError(t, err)
	signer := AddressOf(key)
	hash := gethCrypto.Keccak256Hash([]byte("order"))
	v := NewMultiHashVerifier()

	for _, alg := range []SignAlgorithm{AlgorithmEthereum, AlgorithmEIP712} {
		t.Run(alg.String(), func(t *testing.T) {
			blob, err := v.Sign(alg, hash, key)
			require.NoError(t, err)
			assert.Equal(t, byte(alg), blob[0])
			assert.True(t, v.VerifySignature(signer, hash, blob))

			other := gethCrypto.Keccak256Hash([]byte("other order"))
			assert.False(t, v.VerifySignature(signer, other, blob))
			assert.False(t, v.VerifySignature(common.HexToAddress("0x01"), hash, blob))
		})
	}
}

func TestAlgorithmsUseDistinctDigests(t *testing.T) {
	key, err := KeyFromSeed("bob")
	require.NoError(t, err)
	hash := gethCrypto.Keccak256Hash([]byte("order"))
	v := NewMultiHashVerifier()

	blob, err := v.Sign(AlgorithmEthereum, hash, key)
	require.NoError(t, err)
	// Relabel an eth_sign signature as EIP-712: it must no longer verify.
	blob[0] = byte(AlgorithmEIP712)
	assert.False(t, v.VerifySignature(AddressOf(key), hash, blob))
}

func TestVerifySignatureRejectsNoneAndGarbage(t *testing.T) {
	key, err := KeyFromSeed("carol")
	require.NoError(t, err)
	hash := gethCrypto.Keccak256Hash([]byte("order"))
	v := NewMultiHashVerifier()

	_, err = v.Sign(AlgorithmNone, hash, key)
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)

	none, err := EncodeMultiHash(AlgorithmNone, nil)
	require.NoError(t, err)
	assert.False(t, v.VerifySignature(AddressOf(key), hash, none))
	assert.False(t, v.VerifySignature(AddressOf(key), hash, nil))
	assert.False(t, v.VerifySignature(AddressOf(key), hash, []byte{0, 65}))
}

func TestKeyFromSeedIsDeterministic(t *testing.T) {
	k1, err := KeyFromSeed("miner")
	require.NoError(t, err)
	k2, err := KeyFromSeed("miner")
	require.NoError(t, err)
	k3, err := KeyFromSeed("wallet")
	require.NoError(t, err)

	assert.Equal(t, AddressOf(k1), AddressOf(k2))
	assert.NotEqual(t, AddressOf(k1), AddressOf(k3))

	_, err = KeyFromSeed("")
	assert.ErrorIs(t, err, ErrEmptySeed)
}

func TestKeyFromHex(t *testing.T) {
	key, err := KeyFromSeed("dave")
	require.NoError(t, err)
	hexKey := "0x" + common.Bytes2Hex(gethCrypto.FromECDSA(key))

	parsed, err := KeyFromHex(hexKey)
	require.NoError(t, err)
	assert.Equal(t, AddressOf(key), AddressOf(parsed))
}
