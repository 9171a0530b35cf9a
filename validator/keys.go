package validator

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/secp256k1/ecdsa"

	"github.com/pflow-xyz/go-tokenbound/account"
	"github.com/pflow-xyz/go-tokenbound/chain"
)

// ErrInvalidSignature is returned when a signature is malformed or does not
// recover to any public key.
var ErrInvalidSignature = errors.New("validator: invalid signature")

// GenerateKey creates a new secp256k1 keypair.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(rand.Reader)
}

// SignerAddress derives the 20-byte address of a public key:
// keccak256(x ‖ y)[12:].
func SignerAddress(pub *ecdsa.PublicKey) chain.Address {
	x := pub.A.X.Bytes()
	y := pub.A.Y.Bytes()
	h := chain.Keccak256(x[:], y[:])
	return chain.AddressFromBytes(h[12:])
}

// SignHash signs a 32-byte digest and encodes the signature as
// r (32) ‖ s (32) ‖ recovery id (1).
func SignHash(priv *ecdsa.PrivateKey, hash chain.Hash) ([]byte, error) {
	v, r, s, err := priv.SignForRecover(hash[:], nil)
	if err != nil {
		return nil, fmt.Errorf("validator: sign: %w", err)
	}
	sig := make([]byte, account.SignatureLength)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])
	sig[64] = byte(v)
	return sig, nil
}

// RecoverSigner recovers the address that signed the digest.
func RecoverSigner(hash chain.Hash, sig []byte) (chain.Address, error) {
	if len(sig) != account.SignatureLength {
		return chain.ZeroAddress, fmt.Errorf("%w: length %d, want %d", ErrInvalidSignature, len(sig), account.SignatureLength)
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	v := uint(sig[64])

	var pub ecdsa.PublicKey
	if err := pub.RecoverFrom(hash[:], v, r, s); err != nil {
		return chain.ZeroAddress, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return SignerAddress(&pub), nil
}

// SignOperation signs an operation's canonical hash and returns a copy of
// the operation with the signature attached.
func SignOperation(priv *ecdsa.PrivateKey, chainID uint64, acct chain.Address, op account.Operation) (account.Operation, error) {
	hash := account.HashOperation(chainID, acct, op)
	sig, err := SignHash(priv, hash)
	if err != nil {
		return op, err
	}
	op.Signature = sig
	return op, nil
}
