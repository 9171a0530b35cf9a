// Package chain provides the address and hashing primitives shared by the
// token-bound account core, plus a minimal single-writer execution
// environment the factory and accounts run against.
package chain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// AddressLength is the byte length of an address.
const AddressLength = 20

// HashLength is the byte length of a keccak-256 digest.
const HashLength = 32

// Address is a 20-byte account identifier.
type Address [AddressLength]byte

// ZeroAddress is the all-zero address.
var ZeroAddress Address

// Hash is a 32-byte keccak-256 digest.
type Hash [HashLength]byte

// ZeroHash is the all-zero hash.
var ZeroHash Hash

// Hex returns the 0x-prefixed lowercase hex encoding of the address.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return a.Hex()
}

// IsZero reports whether the address is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// MarshalText encodes the address as 0x-prefixed hex.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText decodes a 0x-prefixed hex address.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses a hex address, with or without the 0x prefix.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(s, "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("chain: invalid address %q: %w", s, err)
	}
	if len(raw) != AddressLength {
		return a, fmt.Errorf("chain: invalid address length %d, want %d", len(raw), AddressLength)
	}
	copy(a[:], raw)
	return a, nil
}

// Hex returns the 0x-prefixed lowercase hex encoding of the hash.
func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

// String implements fmt.Stringer.
func (h Hash) String() string {
	return h.Hex()
}

// IsZero reports whether the hash is the zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// MarshalText encodes the hash as 0x-prefixed hex.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

// UnmarshalText decodes a 0x-prefixed hex hash.
func (h *Hash) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(string(text), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("chain: invalid hash %q: %w", s, err)
	}
	if len(raw) != HashLength {
		return fmt.Errorf("chain: invalid hash length %d, want %d", len(raw), HashLength)
	}
	copy(h[:], raw)
	return nil
}

// Keccak256 computes the legacy keccak-256 digest over the concatenation of
// the given byte slices.
func Keccak256(data ...[]byte) Hash {
	var h Hash
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	copy(h[:], d.Sum(nil))
	return h
}

// DeriveAddress computes the deterministic address of code deployed by
// deployer under the given salt. The derivation is a pure function of its
// inputs and is identical before and after deployment:
//
//	keccak256(0xff ‖ deployer ‖ salt ‖ codeHash)[12:]
func DeriveAddress(deployer Address, salt Hash, codeHash Hash) Address {
	var a Address
	h := Keccak256([]byte{0xff}, deployer[:], salt[:], codeHash[:])
	copy(a[:], h[12:])
	return a
}

// AddressFromBytes builds an address from the trailing 20 bytes of b.
func AddressFromBytes(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}
