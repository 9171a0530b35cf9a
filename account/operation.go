package account

import (
	"bytes"
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-tokenbound/chain"
)

// SignatureLength is the byte length of an operation signature:
// r (32) ‖ s (32) ‖ recovery id (1).
const SignatureLength = 65

// Operation is an authorization request against an account. The signature
// covers the operation hash; the signer is recovered at validation time and
// checked against live token ownership.
type Operation struct {
	Sender    chain.Address
	Target    chain.Address
	Value     *uint256.Int
	Data      []byte
	Nonce     uint64
	Signature []byte
}

// HashOperation computes the canonical keccak-256 hash of an operation for
// the given chain and account. Fields are length-stable or length-prefixed
// so distinct operations can never share an encoding.
func HashOperation(chainID uint64, acct chain.Address, op Operation) chain.Hash {
	var buf bytes.Buffer
	writeU64(&buf, chainID)
	buf.Write(acct[:])
	buf.Write(op.Sender[:])
	buf.Write(op.Target[:])
	value := op.Value
	if value == nil {
		value = new(uint256.Int)
	}
	v32 := value.Bytes32()
	buf.Write(v32[:])
	writeU64(&buf, op.Nonce)
	writeU64(&buf, uint64(len(op.Data)))
	buf.Write(op.Data)
	return chain.Keccak256(buf.Bytes())
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}
