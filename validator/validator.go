// Package validator implements the ownership validator module: an immutable
// per-account binding to a (collection, tokenId) pair that authorizes
// operations and signatures only for the token's current owner.
package validator

import (
	"errors"

	"github.com/pflow-xyz/go-tokenbound/account"
	"github.com/pflow-xyz/go-tokenbound/chain"
	"github.com/pflow-xyz/go-tokenbound/token"
)

// ModuleID is the validator's stable module identifier.
const ModuleID = "ownership-validator"

var (
	// ErrNilCollection is returned when constructing a validator without
	// a controlling collection.
	ErrNilCollection = errors.New("validator: nil token collection")

	// ErrBindingChanged is returned by Proxy.Upgrade when the replacement
	// implementation is bound to a different (collection, tokenId) pair.
	ErrBindingChanged = errors.New("validator: upgrade must preserve the controlling binding")
)

// Validator authorizes account operations against live token ownership.
// The binding is set exactly once at construction and never mutated; each
// account gets its own instance, so two collections can never be
// cross-validated against the wrong token.
type Validator struct {
	collection *token.Collection
	tokenID    uint64
}

// New creates a validator bound to tokenID in the given collection.
func New(collection *token.Collection, tokenID uint64) (*Validator, error) {
	if collection == nil {
		return nil, ErrNilCollection
	}
	return &Validator{collection: collection, tokenID: tokenID}, nil
}

// ID implements account.Module.
func (v *Validator) ID() string {
	return ModuleID
}

// OnInstall implements account.Module. The binding is fixed at
// construction; install data is accepted for interface compatibility and
// ignored.
func (v *Validator) OnInstall(data []byte) error {
	if v.collection == nil {
		return ErrNilCollection
	}
	return nil
}

// OnUninstall always fails: the validator can never be removed, by any
// owner, past or present.
func (v *Validator) OnUninstall() error {
	return account.ErrUninstallRejected
}

// Controller returns the bound (collection, tokenId) pair.
func (v *Validator) Controller() (*token.Collection, uint64) {
	return v.collection, v.tokenID
}

// ValidateOperation recovers the operation's signer and checks it against
// the token's owner at validation time. Ownership is read live from the
// collection, never cached and never taken from the operation, so a request
// signed before a transfer is rejected after it.
func (v *Validator) ValidateOperation(op account.Operation, opHash chain.Hash) account.Result {
	signer, err := RecoverSigner(opHash, op.Signature)
	if err != nil {
		return account.ValidationFailed
	}
	owner, err := v.collection.OwnerOf(v.tokenID)
	if err != nil {
		return account.ValidationFailed
	}
	if signer != owner {
		return account.ValidationFailed
	}
	return account.ValidationSucceeded
}

// ValidateSignature checks a signature over hash against the current token
// owner, returning the magic value on success and the explicit invalid
// marker otherwise.
func (v *Validator) ValidateSignature(sender chain.Address, hash chain.Hash, sig []byte) account.Verdict {
	signer, err := RecoverSigner(hash, sig)
	if err != nil {
		return account.SignatureInvalid
	}
	owner, err := v.collection.OwnerOf(v.tokenID)
	if err != nil {
		return account.SignatureInvalid
	}
	if signer != owner {
		return account.SignatureInvalid
	}
	return account.SignatureValid
}
