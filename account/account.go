// Package account implements the modular bound account: an enumerable set of
// installed modules owned by the account record, with one permanent
// validator module that gates every operation.
package account

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/pflow-xyz/go-tokenbound/chain"
)

var (
	// ErrNoValidator is returned when constructing an account without a
	// validator module.
	ErrNoValidator = errors.New("account: validator module required")

	// ErrUninstallRejected is returned by any attempt to remove the
	// validator module, for any caller, at any time.
	ErrUninstallRejected = errors.New("account: validator module cannot be uninstalled")

	// ErrModuleInstalled is returned when installing a module whose id is
	// already present.
	ErrModuleInstalled = errors.New("account: module already installed")

	// ErrModuleNotFound is returned when uninstalling an unknown module.
	ErrModuleNotFound = errors.New("account: module not installed")

	// ErrUnauthorized is returned by Execute when the validator rejects
	// the operation's signer.
	ErrUnauthorized = errors.New("account: operation not authorized")
)

// Result is the outcome of operation validation. Rejection is a routine,
// explicit outcome rather than an error.
type Result int

const (
	// ValidationSucceeded means the operation's signer is the current
	// owner of the controlling token.
	ValidationSucceeded Result = iota

	// ValidationFailed means signature recovery failed or the signer is
	// not the current owner.
	ValidationFailed
)

// Verdict is the outcome of signature validation, mirroring the ERC-1271
// magic-value convention.
type Verdict uint32

const (
	// SignatureValid is the positive magic value.
	SignatureValid Verdict = 0x1626ba7e

	// SignatureInvalid is the explicit invalid marker.
	SignatureInvalid Verdict = 0xffffffff
)

// Module is an installable capability on an account.
type Module interface {
	// ID returns the module's stable identifier.
	ID() string

	// OnInstall is called when the module is added to an account.
	OnInstall(data []byte) error

	// OnUninstall is called when the module is removed. The validator
	// module always fails this call.
	OnUninstall() error
}

// OperationValidator is the module that authorizes operations and
// signatures against live token ownership.
type OperationValidator interface {
	Module

	// ValidateOperation authorizes op against ownership at validation
	// time, never against ownership at signing time.
	ValidateOperation(op Operation, opHash chain.Hash) Result

	// ValidateSignature checks a signature over hash against the current
	// token owner.
	ValidateSignature(sender chain.Address, hash chain.Hash, sig []byte) Verdict
}

// Account is a modular account bound to a controlling token through its
// validator. The module set is owned exclusively by the account and mutated
// only through Install, Uninstall and Reset.
type Account struct {
	addr      chain.Address
	validator OperationValidator

	mu      sync.RWMutex
	modules map[string]Module // extras only; the validator is pinned
}

// New creates an account at addr with its validator installed. The
// validator binding is set exactly once here and never changes.
func New(addr chain.Address, v OperationValidator, initData []byte) (*Account, error) {
	if v == nil {
		return nil, ErrNoValidator
	}
	if err := v.OnInstall(initData); err != nil {
		return nil, fmt.Errorf("account: validator install: %w", err)
	}
	return &Account{
		addr:      addr,
		validator: v,
		modules:   make(map[string]Module),
	}, nil
}

// Address returns the account's address.
func (a *Account) Address() chain.Address {
	return a.addr
}

// Validator returns the pinned validator module.
func (a *Account) Validator() OperationValidator {
	return a.validator
}

// Install adds a module to the account.
func (a *Account) Install(m Module, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := m.ID()
	if id == a.validator.ID() {
		return fmt.Errorf("%w: %s", ErrModuleInstalled, id)
	}
	if _, ok := a.modules[id]; ok {
		return fmt.Errorf("%w: %s", ErrModuleInstalled, id)
	}
	if err := m.OnInstall(data); err != nil {
		return fmt.Errorf("account: install %s: %w", id, err)
	}
	a.modules[id] = m
	return nil
}

// Uninstall removes a module by id. Removing the validator always fails
// with ErrUninstallRejected.
func (a *Account) Uninstall(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id == a.validator.ID() {
		return ErrUninstallRejected
	}
	m, ok := a.modules[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrModuleNotFound, id)
	}
	if err := m.OnUninstall(); err != nil {
		return fmt.Errorf("account: uninstall %s: %w", id, err)
	}
	delete(a.modules, id)
	return nil
}

// Modules returns the sorted ids of all installed modules. The validator is
// always present.
func (a *Account) Modules() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]string, 0, len(a.modules)+1)
	ids = append(ids, a.validator.ID())
	for id := range a.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasModule reports whether a module with the given id is installed.
func (a *Account) HasModule(id string) bool {
	if id == a.validator.ID() {
		return true
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.modules[id]
	return ok
}

// Reset removes every module except the validator and returns the removed
// ids, sorted. The wipe is unconditional: module uninstall hooks run but
// cannot veto removal. Reset is invoked by the transfer pipeline after an
// ownership change.
func (a *Account) Reset() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	removed := make([]string, 0, len(a.modules))
	for id, m := range a.modules {
		m.OnUninstall() // hook only; removal is not negotiable
		removed = append(removed, id)
		delete(a.modules, id)
	}
	sort.Strings(removed)
	return removed
}

// Execute validates op against live token ownership and, when authorized,
// performs its value transfer from the account. The validation outcome is
// computed at execution time: an operation signed by a previous owner fails
// here even if it was valid when signed.
func (a *Account) Execute(env *chain.Env, op Operation) error {
	opHash := HashOperation(env.ChainID(), a.addr, op)
	if a.validator.ValidateOperation(op, opHash) != ValidationSucceeded {
		return ErrUnauthorized
	}
	if op.Value != nil && !op.Value.IsZero() {
		if err := env.Transfer(a.addr, op.Target, op.Value); err != nil {
			return err
		}
	}
	return nil
}

// IsValidSignature checks a signature over hash via the validator.
func (a *Account) IsValidSignature(sender chain.Address, hash chain.Hash, sig []byte) Verdict {
	return a.validator.ValidateSignature(sender, hash, sig)
}
