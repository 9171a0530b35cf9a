package validator

import (
	"sync"

	"github.com/pflow-xyz/go-tokenbound/account"
	"github.com/pflow-xyz/go-tokenbound/chain"
	"github.com/pflow-xyz/go-tokenbound/records"
	"github.com/pflow-xyz/go-tokenbound/token"
)

// Proxy is the swappable-implementation indirection for a validator: a
// stable module identity in front of a replaceable implementation. Every
// swap runs the binding-preservation check and emits an upgrade record; the
// bound (collection, tokenId) pair can never change through an upgrade.
type Proxy struct {
	mu   sync.RWMutex
	impl *Validator
	log  *records.Log
}

// NewProxy wraps an implementation. The record log may be nil.
func NewProxy(impl *Validator, log *records.Log) (*Proxy, error) {
	if impl == nil {
		return nil, ErrNilCollection
	}
	return &Proxy{impl: impl, log: log}, nil
}

// Implementation returns the current implementation.
func (p *Proxy) Implementation() *Validator {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.impl
}

// Upgrade swaps the implementation. The replacement must be bound to
// exactly the same (collection, tokenId) pair.
func (p *Proxy) Upgrade(next *Validator) error {
	if next == nil {
		return ErrNilCollection
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	curCol, curID := p.impl.Controller()
	nextCol, nextID := next.Controller()
	if nextCol != curCol || nextID != curID {
		return ErrBindingChanged
	}
	p.impl = next

	if p.log != nil {
		p.log.Append(records.New(records.KindValidatorUpgraded, curID, chain.ZeroAddress, chain.ZeroAddress).
			WithAttribute("module", ModuleID))
	}
	return nil
}

// ID implements account.Module with the proxy's stable identity.
func (p *Proxy) ID() string {
	return ModuleID
}

// OnInstall implements account.Module.
func (p *Proxy) OnInstall(data []byte) error {
	return p.Implementation().OnInstall(data)
}

// OnUninstall implements account.Module; it always fails, like the
// implementation it fronts.
func (p *Proxy) OnUninstall() error {
	return p.Implementation().OnUninstall()
}

// Controller returns the current implementation's binding.
func (p *Proxy) Controller() (*token.Collection, uint64) {
	return p.Implementation().Controller()
}

// ValidateOperation delegates to the current implementation.
func (p *Proxy) ValidateOperation(op account.Operation, opHash chain.Hash) account.Result {
	return p.Implementation().ValidateOperation(op, opHash)
}

// ValidateSignature delegates to the current implementation.
func (p *Proxy) ValidateSignature(sender chain.Address, hash chain.Hash, sig []byte) account.Verdict {
	return p.Implementation().ValidateSignature(sender, hash, sig)
}
