// Package token implements the unique-token collection the account core is
// bound to: an owner ledger with live ownership reads and an explicit,
// ordered pre/post transfer hook pipeline.
package token

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pflow-xyz/go-tokenbound/chain"
)

var (
	// ErrTokenExists is returned when minting an id that is already owned.
	ErrTokenExists = errors.New("token: token id already minted")

	// ErrUnknownToken is returned for reads and transfers of unminted ids.
	ErrUnknownToken = errors.New("token: unknown token id")

	// ErrNotOwner is returned when the transfer source does not own the
	// token.
	ErrNotOwner = errors.New("token: sender does not own token")

	// ErrZeroAddress is returned for mints and transfers targeting the
	// zero address.
	ErrZeroAddress = errors.New("token: zero address")

	// ErrNoMetadata is returned by Metadata when no provider is set.
	ErrNoMetadata = errors.New("token: no metadata provider")
)

// Attribute is a single metadata attribute of a token.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// MetadataProvider supplies token attributes. The account factory provides
// the required "Account Address" attribute.
type MetadataProvider interface {
	Metadata(tokenID uint64) ([]Attribute, error)
}

// TransferHook is a synchronous pipeline stage run around every transfer.
// Hooks run in registration order. A BeforeTransfer error rejects the
// transfer with ownership unchanged; AfterTransfer runs once ownership has
// already changed and cannot veto it.
type TransferHook interface {
	BeforeTransfer(tokenID uint64, from, to chain.Address) error
	AfterTransfer(tokenID uint64, from, to chain.Address)
}

// Collection is a unique-token ledger. Ownership reads are always live;
// nothing is cached.
type Collection struct {
	name   string
	symbol string

	mu       sync.RWMutex
	owners   map[uint64]chain.Address
	hooks    []TransferHook
	metadata MetadataProvider
}

// NewCollection creates an empty collection.
func NewCollection(name, symbol string) *Collection {
	return &Collection{
		name:   name,
		symbol: symbol,
		owners: make(map[uint64]chain.Address),
	}
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Symbol returns the collection symbol.
func (c *Collection) Symbol() string { return c.symbol }

// AddHook appends a transfer hook to the pipeline.
func (c *Collection) AddHook(h TransferHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, h)
}

// SetMetadataProvider sets the metadata provider.
func (c *Collection) SetMetadataProvider(p MetadataProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metadata = p
}

// Mint assigns an unowned token id to an owner.
func (c *Collection) Mint(to chain.Address, tokenID uint64) error {
	if to.IsZero() {
		return ErrZeroAddress
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.owners[tokenID]; ok {
		return fmt.Errorf("%w: %d", ErrTokenExists, tokenID)
	}
	c.owners[tokenID] = to
	return nil
}

// Burn removes a minted token. Only the current owner's token can be
// burned. No hooks run: burning is not a transfer.
func (c *Collection) Burn(owner chain.Address, tokenID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.owners[tokenID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownToken, tokenID)
	}
	if cur != owner {
		return fmt.Errorf("%w: token %d owned by %s", ErrNotOwner, tokenID, cur)
	}
	delete(c.owners, tokenID)
	return nil
}

// OwnerOf returns the current owner of tokenID. Always a live read.
func (c *Collection) OwnerOf(tokenID uint64) (chain.Address, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	owner, ok := c.owners[tokenID]
	if !ok {
		return chain.ZeroAddress, fmt.Errorf("%w: %d", ErrUnknownToken, tokenID)
	}
	return owner, nil
}

// Exists reports whether tokenID has been minted.
func (c *Collection) Exists(tokenID uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.owners[tokenID]
	return ok
}

// Transfer moves tokenID from one owner to another, running the hook
// pipeline: every pre-hook in order, the ownership change, every post-hook
// in order. Any pre-hook error aborts with ownership unchanged.
func (c *Collection) Transfer(from, to chain.Address, tokenID uint64) error {
	if to.IsZero() {
		return ErrZeroAddress
	}

	c.mu.RLock()
	owner, ok := c.owners[tokenID]
	hooks := make([]TransferHook, len(c.hooks))
	copy(hooks, c.hooks)
	c.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownToken, tokenID)
	}
	if owner != from {
		return fmt.Errorf("%w: token %d owned by %s", ErrNotOwner, tokenID, owner)
	}

	for _, h := range hooks {
		if err := h.BeforeTransfer(tokenID, from, to); err != nil {
			return err
		}
	}

	c.mu.Lock()
	if c.owners[tokenID] != from {
		c.mu.Unlock()
		return fmt.Errorf("%w: token %d", ErrNotOwner, tokenID)
	}
	c.owners[tokenID] = to
	c.mu.Unlock()

	for _, h := range hooks {
		h.AfterTransfer(tokenID, from, to)
	}
	return nil
}

// Metadata returns the token's attributes from the configured provider.
func (c *Collection) Metadata(tokenID uint64) ([]Attribute, error) {
	if !c.Exists(tokenID) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownToken, tokenID)
	}
	c.mu.RLock()
	p := c.metadata
	c.mu.RUnlock()
	if p == nil {
		return nil, ErrNoMetadata
	}
	return p.Metadata(tokenID)
}
