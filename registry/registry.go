// Package registry maintains the bidirectional mapping between token ids
// and account addresses, with a flip-once deployment flag and optional
// sqlite persistence.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/pflow-xyz/go-tokenbound/chain"
)

var (
	// ErrInvalidTokenID is returned for lookups on an unminted token id.
	ErrInvalidTokenID = errors.New("registry: unknown token id")

	// ErrNotFound is returned for reverse lookups on an unmapped address.
	ErrNotFound = errors.New("registry: address not mapped")

	// ErrTokenBound is returned when binding a token id that already has
	// an entry. The (tokenId, address) pair never changes after creation.
	ErrTokenBound = errors.New("registry: token id already bound")

	// ErrAddressBound is returned when binding an address that already
	// belongs to another token. The mapping is a bijection.
	ErrAddressBound = errors.New("registry: address already bound")
)

// Entry is one (tokenId, accountAddress, deployed) record.
type Entry struct {
	TokenID  uint64        `json:"token_id"`
	Address  chain.Address `json:"address"`
	Deployed bool          `json:"deployed"`
}

// Registry is the token↔address mapping. It is owned and mutated by exactly
// one account factory; everything else reads.
type Registry struct {
	mu      sync.RWMutex
	byToken map[uint64]*Entry
	byAddr  map[chain.Address]uint64
	store   *Store
}

// New creates an empty in-memory registry.
func New() *Registry {
	return &Registry{
		byToken: make(map[uint64]*Entry),
		byAddr:  make(map[chain.Address]uint64),
	}
}

// NewWithStore creates a registry backed by a sqlite store, restoring any
// persisted entries. Bind and MarkDeployed write through to the store.
func NewWithStore(store *Store) (*Registry, error) {
	r := New()
	r.store = store
	entries, err := store.loadAll()
	if err != nil {
		return nil, fmt.Errorf("registry: load: %w", err)
	}
	for _, e := range entries {
		entry := e
		r.byToken[e.TokenID] = &entry
		r.byAddr[e.Address] = e.TokenID
	}
	return r, nil
}

// CanBind reports whether Bind(tokenID, addr) would succeed, without
// mutating anything. Used by the mint pipeline's validate phase.
func (r *Registry) CanBind(tokenID uint64, addr chain.Address) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.canBind(tokenID, addr)
}

func (r *Registry) canBind(tokenID uint64, addr chain.Address) error {
	if _, ok := r.byToken[tokenID]; ok {
		return fmt.Errorf("%w: %d", ErrTokenBound, tokenID)
	}
	if other, ok := r.byAddr[addr]; ok {
		return fmt.Errorf("%w: %s bound to token %d", ErrAddressBound, addr, other)
	}
	return nil
}

// Bind creates the entry for (tokenID, addr). The pair is permanent; both
// sides of the mapping must be unused.
func (r *Registry) Bind(tokenID uint64, addr chain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.canBind(tokenID, addr); err != nil {
		return err
	}
	entry := &Entry{TokenID: tokenID, Address: addr}
	if r.store != nil {
		if err := r.store.put(*entry); err != nil {
			return fmt.Errorf("registry: persist: %w", err)
		}
	}
	r.byToken[tokenID] = entry
	r.byAddr[addr] = tokenID
	return nil
}

// BindDeployed creates the entry for (tokenID, addr) already marked
// deployed, as one atomic store write. Used by the mint pipeline, where
// deployment precedes binding: a store failure here leaves the registry,
// in memory and on disk, exactly as it was.
func (r *Registry) BindDeployed(tokenID uint64, addr chain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.canBind(tokenID, addr); err != nil {
		return err
	}
	entry := &Entry{TokenID: tokenID, Address: addr, Deployed: true}
	if r.store != nil {
		if err := r.store.put(*entry); err != nil {
			return fmt.Errorf("registry: persist: %w", err)
		}
	}
	r.byToken[tokenID] = entry
	r.byAddr[addr] = tokenID
	return nil
}

// MarkDeployed flips the deployed flag for tokenID. Idempotent: the flag
// flips false→true at most once and repeated calls succeed.
func (r *Registry) MarkDeployed(tokenID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.byToken[tokenID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidTokenID, tokenID)
	}
	if entry.Deployed {
		return nil
	}
	if r.store != nil {
		if err := r.store.markDeployed(tokenID); err != nil {
			return fmt.Errorf("registry: persist: %w", err)
		}
	}
	entry.Deployed = true
	return nil
}

// AddressOf returns the account address bound to tokenID. The result is
// identical before and after deployment.
func (r *Registry) AddressOf(tokenID uint64) (chain.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byToken[tokenID]
	if !ok {
		return chain.ZeroAddress, fmt.Errorf("%w: %d", ErrInvalidTokenID, tokenID)
	}
	return entry.Address, nil
}

// TokenOf returns the token id bound to addr.
func (r *Registry) TokenOf(addr chain.Address) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tokenID, ok := r.byAddr[addr]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, addr)
	}
	return tokenID, nil
}

// Deployed reports whether the account bound to tokenID has been deployed.
func (r *Registry) Deployed(tokenID uint64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byToken[tokenID]
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrInvalidTokenID, tokenID)
	}
	return entry.Deployed, nil
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byToken)
}

// Entries returns a snapshot of all entries sorted by token id.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]Entry, 0, len(r.byToken))
	for _, e := range r.byToken {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TokenID < entries[j].TokenID
	})
	return entries
}
