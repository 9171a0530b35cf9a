// Package records provides the append-only record log for account lifecycle
// events: creation, module resets, and validator upgrades.
package records

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pflow-xyz/go-tokenbound/chain"
)

// Kind classifies a record.
type Kind string

const (
	// KindAccountCreated is emitted once per successful mint.
	KindAccountCreated Kind = "account-created"

	// KindModulesReset is emitted after every ownership transfer, when
	// the account's module set collapses to the validator alone.
	KindModulesReset Kind = "modules-reset"

	// KindValidatorUpgraded is emitted when a validator implementation is
	// swapped behind its proxy.
	KindValidatorUpgraded Kind = "validator-upgraded"
)

// Record is a single lifecycle event.
type Record struct {
	ID         string            `json:"id"`
	Kind       Kind              `json:"kind"`
	TokenID    uint64            `json:"token_id"`
	Account    chain.Address     `json:"account"`
	Actor      chain.Address     `json:"actor"`
	At         time.Time         `json:"at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// New creates a record with a fresh id and the current time.
func New(kind Kind, tokenID uint64, acct, actor chain.Address) Record {
	return Record{
		ID:      uuid.New().String(),
		Kind:    kind,
		TokenID: tokenID,
		Account: acct,
		Actor:   actor,
		At:      time.Now().UTC(),
	}
}

// WithAttribute returns a copy of the record with an attribute set.
func (r Record) WithAttribute(key, value string) Record {
	attrs := make(map[string]string, len(r.Attributes)+1)
	for k, v := range r.Attributes {
		attrs[k] = v
	}
	attrs[key] = value
	r.Attributes = attrs
	return r
}

// Log is an append-only, in-memory record log.
type Log struct {
	mu      sync.RWMutex
	records []Record
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds a record to the log.
func (l *Log) Append(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r)
}

// All returns a copy of every record in append order.
func (l *Log) All() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// ByToken returns all records for a token id, in append order.
func (l *Log) ByToken(tokenID uint64) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Record
	for _, r := range l.records {
		if r.TokenID == tokenID {
			out = append(out, r)
		}
	}
	return out
}

// ByKind returns all records of a kind, in append order.
func (l *Log) ByKind(kind Kind) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Record
	for _, r := range l.records {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of records.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
