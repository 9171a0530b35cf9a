package chain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

var (
	// ErrInsufficientBalance is returned when a transfer exceeds the
	// sender's balance.
	ErrInsufficientBalance = errors.New("chain: insufficient balance")

	// ErrAddressOccupied is returned when deploying to an address that
	// already holds a contract.
	ErrAddressOccupied = errors.New("chain: address already occupied")

	// ErrNotDeployed is returned when removing a contract from an empty
	// address.
	ErrNotDeployed = errors.New("chain: no contract at address")
)

// Contract is anything deployable into an Env at a fixed address.
type Contract interface {
	Address() Address
}

// Env is a minimal execution environment: per-address balances and a set of
// deployed contracts, identified by a chain id. All public operations are
// single atomic transitions serialized under one mutex; there is no partial
// state on failure and no interleaving of operations on the same entity.
type Env struct {
	chainID uint64
	log     zerolog.Logger

	mu        sync.RWMutex
	balances  map[Address]*uint256.Int
	contracts map[Address]Contract
}

// NewEnv creates an environment for the given chain id. Logging is disabled
// until SetLogger is called.
func NewEnv(chainID uint64) *Env {
	return &Env{
		chainID:   chainID,
		log:       zerolog.Nop(),
		balances:  make(map[Address]*uint256.Int),
		contracts: make(map[Address]Contract),
	}
}

// SetLogger attaches a structured logger to the environment.
func (e *Env) SetLogger(log zerolog.Logger) {
	e.log = log
}

// ChainID returns the environment's chain identifier.
func (e *Env) ChainID() uint64 {
	return e.chainID
}

// Credit adds amount to the balance of addr.
func (e *Env) Credit(addr Address, amount *uint256.Int) {
	if amount == nil || amount.IsZero() {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.credit(addr, amount)
}

func (e *Env) credit(addr Address, amount *uint256.Int) {
	bal, ok := e.balances[addr]
	if !ok {
		bal = new(uint256.Int)
		e.balances[addr] = bal
	}
	bal.Add(bal, amount)
}

// BalanceOf returns a copy of the balance of addr.
func (e *Env) BalanceOf(addr Address) *uint256.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	bal, ok := e.balances[addr]
	if !ok {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(bal)
}

// Transfer moves amount from one address to another. The entire transfer
// either happens or fails with ErrInsufficientBalance.
func (e *Env) Transfer(from, to Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	bal, ok := e.balances[from]
	if !ok || bal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, need %s", ErrInsufficientBalance, from, e.balanceString(from), amount)
	}
	bal.Sub(bal, amount)
	e.credit(to, amount)
	e.log.Debug().
		Str("from", from.Hex()).
		Str("to", to.Hex()).
		Str("amount", amount.Dec()).
		Msg("transfer")
	return nil
}

func (e *Env) balanceString(addr Address) string {
	if bal, ok := e.balances[addr]; ok {
		return bal.Dec()
	}
	return "0"
}

// Deploy places a contract at its own address. Deploying to an occupied
// address fails with ErrAddressOccupied and changes nothing.
func (e *Env) Deploy(c Contract) error {
	addr := c.Address()
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.contracts[addr]; ok {
		return fmt.Errorf("%w: %s", ErrAddressOccupied, addr)
	}
	e.contracts[addr] = c
	e.log.Info().Str("address", addr.Hex()).Msg("deploy")
	return nil
}

// Undeploy removes the contract at addr. Used only to roll back a
// deployment when a later step of the same operation fails.
func (e *Env) Undeploy(addr Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.contracts[addr]; !ok {
		return fmt.Errorf("%w: %s", ErrNotDeployed, addr)
	}
	delete(e.contracts, addr)
	e.log.Info().Str("address", addr.Hex()).Msg("undeploy")
	return nil
}

// At returns the contract deployed at addr, or nil.
func (e *Env) At(addr Address) Contract {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.contracts[addr]
}

// Exists reports whether a contract is deployed at addr.
func (e *Env) Exists(addr Address) bool {
	return e.At(addr) != nil
}
