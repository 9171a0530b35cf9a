// Package factory implements the account factory: deterministic address
// derivation, the atomic mint+deploy+initialize pipeline, the self-transfer
// lock, and the module reset on ownership change.
package factory

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-tokenbound/account"
	"github.com/pflow-xyz/go-tokenbound/chain"
	"github.com/pflow-xyz/go-tokenbound/records"
	"github.com/pflow-xyz/go-tokenbound/registry"
	"github.com/pflow-xyz/go-tokenbound/token"
	"github.com/pflow-xyz/go-tokenbound/validator"
)

var (
	// ErrDeploymentFailed is returned when account code could not be
	// produced at the derived address, or initialization failed. The
	// enclosing mint aborts with no token minted and no value moved.
	ErrDeploymentFailed = errors.New("factory: account deployment failed")

	// ErrFeeExceedsValue is returned when the configured mint fee is
	// larger than the attached value.
	ErrFeeExceedsValue = errors.New("factory: fee exceeds attached value")

	// ErrNilCollection is returned when constructing a factory without a
	// collection.
	ErrNilCollection = errors.New("factory: nil token collection")
)

// accountCodeHash identifies the account implementation deployed by the
// embedded path. Part of every address derivation.
var accountCodeHash = chain.Keccak256([]byte("tokenbound-account/v1"))

// Deployer is the external deployment strategy. Deploy must produce a
// contract holding the given validator, preferably at the requested
// address. predictable reports whether the requested address was honored;
// when false, the factory persists the returned address in the registry so
// lookups remain deterministic for callers.
type Deployer interface {
	Deploy(env *chain.Env, requested chain.Address, v account.OperationValidator, initData []byte) (addr chain.Address, predictable bool, err error)
}

// MintConfig selects the deployment strategy for one mint. The zero value
// is the embedded path with the default salt.
type MintConfig struct {
	// Salt is extra entropy mixed into the address derivation. Zero is
	// the default salt.
	Salt chain.Hash

	// InitData is passed to the validator install hook.
	InitData []byte

	// Deployer, when non-nil, delegates deployment. Nil selects the
	// embedded deployment path.
	Deployer Deployer
}

// FeeConfig is the explicit, caller-visible mint fee policy. The zero
// value charges nothing; the fee is deducted from the forwarded value and
// credited to the recipient. A non-zero fee makes the attached value
// mandatory: every mint, including one with no value attached, must cover
// at least the fee or it is rejected with ErrFeeExceedsValue.
type FeeConfig struct {
	Recipient chain.Address
	Amount    *uint256.Int
}

func (f FeeConfig) amount() *uint256.Int {
	if f.Amount == nil {
		return new(uint256.Int)
	}
	return f.Amount
}

// Config configures a factory.
type Config struct {
	// Registry backs the token↔address mapping. Nil creates an in-memory
	// registry.
	Registry *registry.Registry

	// Records receives lifecycle records. Nil creates a fresh log.
	Records *records.Log

	// Fee is the mint fee policy.
	Fee FeeConfig
}

// Factory mints controlling tokens and deploys their bound accounts. It is
// the exclusive owner of its registry; the registry is created (or handed
// over) at construction and mutated nowhere else.
type Factory struct {
	env        *chain.Env
	addr       chain.Address
	collection *token.Collection
	reg        *registry.Registry
	recs       *records.Log
	fee        FeeConfig

	mu     sync.Mutex
	nextID uint64
}

// New creates a factory over the collection, deploys it into the
// environment, and registers its transfer guard and metadata provider on
// the collection.
func New(env *chain.Env, collection *token.Collection, cfg Config) (*Factory, error) {
	if collection == nil {
		return nil, ErrNilCollection
	}
	reg := cfg.Registry
	if reg == nil {
		reg = registry.New()
	}
	recs := cfg.Records
	if recs == nil {
		recs = records.NewLog()
	}

	seed := chain.Keccak256([]byte("tokenbound-factory/v1"), u64be(env.ChainID()), []byte(collection.Name()))
	f := &Factory{
		env:        env,
		addr:       chain.AddressFromBytes(seed[12:]),
		collection: collection,
		reg:        reg,
		recs:       recs,
		fee:        cfg.Fee,
	}
	// Resume the id counter after a registry reload.
	for _, e := range reg.Entries() {
		if e.TokenID > f.nextID {
			f.nextID = e.TokenID
		}
	}
	if err := env.Deploy(f); err != nil {
		return nil, err
	}
	collection.AddHook(&transferGuard{f})
	collection.SetMetadataProvider(f)
	return f, nil
}

// Address returns the factory's address, the deployer identity in every
// address derivation.
func (f *Factory) Address() chain.Address {
	return f.addr
}

// Collection returns the controlling token collection.
func (f *Factory) Collection() *token.Collection {
	return f.collection
}

// Records returns the lifecycle record log.
func (f *Factory) Records() *records.Log {
	return f.recs
}

// DeriveSalt computes the salt for a token id: a pure function of the
// factory address, token id, chain id and extra entropy. Identical before
// and after deployment.
func (f *Factory) DeriveSalt(tokenID uint64, extra chain.Hash) chain.Hash {
	return chain.Keccak256(f.addr[:], u64be(tokenID), u64be(f.env.ChainID()), extra[:])
}

// ComputeAddress derives the deterministic account address for a token id
// and extra salt without touching any state.
func (f *Factory) ComputeAddress(tokenID uint64, extra chain.Hash) chain.Address {
	return chain.DeriveAddress(f.addr, f.DeriveSalt(tokenID, extra), accountCodeHash)
}

// Mint allocates a token id, deploys the bound account at its
// deterministic address, installs the ownership validator, mints the token
// to the minter, and forwards value minus the configured fee to the new
// account. The operation is atomic: every fallible step runs before the
// first observable mutation, and a deployment made by an external deployer
// is rolled back if a later step fails.
func (f *Factory) Mint(minter chain.Address, cfg MintConfig, value *uint256.Int) (uint64, chain.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tokenID := f.nextID + 1
	predicted := f.ComputeAddress(tokenID, cfg.Salt)

	// Validate phase: nothing below mutates until every check passes.
	if value == nil {
		value = new(uint256.Int)
	}
	fee := f.fee.amount()
	if fee.Gt(value) {
		return 0, chain.ZeroAddress, ErrFeeExceedsValue
	}
	if !value.IsZero() && f.env.BalanceOf(minter).Lt(value) {
		return 0, chain.ZeroAddress, chain.ErrInsufficientBalance
	}
	if err := f.reg.CanBind(tokenID, predicted); err != nil {
		return 0, chain.ZeroAddress, err
	}
	if f.collection.Exists(tokenID) {
		return 0, chain.ZeroAddress, fmt.Errorf("%w: token %d already minted", token.ErrTokenExists, tokenID)
	}

	v, err := validator.New(f.collection, tokenID)
	if err != nil {
		return 0, chain.ZeroAddress, err
	}

	addr := predicted
	if cfg.Deployer == nil {
		acct, err := account.New(predicted, v, cfg.InitData)
		if err != nil {
			return 0, chain.ZeroAddress, fmt.Errorf("%w: %v", ErrDeploymentFailed, err)
		}
		if err := f.env.Deploy(acct); err != nil {
			return 0, chain.ZeroAddress, fmt.Errorf("%w: %v", ErrDeploymentFailed, err)
		}
	} else {
		got, predictable, err := cfg.Deployer.Deploy(f.env, predicted, v, cfg.InitData)
		if err != nil {
			return 0, chain.ZeroAddress, fmt.Errorf("%w: %v", ErrDeploymentFailed, err)
		}
		if predictable && got != predicted {
			f.env.Undeploy(got)
			return 0, chain.ZeroAddress, fmt.Errorf("%w: deployed at %s, want %s", ErrDeploymentFailed, got, predicted)
		}
		addr = got
		if addr != predicted {
			// Non-deterministic deployer: the registry entry is what
			// keeps future lookups stable, so re-run the bind check
			// against the actual address before committing.
			if err := f.reg.CanBind(tokenID, addr); err != nil {
				f.env.Undeploy(addr)
				return 0, chain.ZeroAddress, err
			}
		}
	}
	if !f.env.Exists(addr) {
		return 0, chain.ZeroAddress, fmt.Errorf("%w: no code at %s", ErrDeploymentFailed, addr)
	}

	// Commit phase: in-memory effects first, then the registry binding as
	// the single persisted write. A failure at any step unwinds everything
	// already applied, so no call ever leaves partial state behind.
	if err := f.collection.Mint(minter, tokenID); err != nil {
		f.env.Undeploy(addr)
		return 0, chain.ZeroAddress, err
	}
	forward := new(uint256.Int).Sub(value, fee)
	if !value.IsZero() {
		if !fee.IsZero() {
			if err := f.env.Transfer(minter, f.fee.Recipient, fee); err != nil {
				f.collection.Burn(minter, tokenID)
				f.env.Undeploy(addr)
				return 0, chain.ZeroAddress, err
			}
		}
		if err := f.env.Transfer(minter, addr, forward); err != nil {
			if !fee.IsZero() {
				f.env.Transfer(f.fee.Recipient, minter, fee)
			}
			f.collection.Burn(minter, tokenID)
			f.env.Undeploy(addr)
			return 0, chain.ZeroAddress, err
		}
	}
	if err := f.reg.BindDeployed(tokenID, addr); err != nil {
		if !value.IsZero() {
			f.env.Transfer(addr, minter, forward)
			if !fee.IsZero() {
				f.env.Transfer(f.fee.Recipient, minter, fee)
			}
		}
		f.collection.Burn(minter, tokenID)
		f.env.Undeploy(addr)
		return 0, chain.ZeroAddress, err
	}
	f.nextID = tokenID

	f.recs.Append(records.New(records.KindAccountCreated, tokenID, addr, minter).
		WithAttribute("salt", f.DeriveSalt(tokenID, cfg.Salt).Hex()))
	return tokenID, addr, nil
}

// AccountAddress returns the bound account address for a token id. Pure
// lookup, identical before and after deployment; ErrInvalidTokenID for
// unminted ids.
func (f *Factory) AccountAddress(tokenID uint64) (chain.Address, error) {
	return f.reg.AddressOf(tokenID)
}

// TokenID returns the token id bound to an account address, or ErrNotFound.
func (f *Factory) TokenID(addr chain.Address) (uint64, error) {
	return f.reg.TokenOf(addr)
}

// Deployed reports whether the account for tokenID has been deployed.
func (f *Factory) Deployed(tokenID uint64) (bool, error) {
	return f.reg.Deployed(tokenID)
}

func u64be(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}
