package factory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pflow-xyz/go-tokenbound/chain"
	"github.com/pflow-xyz/go-tokenbound/records"
)

// ErrSelfTransfer is returned when a transfer's destination is the token's
// own bound account. Allowing it would deadlock the account forever: the
// account would need its own controlling token's authorization to ever
// move that token again.
var ErrSelfTransfer = errors.New("factory: transfer destination is the token's bound account")

// transferGuard is the factory's stage in the collection's transfer
// pipeline: reject self-referential destinations before the transfer, wipe
// the account's module set down to the validator after it.
type transferGuard struct {
	f *Factory
}

// BeforeTransfer rejects a transfer whose destination is the bound account
// address. Tokens the factory does not know are not its concern.
func (g *transferGuard) BeforeTransfer(tokenID uint64, from, to chain.Address) error {
	addr, err := g.f.AccountAddress(tokenID)
	if err != nil {
		return nil
	}
	if to == addr {
		return fmt.Errorf("%w: token %d, account %s", ErrSelfTransfer, tokenID, addr)
	}
	return nil
}

// AfterTransfer resets the bound account's module set to exactly the
// validator, unconditionally, however many modules the previous owner
// installed.
func (g *transferGuard) AfterTransfer(tokenID uint64, from, to chain.Address) {
	addr, err := g.f.AccountAddress(tokenID)
	if err != nil {
		return
	}
	acct, ok := g.f.env.At(addr).(interface{ Reset() []string })
	if !ok {
		return
	}
	removed := acct.Reset()
	g.f.recs.Append(records.New(records.KindModulesReset, tokenID, addr, to).
		WithAttribute("removed", strings.Join(removed, ",")))
}
