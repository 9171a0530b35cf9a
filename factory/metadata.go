package factory

import (
	"github.com/pflow-xyz/go-tokenbound/token"
)

// AccountAddressTrait is the one attribute every token's metadata must
// carry: the address of its bound account.
const AccountAddressTrait = "Account Address"

// Metadata implements token.MetadataProvider.
func (f *Factory) Metadata(tokenID uint64) ([]token.Attribute, error) {
	addr, err := f.AccountAddress(tokenID)
	if err != nil {
		return nil, err
	}
	return []token.Attribute{
		{TraitType: AccountAddressTrait, Value: addr.Hex()},
	}, nil
}
