package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/pflow-xyz/go-tokenbound/account"
	"github.com/pflow-xyz/go-tokenbound/chain"
	"github.com/pflow-xyz/go-tokenbound/factory"
	"github.com/pflow-xyz/go-tokenbound/registry"
	"github.com/pflow-xyz/go-tokenbound/token"
	"github.com/pflow-xyz/go-tokenbound/validator"
)

func demo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	chainID := fs.Uint64("chain", 31337, "Chain id")
	dbPath := fs.String("db", "", "Persist the registry to this sqlite file")
	recordsPath := fs.String("records", "", "Write lifecycle records to this JSONL file")
	verbose := fs.Bool("verbose", false, "Log every environment transition")
	if err := fs.Parse(args); err != nil {
		return err
	}

	env := chain.NewEnv(*chainID)
	if *verbose {
		env.SetLogger(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger())
	}

	cfg := factory.Config{}
	if *dbPath != "" {
		store, err := registry.OpenStore(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		reg, err := registry.NewWithStore(store)
		if err != nil {
			return err
		}
		cfg.Registry = reg
	}

	collection := token.NewCollection("Bound Accounts", "BOUND")
	f, err := factory.New(env, collection, cfg)
	if err != nil {
		return err
	}

	sellerKey, err := validator.GenerateKey()
	if err != nil {
		return err
	}
	buyerKey, err := validator.GenerateKey()
	if err != nil {
		return err
	}
	seller := validator.SignerAddress(&sellerKey.PublicKey)
	buyer := validator.SignerAddress(&buyerKey.PublicKey)
	env.Credit(seller, uint256.NewInt(1000))

	fmt.Printf("seller %s mints with value 100\n", seller)
	tokenID, addr, err := f.Mint(seller, factory.MintConfig{}, uint256.NewInt(100))
	if err != nil {
		return err
	}
	fmt.Printf("  token %d bound to account %s\n", tokenID, addr)

	attrs, err := collection.Metadata(tokenID)
	if err != nil {
		return err
	}
	for _, a := range attrs {
		fmt.Printf("  metadata %s: %s\n", a.TraitType, a.Value)
	}

	fmt.Printf("transfer to the bound account itself: ")
	if err := collection.Transfer(seller, addr, tokenID); err != nil {
		fmt.Printf("rejected (%v)\n", err)
	} else {
		fmt.Println("accepted (unexpected)")
	}

	acct := env.At(addr).(*account.Account)
	op := account.Operation{Sender: seller, Target: buyer, Value: uint256.NewInt(10), Nonce: 1}
	sellerOp, err := validator.SignOperation(sellerKey, env.ChainID(), addr, op)
	if err != nil {
		return err
	}
	fmt.Printf("seller-signed operation while owning the token: ")
	report(acct.Execute(env, sellerOp))

	fmt.Printf("token %d transferred to buyer %s\n", tokenID, buyer)
	if err := collection.Transfer(seller, buyer, tokenID); err != nil {
		return err
	}
	fmt.Printf("  account modules after transfer: %v\n", acct.Modules())

	fmt.Printf("the same seller-signed operation, replayed: ")
	report(acct.Execute(env, sellerOp))

	op.Sender = buyer
	op.Nonce = 2
	buyerOp, err := validator.SignOperation(buyerKey, env.ChainID(), addr, op)
	if err != nil {
		return err
	}
	fmt.Printf("re-signed by the buyer: ")
	report(acct.Execute(env, buyerOp))

	if *recordsPath != "" {
		if err := f.Records().WriteJSONLFile(*recordsPath); err != nil {
			return err
		}
		fmt.Printf("wrote %d records to %s\n", f.Records().Len(), *recordsPath)
	}
	return nil
}

func report(err error) {
	if err != nil {
		fmt.Printf("rejected (%v)\n", err)
		return
	}
	fmt.Println("executed")
}
