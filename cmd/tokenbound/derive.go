package main

import (
	"flag"
	"fmt"

	"github.com/pflow-xyz/go-tokenbound/chain"
	"github.com/pflow-xyz/go-tokenbound/factory"
	"github.com/pflow-xyz/go-tokenbound/token"
)

func derive(args []string) error {
	fs := flag.NewFlagSet("derive", flag.ExitOnError)
	chainID := fs.Uint64("chain", 31337, "Chain id")
	name := fs.String("collection", "Bound Accounts", "Collection name")
	tokenID := fs.Uint64("token", 1, "Token id")
	salt := fs.String("salt", "", "Extra salt (hex hash, optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var extra chain.Hash
	if *salt != "" {
		if err := extra.UnmarshalText([]byte(*salt)); err != nil {
			return err
		}
	}

	// Addresses are pure functions of the inputs; nothing needs to exist
	// yet. A throwaway environment carries the chain id.
	env := chain.NewEnv(*chainID)
	collection := token.NewCollection(*name, "")
	f, err := factory.New(env, collection, factory.Config{})
	if err != nil {
		return err
	}

	fmt.Printf("factory: %s\n", f.Address())
	fmt.Printf("salt:    %s\n", f.DeriveSalt(*tokenID, extra))
	fmt.Printf("account: %s\n", f.ComputeAddress(*tokenID, extra))
	return nil
}
