package main

import (
	"flag"
	"fmt"

	"github.com/pflow-xyz/go-tokenbound/registry"
)

func showRegistry(args []string) error {
	fs := flag.NewFlagSet("registry", flag.ExitOnError)
	dbPath := fs.String("db", "", "Registry sqlite file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" {
		return fmt.Errorf("--db is required")
	}

	store, err := registry.OpenStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	reg, err := registry.NewWithStore(store)
	if err != nil {
		return err
	}

	entries := reg.Entries()
	if len(entries) == 0 {
		fmt.Println("registry is empty")
		return nil
	}
	fmt.Printf("%-10s %-44s %s\n", "TOKEN", "ACCOUNT", "DEPLOYED")
	for _, e := range entries {
		fmt.Printf("%-10d %-44s %t\n", e.TokenID, e.Address.Hex(), e.Deployed)
	}
	return nil
}
