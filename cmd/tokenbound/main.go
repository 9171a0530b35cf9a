package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "demo":
		if err := demo(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "derive":
		if err := derive(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "registry":
		if err := showRegistry(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("tokenbound version 1.0.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokenbound - token-bound modular accounts

Usage:
  tokenbound <command> [options]

Commands:
  demo       Run the mint/transfer/validate lifecycle end to end
  derive     Compute the deterministic account address for a token id
  registry   List persisted registry entries
  help       Show this help message
  version    Show version information

Examples:
  # Watch the full lifecycle, persisting the registry
  tokenbound demo --db registry.db --records records.jsonl

  # Compute an account address before anything is deployed
  tokenbound derive --chain 31337 --collection "Bound Accounts" --token 1

  # Inspect a persisted registry
  tokenbound registry --db registry.db`)
}
