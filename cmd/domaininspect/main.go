// Command domaininspect is the offline diagnostic CLI for the domain
// engine: it loads fixtures and a policy config, runs shard partitioning,
// renders an SVG preview of the result, synthesizes throwaway fixtures,
// and demonstrates the streaming-hint touchpoint installers call.
package main

import (
	"flag"
	"fmt"
	"os"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "shard-map":
		err = runShardMap(os.Args[2:])
	case "viz":
		err = runViz(os.Args[2:])
	case "gen-fixture":
		err = runGenFixture(os.Args[2:])
	case "prefetch":
		err = runPrefetch(os.Args[2:])
	case "-version", "--version", "version":
		fmt.Printf("domaininspect version %s\n", version)
		return
	case "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown subcommand %q\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: domaininspect <subcommand> [flags]")
	fmt.Fprintln(os.Stderr, "\nSubcommands:")
	fmt.Fprintln(os.Stderr, "  shard-map    Load a fixture + config and print the shard assignment table")
	fmt.Fprintln(os.Stderr, "  viz          Render a shard-map SVG preview")
	fmt.Fprintln(os.Stderr, "  gen-fixture  Synthesize a throwaway fixture document")
	fmt.Fprintln(os.Stderr, "  prefetch     Demonstrate the streaming-hint touchpoint for installers")
	fmt.Fprintln(os.Stderr, "\nRun 'domaininspect <subcommand> -help' for subcommand flags")
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ExitOnError)
}
