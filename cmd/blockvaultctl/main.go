// Command blockvaultctl is an operator convenience wrapping the backend
// facade with fold/drop/stat subcommands. It is not the RPC/HTTP front
// end for upload traffic — only administrative inspection of an already
// offline or idle partition directory, in the spirit of riak_cs's
// operator-facing escript tooling alongside its HTTP API.
package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 1
	}

	name, rest := args[0], args[1:]

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "blockvaultctl: unknown command %q\n", name)
		printUsage(stderr)
		return 1
	}

	if err := cmd.exec(rest, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "blockvaultctl %s: %v\n", name, err)
		return 1
	}
	return 0
}

type command struct {
	short string
	exec  func(args []string, stdout, stderr *os.File) error
}

var commands = map[string]command{
	"fold": {short: "walk a partition, printing buckets/keys/objects", exec: runFold},
	"drop": {short: "remove and recreate a partition", exec: runDrop},
	"stat": {short: "print a partition's resolved configuration", exec: runStat},
}

func printUsage(w *os.File) {
	fmt.Fprintln(w, "usage: blockvaultctl <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, name := range []string{"fold", "drop", "stat"} {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].short)
	}
}
