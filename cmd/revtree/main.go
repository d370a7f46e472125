// Package main provides the revtree command line tool.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args))
}

// run executes the CLI and returns an exit code.
func run(args []string) int {
	return runWith(args, os.Stdout, os.Stderr)
}

func runWith(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stdout)
		return 1
	}

	switch args[1] {
	case "seed":
		return seedCmd(args[2:], stdout, stderr)
	case "dump":
		return dumpCmd(args[2:], stdout, stderr)
	case "revisions":
		return revisionsCmd(args[2:], stdout, stderr)
	case "version":
		return versionCmd(args[2:], stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		fmt.Fprintln(stderr, "Run 'revtree help' for usage.")
		return 1
	}
}
