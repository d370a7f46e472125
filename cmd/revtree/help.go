package main

import (
	"fmt"
	"io"
)

func printUsage(w io.Writer) {
	fmt.Fprint(w, `revtree - versioned tree document store

Usage:
  revtree <command> [options]

Commands:
  seed        Import a JSON or XML document as a new revision
  dump        Print the tree of a revision
  revisions   List committed revisions
  version     Show version information

Use "revtree <command> -h" for more information about a command.
`)
}

const commonOptions = `  -config string
        Path to configuration file
  -data-dir string
        Data directory path (overrides config)
  -log-level string
        Log level: debug, info, warn, error (overrides config)
  -h, -help
        Show this help message
`

func printSeedUsage(w io.Writer) {
	fmt.Fprint(w, `Import a JSON or XML document as a new revision

The document is appended under the document root. The store is created and
bootstrapped on first use.

Usage:
  revtree seed -file <path> [options]

Options:
  -file string
        Document to import (required)
  -format string
        Input format: json, xml (default: from file extension)
`+commonOptions)
}

func printDumpUsage(w io.Writer) {
	fmt.Fprint(w, `Print the tree of a revision

Usage:
  revtree dump [options]

Options:
  -revision int
        Revision to print (default: latest)
  -node uint
        Start at this node instead of the document root
  -stats
        Print cache statistics after the tree
`+commonOptions)
}

func printRevisionsUsage(w io.Writer) {
	fmt.Fprint(w, `List committed revisions

Usage:
  revtree revisions [options]

Options:
`+commonOptions)
}

func printVersionUsage(w io.Writer) {
	fmt.Fprint(w, `Show version information

Usage:
  revtree version [options]

Options:
  -short
        Show only version number
  -h, -help
        Show this help message
`)
}
