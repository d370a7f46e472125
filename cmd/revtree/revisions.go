package main

import (
	"flag"
	"fmt"
	"io"
	"time"
)

func revisionsCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("revisions", flag.ContinueOnError)
	fs.SetOutput(stderr)

	common := addCommonFlags(fs)

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if common.wantsHelp() {
		printRevisionsUsage(stdout)
		return 0
	}

	m, _, err := common.openManager(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer m.Close()

	latest, err := m.LatestRevision()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, labelStyle.Render(fmt.Sprintf("%-8s  %-20s  %8s  %8s  %s", "REVISION", "COMMITTED", "NODES", "MAX ID", "ROOT PAGE")))
	for rev := 0; rev <= latest; rev++ {
		trx, err := m.BeginPageReadTrx(rev)
		if err != nil {
			fmt.Fprintf(stderr, "Error: revision %d: %v\n", rev, err)
			return 1
		}
		fmt.Fprintf(stdout, "%-8d  %-20s  %8d  %8d  %s\n",
			rev,
			trx.CommitTime().Format(time.RFC3339),
			trx.ItemCount(),
			trx.MaxNodeID(),
			idStyle.Render(trx.RootRef().Short()))
		trx.Close()
	}
	return 0
}
