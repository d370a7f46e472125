package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/KilimcininKorOglu/revtree/internal/axis"
	"github.com/KilimcininKorOglu/revtree/internal/node"
	"github.com/KilimcininKorOglu/revtree/internal/storage"
)

func dumpCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.SetOutput(stderr)

	revision := fs.Int("revision", -1, "Revision to print")
	start := fs.Uint64("node", 0, "Start node")
	stats := fs.Bool("stats", false, "Print cache statistics")
	common := addCommonFlags(fs)

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if common.wantsHelp() {
		printDumpUsage(stdout)
		return 0
	}

	m, _, err := common.openManager(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer m.Close()

	rev := *revision
	if rev < 0 {
		if rev, err = m.LatestRevision(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	if err := m.Warm(context.Background(), rev); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	c, err := m.BeginNodeReadTrx(rev)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer c.Close()

	if *start != 0 {
		ok, err := c.MoveTo(storage.NodeID(*start))
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if !ok {
			fmt.Fprintf(stderr, "Error: node %d not found in revision %d\n", *start, rev)
			return 1
		}
	}

	trx, _ := c.PageReadTrx()
	count, _ := c.ItemCount()
	fmt.Fprintln(stdout, headerStyle.Render(fmt.Sprintf("Revision %d  %d nodes  root %d", rev, count, trx.RootNodeID())))

	if err := writeTree(stdout, c); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *stats {
		s := m.Stats()
		fmt.Fprintln(stdout)
		fmt.Fprintf(stdout, "%s %d/%d pages, %.1f%% hits\n", labelStyle.Render("Cache:"), s.Cache.Size, s.Cache.Capacity, s.Cache.HitRatio()*100)
		fmt.Fprintf(stdout, "%s %d loads, %d coalesced, %d failures\n", labelStyle.Render("Store:"), s.Resolver.Loads, s.Resolver.Coalesced, s.Resolver.Failures)
	}
	return 0
}

// writeTree prints the subtree at the navigator's position in pre-order,
// one node per line, indented by depth.
func writeTree(w io.Writer, nav axis.Navigator) error {
	depth := make(map[storage.NodeID]int)
	it := axis.Descendant(nav, true)
	first := true
	for it.Next() {
		rec := it.Record()
		d := 0
		if !first {
			d = depth[rec.Parent] + 1
		}
		first = false
		depth[rec.ID] = d

		fmt.Fprintf(w, "%s %s%s\n",
			idStyle.Render(fmt.Sprintf("%6d", rec.ID)),
			strings.Repeat("  ", d),
			describe(rec))
	}
	return it.Err()
}

func describe(rec node.Record) string {
	kind := kindStyle.Render(rec.Kind.String())
	switch rec.Kind {
	case node.KindObjectKey, node.KindElement:
		return kind + " " + labelStyle.Render(rec.Name)
	case node.KindAttribute:
		return kind + " " + labelStyle.Render(rec.Name) + "=" + valueStyle.Render(strconv.Quote(string(rec.Value)))
	case node.KindString, node.KindText, node.KindComment:
		return kind + " " + valueStyle.Render(strconv.Quote(string(rec.Value)))
	case node.KindNumber:
		return kind + " " + valueStyle.Render(string(rec.Value))
	case node.KindBoolean:
		b, _ := rec.BoolValue()
		return kind + " " + valueStyle.Render(strconv.FormatBool(b))
	default:
		return kind
	}
}
