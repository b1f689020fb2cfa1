// Command profilecheck validates a speed profile and prints the resolved
// tier table, including target speeds at a sample modifier multiplier.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mawasi/wayfarer/speed"
)

func main() {
	mult := flag.Float64("mult", 1.0, "modifier multiplier to evaluate")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: profilecheck [-mult m] <profile.yaml>\n")
		os.Exit(2)
	}
	path := flag.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("profilecheck: %v", err)
	}
	table, err := speed.ParseTable(data)
	if err != nil {
		log.Fatalf("profilecheck: %s: %v", path, err)
	}

	fmt.Printf("%s: ok (default %s, ease %.0f u/s^2)\n", path, table.DefaultTier(), table.EaseRate())
	for _, tier := range table.Tiers() {
		base, _ := table.Base(tier)
		fmt.Printf("  %-8s base %7.2f  at x%.2f -> %7.2f\n",
			tier, base, *mult, table.Target(tier, *mult))
	}
}
