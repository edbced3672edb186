// Command w3rtctl is the plan-compiler CLI surface (spec.md §6): validate,
// explain, compile, and verify workflow documents, plus read-only trace
// query subcommands (SPEC_FULL.md's supplemented feature list).
package main

import "os"

func main() {
	os.Exit(Execute())
}
