// Package main is the entry point for nssmctl.
package main

import (
	"github.com/sharkusmanch/nssmctl/internal/cli"
)

func main() {
	// The agent service is registered as "nssmctl serve", which detects
	// the service control manager itself.
	cli.Execute()
}
