// LotCut: fabric lot cutting planner, command line and HTTP service.
//
// Build:
//
//	go build -o lotcut ./cmd/lotcut
//
// Usage:
//
//	lotcut solve -orders orders.csv -rolls rolls.xlsx -pdf plans.pdf
//	lotcut serve -addr :8080
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/piwi3910/lotcut/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:], cli.OSEnv())
	stop()
	os.Exit(code)
}
