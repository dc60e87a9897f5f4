// Command importer runs protest-filing exports through the import pipeline
// from the command line.
//
//	importer validate --file lote.csv
//	importer run --file lote.xml --user analyst-1
//	importer run --file lote.csv --dry-run --json
//	importer stats
//	importer reset --yes --keep-audit
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
