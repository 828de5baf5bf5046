// Command xbm syncs X bookmarks to markdown files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/xbm/internal/adapters/driving/cli"
	"github.com/custodia-labs/xbm/internal/adapters/driving/oauth"
)

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	cli.SetAppFactory(newApp)
	cli.SetBrowserOpener(oauth.OpenBrowser)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
