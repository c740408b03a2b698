package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fjacquet/colmap/cmd/importcmd"
	"fjacquet/colmap/cmd/mapcmd"
	"fjacquet/colmap/cmd/resolve"
	"fjacquet/colmap/cmd/review"
	"fjacquet/colmap/cmd/root"
	"fjacquet/colmap/cmd/scan"
	"fjacquet/colmap/cmd/suggest"
	"fjacquet/colmap/internal/config"
)

func init() {
	// Load .env before viper reads the environment. Nothing is logged yet.
	_, _ = config.LoadEnv()

	root.Init()

	root.Cmd.AddCommand(suggest.Cmd)
	root.Cmd.AddCommand(mapcmd.Cmd)
	root.Cmd.AddCommand(review.Cmd)
	root.Cmd.AddCommand(resolve.Cmd)
	root.Cmd.AddCommand(importcmd.Cmd)
	root.Cmd.AddCommand(scan.Cmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.Cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
