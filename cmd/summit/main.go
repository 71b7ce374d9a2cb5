package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/summit/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.Run(ctx, os.Args[1:], cli.StdStreams()); err != nil {
		fmt.Fprintf(os.Stderr, "summit: %v\n", err)
		return 1
	}
	return 0
}
