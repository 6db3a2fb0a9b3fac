package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/keshon/bvc-subtree/internal/command"
	_ "github.com/keshon/bvc-subtree/internal/command/branch"
	_ "github.com/keshon/bvc-subtree/internal/command/checkout"
	_ "github.com/keshon/bvc-subtree/internal/command/commit"
	_ "github.com/keshon/bvc-subtree/internal/command/fetch"
	_ "github.com/keshon/bvc-subtree/internal/command/init"
	_ "github.com/keshon/bvc-subtree/internal/command/log"
	_ "github.com/keshon/bvc-subtree/internal/command/merge"
	_ "github.com/keshon/bvc-subtree/internal/command/remote"
	_ "github.com/keshon/bvc-subtree/internal/command/reset"
	_ "github.com/keshon/bvc-subtree/internal/command/stage"
	_ "github.com/keshon/bvc-subtree/internal/command/status"
	_ "github.com/keshon/bvc-subtree/internal/command/subtree"
	_ "github.com/keshon/bvc-subtree/internal/command/verify"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	code := command.Execute(ctx, os.Args[1:], wd, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
