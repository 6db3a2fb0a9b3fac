package fetch

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/keshon/bvc-subtree/internal/command"
	"github.com/keshon/bvc-subtree/internal/middleware"
	"github.com/keshon/bvc-subtree/internal/transport"
	"github.com/keshon/bvc-subtree/internal/ui"
)

type Command struct{}

func (c *Command) Name() string                   { return "fetch" }
func (c *Command) Short() string                  { return "" }
func (c *Command) Aliases() []string              { return nil }
func (c *Command) Usage() string                  { return "fetch <remote> <branch|commit>" }
func (c *Command) Brief() string                  { return "Copy history from another repository" }
func (c *Command) Subcommands() []command.Command { return nil }
func (c *Command) Flags(fs *pflag.FlagSet)        {}
func (c *Command) Help() string {
	return `Copy the commits, filesets and blocks reachable from a branch or commit
of another repository and record the fetched commit in FETCH_HEAD.

<remote> is a name from 'bvc remote' or a path to a repository.
Transient failures are retried with backoff (fetch.retries, fetch.timeout).`
}

func (c *Command) Run(ctx *command.Context) error {
	if len(ctx.Args) != 2 {
		return command.Usagef("fetch needs <remote> <branch|commit>")
	}
	r, err := ctx.OpenRepo()
	if err != nil {
		return err
	}
	unlock, err := r.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	id, stats, err := transport.NewFetcher(r).FetchStats(ctx.Ctx, ctx.Args[0], ctx.Args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Fetched %s (%d commits, %d filesets, %d blocks)\n",
		ui.Hash(id), stats.Commits, stats.Filesets, stats.Blocks)
	return nil
}

func init() {
	command.RegisterCommand(
		command.ApplyMiddlewares(
			&Command{},
			middleware.WithDebugArgsPrint(),
		),
	)
}
