package remote

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/keshon/bvc-subtree/internal/command"
	"github.com/keshon/bvc-subtree/internal/middleware"
	"github.com/keshon/bvc-subtree/internal/transport"
)

type Command struct{}

func (c *Command) Name() string      { return "remote" }
func (c *Command) Short() string     { return "" }
func (c *Command) Aliases() []string { return nil }
func (c *Command) Usage() string     { return "remote [add|remove|list]" }
func (c *Command) Brief() string     { return "Manage named remote repositories" }
func (c *Command) Help() string {
	return `Manage the remotes recorded in .bvc/remotes.toml.

A remote is another bvc repository on disk. Relative paths are kept
relative to the working tree root.

Usage:
  remote                    - list remotes
  remote add <name> <path>  - add a remote
  remote remove <name>      - remove a remote`
}
func (c *Command) Flags(fs *pflag.FlagSet) {}

func (c *Command) Subcommands() []command.Command {
	return []command.Command{&addCommand{}, &removeCommand{}, &listCommand{}}
}

func (c *Command) Run(ctx *command.Context) error {
	if len(ctx.Args) > 0 {
		return command.Usagef("unknown remote subcommand %q", ctx.Args[0])
	}
	return list(ctx)
}

func list(ctx *command.Context) error {
	r, err := ctx.OpenRepo()
	if err != nil {
		return err
	}
	remotes, err := transport.LoadRemotes(r)
	if err != nil {
		return err
	}
	names, err := transport.ListRemotes(r)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintf(ctx.Out, "%s\t%s\n", name, remotes[name].Path)
	}
	return nil
}

type addCommand struct{}

func (c *addCommand) Name() string                   { return "add" }
func (c *addCommand) Short() string                  { return "" }
func (c *addCommand) Aliases() []string              { return nil }
func (c *addCommand) Usage() string                  { return "add <name> <path>" }
func (c *addCommand) Brief() string                  { return "Add a remote" }
func (c *addCommand) Help() string                   { return "Record a named remote pointing at another repository." }
func (c *addCommand) Subcommands() []command.Command { return nil }
func (c *addCommand) Flags(fs *pflag.FlagSet)        {}

func (c *addCommand) Run(ctx *command.Context) error {
	if len(ctx.Args) != 2 {
		return command.Usagef("remote add needs <name> <path>")
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
	return transport.AddRemote(r, ctx.Args[0], ctx.Args[1])
}

type removeCommand struct{}

func (c *removeCommand) Name() string                   { return "remove" }
func (c *removeCommand) Short() string                  { return "" }
func (c *removeCommand) Aliases() []string              { return []string{"rm"} }
func (c *removeCommand) Usage() string                  { return "remove <name>" }
func (c *removeCommand) Brief() string                  { return "Remove a remote" }
func (c *removeCommand) Help() string                   { return "Forget a named remote." }
func (c *removeCommand) Subcommands() []command.Command { return nil }
func (c *removeCommand) Flags(fs *pflag.FlagSet)        {}

func (c *removeCommand) Run(ctx *command.Context) error {
	if len(ctx.Args) != 1 {
		return command.Usagef("remote remove needs <name>")
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
	return transport.RemoveRemote(r, ctx.Args[0])
}

type listCommand struct{}

func (c *listCommand) Name() string                   { return "list" }
func (c *listCommand) Short() string                  { return "" }
func (c *listCommand) Aliases() []string              { return []string{"ls"} }
func (c *listCommand) Usage() string                  { return "list" }
func (c *listCommand) Brief() string                  { return "List remotes" }
func (c *listCommand) Help() string                   { return "List remotes with their paths." }
func (c *listCommand) Subcommands() []command.Command { return nil }
func (c *listCommand) Flags(fs *pflag.FlagSet)        {}
func (c *listCommand) Run(ctx *command.Context) error { return list(ctx) }

func init() {
	command.RegisterCommand(
		command.ApplyMiddlewares(
			&Command{},
			middleware.WithDebugArgsPrint(),
		),
	)
}
