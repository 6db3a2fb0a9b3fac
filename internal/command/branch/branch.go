package branch

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/keshon/bvc-subtree/internal/command"
	"github.com/keshon/bvc-subtree/internal/middleware"
	"github.com/keshon/bvc-subtree/internal/ui"
)

type Command struct{}

func (c *Command) Name() string                   { return "branch" }
func (c *Command) Short() string                  { return "B" }
func (c *Command) Aliases() []string              { return []string{"br"} }
func (c *Command) Usage() string                  { return "branch [<branch-name> [<start-point>]]" }
func (c *Command) Brief() string                  { return "List all branches or create a new one" }
func (c *Command) Subcommands() []command.Command { return nil }
func (c *Command) Flags(fs *pflag.FlagSet)        {}

func (c *Command) Help() string {
	return `List all branches or create a new one.

Usage:
  branch                       - list all branches (current marked with '*')
  branch <name>                - create a new branch at the current tip
  branch <name> <start-point>  - create a new branch at a revision`
}

func (c *Command) Run(ctx *command.Context) error {
	if len(ctx.Args) > 2 {
		return command.Usagef("too many arguments")
	}

	r, err := ctx.OpenRepo()
	if err != nil {
		return err
	}

	if len(ctx.Args) > 0 {
		name := ctx.Args[0]
		start := "HEAD"
		if len(ctx.Args) == 2 {
			start = ctx.Args[1]
		}
		unlock, err := r.Lock()
		if err != nil {
			return err
		}
		defer unlock()

		tip, _, err := r.Head()
		if err != nil {
			return err
		}
		if start != "HEAD" || tip != "" {
			if tip, err = r.Meta.ResolveRevision(start); err != nil {
				return err
			}
		}
		b, err := r.Meta.CreateBranch(name, tip)
		if err != nil {
			return fmt.Errorf("failed to create branch %q: %w", name, err)
		}
		fmt.Fprintf(ctx.Out, "Branch '%s' created at %s\n", b.Name, ui.Hash(tip))
		return nil
	}

	current, err := r.Meta.GetCurrentBranch()
	if err != nil {
		return fmt.Errorf("failed to determine current branch: %w", err)
	}
	all, err := r.Meta.ListBranches()
	if err != nil {
		return err
	}
	for _, b := range all {
		if b.Name == current.Name {
			fmt.Fprintln(ctx.Out, "* "+ui.Pass(b.Name))
			continue
		}
		fmt.Fprintln(ctx.Out, "  "+b.Name)
	}
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
