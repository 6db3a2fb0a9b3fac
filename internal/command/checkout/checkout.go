package checkout

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/keshon/bvc-subtree/internal/command"
	"github.com/keshon/bvc-subtree/internal/middleware"
	"github.com/keshon/bvc-subtree/internal/repo/store/file"
)

type Command struct{}

func (c *Command) Name() string                   { return "checkout" }
func (c *Command) Short() string                  { return "C" }
func (c *Command) Aliases() []string              { return []string{"co"} }
func (c *Command) Usage() string                  { return "checkout <branch-name>" }
func (c *Command) Brief() string                  { return "Switch to another branch" }
func (c *Command) Subcommands() []command.Command { return nil }
func (c *Command) Flags(fs *pflag.FlagSet)        {}
func (c *Command) Help() string {
	return `Switch to another branch.

The working tree must be clean. Its content and the index are replaced
by the tree of the branch tip; an unborn branch leaves them empty.

Usage:
  checkout <branch-name>`
}

func (c *Command) Run(ctx *command.Context) error {
	if len(ctx.Args) != 1 {
		return command.Usagef("branch name required")
	}
	name := ctx.Args[0]

	r, err := ctx.OpenRepo()
	if err != nil {
		return err
	}
	unlock, err := r.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	if !r.Meta.BranchExists(name) {
		return fmt.Errorf("branch %q does not exist", name)
	}
	if err := r.CheckClean(ctx.Ctx); err != nil {
		return err
	}

	tip, err := r.Meta.GetLastCommitID(name)
	if err != nil {
		return err
	}
	var files []file.Entry
	if tip != "" {
		fset, err := r.CommitFileset(tip)
		if err != nil {
			return err
		}
		files = fset.Files
	}
	if err := r.Checkout(files, ""); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	if err := r.WriteIndex(files); err != nil {
		return err
	}
	if _, err := r.Meta.SetHeadRef(name); err != nil {
		return err
	}

	if tip == "" {
		fmt.Fprintln(ctx.Out, "Branch is empty, switched to", name)
		return nil
	}
	fmt.Fprintln(ctx.Out, "Switched to branch", name)
	return nil
}

func init() {
	command.RegisterCommand(
		command.ApplyMiddlewares(
			&Command{},
			middleware.WithDebugArgsPrint(),
			middleware.WithBlockIntegrityCheck(),
		),
	)
}
