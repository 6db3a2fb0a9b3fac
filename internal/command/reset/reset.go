package reset

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/keshon/bvc-subtree/internal/command"
	"github.com/keshon/bvc-subtree/internal/middleware"
	"github.com/keshon/bvc-subtree/internal/ui"
)

type Command struct{}

func (c *Command) Name() string                   { return "reset" }
func (c *Command) Short() string                  { return "R" }
func (c *Command) Aliases() []string              { return []string{"drop"} }
func (c *Command) Usage() string                  { return "reset [<revision>] [--soft|--mixed|--hard]" }
func (c *Command) Brief() string                  { return "Reset current branch to a commit or HEAD" }
func (c *Command) Subcommands() []command.Command { return nil }
func (c *Command) Help() string {
	return `Reset the current branch.
Modes:
  --soft  : move the branch tip only
  --mixed : move the tip and reset the index (default)
  --hard  : move the tip, reset the index and the working tree
If <revision> is omitted, HEAD is used. 'reset --hard' after a conflicted
merge discards the partial result and the .MERGE_THEIRS files.`
}

func (c *Command) Flags(fs *pflag.FlagSet) {
	fs.Bool("soft", false, "move the branch tip only")
	fs.Bool("mixed", false, "move the tip and reset the index")
	fs.Bool("hard", false, "move the tip, reset the index and the working tree")
}

func (c *Command) Run(ctx *command.Context) error {
	mode := "mixed"
	set := 0
	for _, m := range []string{"soft", "mixed", "hard"} {
		if on, _ := ctx.Flags.GetBool(m); on {
			mode = m
			set++
		}
	}
	if set > 1 {
		return command.Usagef("conflicting reset modes")
	}
	if len(ctx.Args) > 1 {
		return command.Usagef("unknown option or duplicate revision: %s", ctx.Args[1])
	}
	rev := "HEAD"
	if len(ctx.Args) == 1 {
		rev = ctx.Args[0]
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

	tip, branch, err := r.Head()
	if err != nil {
		return err
	}
	if tip == "" {
		return fmt.Errorf("no commits to reset to")
	}
	target, err := r.Meta.ResolveRevision(rev)
	if err != nil {
		return err
	}
	fset, err := r.CommitFileset(target)
	if err != nil {
		return err
	}

	if err := r.Meta.CompareAndSwapTip(branch, tip, target); err != nil {
		return err
	}
	if mode != "soft" {
		if err := r.WriteIndex(fset.Files); err != nil {
			return err
		}
	}
	if mode == "hard" {
		if err := r.Checkout(fset.Files, ""); err != nil {
			return err
		}
	}

	fmt.Fprintf(ctx.Out, "Reset '%s' to %s (%s)\n", branch, ui.Hash(target), mode)
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
