package merge

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/keshon/bvc-subtree/internal/command"
	"github.com/keshon/bvc-subtree/internal/merge"
	"github.com/keshon/bvc-subtree/internal/middleware"
	"github.com/keshon/bvc-subtree/internal/ui"
)

type Command struct{}

func (c *Command) Name() string      { return "merge" }
func (c *Command) Short() string     { return "" }
func (c *Command) Aliases() []string { return []string{"mg"} }
func (c *Command) Usage() string     { return "merge <branch|commit>" }
func (c *Command) Brief() string     { return "Merge another branch into the current branch" }
func (c *Command) Help() string {
	return `Perform a three-way merge of the given revision into the current branch.

Conflicting files keep the current content; the incoming version is
written next to them as <path>.MERGE_THEIRS and nothing is committed.`
}
func (c *Command) Subcommands() []command.Command {
	return nil
}
func (c *Command) Flags(fs *pflag.FlagSet) {
	fs.StringP("message", "m", "", "merge commit message")
}

func (c *Command) Run(ctx *command.Context) error {
	if len(ctx.Args) != 1 {
		return command.Usagef("branch name required")
	}
	target := ctx.Args[0]
	message, _ := ctx.Flags.GetString("message")

	r, err := ctx.OpenRepo()
	if err != nil {
		return err
	}
	unlock, err := r.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	_, branch, err := r.Head()
	if err != nil {
		return err
	}
	if branch == target {
		return fmt.Errorf("cannot merge branch into itself")
	}
	theirs, err := r.Meta.ResolveRevision(target)
	if err != nil {
		return err
	}
	if err := r.CheckClean(ctx.Ctx); err != nil {
		return err
	}
	if message == "" {
		message = fmt.Sprintf("Merge '%s' into %s", target, branch)
	}

	res, err := merge.NewExecutor(r).Merge(ctx.Ctx, merge.Request{Theirs: theirs, Message: message})
	var conflict *merge.ConflictError
	if errors.As(err, &conflict) {
		for _, p := range res.Conflicts {
			fmt.Fprintf(ctx.Out, "CONFLICT: %s\n", ui.Fail(p))
		}
		return err
	}
	if err != nil {
		return err
	}
	if res.UpToDate {
		fmt.Fprintln(ctx.Out, "Already up to date.")
		return nil
	}
	fmt.Fprintf(ctx.Out, "Merged '%s' into %s as %s\n", target, branch, ui.Hash(res.Commit.ID))
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
