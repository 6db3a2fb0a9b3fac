package status

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/keshon/bvc-subtree/internal/command"
	"github.com/keshon/bvc-subtree/internal/middleware"
	"github.com/keshon/bvc-subtree/internal/repo/store/file"
	"github.com/keshon/bvc-subtree/internal/ui"
)

type Command struct{}

func (c *Command) Name() string                   { return "status" }
func (c *Command) Short() string                  { return "S" }
func (c *Command) Aliases() []string              { return []string{"st"} }
func (c *Command) Usage() string                  { return "status [options]" }
func (c *Command) Brief() string                  { return "Show working tree and index status" }
func (c *Command) Subcommands() []command.Command { return nil }

func (c *Command) Help() string {
	return `Show the working tree status.

Options:
  -s, --short   Show short summary (XY path)
  -q, --quiet   Exit without output; the status is in the exit code`
}

func (c *Command) Flags(fs *pflag.FlagSet) {
	fs.BoolP("short", "s", false, "show short summary")
	fs.BoolP("quiet", "q", false, "suppress output")
}

func (c *Command) Run(ctx *command.Context) error {
	short, _ := ctx.Flags.GetBool("short")
	quiet, _ := ctx.Flags.GetBool("quiet")

	r, err := ctx.OpenRepo()
	if err != nil {
		return err
	}
	tip, branch, err := r.Head()
	if err != nil {
		return err
	}
	st, err := r.Status(ctx.Ctx)
	if err != nil {
		return err
	}
	if quiet {
		if !st.Clean() {
			return r.CheckClean(ctx.Ctx)
		}
		return nil
	}

	if short {
		printShort(ctx.Out, "A ", st.Staged.Added)
		printShort(ctx.Out, "M ", st.Staged.Modified)
		printShort(ctx.Out, "D ", st.Staged.Deleted)
		printShort(ctx.Out, " M", st.Unstaged.Modified)
		printShort(ctx.Out, " D", st.Unstaged.Deleted)
		printShort(ctx.Out, "??", st.Unstaged.Added)
		return nil
	}

	fmt.Fprintf(ctx.Out, "On branch %s\n", ui.Bold(branch))
	if tip == "" {
		fmt.Fprintln(ctx.Out, "\nNo commits yet")
	}
	if st.Clean() && len(st.Unstaged.Added) == 0 {
		fmt.Fprintln(ctx.Out, ui.Pass("nothing to commit, working tree clean"))
		return nil
	}
	if !st.Staged.Empty() {
		fmt.Fprintln(ctx.Out, "\nChanges to be committed:")
		printLong(ctx.Out, ui.Pass, st.Staged)
	}
	unstaged := file.Changes{Modified: st.Unstaged.Modified, Deleted: st.Unstaged.Deleted}
	if !unstaged.Empty() {
		fmt.Fprintln(ctx.Out, "\nChanges not staged for commit:")
		printLong(ctx.Out, ui.Fail, unstaged)
	}
	if len(st.Unstaged.Added) > 0 {
		fmt.Fprintln(ctx.Out, "\nUntracked files:")
		for _, p := range st.Unstaged.Added {
			fmt.Fprintf(ctx.Out, "\t%s\n", ui.Fail(p))
		}
	}
	return nil
}

func printShort(w io.Writer, code string, paths []string) {
	for _, p := range paths {
		fmt.Fprintf(w, "%s %s\n", code, p)
	}
}

func printLong(w io.Writer, style func(string) string, ch file.Changes) {
	for _, p := range ch.Added {
		fmt.Fprintf(w, "\t%s\n", style("new file:   "+p))
	}
	for _, p := range ch.Modified {
		fmt.Fprintf(w, "\t%s\n", style("modified:   "+p))
	}
	for _, p := range ch.Deleted {
		fmt.Fprintf(w, "\t%s\n", style("deleted:    "+p))
	}
}

func init() {
	command.RegisterCommand(
		command.ApplyMiddlewares(
			&Command{},
			middleware.WithDebugArgsPrint(),
		),
	)
}
