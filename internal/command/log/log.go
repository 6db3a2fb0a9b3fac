package log

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/keshon/bvc-subtree/internal/command"
	"github.com/keshon/bvc-subtree/internal/middleware"
	"github.com/keshon/bvc-subtree/internal/repo/meta"
	"github.com/keshon/bvc-subtree/internal/revwalk"
	"github.com/keshon/bvc-subtree/internal/ui"
)

type Command struct{}

func (c *Command) Name() string      { return "log" }
func (c *Command) Short() string     { return "" }
func (c *Command) Aliases() []string { return []string{"commits"} }
func (c *Command) Usage() string     { return "log [options] [revision]" }
func (c *Command) Brief() string     { return "Show commit history (current branch by default)" }
func (c *Command) Help() string {
	return `Show commit logs, newest first, parents after their children.

Options:
  -a, --all             Show commits reachable from any branch.
      --oneline         Show each commit as a single line (ID + subject).
  -n <count>            Limit to the first N commits.
      --since <date>    Show commits after the given date (YYYY-MM-DD).
      --until <date>    Show commits before the given date (YYYY-MM-DD).

Examples:
  bvc log
  bvc log -a
  bvc log --oneline -n 10
  bvc log main`
}

func (c *Command) Subcommands() []command.Command {
	return nil
}

func (c *Command) Flags(fs *pflag.FlagSet) {
	fs.BoolP("all", "a", false, "show commits from all branches")
	fs.Bool("oneline", false, "show each commit on one line")
	fs.IntP("max-count", "n", 0, "limit number of commits")
	fs.String("since", "", "show commits after date YYYY-MM-DD")
	fs.String("until", "", "show commits before date YYYY-MM-DD")
}

func (c *Command) Run(ctx *command.Context) error {
	all, _ := ctx.Flags.GetBool("all")
	oneline, _ := ctx.Flags.GetBool("oneline")
	limit, _ := ctx.Flags.GetInt("max-count")
	since, err := parseDate(ctx.Flags, "since")
	if err != nil {
		return err
	}
	until, err := parseDate(ctx.Flags, "until")
	if err != nil {
		return err
	}

	r, err := ctx.OpenRepo()
	if err != nil {
		return err
	}

	walk := revwalk.New(r.Meta)
	switch {
	case len(ctx.Args) > 0:
		id, err := r.Meta.ResolveRevision(ctx.Args[0])
		if err != nil {
			return err
		}
		walk.Push(id)
	case all:
		branches, err := r.Meta.ListBranches()
		if err != nil {
			return err
		}
		for _, b := range branches {
			tip, err := r.Meta.GetLastCommitID(b.Name)
			if err != nil {
				return err
			}
			if tip != "" {
				walk.Push(tip)
			}
		}
	default:
		tip, _, err := r.Head()
		if err != nil {
			return err
		}
		if tip != "" {
			walk.Push(tip)
		}
	}
	if err := walk.Prepare(ctx.Ctx); err != nil {
		return err
	}

	shown := 0
	for limit <= 0 || shown < limit {
		cmt, err := walk.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		t := cmt.Time()
		if !since.IsZero() && t.Before(since) {
			continue
		}
		if !until.IsZero() && t.After(until) {
			continue
		}
		shown++
		if oneline {
			fmt.Fprintf(ctx.Out, "%s %s\n", ui.Hash(cmt.ID), cmt.Subject())
			continue
		}
		printCommit(ctx.Out, cmt)
	}

	if shown == 0 {
		fmt.Fprintln(ctx.Out, "No commits found")
	}
	return nil
}

func parseDate(fs *pflag.FlagSet, name string) (time.Time, error) {
	v, _ := fs.GetString(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, command.Usagef("--%s: %v", name, err)
	}
	return t, nil
}

func printCommit(w io.Writer, cmt *meta.Commit) {
	fmt.Fprintf(w, "%s %s\n", ui.Muted("Commit:"), ui.HashStyle.Render(cmt.ID))
	if cmt.Branch != "" {
		fmt.Fprintf(w, "%s %s\n", ui.Muted("Branch:"), cmt.Branch)
	}
	if len(cmt.Parents) > 1 {
		short := make([]string, len(cmt.Parents))
		for i, p := range cmt.Parents {
			short[i] = meta.ShortID(p)
		}
		fmt.Fprintf(w, "%s  %s\n", ui.Muted("Merge:"), strings.Join(short, " "))
	}
	fmt.Fprintf(w, "%s   %s\n\n", ui.Muted("Date:"), cmt.Time().Format("Mon Jan 2 15:04:05 2006"))
	for _, line := range strings.Split(cmt.Message, "\n") {
		if strings.TrimSpace(line) == "" {
			fmt.Fprintln(w)
			continue
		}
		fmt.Fprintf(w, "    %s\n", line)
	}
	fmt.Fprintln(w)
}

func init() {
	command.RegisterCommand(
		command.ApplyMiddlewares(
			&Command{},
			middleware.WithDebugArgsPrint(),
		),
	)
}
