package command

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommand struct {
	name    string
	short   string
	aliases []string
	subs    []Command
	ran     *[]string
	err     error
}

func (f *fakeCommand) Name() string            { return f.name }
func (f *fakeCommand) Short() string           { return f.short }
func (f *fakeCommand) Aliases() []string       { return f.aliases }
func (f *fakeCommand) Usage() string           { return f.name }
func (f *fakeCommand) Brief() string           { return f.name }
func (f *fakeCommand) Help() string            { return f.name }
func (f *fakeCommand) Subcommands() []Command  { return f.subs }
func (f *fakeCommand) Flags(fs *pflag.FlagSet) {}
func (f *fakeCommand) Run(ctx *Context) error {
	if f.ran != nil {
		*f.ran = append(*f.ran, f.name)
	}
	return f.err
}

func TestTreeRegisterAndGet(t *testing.T) {
	tr := NewTree()
	tr.Register(&fakeCommand{name: "status", short: "S", aliases: []string{"st"}})
	tr.Register(&fakeCommand{name: "commit"})

	for _, n := range []string{"status", "S", "st"} {
		cmd, ok := tr.Get(n)
		require.True(t, ok, n)
		assert.Equal(t, "status", cmd.Name())
	}
	_, ok := tr.Get("nope")
	assert.False(t, ok)

	top := tr.TopLevel()
	require.Len(t, top, 2)
	assert.Equal(t, "commit", top[0].Name())
	assert.Equal(t, "status", top[1].Name())
}

func TestTreeResolveSubcommands(t *testing.T) {
	tr := NewTree()
	tr.Register(&fakeCommand{name: "remote", subs: []Command{
		&fakeCommand{name: "add"},
		&fakeCommand{name: "remove", aliases: []string{"rm"}},
	}})

	cmd, rest, ok := tr.Resolve([]string{"remote", "rm", "origin"})
	require.True(t, ok)
	assert.Equal(t, "remove", cmd.Name())
	assert.Equal(t, []string{"origin"}, rest)

	cmd, rest, ok = tr.Resolve([]string{"remote"})
	require.True(t, ok)
	assert.Equal(t, "remote", cmd.Name())
	assert.Empty(t, rest)

	_, _, ok = tr.Resolve([]string{"fetch"})
	assert.False(t, ok)
}

func TestApplyMiddlewaresOrder(t *testing.T) {
	var ran []string
	mw := func(tag string) Middleware {
		return func(cmd Command) Command {
			return &WrappedCommand{Command: cmd, Wrap: func(ctx *Context) error {
				ran = append(ran, tag)
				return cmd.Run(ctx)
			}}
		}
	}
	cmd := ApplyMiddlewares(&fakeCommand{name: "x", ran: &ran}, mw("inner"), mw("outer"))

	require.NoError(t, cmd.Run(&Context{}))
	assert.Equal(t, []string{"outer", "inner", "x"}, ran)
	assert.Equal(t, "x", cmd.Name())
}

func TestContextPath(t *testing.T) {
	c := &Context{WorkDir: "/work/tree"}
	assert.Equal(t, "/work/tree/a/b", c.Path("a/b"))
	assert.Equal(t, "/abs", c.Path("/abs/"))
}

func TestUsagef(t *testing.T) {
	err := Usagef("bad %s", "thing")
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), "bad thing")
}

func TestApplyMiddlewaresReachesSubcommands(t *testing.T) {
	var ran []string
	mw := func(cmd Command) Command {
		return &WrappedCommand{Command: cmd, Wrap: func(ctx *Context) error {
			ran = append(ran, "mw:"+cmd.Name())
			return cmd.Run(ctx)
		}}
	}
	parent := ApplyMiddlewares(&fakeCommand{name: "remote", subs: []Command{
		&fakeCommand{name: "add", ran: &ran},
	}}, mw)

	subs := parent.Subcommands()
	require.Len(t, subs, 1)
	require.NoError(t, subs[0].Run(&Context{}))
	assert.Equal(t, []string{"mw:add", "add"}, ran)
}
