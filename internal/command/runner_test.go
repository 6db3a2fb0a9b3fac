package command

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keshon/bvc-subtree/internal/subtree"
)

func TestExecuteExitCodes(t *testing.T) {
	tr := NewTree()
	tr.Register(&fakeCommand{name: "ok"})
	tr.Register(&fakeCommand{name: "fails", err: errors.New("remote accepts 2 arg(s), requires at least one unknown flag")})
	tr.Register(&fakeCommand{name: "misused", err: Usagef("needs <name>")})
	tr.Register(&fakeCommand{name: "missing", err: subtree.ErrPrefixMissing})

	cases := []struct {
		args []string
		code int
	}{
		{[]string{"ok"}, 0},
		{[]string{"ok", "extra", "args"}, 0},
		{[]string{}, 0},
		{[]string{"fails"}, subtree.KindUnknown.ExitCode()},
		{[]string{"misused"}, ExitUsage},
		{[]string{"missing"}, subtree.KindPrecondition.ExitCode()},
		{[]string{"frobnicate"}, ExitUsage},
		{[]string{"ok", "--no-such-flag"}, ExitUsage},
		{[]string{"--log-level"}, ExitUsage},
	}
	for _, tc := range cases {
		var out, errOut bytes.Buffer
		code := execute(context.Background(), tr, tc.args, t.TempDir(), &out, &errOut)
		assert.Equal(t, tc.code, code, "%v: %s", tc.args, errOut.String())
	}
}

func TestExecuteReportsUnknownCommandName(t *testing.T) {
	tr := NewTree()
	tr.Register(&fakeCommand{name: "ok"})

	var out, errOut bytes.Buffer
	code := execute(context.Background(), tr, []string{"frobnicate"}, t.TempDir(), &out, &errOut)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut.String(), `unknown command "frobnicate"`)
}
