package command_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/bvc-subtree/internal/command"
	_ "github.com/keshon/bvc-subtree/internal/command/branch"
	_ "github.com/keshon/bvc-subtree/internal/command/checkout"
	_ "github.com/keshon/bvc-subtree/internal/command/commit"
	_ "github.com/keshon/bvc-subtree/internal/command/fetch"
	_ "github.com/keshon/bvc-subtree/internal/command/init"
	_ "github.com/keshon/bvc-subtree/internal/command/log"
	_ "github.com/keshon/bvc-subtree/internal/command/merge"
	_ "github.com/keshon/bvc-subtree/internal/command/remote"
	_ "github.com/keshon/bvc-subtree/internal/command/reset"
	_ "github.com/keshon/bvc-subtree/internal/command/stage"
	_ "github.com/keshon/bvc-subtree/internal/command/status"
	_ "github.com/keshon/bvc-subtree/internal/command/subtree"
	_ "github.com/keshon/bvc-subtree/internal/command/verify"
	"github.com/keshon/bvc-subtree/internal/subtree"
)

type result struct {
	code int
	out  string
	err  string
}

func run(t *testing.T, dir string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := command.Execute(context.Background(), append([]string{"--log-level=error"}, args...), dir, &out, &errOut)
	return result{code: code, out: out.String(), err: errOut.String()}
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	res := run(t, dir, args...)
	require.Equal(t, 0, res.code, "bvc %v\nstdout: %s\nstderr: %s", args, res.out, res.err)
	return res.out
}

func write(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func read(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

// newRepo initializes a repository with one committed file.
func newRepo(t *testing.T, file, content string) string {
	t.Helper()
	dir := t.TempDir()
	mustRun(t, dir, "init", "-q")
	write(t, dir, file, content)
	mustRun(t, dir, "stage", "-A")
	mustRun(t, dir, "commit", "-m", "initial")
	return dir
}

func TestInitStageCommitLog(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "init")
	assert.Contains(t, out, "Initialized empty repository")

	out = mustRun(t, dir, "init")
	assert.Contains(t, out, "already exists")

	write(t, dir, "a.txt", "one")
	write(t, dir, "docs/b.md", "two")
	out = mustRun(t, dir, "add", "a.txt")
	assert.Contains(t, out, "Staged 1 file(s)")

	out = mustRun(t, filepath.Join(dir, "docs"), "stage")
	assert.Contains(t, out, "Staged 1 file(s)")

	out = mustRun(t, dir, "commit", "-m", "first", "-m", "body")
	assert.Contains(t, out, "[main ")
	assert.Contains(t, out, "first")

	out = mustRun(t, dir, "commit", "-m", "again")
	assert.Contains(t, out, "Nothing to commit")

	out = mustRun(t, dir, "log", "--oneline")
	assert.Contains(t, out, "first")

	out = mustRun(t, dir, "status")
	assert.Contains(t, out, "nothing to commit")
}

func TestInitialBranch(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "init", "-q", "-b", "trunk")
	out := mustRun(t, dir, "branch")
	assert.Contains(t, out, "* trunk")
	assert.NotContains(t, out, "main")
}

func TestStatusShort(t *testing.T) {
	dir := newRepo(t, "a.txt", "one")
	write(t, dir, "a.txt", "changed")
	write(t, dir, "new.txt", "x")

	out := mustRun(t, dir, "status", "-s")
	assert.Contains(t, out, " M a.txt")
	assert.Contains(t, out, "?? new.txt")

	res := run(t, dir, "status", "-q")
	assert.Equal(t, subtree.KindPrecondition.ExitCode(), res.code)
}

func TestBranchCheckoutMerge(t *testing.T) {
	dir := newRepo(t, "a.txt", "one")

	mustRun(t, dir, "branch", "feature")
	out := mustRun(t, dir, "checkout", "feature")
	assert.Contains(t, out, "Switched to branch feature")

	write(t, dir, "b.txt", "feature work")
	mustRun(t, dir, "stage", "-A")
	mustRun(t, dir, "commit", "-m", "feature")

	mustRun(t, dir, "checkout", "main")
	_, err := os.Stat(filepath.Join(dir, "b.txt"))
	assert.True(t, os.IsNotExist(err))

	out = mustRun(t, dir, "merge", "feature")
	assert.Contains(t, out, "Merged 'feature' into main")
	assert.Equal(t, "feature work", read(t, dir, "b.txt"))

	out = mustRun(t, dir, "merge", "feature")
	assert.Contains(t, out, "Already up to date.")
}

func TestMergeConflictExitCode(t *testing.T) {
	dir := newRepo(t, "a.txt", "base")
	mustRun(t, dir, "branch", "other")

	write(t, dir, "a.txt", "ours")
	mustRun(t, dir, "stage", "-A")
	mustRun(t, dir, "commit", "-m", "ours")

	mustRun(t, dir, "checkout", "other")
	write(t, dir, "a.txt", "theirs")
	mustRun(t, dir, "stage", "-A")
	mustRun(t, dir, "commit", "-m", "theirs")
	mustRun(t, dir, "checkout", "main")

	res := run(t, dir, "merge", "other")
	assert.Equal(t, subtree.KindMergeConflict.ExitCode(), res.code)
	assert.Contains(t, res.out, "CONFLICT: a.txt")
	assert.Contains(t, res.err, "merge conflict")
	assert.Equal(t, "ours", read(t, dir, "a.txt"))
	assert.Equal(t, "theirs", read(t, dir, "a.txt.MERGE_THEIRS"))

	mustRun(t, dir, "reset", "--hard")
	_, err := os.Stat(filepath.Join(dir, "a.txt.MERGE_THEIRS"))
	assert.True(t, os.IsNotExist(err))
}

func TestRemoteAndFetch(t *testing.T) {
	src := newRepo(t, "lib.go", "package lib")
	host := newRepo(t, "README", "host")

	mustRun(t, host, "remote", "add", "upstream", src)
	out := mustRun(t, host, "remote")
	assert.Contains(t, out, "upstream")

	out = mustRun(t, host, "fetch", "upstream", "main")
	assert.Contains(t, out, "Fetched")
	assert.Contains(t, out, "1 commits")

	out = mustRun(t, host, "log", "--oneline", "FETCH_HEAD")
	assert.Contains(t, out, "initial")

	res := run(t, host, "fetch", "upstream", "no..such")
	assert.Equal(t, subtree.KindResolution.ExitCode(), res.code)

	mustRun(t, host, "remote", "rm", "upstream")
	out = mustRun(t, host, "remote", "list")
	assert.NotContains(t, out, "upstream")
}

func TestSubtreeAddAndMerge(t *testing.T) {
	src := newRepo(t, "lib.go", "v1")
	host := newRepo(t, "README", "host")

	out := mustRun(t, host, "subtree", "add", "--prefix=vendor/lib", src, "main")
	assert.Contains(t, out, "Added dir 'vendor/lib'")
	assert.Equal(t, "v1", read(t, host, "vendor/lib/lib.go"))

	res := run(t, host, "subtree", "add", "-P", "vendor/lib", src, "main")
	assert.Equal(t, subtree.KindPrecondition.ExitCode(), res.code)

	write(t, src, "lib.go", "v2")
	mustRun(t, src, "stage", "-A")
	mustRun(t, src, "commit", "-m", "bump")

	out = mustRun(t, host, "subtree", "merge", "-P", "vendor/lib", src, "main")
	assert.Contains(t, out, "Merged into 'vendor/lib'")
	assert.Equal(t, "v2", read(t, host, "vendor/lib/lib.go"))
	assert.Equal(t, "host", read(t, host, "README"))

	out = mustRun(t, host, "log", "-n", "1")
	assert.Contains(t, out, "embedded-dir: vendor/lib")
}

func TestSubtreeSquash(t *testing.T) {
	src := newRepo(t, "lib.go", "v1")
	host := newRepo(t, "README", "host")

	mustRun(t, host, "subtree", "add", "--squash", "-P", "lib", src, "main")

	out := mustRun(t, host, "log", "--oneline")
	assert.Contains(t, out, "Squashed 'lib/' content from commit")

	res := run(t, host, "subtree", "merge", "--squash", "-P", "lib", src, "main")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.err, "Subtree is already at commit")
}

func TestSubtreeErrors(t *testing.T) {
	host := newRepo(t, "README", "host")

	cases := []struct {
		name string
		args []string
		code int
	}{
		{"missing prefix", []string{"subtree", "add", "HEAD"}, command.ExitUsage},
		{"missing source", []string{"subtree", "add", "-P", "lib"}, command.ExitUsage},
		{"unknown subcommand", []string{"subtree", "graft"}, command.ExitUsage},
		{"bad prefix", []string{"subtree", "add", "-P", "../up", "HEAD"}, subtree.KindPrecondition.ExitCode()},
		{"unknown commit", []string{"subtree", "add", "-P", "lib", "deadbeef"}, subtree.KindResolution.ExitCode()},
		{"squash merge without add", []string{"subtree", "merge", "--squash", "-P", "lib", "HEAD"}, subtree.KindNoPriorSync.ExitCode()},
		{"split", []string{"subtree", "split", "-P", "lib"}, subtree.KindNotImplemented.ExitCode()},
		{"push", []string{"subtree", "push", "-P", "lib", "origin", "main"}, subtree.KindNotImplemented.ExitCode()},
		{"pull", []string{"subtree", "pull", "-P", "lib", "origin", "main"}, subtree.KindNotImplemented.ExitCode()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := run(t, host, tc.args...)
			assert.Equal(t, tc.code, res.code, res.err)
			assert.NotEmpty(t, res.err)
		})
	}
}

func TestUnknownCommandAndOutsideRepo(t *testing.T) {
	res := run(t, t.TempDir(), "frobnicate")
	assert.Equal(t, command.ExitUsage, res.code)

	res = run(t, t.TempDir(), "status")
	assert.Equal(t, subtree.KindPrecondition.ExitCode(), res.code)
	assert.Contains(t, res.err, "not a bvc repository")
}

func TestVerify(t *testing.T) {
	dir := newRepo(t, "a.txt", "one")
	out := mustRun(t, dir, "verify")
	assert.Contains(t, out, "All blocks OK")
}
