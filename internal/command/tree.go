package command

import (
	"sort"
)

// Node represents a node in the command tree.
type Node struct {
	Cmd         Command
	Subcommands map[string]*Node
}

// CommandTree manages all commands and subcommands.
type CommandTree struct {
	root *Node
}

// NewTree creates a new empty command tree.
func NewTree() *CommandTree {
	return &CommandTree{
		root: &Node{Subcommands: make(map[string]*Node)},
	}
}

// Register inserts a command under its name and aliases.
func (t *CommandTree) Register(cmd Command) {
	for _, n := range names(cmd) {
		t.root.Subcommands[n] = &Node{Cmd: cmd}
	}
}

// Get returns a command by name or alias.
func (t *CommandTree) Get(name string) (Command, bool) {
	node, ok := t.root.Subcommands[name]
	if !ok {
		return nil, false
	}
	return node.Cmd, true
}

// Resolve walks down the command tree following args and returns the
// deepest command they name along with the remaining args.
func (t *CommandTree) Resolve(args []string) (Command, []string, bool) {
	var (
		cmd   Command
		level = t.root.Subcommands
	)
	for len(args) > 0 {
		next, ok := level[args[0]]
		if !ok {
			break
		}
		cmd = next.Cmd
		args = args[1:]
		level = map[string]*Node{}
		for _, sub := range cmd.Subcommands() {
			for _, n := range names(sub) {
				level[n] = &Node{Cmd: sub}
			}
		}
	}
	return cmd, args, cmd != nil
}

// TopLevel returns each registered command once, sorted by name.
func (t *CommandTree) TopLevel() []Command {
	seen := map[string]bool{}
	var out []Command
	for _, node := range t.root.Subcommands {
		if seen[node.Cmd.Name()] {
			continue
		}
		seen[node.Cmd.Name()] = true
		out = append(out, node.Cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func names(cmd Command) []string {
	out := []string{cmd.Name()}
	if s := cmd.Short(); s != "" {
		out = append(out, s)
	}
	return append(out, cmd.Aliases()...)
}
