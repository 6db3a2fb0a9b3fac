package subtree

import (
	"context"
	"fmt"
)

// Operation is one subtree subcommand.
type Operation interface {
	Name() string
	Run(ctx context.Context, d *Driver) (Result, error)
}

type AddOp struct {
	AddOptions
}

func (AddOp) Name() string { return "add" }

func (op AddOp) Run(ctx context.Context, d *Driver) (Result, error) {
	return d.Add(ctx, op.AddOptions)
}

type MergeOp struct {
	MergeOptions
}

func (MergeOp) Name() string { return "merge" }

func (op MergeOp) Run(ctx context.Context, d *Driver) (Result, error) {
	return d.Merge(ctx, op.MergeOptions)
}

// SplitOp extracts the history of a prefix into a standalone line.
type SplitOp struct {
	Prefix string
	Commit string
}

func (SplitOp) Name() string { return "split" }

func (op SplitOp) Run(context.Context, *Driver) (Result, error) {
	return Result{}, notImplemented(op)
}

// PullOp fetches Ref from Remote and merges it into Prefix.
type PullOp struct {
	Prefix  string
	Remote  string
	Ref     string
	Squash  bool
	Message string
}

func (PullOp) Name() string { return "pull" }

func (op PullOp) Run(context.Context, *Driver) (Result, error) {
	return Result{}, notImplemented(op)
}

// PushOp splits Prefix and publishes it to Ref of Remote.
type PushOp struct {
	Prefix string
	Remote string
	Ref    string
}

func (PushOp) Name() string { return "push" }

func (op PushOp) Run(context.Context, *Driver) (Result, error) {
	return Result{}, notImplemented(op)
}

func notImplemented(op Operation) error {
	return fmt.Errorf("%w: subtree %s", ErrNotImplemented, op.Name())
}
