// Package catalog presents the contents of a blob store as a folder tree.
// Folders are composite nodes; documents are leaves whose value is their
// size in bytes, so the size of any folder is its Operation.
package catalog

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"structkit/internal/blob"
	"structkit/pkg/adapter"
	"structkit/pkg/composite"
)

// Tree is the root folder of a catalog.
type Tree = composite.Node[int64]

// Options tunes Build.
type Options struct {
	// MaxDepth bounds folder nesting during size computation; zero is unbounded.
	MaxDepth int
}

// Document is a leaf: a single stored blob.
type Document struct {
	name string
	key  string
	size adapter.Target[string, int64]
}

var _ composite.Component[int64] = (*Document)(nil)

func (d *Document) Name() string { return d.name }

// Key returns the full blob key.
func (d *Document) Key() string { return d.key }

// Operation returns the document size as currently stored.
func (d *Document) Operation(ctx context.Context) (int64, error) {
	return d.size.Request(ctx, d.key)
}

func sum(acc, next int64) int64 { return acc + next }

// Build lists every key in the folder prefix and arranges them by path
// segment. A trailing slash on prefix is optional. The root is named after
// prefix ("/" when empty).
func Build(ctx context.Context, store blob.Store, prefix string, opts Options) (*Tree, error) {
	sizer, err := blob.NewSizer(store)
	if err != nil {
		return nil, err
	}
	// prefix names a folder: "docs" must not pick up "docsx/..."
	rootName := strings.TrimSuffix(prefix, "/")
	listPrefix := ""
	if rootName != "" {
		listPrefix = rootName + "/"
	}
	infos, err := store.List(ctx, listPrefix)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", listPrefix, err)
	}
	var nodeOpts []composite.NodeOption
	if opts.MaxDepth > 0 {
		nodeOpts = append(nodeOpts, composite.WithMaxDepth(opts.MaxDepth))
	}
	if rootName == "" {
		rootName = "/"
	}
	root := composite.NewNode[int64](rootName, 0, sum, nodeOpts...)
	folders := map[string]*Tree{"": root}

	var folder func(dir string) (*Tree, error)
	folder = func(dir string) (*Tree, error) {
		if n, ok := folders[dir]; ok {
			return n, nil
		}
		parent, err := folder(parentDir(dir))
		if err != nil {
			return nil, err
		}
		n := composite.NewNode[int64](path.Base(dir), 0, sum)
		if err := parent.Add(n); err != nil {
			return nil, err
		}
		folders[dir] = n
		return n, nil
	}

	for _, info := range infos {
		rel := strings.TrimPrefix(info.Key, listPrefix)
		if rel == "" {
			continue
		}
		parent, err := folder(parentDir(rel))
		if err != nil {
			return nil, err
		}
		if err := parent.Add(&Document{name: path.Base(rel), key: info.Key, size: sizer}); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func parentDir(rel string) string {
	dir := path.Dir(rel)
	if dir == "." {
		return ""
	}
	return dir
}

// TotalSize returns the combined size of every document in tree.
func TotalSize(ctx context.Context, tree composite.Component[int64]) (int64, error) {
	return tree.Operation(ctx)
}

// Render writes an indented listing of tree: folders end in "/" and
// documents show their size.
func Render(ctx context.Context, tree composite.Component[int64], w io.Writer) error {
	return composite.Walk(ctx, tree, func(depth int, c composite.Component[int64]) error {
		indent := strings.Repeat("  ", depth)
		if _, isFolder := c.(composite.Parent[int64]); isFolder {
			name := c.Name()
			if !strings.HasSuffix(name, "/") {
				name += "/"
			}
			_, err := fmt.Fprintf(w, "%s%s\n", indent, name)
			return err
		}
		size, err := c.Operation(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s%s (%d bytes)\n", indent, c.Name(), size)
		return err
	})
}
