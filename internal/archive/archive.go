// Package archive stores documents in a blob store under keys chosen by a
// layout. Layouts and stores vary independently: any layout runs on any
// blob driver.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"structkit/internal/blob"
	"structkit/pkg/bridge"
)

// ErrEmptyName is returned for documents without a name.
var ErrEmptyName = errors.New("archive: empty document name")

// Document is what callers archive.
type Document struct {
	Name        string
	Body        []byte
	ContentType string
	Metadata    map[string]string
}

// Object is a document on its way to the store; Key is filled in by the layout.
type Object struct {
	Document
	Key string
}

// Receipt describes an archived document.
type Receipt struct {
	Key    string
	Layout string
	Info   blob.Info
}

// StoreImplementor writes objects to a blob store.
type StoreImplementor struct {
	Store blob.Store
}

var _ bridge.Implementor[Object, blob.Info] = StoreImplementor{}

func (s StoreImplementor) Implement(ctx context.Context, obj Object) (blob.Info, error) {
	return s.Store.Put(ctx, obj.Key, bytes.NewReader(obj.Body), blob.PutOptions{
		ContentType: obj.ContentType,
		Metadata:    obj.Metadata,
	})
}

// Layout maps a document name to a store key.
type Layout interface {
	Name() string
	Key(name string) (string, error)
}

// PlainLayout keys documents as prefix/name.
type PlainLayout struct {
	Prefix string
}

func (PlainLayout) Name() string { return "plain" }

func (l PlainLayout) Key(name string) (string, error) {
	return join(l.Prefix, name)
}

// DatedLayout keys documents as prefix/YYYY/MM/DD/name using the UTC date.
type DatedLayout struct {
	Prefix string
	Now    func() time.Time // defaults to time.Now
}

func (DatedLayout) Name() string { return "dated" }

func (l DatedLayout) Key(name string) (string, error) {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	return join(l.Prefix, now().UTC().Format("2006/01/02"), name)
}

func join(parts ...string) (string, error) {
	name := parts[len(parts)-1]
	if strings.TrimSpace(name) == "" {
		return "", ErrEmptyName
	}
	return strings.TrimPrefix(path.Join(parts...), "/"), nil
}

// Archive is the abstraction: it assigns keys by layout and hands the
// write to its implementor.
type Archive struct {
	layout Layout
	store  blob.Store
	op     bridge.Operator[Object, blob.Info]
}

// New returns an archive writing to store with layout.
func New(layout Layout, store blob.Store) (*Archive, error) {
	if layout == nil {
		return nil, errors.New("archive: nil layout")
	}
	if store == nil {
		return nil, errors.New("archive: nil store")
	}
	assignKey := func(_ context.Context, obj Object) (Object, error) {
		key, err := layout.Key(obj.Name)
		if err != nil {
			return Object{}, err
		}
		obj.Key = key
		return obj, nil
	}
	op, err := bridge.Refine[Object, blob.Info](StoreImplementor{Store: store}, assignKey, nil)
	if err != nil {
		return nil, err
	}
	return &Archive{layout: layout, store: store, op: op}, nil
}

// Layout returns the key layout in use.
func (a *Archive) Layout() Layout { return a.layout }

// Store returns the underlying blob store.
func (a *Archive) Store() blob.Store { return a.store }

// Put archives doc and returns where it went.
func (a *Archive) Put(ctx context.Context, doc Document) (Receipt, error) {
	info, err := a.op.Operation(ctx, Object{Document: doc})
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{Key: info.Key, Layout: a.layout.Name(), Info: info}, nil
}

// Get reads back an archived document by key.
func (a *Archive) Get(ctx context.Context, key string) (Document, error) {
	info, rc, err := a.store.Get(ctx, key)
	if err != nil {
		return Document{}, err
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", key, err)
	}
	return Document{Name: path.Base(key), Body: body, ContentType: info.ContentType, Metadata: info.Metadata}, nil
}
