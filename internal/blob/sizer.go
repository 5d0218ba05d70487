package blob

import (
	"errors"

	"structkit/pkg/adapter"
)

// Sizer answers "how big is key" by adapting Store.Head, which speaks in
// Info, to a plain byte count.
type Sizer = adapter.Adapter[string, int64, string, Info]

// NewSizer returns a Sizer over store.
func NewSizer(store Store) (*Sizer, error) {
	if store == nil {
		return nil, errors.New("blob: nil store")
	}
	return adapter.New[string, int64, string, Info](
		adapter.AdapteeFunc[string, Info](store.Head),
		adapter.Identity[string],
		func(info Info) int64 { return info.Size },
	)
}
