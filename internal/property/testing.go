package property

import (
	"context"
	"io"
	"strings"
)

// staticSource serves an in-memory catalog document.
type staticSource struct {
	doc string
}

func (s staticSource) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.doc)), nil
}

func (s staticSource) String() string { return "static" }

// NewStaticStore returns a loaded store holding props in order.
// This should only be used in tests.
func NewStaticStore(props ...Property) *Store {
	c, err := NewCatalog(props)
	s := &Store{source: staticSource{}, catalog: c, err: err}
	if err != nil {
		s.catalog = emptyCatalog()
	}
	s.once.Do(func() {})
	return s
}

// NewFailedStore returns a store whose load failed with err.
// This should only be used in tests.
func NewFailedStore(err error) *Store {
	s := &Store{source: staticSource{}, catalog: emptyCatalog(), err: err}
	s.once.Do(func() {})
	return s
}
