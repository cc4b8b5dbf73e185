package property

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// ErrNotFound is returned when a property id is not in the catalog.
var ErrNotFound = errors.New("property not found")

// Document is the shape of the catalog resource.
type Document struct {
	Properties []Property `json:"properties"`
}

// Catalog is a read-only, ordered set of properties keyed by id.
type Catalog struct {
	properties []Property
	byID       map[string]int
}

// NewCatalog builds a catalog in the given order.
// Empty or duplicate ids are rejected.
func NewCatalog(props []Property) (*Catalog, error) {
	c := &Catalog{
		properties: make([]Property, len(props)),
		byID:       make(map[string]int, len(props)),
	}
	for i, p := range props {
		if p.ID == "" {
			return nil, fmt.Errorf("property at index %d has no id", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate property id %q", p.ID)
		}
		c.byID[p.ID] = i
		c.properties[i] = p
	}
	return c, nil
}

// emptyCatalog is the working set after a failed load.
func emptyCatalog() *Catalog {
	return &Catalog{byID: map[string]int{}}
}

// All returns the properties in catalog order. The slice is a copy.
func (c *Catalog) All() []Property {
	out := make([]Property, len(c.properties))
	copy(out, c.properties)
	return out
}

// Get returns the property with the given id.
func (c *Catalog) Get(id string) (Property, error) {
	i, ok := c.byID[id]
	if !ok {
		return Property{}, fmt.Errorf("property %s: %w", id, ErrNotFound)
	}
	return c.properties[i], nil
}

// Len returns the number of properties.
func (c *Catalog) Len() int {
	return len(c.properties)
}

// Decode reads a catalog document, validates it against the catalog schema
// and returns its properties.
func Decode(r io.Reader) ([]Property, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	if err := ValidateCatalog(raw); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return doc.Properties, nil
}

// Store holds the catalog fetched once from its source.
type Store struct {
	source Source
	logger *slog.Logger

	once    sync.Once
	catalog *Catalog
	err     error
}

// NewStore creates a catalog store reading from source.
func NewStore(source Source) *Store {
	return &Store{source: source, logger: slog.Default()}
}

// Load fetches the catalog. Only the first call fetches; later calls return
// the outcome of the first. On failure the store serves an empty catalog.
func (s *Store) Load(ctx context.Context) error {
	s.once.Do(func() {
		s.catalog, s.err = s.fetch(ctx)
		if s.err != nil {
			s.logger.Error("catalog load failed", "source", s.source.String(), "error", s.err)
			s.catalog = emptyCatalog()
			return
		}
		s.logger.Info("catalog loaded", "source", s.source.String(), "properties", s.catalog.Len())
	})
	return s.err
}

// Catalog returns the loaded catalog, loading it on first use.
// The catalog is never nil; after a failed load it is empty and err is set.
func (s *Store) Catalog(ctx context.Context) (*Catalog, error) {
	err := s.Load(ctx)
	return s.catalog, err
}

func (s *Store) fetch(ctx context.Context) (*Catalog, error) {
	rc, err := s.source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch properties: %w", err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			s.logger.Warn("closing catalog source", "error", cerr)
		}
	}()

	props, err := Decode(rc)
	if err != nil {
		return nil, err
	}
	return NewCatalog(props)
}
