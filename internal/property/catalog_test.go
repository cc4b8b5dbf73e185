package property

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
)

const testCatalog = `{
	"properties": [
		{
			"id": "prop1",
			"type": "House",
			"bedrooms": 3,
			"price": 750000,
			"location": "Petts Wood Road, Orpington BR5",
			"added": {"month": "October", "day": 12, "year": 2022}
		},
		{
			"id": "prop2",
			"type": "Flat",
			"bedrooms": 2,
			"price": 399995,
			"location": "Crofton Road, Orpington BR6",
			"postcode": "BR6",
			"Date": "2022-09-14"
		}
	]
}`

// countingSource counts how many times the catalog was opened.
type countingSource struct {
	doc   string
	err   error
	opens atomic.Int32
}

func (s *countingSource) Open(_ context.Context) (io.ReadCloser, error) {
	s.opens.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.doc)), nil
}

func (s *countingSource) String() string { return "counting" }

func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog([]Property{{ID: "a"}, {ID: "b"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	if _, err := NewCatalog([]Property{{ID: "a"}, {ID: "a"}}); err == nil {
		t.Error("expected error for duplicate id")
	}
	if _, err := NewCatalog([]Property{{ID: ""}}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestCatalogGet(t *testing.T) {
	c, err := NewCatalog([]Property{{ID: "a", Type: "House"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := c.Get("a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Type != "House" {
		t.Errorf("Type = %q, want House", p.Type)
	}

	_, err = c.Get("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestCatalogAllIsCopy(t *testing.T) {
	c, err := NewCatalog([]Property{{ID: "a"}, {ID: "b"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	all := c.All()
	all[0].ID = "changed"

	if got := c.All()[0].ID; got != "a" {
		t.Errorf("catalog mutated through All(): %q", got)
	}
}

func TestDecode(t *testing.T) {
	props, err := Decode(strings.NewReader(testCatalog))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(props) != 2 {
		t.Fatalf("got %d properties, want 2", len(props))
	}
	if props[0].ID != "prop1" || props[1].ID != "prop2" {
		t.Errorf("order not preserved: %s, %s", props[0].ID, props[1].ID)
	}
}

func TestDecodeWholeFloatPrice(t *testing.T) {
	doc := `{"properties": [{"id": "a", "type": "House", "price": 750000.0, "bedrooms": 3.0}]}`

	props, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(props) != 1 || props[0].Price != 750000 || props[0].Bedrooms != 3 {
		t.Errorf("got %+v, want one property priced 750000 with 3 bedrooms", props)
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `not json`},
		{"missing properties", `{}`},
		{"properties not array", `{"properties": {}}`},
		{"missing id", `{"properties": [{"type": "House", "price": 1, "bedrooms": 1}]}`},
		{"string price", `{"properties": [{"id": "a", "type": "House", "price": "£1", "bedrooms": 1}]}`},
		{"fractional price", `{"properties": [{"id": "a", "type": "House", "price": 750000.5, "bedrooms": 1}]}`},
		{"negative bedrooms", `{"properties": [{"id": "a", "type": "House", "price": 1, "bedrooms": -1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.doc)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestValidateProperty(t *testing.T) {
	if err := ValidateProperty([]byte(`{"id":"a","type":"Flat","price":10,"bedrooms":0}`)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateProperty([]byte(`{"id":"a"}`)); err == nil {
		t.Error("expected error for incomplete property")
	}
}

func TestStoreLoadsOnce(t *testing.T) {
	src := &countingSource{doc: testCatalog}
	s := NewStore(src)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c, err := s.Catalog(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Len() != 2 {
			t.Fatalf("Len() = %d, want 2", c.Len())
		}
	}

	if got := src.opens.Load(); got != 1 {
		t.Errorf("source opened %d times, want 1", got)
	}
}

func TestStoreLoadFailure(t *testing.T) {
	src := &countingSource{err: errors.New("connection refused")}
	s := NewStore(src)
	ctx := context.Background()

	if err := s.Load(ctx); err == nil {
		t.Fatal("expected error, got nil")
	}

	c, err := s.Catalog(ctx)
	if err == nil {
		t.Fatal("expected error to persist after failed load")
	}
	if !strings.Contains(err.Error(), "failed to fetch properties") {
		t.Errorf("unexpected error: %v", err)
	}
	if c == nil || c.Len() != 0 {
		t.Errorf("expected empty catalog after failure")
	}
	if got := src.opens.Load(); got != 1 {
		t.Errorf("source opened %d times, want 1", got)
	}
}

func TestStoreDuplicateIDsFailLoad(t *testing.T) {
	src := &countingSource{doc: `{"properties": [
		{"id": "a", "type": "House", "price": 1, "bedrooms": 1},
		{"id": "a", "type": "Flat", "price": 2, "bedrooms": 1}
	]}`}
	s := NewStore(src)

	c, err := s.Catalog(context.Background())
	if err == nil {
		t.Fatal("expected error for duplicate ids")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestNewStaticStore(t *testing.T) {
	s := NewStaticStore(Property{ID: "a"}, Property{ID: "b"})
	c, err := s.Catalog(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}
