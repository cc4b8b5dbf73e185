// Package transfer implements the drag-and-drop contract between the listing
// view and the favourites view.
//
// A drag carries one serialized property on a named channel. The channel
// signals intent: ChannelAdd from the listing to the favourites drop target,
// ChannelRemove from the favourites back to the listing.
package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/evcraddock/havenrise/internal/property"
)

// Channel names used as drag-data formats.
const (
	ChannelAdd    = "house"
	ChannelRemove = "houseToRemove"
)

var (
	// ErrNoPayload means the drag carried nothing on the expected channel.
	ErrNoPayload = errors.New("no payload on channel")
	// ErrInvalidPayload means the payload is not a valid property.
	ErrInvalidPayload = errors.New("invalid payload")
)

// Kind is the intent carried by a drag.
type Kind int

const (
	AddRequest Kind = iota + 1
	RemoveRequest
)

func (k Kind) String() string {
	switch k {
	case AddRequest:
		return "add"
	case RemoveRequest:
		return "remove"
	default:
		return "unknown"
	}
}

// Channel returns the drag-data format for the kind.
func (k Kind) Channel() string {
	if k == RemoveRequest {
		return ChannelRemove
	}
	return ChannelAdd
}

// ParseKind maps "add" and "remove" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add":
		return AddRequest, nil
	case "remove":
		return RemoveRequest, nil
	default:
		return 0, fmt.Errorf("unknown intent %q (must be add or remove)", s)
	}
}

// Message is a decoded drag.
type Message struct {
	Kind     Kind
	Property property.Property
}

// DataTransfer is the platform drag-data channel.
type DataTransfer interface {
	SetData(format, data string)
	GetData(format string) string
}

// Payload is a DataTransfer backed by a map, keyed by channel.
type Payload map[string]string

// SetData stores data under format.
func (p Payload) SetData(format, data string) { p[format] = data }

// GetData returns the data stored under format, or "".
func (p Payload) GetData(format string) string { return p[format] }

// Encode writes m onto its channel of dt.
func Encode(dt DataTransfer, m Message) error {
	data, err := json.Marshal(m.Property)
	if err != nil {
		return fmt.Errorf("encoding property: %w", err)
	}
	dt.SetData(m.Kind.Channel(), string(data))
	return nil
}

// Decode reads the kind's channel of dt and validates the property on it.
func Decode(dt DataTransfer, kind Kind) (Message, error) {
	raw := dt.GetData(kind.Channel())
	if strings.TrimSpace(raw) == "" {
		return Message{}, fmt.Errorf("%s: %w", kind.Channel(), ErrNoPayload)
	}

	if err := property.ValidateProperty([]byte(raw)); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	var p property.Property
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return Message{Kind: kind, Property: p}, nil
}
