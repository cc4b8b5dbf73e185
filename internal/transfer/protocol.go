package transfer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/evcraddock/havenrise/internal/property"
)

// ErrAlreadyFavourite refuses an add drag for a property that is already a
// favourite. It is an advisory for the user, not a failure.
var ErrAlreadyFavourite = errors.New("this property is already in your favourites")

// Favourites is the part of the favourites store a drop mutates.
type Favourites interface {
	Add(ctx context.Context, p property.Property) (bool, error)
	Remove(ctx context.Context, id string) (bool, error)
	Contains(id string) bool
}

// Observer is told the result of every drop.
type Observer interface {
	Dropped(channel, result string)
}

// Drop results reported to the Observer.
const (
	ResultApplied = "applied"
	ResultNoop    = "noop"
	ResultIgnored = "ignored"
	ResultFailed  = "failed"
)

// Outcome describes what a drop did. Drops are always accepted.
type Outcome struct {
	Kind       Kind
	PropertyID string
	// Applied is true when the favourites set changed.
	Applied bool
	// Ignored holds the reason a payload was dropped without effect.
	Ignored error
	// Err holds a persistence failure. The in-memory change still applies.
	Err error
}

// Result names the outcome for logs and metrics.
func (o Outcome) Result() string {
	switch {
	case o.Ignored != nil:
		return ResultIgnored
	case o.Err != nil:
		return ResultFailed
	case o.Applied:
		return ResultApplied
	default:
		return ResultNoop
	}
}

// Protocol starts drags and applies drops against the favourites store.
type Protocol struct {
	favourites Favourites
	logger     *slog.Logger
	observer   Observer
}

// New creates a Protocol. logger and observer may be nil.
func New(favourites Favourites, logger *slog.Logger, observer Observer) *Protocol {
	if logger == nil {
		logger = slog.Default()
	}
	return &Protocol{favourites: favourites, logger: logger, observer: observer}
}

// StartAdd begins dragging p from the listing. It refuses with
// ErrAlreadyFavourite, writing nothing, if p is already a favourite.
func (pr *Protocol) StartAdd(dt DataTransfer, p property.Property) error {
	if pr.favourites.Contains(p.ID) {
		return ErrAlreadyFavourite
	}
	return Encode(dt, Message{Kind: AddRequest, Property: p})
}

// StartRemove begins dragging p out of the favourites.
func (pr *Protocol) StartRemove(dt DataTransfer, p property.Property) error {
	return Encode(dt, Message{Kind: RemoveRequest, Property: p})
}

// DropOnFavourites handles a drop on the favourites target: an add.
func (pr *Protocol) DropOnFavourites(ctx context.Context, dt DataTransfer) Outcome {
	return pr.drop(ctx, dt, AddRequest)
}

// DropOnListing handles a drop on the listing target: a remove.
func (pr *Protocol) DropOnListing(ctx context.Context, dt DataTransfer) Outcome {
	return pr.drop(ctx, dt, RemoveRequest)
}

func (pr *Protocol) drop(ctx context.Context, dt DataTransfer, kind Kind) Outcome {
	out := Outcome{Kind: kind}

	msg, err := Decode(dt, kind)
	if err != nil {
		out.Ignored = err
		pr.logger.Debug("ignoring drop", "channel", kind.Channel(), "reason", err)
		pr.report(out)
		return out
	}
	out.PropertyID = msg.Property.ID

	switch msg.Kind {
	case AddRequest:
		out.Applied, out.Err = pr.favourites.Add(ctx, msg.Property)
	case RemoveRequest:
		out.Applied, out.Err = pr.favourites.Remove(ctx, msg.Property.ID)
	}

	if out.Err != nil {
		pr.logger.Error("drop not persisted", "channel", kind.Channel(), "id", out.PropertyID, "error", out.Err)
	} else {
		pr.logger.Info("drop handled", "channel", kind.Channel(), "id", out.PropertyID, "applied", out.Applied)
	}
	pr.report(out)
	return out
}

func (pr *Protocol) report(o Outcome) {
	if pr.observer != nil {
		pr.observer.Dropped(o.Kind.Channel(), o.Result())
	}
}
