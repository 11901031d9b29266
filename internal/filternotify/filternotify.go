// Package filternotify contains the notification bus used to broadcast the
// lifecycle transitions of filters and filter groups.
//
// Delivery is synchronous: handlers are invoked in subscription order within
// the same call that committed the transition, so handlers must not assume
// asynchrony and must not block.
package filternotify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
)

// Kind is the kind of a lifecycle event.
type Kind uint8

// Kind values.
const (
	// KindFilterEnableDisable is emitted when the enabled flag of a filter
	// changes.
	KindFilterEnableDisable Kind = iota + 1

	// KindFilterAddRemove is emitted when a filter is installed or removed.
	KindFilterAddRemove

	// KindGroupEnableDisable is emitted when the enabled state of a group
	// changes.
	KindGroupEnableDisable
)

// type check
var _ fmt.Stringer = KindFilterEnableDisable

// String implements the [fmt.Stringer] interface for Kind.
func (k Kind) String() (s string) {
	switch k {
	case KindFilterEnableDisable:
		return "filter_enable_disable"
	case KindFilterAddRemove:
		return "filter_add_remove"
	case KindGroupEnableDisable:
		return "filter_group_enable_disable"
	default:
		return fmt.Sprintf("!bad_kind_%d", uint8(k))
	}
}

// Event is a single committed lifecycle transition.
type Event struct {
	// Filter is a snapshot of the filter the event is about.  It is nil for
	// group events.  Handlers must not modify it.
	Filter *agd.Filter

	// Group is a snapshot of the group the event is about.  It is nil for
	// filter events.  Handlers must not modify it.
	Group *agd.FilterGroup

	// Kind is the kind of this event.
	Kind Kind
}

// Handler processes lifecycle events.
type Handler interface {
	Handle(ctx context.Context, evt *Event)
}

// HandlerFunc is an adapter to allow the use of ordinary functions as
// [Handler].
type HandlerFunc func(ctx context.Context, evt *Event)

// type check
var _ Handler = HandlerFunc(nil)

// Handle implements the [Handler] interface for HandlerFunc.
func (f HandlerFunc) Handle(ctx context.Context, evt *Event) {
	f(ctx, evt)
}

// Bus broadcasts lifecycle events to its subscribers.  The zero value is not
// ready for use; call [NewBus].
type Bus struct {
	logger *slog.Logger

	// handlersMu protects handlers.
	handlersMu *sync.RWMutex
	handlers   []Handler
}

// BusConfig is the configuration structure for a bus.
type BusConfig struct {
	// Logger is used for logging the delivery of events.  It must not be
	// nil.
	Logger *slog.Logger
}

// NewBus returns a new bus with no subscribers.  c must not be nil.
func NewBus(c *BusConfig) (b *Bus) {
	return &Bus{
		logger:     c.Logger,
		handlersMu: &sync.RWMutex{},
	}
}

// Subscribe adds h to the subscribers of b.  h must not be nil.  There is no
// way to unsubscribe.
func (b *Bus) Subscribe(h Handler) {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()

	b.handlers = append(b.handlers, h)
}

// Notify delivers evt to every subscriber, synchronously and in subscription
// order.  A panicking handler does not prevent the delivery to the remaining
// ones.  evt must not be nil.
func (b *Bus) Notify(ctx context.Context, evt *Event) {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()

	b.logger.DebugContext(ctx, "notifying", "kind", evt.Kind, "num_handlers", len(b.handlers))

	for _, h := range b.handlers {
		b.deliver(ctx, h, evt)
	}
}

// deliver calls h with evt, recovering and logging a panic, if any.
func (b *Bus) deliver(ctx context.Context, h Handler, evt *Event) {
	defer slogutil.RecoverAndLog(ctx, b.logger)

	h.Handle(ctx, evt)
}
