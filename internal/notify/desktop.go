package notify

import (
	"github.com/gen2brain/beeep"

	"github.com/servup/servup/internal/logging"
)

// Desktop forwards bus events to the OS notification center. It is a
// wildcard subscriber; disabling it unsubscribes without touching other
// listeners.
type Desktop struct {
	bus    *Bus
	logger *logging.Logger
	subID  uint64
	send   func(title, message string) error
}

// NewDesktop creates a desktop sink for the bus. It starts detached;
// call Enable to begin forwarding.
func NewDesktop(bus *Bus, logger *logging.Logger) *Desktop {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Desktop{
		bus:    bus,
		logger: logger.WithComponent("notify"),
		send: func(title, message string) error {
			// Empty icon path lets beeep pick the platform default.
			return beeep.Notify(title, message, "")
		},
	}
}

// Enable subscribes the sink to every event on the bus.
func (d *Desktop) Enable() {
	if d.subID != 0 {
		return
	}
	d.subID = d.bus.SubscribeAll(func(e Event) {
		if err := d.send(e.Title(), e.Message()); err != nil {
			// Notification delivery is best effort; a missing
			// notify daemon must not disturb the engine.
			d.logger.Debug("desktop notification failed",
				"event_type", e.EventType(),
				"error", err.Error())
		}
	})
}

// Disable unsubscribes the sink.
func (d *Desktop) Disable() {
	if d.subID == 0 {
		return
	}
	d.bus.Unsubscribe(d.subID)
	d.subID = 0
}

// Enabled reports whether the sink is currently subscribed.
func (d *Desktop) Enabled() bool { return d.subID != 0 }
