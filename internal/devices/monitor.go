package devices

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"revostream/internal/logging"
)

// Hotplug actions reported by Monitor.
const (
	ActionAdded   = "device_added"
	ActionRemoved = "device_removed"
)

// Event is a video device appearing or disappearing.
type Event struct {
	Action string `json:"action"`
	Device string `json:"device"`
}

// Monitor listens for video4linux hotplug events on the udev netlink socket.
type Monitor struct {
	logger  *slog.Logger
	handler func(ctx context.Context, evt Event)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewMonitor returns a monitor that passes each event to handler.
func NewMonitor(logger *slog.Logger, handler func(ctx context.Context, evt Event)) *Monitor {
	return &Monitor{
		logger:  logging.NewComponentLogger(logger, "device-monitor"),
		handler: handler,
	}
}

// Start connects to netlink and begins delivering events. A socket that
// cannot be opened is logged and leaves the monitor stopped.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(m.logger, "netlink unavailable; device hotplug not tracked", "netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure the daemon may open netlink sockets"),
			logging.String(logging.FieldImpact, "device lists refresh only on request"),
		)
		return nil
	}
	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	go m.loop(ctx, conn, m.quit)

	m.logger.Info("device monitor started",
		logging.String(logging.FieldEventType, "device_monitor_started"),
	)
	return nil
}

// Stop closes the netlink socket.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	close(m.quit)
	m.quit = nil
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false
	m.logger.Info("device monitor stopped",
		logging.String(logging.FieldEventType, "device_monitor_stopped"),
	)
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) loop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, hotplugMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handle(ctx, uevent)
		case err := <-errs:
			logging.WarnWithContext(m.logger, "netlink monitor error", "netlink_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "hotplug events may be missed"),
			)
		}
	}
}

// hotplugMatcher matches SUBSYSTEM=video4linux with ACTION=add|remove.
func hotplugMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env:    map[string]string{"SUBSYSTEM": videoSubsystem},
	})
	return rules
}

func (m *Monitor) handle(ctx context.Context, uevent netlink.UEvent) {
	evt, ok := eventFromUEvent(uevent)
	if !ok {
		m.logger.Debug("ignoring uevent",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}
	m.logger.Info("video device changed",
		logging.String(logging.FieldEventType, evt.Action),
		logging.String("device", evt.Device),
	)
	if m.handler != nil {
		m.handler(ctx, evt)
	}
}

func eventFromUEvent(uevent netlink.UEvent) (Event, bool) {
	node := deviceNode(uevent.Env)
	if node == "" {
		return Event{}, false
	}
	switch uevent.Action {
	case netlink.ADD:
		return Event{Action: ActionAdded, Device: node}, true
	case netlink.REMOVE:
		return Event{Action: ActionRemoved, Device: node}, true
	default:
		return Event{}, false
	}
}
