package daemon

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"stylus/internal/config"
	"stylus/internal/logging"
)

// hotplugMonitor listens for udev netlink events on the sound subsystem so
// an unplugged or re-enumerated capture interface shows up in the logs
// instead of surfacing only as opaque read errors.
type hotplugMonitor struct {
	logger *slog.Logger
	device string

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func newHotplugMonitor(cfg *config.Config, logger *slog.Logger) *hotplugMonitor {
	return &hotplugMonitor{
		logger: logging.NewComponentLogger(logger, "hotplug"),
		device: strings.TrimSpace(cfg.Audio.Device),
	}
}

// Start begins listening for udev netlink events. Failure to connect is not
// fatal; capture keeps working without hotplug visibility.
func (m *hotplugMonitor) Start(ctx context.Context) error {
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
		return err
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("sound hotplug monitor started", logging.String("device", m.device))
	return nil
}

// Stop shuts down the hotplug monitor.
func (m *hotplugMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false
	m.logger.Info("sound hotplug monitor stopped")
}

func (m *hotplugMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	events := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(events, errs, m.buildMatcher())
	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-events:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("hotplug monitor error", logging.Error(err))
		}
	}
}

// buildMatcher matches add/remove events on the sound subsystem.
func (m *hotplugMonitor) buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "sound",
		},
	})
	return rules
}

func (m *hotplugMonitor) handleEvent(uevent netlink.UEvent) {
	name := uevent.Env["DEVNAME"]
	if name == "" {
		name = uevent.KObj
	}

	switch string(uevent.Action) {
	case "add":
		m.logger.Info("sound device attached",
			logging.String("device", name),
			logging.String(logging.FieldEventType, "sound_device_added"))
	case "remove":
		m.logger.Warn("sound device removed; capture reads may start failing",
			logging.String("device", name),
			logging.String(logging.FieldEventType, "sound_device_removed"))
	}
}
