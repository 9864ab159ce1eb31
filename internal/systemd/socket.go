// Package systemd wraps socket activation and sd_notify for running kquota
// as a systemd service.
package systemd

import (
	"fmt"
	"net"
	"time"

	"github.com/coreos/go-systemd/v22/activation"
	"github.com/coreos/go-systemd/v22/daemon"
)

// Listener names, set with FileDescriptorName= in kquota.socket.
const (
	ControlSocketName = "control"
	MetricsSocketName = "metrics"
)

// Listeners holds the systemd-activated listeners.
type Listeners struct {
	Control   net.Listener
	Metrics   net.Listener
	Activated bool
}

// GetListeners retrieves systemd socket-activated file descriptors.
// Returns nil listeners if not running under socket activation.
func GetListeners() (*Listeners, error) {
	listeners := &Listeners{}

	fds := activation.Files(false)
	if len(fds) == 0 {
		return listeners, nil
	}
	listeners.Activated = true

	named, err := activation.ListenersWithNames()
	if err != nil {
		return nil, fmt.Errorf("failed to get systemd listeners: %w", err)
	}

	if lns, ok := named[ControlSocketName]; ok && len(lns) > 0 {
		listeners.Control = lns[0]
	}
	if lns, ok := named[MetricsSocketName]; ok && len(lns) > 0 {
		listeners.Metrics = lns[0]
	}

	return listeners, nil
}

// NotifyReady tells systemd the service has finished starting up.
func NotifyReady() error {
	return notify(daemon.SdNotifyReady)
}

// NotifyStopping tells systemd the service is shutting down.
func NotifyStopping() error {
	return notify(daemon.SdNotifyStopping)
}

// NotifyReloading tells systemd a configuration reload is in progress.
func NotifyReloading() error {
	return notify(daemon.SdNotifyReloading)
}

// NotifyWatchdog must be called periodically to prevent a watchdog timeout.
func NotifyWatchdog() error {
	return notify(daemon.SdNotifyWatchdog)
}

// WatchdogInterval returns how often NotifyWatchdog should be sent, half the
// configured WatchdogSec, or zero when the watchdog is disabled.
func WatchdogInterval() (time.Duration, error) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return 0, fmt.Errorf("failed to read watchdog settings: %w", err)
	}
	return interval / 2, nil
}

// notify is a no-op when not running under systemd.
func notify(state string) error {
	if _, err := daemon.SdNotify(false, state); err != nil {
		return fmt.Errorf("failed to send sd_notify %q: %w", state, err)
	}
	return nil
}
