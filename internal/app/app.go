package app

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"devlink/internal/domain"
)

// Start loads or creates the local identity and syncs the registry's entry
// for this device.
func (w *Wire) Start(ctx context.Context) (domain.LocalDeviceIdentity, error) {
	local, err := w.Identity.Initialize(ctx)
	if err != nil {
		return domain.LocalDeviceIdentity{}, err
	}
	if err := w.Devices.Load(ctx); err != nil {
		return domain.LocalDeviceIdentity{}, err
	}
	return local, nil
}

// Close flushes metrics to the configured textfile and releases backend
// connections. All closers run; the first error wins.
func (w *Wire) Close() error {
	var first error
	if w.Gatherer != nil && w.Config.Metrics.Textfile != "" {
		if err := prometheus.WriteToTextfile(w.Config.Metrics.Textfile, w.Gatherer); err != nil {
			first = errors.Wrap(err, "write metrics textfile")
		}
	}
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i](); err != nil {
			if w.Log != nil {
				w.Log.Warn("close failed", slog.Any("error", err))
			}
			if first == nil {
				first = err
			}
		}
	}
	w.closers = nil
	return first
}
