package manager

import (
	"context"
	"sort"
	"time"

	"github.com/cristianoliveira/tmux-localnotify/internal/metrics"
	"github.com/cristianoliveira/tmux-localnotify/internal/platform"
)

// ReconcileReport lists what a reconciliation pass changed.
type ReconcileReport struct {
	Armed     []int32
	Disarmed  []int32
	Dismissed []int32
}

// Reconcile brings the platform in line with the store: every notification
// that is still due gets armed, armed triggers without a record are
// disarmed, and visible notifications without a record are dismissed.
func (m *Manager) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	all, err := m.env.Store.All(ctx)
	if err != nil {
		return report, err
	}
	metrics.IncReconcile()

	var armed map[int32]time.Time
	if l, ok := m.env.Registrar.(platform.ArmedLister); ok {
		armed = l.Armed()
	}

	known := make(map[int32]bool, len(all))
	for _, opts := range all {
		known[opts.ID] = true
		if !opts.Pending() {
			continue
		}
		at := opts.Trigger.Time()
		if cur, ok := armed[opts.ID]; ok && cur.Equal(at) {
			continue
		}
		if err := m.env.Registrar.Arm(ctx, opts.ID, at, m); err != nil {
			metrics.IncPlatformFailure("registrar", "arm")
			m.log.Warn("platform_failure", "collaborator", "registrar", "op", "arm", "id", opts.ID, "error", err.Error())
			continue
		}
		report.Armed = append(report.Armed, opts.ID)
	}

	for id := range armed {
		if known[id] {
			continue
		}
		if err := m.env.Registrar.Disarm(ctx, id); err != nil {
			metrics.IncPlatformFailure("registrar", "disarm")
			m.log.Warn("platform_failure", "collaborator", "registrar", "op", "disarm", "id", id, "error", err.Error())
			continue
		}
		report.Disarmed = append(report.Disarmed, id)
	}

	if l, ok := m.env.Renderer.(platform.VisibleLister); ok {
		visible, err := l.Visible(ctx)
		if err != nil {
			metrics.IncPlatformFailure("renderer", "visible")
			m.log.Warn("platform_failure", "collaborator", "renderer", "op", "visible", "error", err.Error())
		}
		for _, id := range visible {
			if known[id] {
				continue
			}
			if err := m.env.Renderer.Dismiss(ctx, id); err != nil {
				metrics.IncPlatformFailure("renderer", "dismiss")
				continue
			}
			report.Dismissed = append(report.Dismissed, id)
		}
	}

	sortIDs(report.Disarmed)
	if len(report.Armed)+len(report.Disarmed)+len(report.Dismissed) > 0 {
		m.log.Info("reconciled", "armed", len(report.Armed), "disarmed", len(report.Disarmed), "dismissed", len(report.Dismissed))
	}
	return report, nil
}

func sortIDs(ids []int32) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
