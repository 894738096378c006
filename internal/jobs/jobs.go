// Package jobs runs the periodic maintenance and notification work: the
// daily digest of decisions released today, OG cache pruning and rate
// limiter sweeps.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"collegedecision/internal/datespec"
	"collegedecision/internal/ics"
	appLog "collegedecision/internal/log"
	"collegedecision/internal/model"
	"collegedecision/internal/suggest"
)

// Default schedules, in the decision zone.
const (
	DefaultDigestSchedule = "0 8 * * *"
	DefaultPruneSchedule  = "17 * * * *"
	DefaultSweepSchedule  = "*/5 * * * *"
)

// DigestTitle is the embed title of the daily digest.
const DigestTitle = "📅 Decisions Released Today"

// Pruner drops stale cache files.
type Pruner interface {
	Prune() (int, error)
}

// Sweeper drops expired rate-limit windows.
type Sweeper interface {
	Sweep() int
}

// Options configures which jobs run and when.
type Options struct {
	DigestEnabled  bool
	DigestSchedule string
	PruneSchedule  string
	SweepSchedule  string
	BaseURL        string
}

// Manager owns the cron scheduler and the job dependencies. Nil
// dependencies disable their job.
type Manager struct {
	cron     *cron.Cron
	opts     Options
	list     func() []model.University
	notifier suggest.Notifier
	pruner   Pruner
	sweeper  Sweeper
	now      func() time.Time
}

// NewManager builds a manager. list is called on every digest run so the
// digest sees the current data.
func NewManager(opts Options, list func() []model.University, notifier suggest.Notifier, pruner Pruner, sweeper Sweeper) *Manager {
	if opts.DigestSchedule == "" {
		opts.DigestSchedule = DefaultDigestSchedule
	}
	if opts.PruneSchedule == "" {
		opts.PruneSchedule = DefaultPruneSchedule
	}
	if opts.SweepSchedule == "" {
		opts.SweepSchedule = DefaultSweepSchedule
	}
	return &Manager{
		cron:     cron.New(cron.WithLocation(datespec.Zone)),
		opts:     opts,
		list:     list,
		notifier: notifier,
		pruner:   pruner,
		sweeper:  sweeper,
		now:      time.Now,
	}
}

// Start registers the enabled jobs and starts the scheduler.
func (m *Manager) Start() error {
	if err := m.register(); err != nil {
		return err
	}
	m.cron.Start()
	appLog.Info("cron jobs started", "entries", len(m.cron.Entries()))
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (m *Manager) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	appLog.Info("cron jobs stopped")
}

func (m *Manager) register() error {
	if m.opts.DigestEnabled && m.notifier != nil && m.list != nil {
		if _, err := m.cron.AddFunc(m.opts.DigestSchedule, func() {
			m.logJobStart("digest")
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if n, err := m.Digest(ctx); err != nil {
				appLog.Error("digest job failed", err)
			} else {
				appLog.Info("digest job done", "count", n)
			}
		}); err != nil {
			return fmt.Errorf("schedule digest %q: %w", m.opts.DigestSchedule, err)
		}
	}

	if m.pruner != nil {
		if _, err := m.cron.AddFunc(m.opts.PruneSchedule, func() {
			m.logJobStart("og_prune")
			n, err := m.pruner.Prune()
			if err != nil {
				appLog.Error("og prune failed", err)
				return
			}
			appLog.Info("og prune done", "removed", n)
		}); err != nil {
			return fmt.Errorf("schedule prune %q: %w", m.opts.PruneSchedule, err)
		}
	}

	if m.sweeper != nil {
		if _, err := m.cron.AddFunc(m.opts.SweepSchedule, func() {
			m.logJobStart("ratelimit_sweep")
			appLog.Debug("rate limit sweep done", "removed", m.sweeper.Sweep())
		}); err != nil {
			return fmt.Errorf("schedule sweep %q: %w", m.opts.SweepSchedule, err)
		}
	}
	return nil
}

func (m *Manager) logJobStart(name string) {
	appLog.Debug("cron job starting", "job", name, "at", m.now().Format(time.RFC3339))
}

// Today returns the decision occurrences that fall on the current day in
// the decision zone. It goes through the same calendar export the site
// serves, so the digest and the .ics feed cannot disagree.
func (m *Manager) Today() ([]ics.Occurrence, error) {
	now := m.now().In(datespec.Zone)
	body, err := ics.Export(m.list(), ics.ExportOptions{BaseURL: m.opts.BaseURL, Now: now})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	events, err := ics.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, datespec.Zone)
	end := start.AddDate(0, 0, 1).Add(-time.Second)
	occs, err := ics.Expand(events, start, end, 0)
	if err != nil {
		return nil, fmt.Errorf("expand: %w", err)
	}

	out := occs[:0]
	for _, o := range occs {
		if o.Kind == ics.KindEarly || o.Kind == ics.KindRegular {
			out = append(out, o)
		}
	}
	return out, nil
}

// Digest posts today's decisions to the notifier and returns how many were
// listed. Nothing is posted on a day without decisions.
func (m *Manager) Digest(ctx context.Context) (int, error) {
	occs, err := m.Today()
	if err != nil {
		return 0, err
	}
	if len(occs) == 0 {
		return 0, nil
	}

	var b strings.Builder
	for _, o := range occs {
		fmt.Fprintf(&b, "• %s at %s\n", o.Summary, o.Start.In(datespec.Zone).Format("3:04 PM"))
	}
	embed := suggest.Embed{
		Title:       DigestTitle,
		Description: strings.TrimRight(b.String(), "\n"),
		Color:       suggest.EmbedColor,
		Timestamp:   m.now().UTC().Format(time.RFC3339),
	}
	if err := m.notifier.Send(ctx, embed); err != nil {
		return 0, fmt.Errorf("send digest: %w", err)
	}
	return len(occs), nil
}
