package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	broadcastdomain "github.com/smallbiznis/lendora/internal/broadcast/domain"
	obsmetrics "github.com/smallbiznis/lendora/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       broadcastdomain.Repository
	Sender     broadcastdomain.Sender
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

// Registry owns the cron scheduler for broadcast slots. It is the only
// writer of cron entries; Reconcile throws every entry away and re-adds
// one daily job per active slot, so the scheduler always mirrors the
// slot table exactly.
type Registry struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       broadcastdomain.Repository
	sender     broadcastdomain.Sender
	obsMetrics *obsmetrics.Metrics

	mu      sync.Mutex
	cron    *cron.Cron
	entries []cron.EntryID
}

func New(p Params) *Registry {
	return &Registry{
		db:         p.DB,
		log:        p.Log.Named("broadcast.registry"),
		repo:       p.Repo,
		sender:     p.Sender,
		obsMetrics: p.ObsMetrics,
		cron:       cron.New(),
	}
}

// Reconcile rebuilds the scheduler from the slot table. Rebuilds are
// serialized; remove-all-then-add-all is not atomic on its own.
func (r *Registry) Reconcile(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	active, err := r.repo.ListActive(ctx, r.db)
	if err != nil {
		return fmt.Errorf("load active slots: %w", err)
	}

	for _, id := range r.entries {
		r.cron.Remove(id)
	}
	r.entries = r.entries[:0]

	for _, slot := range active {
		hour, minute, err := broadcastdomain.SplitTime(slot.SendTime)
		if err != nil {
			r.log.Warn("skipping slot with malformed time",
				zap.Int("slot", slot.Slot),
				zap.String("send_time", slot.SendTime),
			)
			continue
		}
		id, err := r.cron.AddFunc(
			fmt.Sprintf("%d %d * * *", minute, hour),
			r.jobFor(slot),
		)
		if err != nil {
			return fmt.Errorf("register slot %d: %w", slot.Slot, err)
		}
		r.entries = append(r.entries, id)
	}

	if r.obsMetrics != nil {
		r.obsMetrics.RecordReconcile(len(r.entries))
	}
	r.log.Info("broadcast jobs rebuilt", zap.Int("registered", len(r.entries)))
	return nil
}

// jobFor captures the slot as configured at reconcile time. A later edit
// triggers a fresh rebuild, so stale captures never fire.
func (r *Registry) jobFor(slot broadcastdomain.BroadcastSlot) func() {
	return func() {
		ctx := context.Background()
		if slot.ChatID == nil {
			r.log.Warn("broadcast slot fired without destination", zap.Int("slot", slot.Slot))
			r.recordSend("no_destination")
			return
		}
		if err := r.sender.Send(ctx, *slot.ChatID, slot.Message); err != nil {
			r.log.Error("broadcast delivery failed",
				zap.Int("slot", slot.Slot),
				zap.Int64("chat_id", *slot.ChatID),
				zap.Error(err),
			)
			r.recordSend("error")
			return
		}
		r.recordSend("ok")
	}
}

func (r *Registry) recordSend(status string) {
	if r.obsMetrics != nil {
		r.obsMetrics.RecordBroadcastSend(status)
	}
}

// Start loads the initial registrations and begins firing jobs.
func (r *Registry) Start(ctx context.Context) error {
	if err := r.Reconcile(ctx); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for any in-flight job.
func (r *Registry) Stop(ctx context.Context) error {
	stopped := r.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RegisteredJobs reports how many jobs the scheduler currently holds.
func (r *Registry) RegisteredJobs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
