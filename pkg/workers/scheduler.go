package workers

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/wordgame/fictionary/pkg/log"
)

// DailyRoundWorker fires the curated round trigger on a cron schedule.
type DailyRoundWorker struct {
	cron    *cron.Cron
	spec    string
	trigger func(ctx context.Context) error
}

type NewDailyRoundWorkerOptions struct {
	// Spec is a standard cron expression, e.g. "0 22 * * *".
	Spec    string
	Trigger func(ctx context.Context) error
}

func NewDailyRoundWorker(opts NewDailyRoundWorkerOptions) *DailyRoundWorker {
	return &DailyRoundWorker{
		cron:    cron.New(),
		spec:    opts.Spec,
		trigger: opts.Trigger,
	}
}

// Start schedules the trigger and blocks until the context is cancelled.
// A trigger that finds a round already in progress is not an error; the
// request is remembered and replayed when the round finishes.
func (w *DailyRoundWorker) Start(ctx context.Context) error {
	_, err := w.cron.AddFunc(w.spec, func() {
		if err := w.trigger(ctx); err != nil {
			log.Warn("Curated round trigger: %v", err)
		}
	})
	if err != nil {
		return err
	}

	w.cron.Start()
	<-ctx.Done()
	stopped := w.cron.Stop()
	<-stopped.Done()
	return nil
}
