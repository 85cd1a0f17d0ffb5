package analyzer

import (
	"context"
	"fmt"

	"github.com/platinummonkey/morph/pkg/config"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReloadOnSchedule reloads the configuration at path on a cron schedule
// ("*/5 * * * *", "@every 10m"). It covers resource directories on network
// filesystems that do not deliver change events. It blocks until ctx is done
// and waits for a running reload before returning.
func (a *Analyzer) ReloadOnSchedule(ctx context.Context, schedule, path string) error {
	c := cron.New()

	log := a.log.WithFields(logrus.Fields{"config": path, "schedule": schedule})

	_, err := c.AddFunc(schedule, func() {
		cfg, err := config.LoadConfig(path)
		if err != nil {
			a.metrics.RecordReload(err)
			log.WithError(err).Error("Failed to load configuration for scheduled reload")
			return
		}
		_ = a.Reload(ctx, cfg)
	})
	if err != nil {
		return fmt.Errorf("invalid reload schedule %q: %w", schedule, err)
	}

	c.Start()
	log.Info("Scheduled configuration reloads")

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
