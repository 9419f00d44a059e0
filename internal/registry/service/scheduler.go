package service

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// StartRefreshSchedule refreshes the snapshot on the given cron spec
// (with seconds, e.g. "0 */10 * * * *"). The returned cron is already
// started; stop it on shutdown.
func (s *RegistryService) StartRefreshSchedule(spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(spec, func() {
		if err := s.Refresh(context.Background()); err != nil {
			log.Printf("[warn] request_id=internal operation=registry_refresh error=%v", err)
		}
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[info] request_id=internal operation=registry_refresh schedule=%q", spec)
	c.Start()
	return c, nil
}
