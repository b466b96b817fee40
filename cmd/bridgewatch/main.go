// bridgewatch runs the host-side coordinator against a bridge URL and logs
// snapshot transitions. Useful for verifying a deployment before pointing
// the automation host at it.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"ttlock-bridge/internal/hostbridge"
	"ttlock-bridge/internal/logger"
)

func main() {
	var (
		bridgeURL = flag.String("bridge", "http://localhost:8080", "bridge base URL")
		interval  = flag.Duration("interval", hostbridge.DefaultInterval, "poll interval")
	)
	flag.Parse()

	log := logger.Get(logger.InfoLevel)

	coord := hostbridge.New(*bridgeURL, *interval, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go coord.Run(ctx)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Infow("stopping")
			return
		case <-ticker.C:
			if !coord.Available() {
				log.Warnw("bridge unavailable", "err", coord.LastError())
				continue
			}
			for _, l := range coord.Locks() {
				log.Infow("lock",
					"id", l.ID,
					"alias", l.Alias,
					"battery", l.Battery,
					"gateway", l.HasGateway,
				)
			}
		}
	}
}
