package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/dispatch"
	"github.com/comalice/hsm/examples/door"
	"github.com/comalice/hsm/logging"
	"github.com/comalice/hsm/metrics"
	"github.com/comalice/hsm/observe"
	"github.com/comalice/hsm/visualize"
)

// EnvMetricsAddr enables a /metrics endpoint on the given address.
const EnvMetricsAddr = "HSM_METRICS_ADDR"

var script = []door.Event{
	door.Lock, door.Open, door.Unlock, door.Open, door.Lock, door.Close,
}

func main() {
	log := logging.NewFromEnv()
	defer log.Sync() //nolint:errcheck

	reg := prometheus.NewRegistry()
	collector := metrics.MustNew(reg)

	publishChan := make(chan observe.Notification, 100)
	publisher := observe.NewChannelPublisher(publishChan)
	defer publisher.Close()

	d, err := door.New(
		hsm.WithSink(logging.NewZapSink(log)),
		hsm.WithObserver(collector),
		hsm.WithObserver(publisher),
	)
	if err != nil {
		log.Fatal("creating door", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q := dispatch.New[door.Event](d.Engine())
	if err := q.Start(ctx); err != nil {
		log.Fatal("starting queue", zap.Error(err))
	}
	defer q.Stop() //nolint:errcheck

	if addr := os.Getenv(EnvMetricsAddr); addr != "" {
		srv := &http.Server{Addr: addr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", zap.Error(err))
			}
		}()
		defer srv.Close()
		log.Info("serving metrics", zap.String("addr", addr))
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for cycle := 0; ; {
		select {
		case <-ticker.C:
			ev := script[cycle%len(script)]
			handled, err := q.SendSync(ctx, ev)
			if err != nil {
				log.Error("send", zap.String("event", string(ev)), zap.Error(err))
				return
			}
			fmt.Printf("\n--- Cycle %d: %s (handled=%t) ---\n", cycle+1, ev, handled)
			drain(publishChan)

			var state string
			var effect door.Effect
			var dot string
			err = q.Do(ctx, func() {
				state, effect = d.State(), d.Effect
				dot = visualize.EngineDOT(d.Engine())
			})
			if err != nil {
				return
			}
			fmt.Printf("State: %s  Effect: %s\n", state, effect)
			fmt.Println("DOT:\n" + dot)

			cycle++
			if cycle >= 2*len(script) {
				fmt.Printf("Demo complete after %d cycles (%d notifications dropped).\n", cycle, publisher.Dropped())
				return
			}
		case <-ctx.Done():
			fmt.Println("\nShutting down gracefully...")
			return
		}
	}
}

func drain(ch <-chan observe.Notification) {
	for {
		select {
		case n := <-ch:
			switch {
			case n.Transition != nil:
				fmt.Println("Published:", observe.FormatTransition(*n.Transition))
			case n.Event != nil:
				fmt.Println("Published:", observe.FormatEvent(*n.Event))
			}
		default:
			return
		}
	}
}
