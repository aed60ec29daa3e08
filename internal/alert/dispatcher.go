package alert

import (
	"context"
	"errors"
	"sync"
)

// Dispatcher fans out alert events to matching webhook configurations.
type Dispatcher struct {
	configs []AlertConfig
}

// NewDispatcher creates a Dispatcher from webhook configurations.
// Returns nil if configs is empty; a nil Dispatcher is safe to use.
func NewDispatcher(configs []AlertConfig) *Dispatcher {
	if len(configs) == 0 {
		return nil
	}
	return &Dispatcher{configs: configs}
}

// Dispatch sends the event to every webhook whose Events list contains
// event.Result. Deliveries run in parallel; Dispatch returns once all of
// them finished, because the process usually exits right after.
func (d *Dispatcher) Dispatch(ctx context.Context, event AlertEvent) error {
	if d == nil {
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, cfg := range d.configs {
		if !matches(cfg.Events, event) {
			continue
		}
		wg.Add(1)
		go func(cfg AlertConfig) {
			defer wg.Done()
			if err := Send(ctx, cfg, event); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(cfg)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func matches(events []string, event AlertEvent) bool {
	for _, e := range events {
		if e == event.Result {
			return true
		}
	}
	return false
}
