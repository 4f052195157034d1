package metrics

import "time"

// PingFunc reports whether a dependency the daemon relies on is currently
// reachable, along with an explanatory message on failure.
type PingFunc func() (healthy bool, message string)

// Collector periodically refreshes the health-check components for the
// daemon's dependencies. Unlike the undo-manager's own metrics, which are
// updated inline as operations happen, dependency reachability can only be
// known by probing it, so a ticker drives these checks.
type Collector struct {
	pings  map[string]PingFunc
	stopCh chan struct{}
}

// NewCollector creates a Collector that pings each named dependency.
// Typical keys are "persistence" and "undoworker".
func NewCollector(pings map[string]PingFunc) *Collector {
	return &Collector{
		pings:  pings,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting health status on a fixed interval.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	for name, ping := range c.pings {
		healthy, message := ping()
		UpdateComponent(name, healthy, message)
	}
}
