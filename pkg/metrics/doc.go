/*
Package metrics provides daemon-level Prometheus instrumentation and HTTP
health/readiness/liveness endpoints for undomgrd.

Counters and histograms here cover the worker pool and the persistence
layer (workers active, undo executions by outcome, save/load duration);
per-Manager instrumentation (registrations, promotions, reschedules) lives
in pkg/undo's own Metrics type instead, since a Manager can be constructed
more than once in a test and must not fight over global registration.

	metrics.WorkersActive.Set(float64(cfg.Workers))
	timer := metrics.NewTimer()
	err := undoFunc(ctx, req)
	timer.ObserveDuration(metrics.UndoExecutionDuration)

Collector polls a set of named PingFuncs on an interval and feeds their
results into the health checker, since dependency reachability can only be
learned by probing it rather than counted as it happens:

	c := metrics.NewCollector(map[string]metrics.PingFunc{
		"persistence": func() (bool, string) { return true, "" },
	})
	c.Start()
	defer c.Stop()

http.Handle("/metrics", metrics.Handler()) exposes the registry;
HealthHandler, ReadyHandler and LivenessHandler expose JSON status for
"persistence" and "undoworker", the daemon's two critical components.
GetHealth reports "unhealthy" only when one of those two is down; any
other registered component failing only downgrades the report to
"degraded", since the daemon can keep handling undo requests without it.
GetReadiness cares about the two critical components alone.
*/
package metrics
