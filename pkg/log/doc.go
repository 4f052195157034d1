/*
Package log provides structured logging built on zerolog.

A single global Logger is configured once via Init and read everywhere
else. WithComponent starts a subsystem's logger off the global one;
WithWorkerID/WithDBID/WithFxid each take a logger and return one with an
extra field, so they compose into a chain that narrows from subsystem
down to the single request being handled.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	workerLog := log.WithWorkerID(log.WithComponent("undoworker"), id)
	reqLog := log.WithFxid(log.WithDBID(workerLog, dbid), fxid)
	reqLog.Info().Msg("undo request completed")

JSON output is for daemon deployments; console output (zerolog's
ConsoleWriter) is for local development. Fatal exits the process, so it
is reserved for startup failures the daemon cannot run without
(configuration load, persistence open).
*/
package log
