/*
Package log provides structured logging for judged using zerolog.

The package wraps a single package-level zerolog.Logger, initialized once
via Init, with helper constructors for the context fields the judger
attaches most often: request id, language id, and test case index.

# Usage

	import "github.com/nullsector/judged/pkg/log"

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})

	log.Info("judged starting")

	requestLog := log.WithRequestID(uuid.NewString())
	requestLog.Info().Str("language_id", "cpp17").Msg("judge request received")

	caseLog := log.WithCase(3)
	caseLog.Warn().Msg("output truncated at limit")

# Levels

Debug is for sandbox-internals detail (cgroup reads, monitor ticks);
Info covers request lifecycle and plugin loading; Warn flags recoverable
admission pressure (semaphore near capacity); Error covers a single
request's failure; Fatal is reserved for startup failures that leave
the process unable to serve (no plugin registry, no cgroup controller).

Never log submission source code or program stdin/stdout at Info or
above — those may contain arbitrary contestant-supplied content.
*/
package log
