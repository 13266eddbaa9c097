/*
Package types defines the core data structures shared across judged's
sandboxed-execution pipeline: a judge Request, its TestCases, the
Corpse produced by one sandbox run, and the Verdict the pipeline emits
per case.

These types are deliberately free of any gRPC or TOML struct tags;
pkg/rpcserver and pkg/langs own the conversions to and from their wire
representations.
*/
package types
