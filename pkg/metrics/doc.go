/*
Package metrics provides Prometheus metrics collection and exposition
for judged.

Metrics are grouped by the component that owns them: the memory
semaphore (C1), the sandbox lifecycle (C2-C5), the judger pipeline
(C7), and the RPC surface (C9). All metrics are registered at package
init against the default Prometheus registry and exposed via
Handler(), typically mounted at /metrics alongside the health endpoints
in pkg/rpcserver.

Collector periodically samples the semaphore and plugin registry,
which are plain in-process structures with no event bus of their own,
into the package-level gauges.
*/
package metrics
