// Package pipeline drives one judge request end to end: acquire a
// memory permit, resolve the language plugin, compile the submitted
// source once, then run it against every test case in order, emitting
// a case-started frame followed by a result frame for each. Dropping
// the pipeline (context cancellation) tears the compiled runner down:
// rootfs unmounted, cgroup killed, permit released.
package pipeline
