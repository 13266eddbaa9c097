// Package jail spawns the sandboxed child: chroot into a mounted
// rootfs, fresh namespaces, cgroup attachment, a scrubbed environment,
// piped stdin/stdout, and a race between the child's own exit, the
// resource monitor's exhaustion signal, and a hard absolute timeout.
// Capabilities are not dropped explicitly; the child keeps whatever
// the new namespaces leave it.
package jail
