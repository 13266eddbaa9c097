// Package rootfs assembles a per-sandbox root filesystem from a
// read-only tar-backed template plus a writable in-memory overlay
// that receives the submitted source and compile artifacts.
//
// A Template is loaded once per language plugin and shared by
// reference across every sandbox it originates. A Filesystem is a
// unique overlay over that template, bounded by a memory permit, and
// exposes the FUSE-shaped operation set (Lookup, Getattr, Readdir,
// Read, Write, Create, Unlink, Symlink, Mkdir, Rmdir, Open, Release,
// Flush) the source's adapter layer implements. Because this module
// targets a real chroot rather than an in-kernel FUSE mount, Mount
// materializes the merged view onto a fresh temporary directory
// instead of registering a kernel filesystem driver.
package rootfs
