//go:build linux

package jail

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// sysProcAttr builds the namespace/chroot attributes for a jailed
// child: chroot into root, and enter
// fresh user/ipc/uts/pid/net/mount/cgroup namespaces. A new user
// namespace is skipped when the runtime is already rootless, since a
// rootless process cannot itself create one without already having
// one.
func sysProcAttr(root string, rootless bool) *syscall.SysProcAttr {
	cloneFlags := uintptr(unix.CLONE_NEWIPC | unix.CLONE_NEWUTS | unix.CLONE_NEWPID |
		unix.CLONE_NEWNET | unix.CLONE_NEWNS | unix.CLONE_NEWCGROUP)
	if !rootless {
		cloneFlags |= unix.CLONE_NEWUSER
	}

	return &syscall.SysProcAttr{
		Chroot:     root,
		Cloneflags: cloneFlags,
		Setsid:     true,
	}
}
