package rootfs

import "errors"

// The error taxonomy a rootfs operation can return, mapped 1:1 onto
// the POSIX errno family a real FUSE adapter would translate these
// into (IsDir->EISDIR, NotDir->ENOTDIR, InvalidPath->ENOENT,
// OutOfPermit->ENOMEM, OutOfRange->EOVERFLOW, PermissionDeny->EACCES,
// AlreadyExist->EEXIST, Unimplemented->EINVAL).
var (
	ErrIsDir          = errors.New("rootfs: not a readable file")
	ErrNotDir         = errors.New("rootfs: not a directory")
	ErrInvalidPath    = errors.New("rootfs: invalid path")
	ErrAlreadyExist   = errors.New("rootfs: already exists")
	ErrPermissionDeny = errors.New("rootfs: permission denied")
	ErrOutOfPermit    = errors.New("rootfs: out of permit")
	ErrOutOfRange     = errors.New("rootfs: number too large")
	ErrUnimplemented  = errors.New("rootfs: unimplemented")
)
