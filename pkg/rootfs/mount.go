package rootfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/nullsector/judged/pkg/semaphore"
)

// MountHandle is a materialized, real directory on disk standing in
// for the Filesystem's merged view, suitable for C5 to chroot into.
// Unmount removes the directory tree and, if the Filesystem was built
// against a Permit, the permit is released by the caller — the
// permit's lifetime is owned by the pipeline, not by MountHandle.
type MountHandle struct {
	dir string
}

// Path returns the real filesystem path the sandbox should chroot
// into.
func (h *MountHandle) Path() string {
	return h.dir
}

// Unmount removes the temporary directory tree. Safe to call more
// than once.
func (h *MountHandle) Unmount() error {
	if h.dir == "" {
		return nil
	}
	err := os.RemoveAll(h.dir)
	h.dir = ""
	return err
}

// Mount materializes fs's merged view onto a fresh temporary
// directory under tmpRoot.
func Mount(fs *Filesystem, tmpRoot string) (*MountHandle, error) {
	dir, err := os.MkdirTemp(tmpRoot, "judged-sandbox-")
	if err != nil {
		return nil, fmt.Errorf("creating mount dir: %w", err)
	}

	merged := fs.walk()

	// Directories must be created before the files and links that
	// live inside them; sorting by path length is a cheap
	// approximation of topological order since every ancestor's path
	// is a strict prefix, hence shorter.
	paths := make([]string, 0, len(merged))
	for p := range merged {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return len(paths[i]) < len(paths[j]) })

	for _, p := range paths {
		entry := merged[p]
		target := filepath.Join(dir, p)
		if entry.kind == overlayDirectory {
			if err := os.MkdirAll(target, 0o755); err != nil {
				os.RemoveAll(dir)
				return nil, fmt.Errorf("creating directory %s: %w", p, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			os.RemoveAll(dir)
			return nil, fmt.Errorf("creating parent of %s: %w", p, err)
		}
		if err := os.WriteFile(target, entry.data, 0o755); err != nil {
			os.RemoveAll(dir)
			return nil, fmt.Errorf("writing %s: %w", p, err)
		}
	}

	return &MountHandle{dir: dir}, nil
}

// InsertSource is the pipeline's hook to place the submitted source at
// the plugin spec's source_filename path before the rootfs is mounted.
func InsertSource(fs *Filesystem, sourceFilename string, source []byte, permit *semaphore.Permit) error {
	if uint64(len(source)) > permit.Bytes() {
		return ErrOutOfPermit
	}
	return fs.Write(sourceFilename, source)
}
