package rootfs

import (
	"path"
	"sync"
)

// overlayKind tags what an overlay entry shadows the template with.
type overlayKind int

const (
	overlayFile overlayKind = iota
	overlayDirectory
	overlayTombstone
)

type overlayEntry struct {
	kind overlayKind
	data []byte
}

// Filesystem is a unique, writable overlay over a shared Template,
// bounded by a byte budget. A write to any path masks the
// corresponding template entry; unlink places a tombstone. Reads fall
// through to the template on a miss.
type Filesystem struct {
	template   *Template
	budget     uint64
	mu         sync.Mutex
	overlay    map[string]overlayEntry
	writtenLen uint64
}

// NewFilesystem builds an overlay over template bounded to budget
// writable bytes.
func NewFilesystem(template *Template, budget uint64) *Filesystem {
	return &Filesystem{
		template: template,
		budget:   budget,
		overlay:  make(map[string]overlayEntry),
	}
}

// Lookup reports whether p exists in the merged view, and if so
// whether it is a directory.
func (fs *Filesystem) Lookup(p string) (isDir bool, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.lookupLocked(p)
}

func (fs *Filesystem) lookupLocked(p string) (bool, error) {
	p = cleanPath(p)
	if o, ok := fs.overlay[p]; ok {
		switch o.kind {
		case overlayTombstone:
			return false, ErrInvalidPath
		case overlayDirectory:
			return true, nil
		default:
			return false, nil
		}
	}
	if t, ok := fs.template.lookup(p); ok {
		return t.kind == kindDirectory, nil
	}
	return false, ErrInvalidPath
}

// Getattr returns the byte size of a regular file at p.
func (fs *Filesystem) Getattr(p string) (size uint64, isDir bool, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	p = cleanPath(p)
	if o, ok := fs.overlay[p]; ok {
		switch o.kind {
		case overlayTombstone:
			return 0, false, ErrInvalidPath
		case overlayDirectory:
			return 0, true, nil
		default:
			return uint64(len(o.data)), false, nil
		}
	}
	if t, ok := fs.template.lookup(p); ok {
		if t.kind == kindDirectory {
			return 0, true, nil
		}
		return uint64(len(t.data)), false, nil
	}
	return 0, false, ErrInvalidPath
}

// Readdir lists the merged directory entries under dir, hiding
// tombstoned and shadowed names.
func (fs *Filesystem) Readdir(dir string) ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	dir = cleanPath(dir)
	if isDir, err := fs.lookupLocked(dir); err != nil || !isDir {
		if err != nil {
			return nil, err
		}
		return nil, ErrNotDir
	}

	seen := make(map[string]bool)
	var names []string
	add := func(full string) {
		base := path.Base(full)
		if !seen[base] {
			seen[base] = true
			names = append(names, base)
		}
	}

	for name, o := range fs.overlay {
		if parentOf(name) != dir {
			continue
		}
		if o.kind == overlayTombstone {
			seen[path.Base(name)] = true
			continue
		}
		add(name)
	}
	for _, name := range fs.template.children(dir) {
		if !seen[path.Base(name)] {
			add(name)
		}
	}
	return names, nil
}

func parentOf(p string) string {
	d := path.Dir(p)
	if d == "." {
		return ""
	}
	return d
}

// Read returns the full contents of the regular file at p.
func (fs *Filesystem) Read(p string) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	p = cleanPath(p)
	if o, ok := fs.overlay[p]; ok {
		switch o.kind {
		case overlayTombstone:
			return nil, ErrInvalidPath
		case overlayDirectory:
			return nil, ErrIsDir
		default:
			return o.data, nil
		}
	}
	if t, ok := fs.template.lookup(p); ok {
		if t.kind == kindDirectory {
			return nil, ErrIsDir
		}
		return t.data, nil
	}
	return nil, ErrInvalidPath
}

// Write replaces the full contents of the file at p, creating an
// overlay entry if one does not already exist. Fails with
// ErrOutOfPermit if the new total writable size would exceed budget.
func (fs *Filesystem) Write(p string, data []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	p = cleanPath(p)

	var prevLen int
	if o, ok := fs.overlay[p]; ok && o.kind == overlayFile {
		prevLen = len(o.data)
	}
	newTotal := fs.writtenLen - uint64(prevLen) + uint64(len(data))
	if newTotal > fs.budget {
		return ErrOutOfPermit
	}

	fs.overlay[p] = overlayEntry{kind: overlayFile, data: data}
	fs.writtenLen = newTotal
	return nil
}

// Create makes an empty file at p, failing with ErrAlreadyExist if
// something is already there.
func (fs *Filesystem) Create(p string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	p = cleanPath(p)
	if _, err := fs.lookupLocked(p); err == nil {
		return ErrAlreadyExist
	}
	fs.overlay[p] = overlayEntry{kind: overlayFile, data: nil}
	return nil
}

// Unlink places a tombstone at p, masking both an overlay entry and
// any template entry of the same path.
func (fs *Filesystem) Unlink(p string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	p = cleanPath(p)
	if isDir, err := fs.lookupLocked(p); err != nil {
		return err
	} else if isDir {
		return ErrIsDir
	}
	if o, ok := fs.overlay[p]; ok && o.kind == overlayFile {
		fs.writtenLen -= uint64(len(o.data))
	}
	fs.overlay[p] = overlayEntry{kind: overlayTombstone}
	return nil
}

// Mkdir creates a directory entry at p.
func (fs *Filesystem) Mkdir(p string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	p = cleanPath(p)
	if _, err := fs.lookupLocked(p); err == nil {
		return ErrAlreadyExist
	}
	fs.overlay[p] = overlayEntry{kind: overlayDirectory}
	return nil
}

// Rmdir tombstones the directory entry at p. It does not check that
// the directory is empty, and entries below p are not tombstoned with
// it.
func (fs *Filesystem) Rmdir(p string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	p = cleanPath(p)
	isDir, err := fs.lookupLocked(p)
	if err != nil {
		return err
	}
	if !isDir {
		return ErrNotDir
	}
	fs.overlay[p] = overlayEntry{kind: overlayTombstone}
	return nil
}

// Symlink is unimplemented: the judger's rootfs templates never need
// to fabricate new symlinks at overlay time, only preserve the ones
// already present in the tar layer.
func (fs *Filesystem) Symlink(string, string) error {
	return ErrUnimplemented
}

// Open is a no-op handle check: it simply validates p resolves to a
// readable file, since the overlay has no separate file-handle table.
func (fs *Filesystem) Open(p string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	p = cleanPath(p)
	isDir, err := fs.lookupLocked(p)
	if err != nil {
		return err
	}
	if isDir {
		return ErrIsDir
	}
	return nil
}

// Release and Flush are no-ops: writes are applied synchronously by
// Write, so there is no buffered handle state to release or flush.
func (fs *Filesystem) Release(string) error { return nil }
func (fs *Filesystem) Flush(string) error   { return nil }

// WrittenBytes reports the overlay's current writable byte total.
func (fs *Filesystem) WrittenBytes() uint64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.writtenLen
}

// walk returns every path present in the merged view, directories
// included, in no particular order. Used by Mount to materialize a
// real directory tree.
func (fs *Filesystem) walk() map[string]overlayEntry {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	merged := make(map[string]overlayEntry, len(fs.template.entries)+len(fs.overlay))
	for p, t := range fs.template.entries {
		switch t.kind {
		case kindDirectory:
			merged[p] = overlayEntry{kind: overlayDirectory}
		case kindFile:
			merged[p] = overlayEntry{kind: overlayFile, data: t.data}
		case kindLink:
			// Links resolve to another path in the same view; stored
			// as a file of the resolved target's current bytes.
			if resolved, ok := fs.template.lookup(t.linkTarget); ok && resolved.kind == kindFile {
				merged[p] = overlayEntry{kind: overlayFile, data: resolved.data}
			}
		}
	}
	for p, o := range fs.overlay {
		if o.kind == overlayTombstone {
			delete(merged, p)
			continue
		}
		merged[p] = o
	}
	return merged
}
