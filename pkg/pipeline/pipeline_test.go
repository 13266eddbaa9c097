package pipeline

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullsector/judged/pkg/langs"
	"github.com/nullsector/judged/pkg/semaphore"
	"github.com/nullsector/judged/pkg/types"
)

// fakeJailer stands in for a real jail.Run: it never spawns a
// process, it just echoes back a scripted corpse so the pipeline's
// orchestration can be tested without namespaces or cgroups.
type fakeJailer struct {
	compileCorpse types.Corpse
	runCorpses    []types.Corpse
	calls         int
}

func (f *fakeJailer) Run(ctx context.Context, cfg langs.JailConfig, stdin []byte) (types.Corpse, error) {
	f.calls++
	if f.calls == 1 {
		return f.compileCorpse, nil
	}
	idx := f.calls - 2
	if idx < len(f.runCorpses) {
		return f.runCorpses[idx], nil
	}
	return types.Corpse{}, nil
}

func buildPluginDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.toml"), []byte(`
id = "lang-1"
name = "echoscript"
extension = "es"
info = "an echo language"
file = "source.es"

[compile]
command = ["/bin/true"]

[judge]
command = ["/bin/cat"]
`), 0o644))

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "bin/true", Size: 0, Mode: 0o755}))
	require.NoError(t, tw.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rootfs.tar"), buf.Bytes(), 0o644))
	return dir
}

func TestJudgeUnknownLanguageFails(t *testing.T) {
	dir := t.TempDir()
	registry, err := langs.LoadRegistry(dir)
	require.NoError(t, err)
	sem := semaphore.New(1<<30, 8)

	p := New(registry, sem, nil, &fakeJailer{}, t.TempDir(), 50*time.Millisecond, true)
	_, err = p.Judge(context.Background(), types.Request{LanguageID: "nope"})
	assert.Error(t, err)
}

func TestJudgeImpossibleMemoryFails(t *testing.T) {
	pluginsRoot := t.TempDir()
	langDir := filepath.Join(pluginsRoot, "echoscript")
	require.NoError(t, os.MkdirAll(langDir, 0o755))
	src := buildPluginDir(t)
	entries, _ := os.ReadDir(src)
	for _, e := range entries {
		data, _ := os.ReadFile(filepath.Join(src, e.Name()))
		require.NoError(t, os.WriteFile(filepath.Join(langDir, e.Name()), data, 0o644))
	}

	registry, err := langs.LoadRegistry(pluginsRoot)
	require.NoError(t, err)

	sem := semaphore.New(1024, 8)
	p := New(registry, sem, nil, &fakeJailer{}, t.TempDir(), 50*time.Millisecond, true)

	_, err = p.Judge(context.Background(), types.Request{LanguageID: "lang-1", MemoryLimit: 1 << 40})
	assert.Error(t, err)
}
