package rootfs

import (
	"archive/tar"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTarFixture(t *testing.T) *Template {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "bin/run.sh",
		Size: int64(len("#!/bin/sh\n")),
		Mode: 0o755,
	}))
	_, err := tw.Write([]byte("#!/bin/sh\n"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	tmpl, err := loadTemplateFrom(&buf)
	require.NoError(t, err)
	return tmpl
}

func TestOverlayReadFallsThroughToTemplate(t *testing.T) {
	tmpl := buildTarFixture(t)
	fs := NewFilesystem(tmpl, 1<<20)

	data, err := fs.Read("bin/run.sh")
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\n", string(data))
}

func TestOverlayWriteShadowsTemplate(t *testing.T) {
	tmpl := buildTarFixture(t)
	fs := NewFilesystem(tmpl, 1<<20)

	require.NoError(t, fs.Write("bin/run.sh", []byte("overwritten")))
	data, err := fs.Read("bin/run.sh")
	require.NoError(t, err)
	assert.Equal(t, "overwritten", string(data))
}

func TestOverlayUnlinkTombstonesTemplateEntry(t *testing.T) {
	tmpl := buildTarFixture(t)
	fs := NewFilesystem(tmpl, 1<<20)

	require.NoError(t, fs.Unlink("bin/run.sh"))
	_, err := fs.Read("bin/run.sh")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestOverlayWriteOverBudgetFails(t *testing.T) {
	tmpl := buildTarFixture(t)
	fs := NewFilesystem(tmpl, 4)

	err := fs.Write("source.py", []byte("way too many bytes"))
	assert.ErrorIs(t, err, ErrOutOfPermit)
}

func TestOverlayReaddirMergesAndHidesTombstones(t *testing.T) {
	tmpl := buildTarFixture(t)
	fs := NewFilesystem(tmpl, 1<<20)

	require.NoError(t, fs.Create("bin/extra.sh"))
	names, err := fs.Readdir("bin")
	require.NoError(t, err)
	assert.Contains(t, names, "run.sh")
	assert.Contains(t, names, "extra.sh")

	require.NoError(t, fs.Unlink("bin/run.sh"))
	names, err = fs.Readdir("bin")
	require.NoError(t, err)
	assert.NotContains(t, names, "run.sh")
}
