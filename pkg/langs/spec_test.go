package langs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpec(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.toml"), []byte(body), 0o644))
	return dir
}

func TestLoadSpecFillsDefaults(t *testing.T) {
	dir := writeSpec(t, `
id = "11111111-1111-1111-1111-111111111111"
name = "test-lang"
extension = "tl"
info = "a test language"
file = "source.tl"

[compile]
command = ["/usr/bin/tlc", "source.tl"]

[judge]
command = ["/usr/bin/tl", "source.tl.bin"]
`)

	spec, err := loadSpec(dir)
	require.NoError(t, err)

	compile := spec.CompileLimit()
	assert.Equal(t, uint64(defaultKernelMem), compile.KernelMem)
	assert.Equal(t, uint64(defaultUserMem), compile.UserMem)
	assert.Equal(t, defaultCPUTime, compile.CPUTime)
	assert.Equal(t, defaultRTTime, compile.RTTime)
	assert.Equal(t, defaultWalltime, compile.Walltime)
	assert.Equal(t, uint64(defaultOutputLimit), compile.OutputLimit)

	base := spec.JudgeBase()
	assert.Equal(t, 1.0, base.CPUMultiplier)
	assert.Equal(t, 1.0, base.MemoryMultiplier)
}

func TestLoadSpecRejectsUnknownFields(t *testing.T) {
	dir := writeSpec(t, `
id = "x"
name = "x"
extension = "x"
info = "x"
file = "x"
bogus = true

[compile]
command = ["x"]

[judge]
command = ["x"]
`)

	_, err := loadSpec(dir)
	assert.Error(t, err)
}

func TestLoadSpecRequiresCommands(t *testing.T) {
	dir := writeSpec(t, `
id = "x"
name = "x"
extension = "x"
info = "x"
file = "x"

[compile]
command = []

[judge]
command = ["x"]
`)

	_, err := loadSpec(dir)
	assert.Error(t, err)
}

func TestJudgeLimitAppliesMultiplierOnlyToUserMemory(t *testing.T) {
	base := EffectiveJudgeBase{
		KernelMem:        256 << 20,
		MemoryMultiplier: 2.0,
		CPUMultiplier:    1.5,
	}

	cpu, mem := base.JudgeLimit(1*time.Second, 100<<20)

	assert.Equal(t, uint64(256<<20), mem.Kernel)
	assert.Equal(t, uint64(200<<20), mem.User)
	assert.Equal(t, uint64(256<<20)+uint64(200<<20), mem.Total)
	assert.Equal(t, 1500*time.Millisecond, cpu.Total)
}
