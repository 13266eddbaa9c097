package jail

import (
	"context"

	"github.com/nullsector/judged/pkg/langs"
	"github.com/nullsector/judged/pkg/types"
)

// Adapter satisfies langs.Jailer by forwarding to Run. pkg/langs
// cannot import pkg/jail directly without forcing every compile-time
// consumer of a Plugin to pull in namespace/chroot syscalls, so it
// defines its own narrow JailConfig shape instead; Adapter is the
// glue the pipeline wires the two packages together with.
type Adapter struct{}

func (Adapter) Run(ctx context.Context, cfg langs.JailConfig, stdin []byte) (types.Corpse, error) {
	return Run(ctx, Config{
		RootfsPath:  cfg.RootfsPath,
		Argv:        cfg.Argv,
		Cgroup:      cfg.Cgroup,
		CPULimit:    cfg.CPULimit,
		MemLimit:    cfg.MemLimit,
		OutputLimit: cfg.OutputLimit,
		Walltime:    cfg.Walltime,
		Accuracy:    cfg.Accuracy,
		Rootless:    cfg.Rootless,
	}, stdin)
}
