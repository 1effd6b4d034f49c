package hwprobe

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/nikicat/rhsm-facts/internal/facts"
)

// Host reports the distribution and, when detectable, virtualization.
func Host(ctx context.Context, _ facts.Env) (facts.Facts, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("host info: %w", err)
	}

	f := facts.Facts{}
	setIfNotEmpty(f, "distribution.name", info.Platform)
	setIfNotEmpty(f, "distribution.version", info.PlatformVersion)
	setIfNotEmpty(f, "distribution.family", info.PlatformFamily)
	f.Merge(virtFacts(info.VirtualizationRole, info.VirtualizationSystem))
	return f, nil
}

// virtFacts maps gopsutil's role/system pair. An unknown role yields
// nothing so an earlier guess survives.
func virtFacts(role, system string) facts.Facts {
	switch role {
	case "guest":
		f := facts.Facts{"virt.is_guest": true}
		setIfNotEmpty(f, "virt.host_type", system)
		return f
	case "host":
		return facts.Facts{"virt.is_guest": false}
	default:
		return nil
	}
}
