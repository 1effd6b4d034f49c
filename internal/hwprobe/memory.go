package hwprobe

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/nikicat/rhsm-facts/internal/facts"
)

// Memory reports total RAM and swap in kilobytes.
func Memory(ctx context.Context, _ facts.Env) (facts.Facts, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("virtual memory: %w", err)
	}
	f := facts.Facts{"memory.memtotal": vm.Total / 1024}

	// Swap is optional; a host without it still reports RAM.
	if swap, err := mem.SwapMemoryWithContext(ctx); err == nil {
		f["memory.swaptotal"] = swap.Total / 1024
	}
	return f, nil
}
