package hwprobe

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"

	"github.com/nikicat/rhsm-facts/internal/facts"
)

// CPU reports processor topology and model.
func CPU(ctx context.Context, _ facts.Env) (facts.Facts, error) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("cpu info: %w", err)
	}
	logical, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("logical cpu count: %w", err)
	}
	physical, err := cpu.CountsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("physical cpu count: %w", err)
	}

	f := facts.Facts{"cpu.cpu(s)": logical}

	sockets := countSockets(infos)
	if sockets > 0 {
		f["cpu.cpu_socket(s)"] = sockets
		if physical > 0 {
			f["cpu.core(s)_per_socket"] = physical / sockets
		}
	}
	if physical > 0 {
		f["cpu.thread(s)_per_core"] = logical / physical
	}
	if len(infos) > 0 {
		setIfNotEmpty(f, "cpu.model_name", infos[0].ModelName)
		setIfNotEmpty(f, "cpu.vendor", infos[0].VendorID)
	}
	return f, nil
}

// countSockets counts distinct physical package IDs. Platforms that do
// not report them count as a single socket.
func countSockets(infos []cpu.InfoStat) int {
	if len(infos) == 0 {
		return 0
	}
	ids := make(map[string]struct{})
	for _, info := range infos {
		if info.PhysicalID != "" {
			ids[info.PhysicalID] = struct{}{}
		}
	}
	if len(ids) == 0 {
		return 1
	}
	return len(ids)
}
