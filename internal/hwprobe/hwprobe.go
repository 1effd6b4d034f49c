// Package hwprobe provides the hardware methods fed to the facts
// collector. Each probe gathers one group of dotted fact names and
// reports failure through its error; the collector isolates and logs it.
package hwprobe

import (
	"slices"

	"github.com/nikicat/rhsm-facts/internal/facts"
)

// Default returns every probe in run order. virt runs before host so that
// host's detection, when it has one, overrides the DMI-based guess.
func Default() []facts.HardwareMethod {
	return []facts.HardwareMethod{
		{Name: "uname", Probe: Uname},
		{Name: "virt", Probe: Virt},
		{Name: "cpu", Probe: CPU},
		{Name: "memory", Probe: Memory},
		{Name: "host", Probe: Host},
		{Name: "dmi", Probe: DMI},
		{Name: "proc_cpuinfo", Probe: ProcCPUInfo},
		{Name: "network", Probe: Network},
	}
}

// Filter drops the methods whose names are listed in disabled.
func Filter(methods []facts.HardwareMethod, disabled []string) []facts.HardwareMethod {
	if len(disabled) == 0 {
		return methods
	}
	out := make([]facts.HardwareMethod, 0, len(methods))
	for _, m := range methods {
		if !slices.Contains(disabled, m.Name) {
			out = append(out, m)
		}
	}
	return out
}

// Names lists the names of methods.
func Names(methods []facts.HardwareMethod) []string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.Name
	}
	return names
}

// setIfNotEmpty stores s under key unless it is blank.
func setIfNotEmpty(f facts.Facts, key, s string) {
	if s != "" {
		f[key] = s
	}
}
