package hwprobe

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nikicat/rhsm-facts/internal/facts"
)

// ProcCPUInfo reports the first processor block of <prefix>/proc/cpuinfo
// as proc_cpuinfo.common.<key>. On POWER the trailing platform block
// (timebase, platform, model, machine) is reported too.
func ProcCPUInfo(_ context.Context, env facts.Env) (facts.Facts, error) {
	root := env.Prefix
	if root == "" {
		root = "/"
	}
	path := filepath.Join(root, "proc", "cpuinfo")

	blocks, err := readCPUInfoBlocks(path)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%s: no processor entries", path)
	}

	f := facts.Facts{}
	for k, v := range blocks[0] {
		f["proc_cpuinfo.common."+k] = v
	}
	if strings.HasPrefix(env.Arch, "ppc64") && len(blocks) > 1 {
		for k, v := range blocks[len(blocks)-1] {
			f["proc_cpuinfo.common."+k] = v
		}
	}
	return f, nil
}

// readCPUInfoBlocks splits cpuinfo into blank-line separated blocks of
// normalized key/value pairs.
func readCPUInfoBlocks(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cpuinfo: %w", err)
	}
	defer file.Close()

	var blocks []map[string]string
	current := map[string]string{}

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = map[string]string{}
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = normalizeCPUInfoKey(key)
		if key == "" {
			continue
		}
		current[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cpuinfo: %w", err)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks, nil
}

// normalizeCPUInfoKey turns "model name" into "model_name" and
// "# processors" into "processors".
func normalizeCPUInfoKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.TrimSpace(strings.TrimPrefix(key, "#"))
	key = strings.ToLower(key)
	return strings.Join(strings.Fields(key), "_")
}
