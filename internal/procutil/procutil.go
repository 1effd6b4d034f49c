// Package procutil reads process details from a /proc tree to describe
// who called the facts daemon.
package procutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// shells is the set of known shell process names to skip when walking
// up the process tree to find the user-facing invoker.
var shells = map[string]bool{
	"sh": true, "bash": true, "zsh": true, "fish": true,
	"dash": true, "csh": true, "tcsh": true, "ksh": true,
}

// IsShell reports whether the given comm name is a known shell.
func IsShell(comm string) bool {
	return shells[comm]
}

// Reader reads process information below Root. The zero value reads the
// real /proc.
type Reader struct {
	Root string
}

func (r Reader) path(pid uint32, name string) string {
	root := r.Root
	if root == "" {
		root = "/proc"
	}
	return filepath.Join(root, strconv.FormatUint(uint64(pid), 10), name)
}

// Comm reads the process name from <root>/<pid>/comm.
// Returns empty string on error.
func (r Reader) Comm(pid uint32) string {
	if pid == 0 {
		return ""
	}
	data, err := os.ReadFile(r.path(pid, "comm"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// PPID reads the parent PID from <root>/<pid>/stat.
// Returns 0 on any error.
func (r Reader) PPID(pid uint32) uint32 {
	if pid == 0 {
		return 0
	}
	data, err := os.ReadFile(r.path(pid, "stat"))
	if err != nil {
		return 0
	}
	// Format: "pid (comm) state ppid ..."; comm may contain spaces and parens.
	s := string(data)
	i := strings.LastIndexByte(s, ')')
	if i < 0 || i+2 >= len(s) {
		return 0
	}
	fields := strings.Fields(s[i+2:])
	if len(fields) < 2 {
		return 0
	}
	ppid, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return 0
	}
	return uint32(ppid)
}

// Invoker walks from pid towards init, skipping shells, and returns the
// first non-shell process. Returns ("", 0) if the tree is unreadable.
func (r Reader) Invoker(pid uint32) (comm string, invokerPID uint32) {
	comm = r.Comm(pid)
	if comm == "" {
		return "", 0
	}
	if !IsShell(comm) {
		return comm, pid
	}

	for p := r.PPID(pid); p > 1; p = r.PPID(p) {
		c := r.Comm(p)
		if c == "" {
			break
		}
		if !IsShell(c) {
			return c, p
		}
	}

	// All ancestors are shells; return the original pid.
	return comm, pid
}

// Describe formats pid as "comm[pid]", naming the invoker when pid is a
// shell started by something more interesting.
func (r Reader) Describe(pid uint32) string {
	comm, invoker := r.Invoker(pid)
	switch {
	case comm == "":
		return fmt.Sprintf("pid %d", pid)
	case invoker != pid:
		return fmt.Sprintf("%s[%d] via %s[%d]", comm, invoker, r.Comm(pid), pid)
	default:
		return fmt.Sprintf("%s[%d]", comm, pid)
	}
}
