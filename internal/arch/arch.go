// Package arch resolves the machine architecture used to pick
// arch-specific fact collection.
package arch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	// DefaultPrefix is the real filesystem root. Any other prefix is a
	// test fixture directory.
	DefaultPrefix = "/"

	// FileName is the override file read from a non-default prefix.
	FileName = "arch"
)

// unameFunc is replaced in tests.
var unameFunc = unix.Uname

// GetArch returns the system architecture (x86_64, ppc64le, s390x, ...).
//
// With an empty or "/" prefix the kernel's machine type is returned
// verbatim. Otherwise the contents of <prefix>/arch, trimmed, override it.
// A prefix without an arch file is a broken fixture and the read error is
// returned rather than falling back to uname.
func GetArch(prefix string) (string, error) {
	if prefix == "" || prefix == DefaultPrefix {
		return Machine()
	}

	path := filepath.Join(prefix, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("arch override unreadable", "path", path, "error", err)
		return "", fmt.Errorf("read arch override %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Machine returns the uname(2) machine field.
func Machine() (string, error) {
	var uts unix.Utsname
	if err := unameFunc(&uts); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}
	return unix.ByteSliceToString(uts.Machine[:]), nil
}
