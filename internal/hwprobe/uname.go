package hwprobe

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/nikicat/rhsm-facts/internal/facts"
)

var unameFunc = unix.Uname

// Uname reports the uname(2) fields.
func Uname(_ context.Context, _ facts.Env) (facts.Facts, error) {
	var uts unix.Utsname
	if err := unameFunc(&uts); err != nil {
		return nil, fmt.Errorf("uname: %w", err)
	}
	return facts.Facts{
		"uname.machine":  unix.ByteSliceToString(uts.Machine[:]),
		"uname.release":  unix.ByteSliceToString(uts.Release[:]),
		"uname.sysname":  unix.ByteSliceToString(uts.Sysname[:]),
		"uname.nodename": unix.ByteSliceToString(uts.Nodename[:]),
		"uname.version":  unix.ByteSliceToString(uts.Version[:]),
	}, nil
}
