package hwprobe

import (
	"context"
	"fmt"
	"os"

	"github.com/nikicat/rhsm-facts/internal/facts"
)

var hostnameFunc = os.Hostname

// Network reports the host name.
func Network(_ context.Context, _ facts.Env) (facts.Facts, error) {
	name, err := hostnameFunc()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}
	return facts.Facts{"network.hostname": name}, nil
}
