package daemon

import (
	"log/slog"
	"net"
	"os"
	"strings"
)

// SdNotify sends state assignments (e.g. "READY=1", "STATUS=...") to
// systemd via NOTIFY_SOCKET, newline separated in one datagram.
// If NOTIFY_SOCKET is not set (non-systemd environment), returns silently.
// Dial failures are logged as warnings but do not return an error (fire-and-forget).
func SdNotify(states ...string) {
	socket := os.Getenv("NOTIFY_SOCKET")
	if socket == "" || len(states) == 0 {
		return
	}
	// A leading '@' names an abstract socket.
	if strings.HasPrefix(socket, "@") {
		socket = "\x00" + socket[1:]
	}
	conn, err := net.Dial("unixgram", socket)
	if err != nil {
		slog.Warn("sd-notify dial failed", "socket", socket, "err", err)
		return
	}
	defer conn.Close()
	conn.Write([]byte(strings.Join(states, "\n"))) //nolint:errcheck
}
