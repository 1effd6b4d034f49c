package daemon

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/nikicat/rhsm-facts/internal/procutil"
)

// busClient abstracts the bus driver queries used to identify callers.
type busClient interface {
	GetConnectionUnixProcessID(sender string) (uint32, error)
	GetConnectionUnixUser(sender string) (uint32, error)
}

// Caller describes the process behind a D-Bus sender.
type Caller struct {
	Sender string
	PID    uint32
	UID    uint32
	// Process is "comm[pid]", or empty when /proc could not be read.
	Process string
}

func (c Caller) String() string {
	if c.PID == 0 {
		return c.Sender
	}
	if c.Process == "" {
		return fmt.Sprintf("%s uid=%d pid=%d", c.Sender, c.UID, c.PID)
	}
	return fmt.Sprintf("%s uid=%d %s", c.Sender, c.UID, c.Process)
}

type callerResolver struct {
	client busClient
	proc   procutil.Reader
}

func newCallerResolver(conn *dbus.Conn) *callerResolver {
	return &callerResolver{client: &realBusClient{conn: conn}}
}

// Resolve returns whatever could be learned about sender. It never fails;
// missing pieces are left zero.
func (r *callerResolver) Resolve(sender string) Caller {
	c := Caller{Sender: sender}

	pid, err := r.client.GetConnectionUnixProcessID(sender)
	if err != nil {
		slog.Debug("failed to get connection PID", "sender", sender, "error", err)
		return c
	}
	c.PID = pid

	uid, err := r.client.GetConnectionUnixUser(sender)
	if err != nil {
		slog.Debug("failed to get connection UID", "sender", sender, "error", err)
	} else {
		c.UID = uid
	}

	if r.proc.Comm(pid) != "" {
		c.Process = r.proc.Describe(pid)
	}
	return c
}

type realBusClient struct {
	conn *dbus.Conn
}

func (c *realBusClient) GetConnectionUnixProcessID(sender string) (uint32, error) {
	var pid uint32
	err := c.conn.BusObject().Call("org.freedesktop.DBus.GetConnectionUnixProcessID", 0, sender).Store(&pid)
	return pid, err
}

func (c *realBusClient) GetConnectionUnixUser(sender string) (uint32, error) {
	var uid uint32
	err := c.conn.BusObject().Call("org.freedesktop.DBus.GetConnectionUnixUser", 0, sender).Store(&uid)
	return uid, err
}
