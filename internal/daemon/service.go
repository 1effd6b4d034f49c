package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	dbusprops "github.com/nikicat/rhsm-facts/internal/dbus"
	"github.com/nikicat/rhsm-facts/internal/facts"
	"github.com/nikicat/rhsm-facts/internal/logging"
)

// FreshnessThresholdProperty is the writable property on ConfigInterface.
const FreshnessThresholdProperty = "FreshnessThreshold"

const maxThresholdSeconds = uint64(math.MaxInt64 / int64(time.Second))

// Service is the D-Bus object exported under ObjectPath/Interface.
type Service struct {
	version   string
	collector *facts.CachedCollector
	logger    *slog.Logger
	audit     *logging.Logger

	// Collection and cache writes are serialized across D-Bus callers.
	collectMu sync.Mutex

	props  *dbusprops.Properties
	config *dbusprops.ReadWriteProperties

	// Set by Export; nil leaves callers identified by bus name only.
	callers *callerResolver
}

// NewService creates the facts object. Its properties start from the
// current cache file, if any.
func NewService(version string, collector *facts.CachedCollector) *Service {
	s := &Service{
		version:   version,
		collector: collector,
		logger:    slog.Default().With("component", "daemon"),
		audit:     logging.New(slog.Default(), "unknown"),
	}

	snapshot, _ := collector.Cache().Load()
	s.props = dbusprops.NewProperties(Interface, s.propertyValues(snapshot))

	s.config = dbusprops.NewReadWriteProperties(ConfigInterface, map[string]any{
		FreshnessThresholdProperty: uint64(collector.Threshold() / time.Second),
	})
	s.config.SetValidator(FreshnessThresholdProperty, validateThreshold)
	s.config.Subscribe(s.applyConfig)

	return s
}

// Properties returns the read-only facts properties.
func (s *Service) Properties() *dbusprops.Properties { return s.props }

// ConfigProperties returns the writable configuration properties.
func (s *Service) ConfigProperties() *dbusprops.ReadWriteProperties { return s.config }

// Export registers the facts and config objects on conn together with
// their Properties and Introspectable interfaces.
func (s *Service) Export(conn *dbus.Conn) error {
	s.callers = newCallerResolver(conn)
	if err := conn.Export(s, ObjectPath, Interface); err != nil {
		return fmt.Errorf("export facts service: %w", err)
	}
	if err := dbusprops.Export(conn, ObjectPath, s.props); err != nil {
		return fmt.Errorf("export facts properties: %w", err)
	}
	if err := dbusprops.Export(conn, ConfigPath, s.config); err != nil {
		return fmt.Errorf("export config properties: %w", err)
	}

	// Always export Introspectable; without it busctl introspect gives opaque errors.
	node := &introspect.Node{
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       Interface,
				Methods:    introspect.Methods(s),
				Properties: dbusprops.IntrospectProperties(s.props, "read"),
			},
		},
		Children: []introspect.Node{{Name: "Config"}},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath, dbusprops.IntrospectableInterface); err != nil {
		return fmt.Errorf("export introspectable: %w", err)
	}

	configNode := &introspect.Node{
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       ConfigInterface,
				Properties: dbusprops.IntrospectProperties(s.config.Properties, "readwrite"),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(configNode), ConfigPath, dbusprops.IntrospectableInterface); err != nil {
		return fmt.Errorf("export config introspectable: %w", err)
	}
	return nil
}

// Ping is a health check. Returns "pong" to confirm the daemon is alive.
func (s *Service) Ping() (string, *dbus.Error) {
	return "pong", nil
}

// GetVersion returns the daemon version string.
func (s *Service) GetVersion() (string, *dbus.Error) {
	return s.version, nil
}

// GetFacts returns the cached facts while they are fresh, otherwise
// collects, caches and returns new ones.
func (s *Service) GetFacts(sender dbus.Sender) (map[string]string, *dbus.Error) {
	ctx := context.Background()
	audit := s.audit.WithClient(s.describeCaller(sender))

	s.collectMu.Lock()
	defer s.collectMu.Unlock()

	coll, hit := s.collector.Lookup(ctx)
	var saveErr error
	if !hit {
		var saved *facts.Collection
		saved, saveErr = s.collector.SaveToCache(coll)
		if saveErr != nil {
			s.logger.Warn("failed to save facts cache", "path", s.collector.Cache().Path(), "error", saveErr)
		}
		// Publish what the cache file now holds.
		s.UpdateSnapshot(saved)
	}

	audit.LogGetFacts(ctx, len(coll.Facts), hit, "ok", saveErr)
	return coll.Facts.Strings(), nil
}

// Refresh collects facts regardless of the cache and stores them.
func (s *Service) Refresh(sender dbus.Sender) (map[string]string, *dbus.Error) {
	ctx := context.Background()
	audit := s.audit.WithClient(s.describeCaller(sender))

	s.collectMu.Lock()
	defer s.collectMu.Unlock()

	coll, err := s.collector.Refresh(ctx)
	if err != nil {
		s.logger.Warn("failed to save facts cache", "path", s.collector.Cache().Path(), "error", err)
	}
	s.UpdateSnapshot(coll)

	audit.LogRefresh(ctx, len(coll.Facts), "ok", err)
	return coll.Facts.Strings(), nil
}

func (s *Service) describeCaller(sender dbus.Sender) string {
	if s.callers == nil {
		return string(sender)
	}
	return s.callers.Resolve(string(sender)).String()
}

// UpdateSnapshot publishes coll's timestamp and size as properties.
// A nil coll means no snapshot is available.
func (s *Service) UpdateSnapshot(coll *facts.Collection) {
	s.props.Replace(s.propertyValues(coll))
}

// ReloadSnapshot re-reads the cache file and publishes what it holds.
func (s *Service) ReloadSnapshot() {
	coll, ok := s.collector.Cache().Load()
	if !ok {
		coll = nil
	}
	s.logger.Debug("facts cache changed", "path", s.collector.Cache().Path(), "present", ok)
	s.UpdateSnapshot(coll)
}

func (s *Service) propertyValues(coll *facts.Collection) map[string]any {
	var lastUpdate int64
	var count uint32
	if coll != nil {
		if !coll.CollectionTime.IsZero() {
			lastUpdate = coll.CollectionTime.Unix()
		}
		count = uint32(len(coll.Facts))
	}
	return map[string]any{
		"Version":    s.version,
		"Arch":       s.collector.Arch(),
		"CacheFile":  s.collector.Cache().Path(),
		"LastUpdate": lastUpdate,
		"FactCount":  count,
	}
}

func (s *Service) applyConfig(iface string, changed map[string]any, _ []string) error {
	v, ok := changed[FreshnessThresholdProperty].(uint64)
	if !ok {
		return nil
	}
	d := time.Duration(v) * time.Second
	s.collector.SetThreshold(d)
	s.audit.LogSetProperty(context.Background(), iface, FreshnessThresholdProperty, v, "ok", nil)
	return nil
}

func validateThreshold(name string, value any) error {
	n, ok := value.(uint64)
	if !ok {
		return fmt.Errorf("%s must be a uint64 number of seconds, got %T", name, value)
	}
	if n == 0 {
		return fmt.Errorf("%s must be positive", name)
	}
	if n > maxThresholdSeconds {
		return fmt.Errorf("%s must be at most %d seconds", name, maxThresholdSeconds)
	}
	return nil
}
