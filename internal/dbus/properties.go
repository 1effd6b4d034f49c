package dbus

import (
	"errors"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

// ChangedFunc is told about property changes: new values by name and the
// names of properties that no longer exist.
type ChangedFunc func(iface string, changed map[string]any, invalidated []string) error

// Validator checks a value before a read-write property takes it.
type Validator func(name string, value any) error

// Bag is what Export needs from a property container.
type Bag interface {
	Interface() string
	Subscribe(fn ChangedFunc)
}

// Properties is a read-only property bag for a single interface.
// Get and GetAll serve the data; every Set is refused with AccessDenied.
// It is safe for concurrent use.
type Properties struct {
	iface  string
	logger *slog.Logger

	mu   sync.RWMutex
	data map[string]any

	listenersMu sync.RWMutex
	listeners   []ChangedFunc
}

// NewProperties creates a read-only bag serving data for iface. The map
// is copied.
func NewProperties(iface string, data map[string]any) *Properties {
	d := make(map[string]any, len(data))
	maps.Copy(d, data)
	return &Properties{
		iface:  iface,
		data:   d,
		logger: slog.Default().With("component", "dbus.properties", "interface", iface),
	}
}

// Interface returns the interface whose properties the bag serves.
func (p *Properties) Interface() string { return p.iface }

// Subscribe registers fn to be told about changes.
func (p *Properties) Subscribe(fn ChangedFunc) {
	p.listenersMu.Lock()
	defer p.listenersMu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Snapshot returns a copy of the current values.
func (p *Properties) Snapshot() map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return maps.Clone(p.data)
}

// Value returns one property value.
func (p *Properties) Value(name string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.data[name]
	return v, ok
}

// Get implements org.freedesktop.DBus.Properties.Get.
func (p *Properties) Get(iface, property string) (dbus.Variant, *dbus.Error) {
	if err := p.checkInterface(iface); err != nil {
		return dbus.Variant{}, err
	}
	v, ok := p.Value(property)
	if !ok {
		return dbus.Variant{}, ErrUnknownProperty(property, p.iface)
	}
	return toVariant(v), nil
}

// GetAll implements org.freedesktop.DBus.Properties.GetAll.
func (p *Properties) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if err := p.checkInterface(iface); err != nil {
		return nil, err
	}
	return toVariants(p.Snapshot()), nil
}

// Set implements org.freedesktop.DBus.Properties.Set. The base bag is
// read-only.
func (p *Properties) Set(iface, property string, value dbus.Variant) *dbus.Error {
	p.logger.Debug("refusing property set", "property", property)
	return ErrAccessDenied(property)
}

// Replace swaps in a new set of values on behalf of the owning service.
// Listeners hear about added or modified keys and about removed ones.
func (p *Properties) Replace(data map[string]any) {
	p.mu.Lock()
	changed := make(map[string]any)
	for k, v := range data {
		if old, ok := p.data[k]; !ok || !reflect.DeepEqual(old, v) {
			changed[k] = v
		}
	}
	var invalidated []string
	for k := range p.data {
		if _, ok := data[k]; !ok {
			invalidated = append(invalidated, k)
		}
	}
	p.data = maps.Clone(data)
	if p.data == nil {
		p.data = make(map[string]any)
	}
	p.mu.Unlock()

	if len(changed) == 0 && len(invalidated) == 0 {
		return
	}
	slices.Sort(invalidated)
	if err := p.notify(changed, invalidated); err != nil {
		p.logger.Warn("property change notification failed", "error", err)
	}
}

func (p *Properties) checkInterface(iface string) *dbus.Error {
	// An empty interface name is not treated as a wildcard.
	if iface == "" || iface != p.iface {
		return ErrUnknownInterface(p.iface, iface)
	}
	return nil
}

func (p *Properties) checkProperty(property string) *dbus.Error {
	if _, ok := p.Value(property); !ok {
		return ErrUnknownProperty(property, p.iface)
	}
	return nil
}

func (p *Properties) notify(changed map[string]any, invalidated []string) error {
	p.listenersMu.RLock()
	listeners := slices.Clone(p.listeners)
	p.listenersMu.RUnlock()

	var errs []error
	for _, fn := range listeners {
		if err := fn(p.iface, changed, invalidated); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReadWriteProperties is a bag whose existing properties may be set over
// D-Bus. New properties cannot be created through Set.
type ReadWriteProperties struct {
	*Properties

	validatorsMu sync.RWMutex
	validators   map[string]Validator
}

// NewReadWriteProperties creates a settable bag serving data for iface.
func NewReadWriteProperties(iface string, data map[string]any) *ReadWriteProperties {
	return &ReadWriteProperties{
		Properties: NewProperties(iface, data),
		validators: make(map[string]Validator),
	}
}

// SetValidator installs a check run before property takes a new value.
func (p *ReadWriteProperties) SetValidator(property string, v Validator) {
	p.validatorsMu.Lock()
	defer p.validatorsMu.Unlock()
	p.validators[property] = v
}

// Set implements org.freedesktop.DBus.Properties.Set: it checks the
// interface and property, validates, stores, and notifies listeners.
func (p *ReadWriteProperties) Set(iface, property string, value dbus.Variant) *dbus.Error {
	if err := p.checkInterface(iface); err != nil {
		return err
	}
	if err := p.checkProperty(property); err != nil {
		return err
	}

	v := value.Value()

	p.validatorsMu.RLock()
	validate := p.validators[property]
	p.validatorsMu.RUnlock()
	if validate != nil {
		if err := validate(property, v); err != nil {
			return ErrInvalidArgs(err.Error())
		}
	}

	p.mu.Lock()
	p.data[property] = v
	p.mu.Unlock()

	if err := p.notify(map[string]any{property: v}, nil); err != nil {
		p.logger.Debug("property set failed", "property", property, "value", v, "error", err)
		return ErrSetFailed(property, v, p.iface, err)
	}
	return nil
}

// Export serves bag as org.freedesktop.DBus.Properties at path and emits
// PropertiesChanged on conn whenever the bag changes.
func Export(conn *dbus.Conn, path dbus.ObjectPath, bag Bag) error {
	if err := conn.Export(bag, path, PropertiesInterface); err != nil {
		return err
	}
	bag.Subscribe(func(iface string, changed map[string]any, invalidated []string) error {
		if invalidated == nil {
			invalidated = []string{}
		}
		return conn.Emit(path, PropertiesChangedSignal, iface, toVariants(changed), invalidated)
	})
	return nil
}

// IntrospectProperties describes the current properties of p for an
// introspection node. access is "read" or "readwrite".
func IntrospectProperties(p *Properties, access string) []introspect.Property {
	data := p.Snapshot()
	props := make([]introspect.Property, 0, len(data))
	for _, name := range slices.Sorted(maps.Keys(data)) {
		props = append(props, introspect.Property{
			Name:   name,
			Type:   toVariant(data[name]).Signature().String(),
			Access: access,
		})
	}
	return props
}

// toVariant wraps v for the wire. Nil has no D-Bus type and is sent as
// an empty string.
func toVariant(v any) dbus.Variant {
	if v == nil {
		return dbus.MakeVariant("")
	}
	return dbus.MakeVariant(v)
}

func toVariants(data map[string]any) map[string]dbus.Variant {
	out := make(map[string]dbus.Variant, len(data))
	for k, v := range data {
		out[k] = toVariant(v)
	}
	return out
}
