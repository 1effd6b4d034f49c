// Package dbus implements the org.freedesktop.DBus.Properties side of
// rhsm services: a property bag that is either read-only or read-write,
// plus the named D-Bus errors it raises.
package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Standard interface and signal names.
const (
	PropertiesInterface     = "org.freedesktop.DBus.Properties"
	PropertiesChangedSignal = PropertiesInterface + ".PropertiesChanged"
	IntrospectableInterface = "org.freedesktop.DBus.Introspectable"
)

// Error names raised by property access.
const (
	ErrNameAccessDenied     = "org.freedesktop.DBus.Error.AccessDenied"
	ErrNameUnknownInterface = "org.freedesktop.DBus.Error.UnknownInterface"
	ErrNameUnknownProperty  = "org.freedesktop.DBus.Error.UnknownProperty"
	ErrNameInvalidArgs      = "org.freedesktop.DBus.Error.InvalidArgs"
	ErrNameFailed           = "org.freedesktop.DBus.Error.Failed"
)

// NewDBusError creates a D-Bus error with the given name and message.
func NewDBusError(name, message string) *dbus.Error {
	return &dbus.Error{
		Name: name,
		Body: []interface{}{message},
	}
}

// ErrAccessDenied is returned when a read-only property is set.
func ErrAccessDenied(property string) *dbus.Error {
	return NewDBusError(ErrNameAccessDenied, "Property '"+property+"' is not settable")
}

// ErrUnknownInterface is returned when a bag serving handler is asked
// about another interface.
func ErrUnknownInterface(handler, requested string) *dbus.Error {
	return NewDBusError(ErrNameUnknownInterface,
		fmt.Sprintf("%s does not handle properties for %s", handler, requested))
}

// ErrUnknownProperty is returned for a property the bag does not export.
func ErrUnknownProperty(property, iface string) *dbus.Error {
	return NewDBusError(ErrNameUnknownProperty,
		fmt.Sprintf("Property '%s' isn't exported (or may not exist) on interface: %s", property, iface))
}

// ErrInvalidArgs is returned when a new property value fails validation.
func ErrInvalidArgs(message string) *dbus.Error {
	return NewDBusError(ErrNameInvalidArgs, message)
}

// ErrSetFailed is returned when applying a new value fails after
// validation, e.g. a change listener errors.
func ErrSetFailed(property string, value any, iface string, err error) *dbus.Error {
	return NewDBusError(ErrNameFailed,
		fmt.Sprintf("Error setting property %s=%v on interface_name=%s: %v", property, value, iface, err))
}

// ErrFailed wraps an arbitrary error as org.freedesktop.DBus.Error.Failed.
func ErrFailed(err error) *dbus.Error {
	return NewDBusError(ErrNameFailed, err.Error())
}
