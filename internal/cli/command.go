// Package cli dispatches a command line to one of several named commands,
// including multi-word commands such as "service install".
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
)

// ProgName is the program name shown in usage text.
var ProgName = filepath.Base(os.Args[0])

// ErrHelp is returned by Parse when -h/--help was given.
var ErrHelp = pflag.ErrHelp

// InvalidOptionError reports options that parse but cannot be acted on,
// or that do not parse at all.
type InvalidOptionError struct {
	Msg string
}

func (e *InvalidOptionError) Error() string { return e.Msg }

// Command is one dispatchable command.
type Command interface {
	Name() string
	Aliases() []string
	Primary() bool
	ShortDesc() string
	// Main runs the command with the arguments left after the command
	// name was matched.
	Main(args []string) error
}

// Base holds what every command shares. Commands embed it and implement
// Main.
type Base struct {
	name      string
	aliases   []string
	primary   bool
	shortDesc string
	validate  func() error

	// Flags collects the command's options.
	Flags *pflag.FlagSet
}

// NewBase creates the scaffold for a command called name.
func NewBase(name, shortDesc string, primary bool, aliases ...string) *Base {
	b := &Base{
		name:      name,
		aliases:   aliases,
		primary:   primary,
		shortDesc: shortDesc,
		Flags:     pflag.NewFlagSet(name, pflag.ContinueOnError),
	}
	b.Flags.SortFlags = false
	b.Flags.Usage = b.printUsage
	return b
}

func (b *Base) Name() string      { return b.name }
func (b *Base) Aliases() []string { return b.aliases }
func (b *Base) Primary() bool     { return b.primary }
func (b *Base) ShortDesc() string { return b.shortDesc }

// Usage returns the synopsis line.
func (b *Base) Usage() string {
	return fmt.Sprintf("%s %s [OPTIONS]", ProgName, b.name)
}

// SetOutput redirects usage and help text.
func (b *Base) SetOutput(w io.Writer) {
	b.Flags.SetOutput(w)
}

// SetValidate installs a check run after parsing. There is none by default.
func (b *Base) SetValidate(fn func() error) {
	b.validate = fn
}

// Parse parses args into Flags and validates the result. Errors are
// ErrHelp or *InvalidOptionError.
func (b *Base) Parse(args []string) error {
	if err := b.Flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ErrHelp
		}
		return &InvalidOptionError{Msg: err.Error()}
	}
	if b.validate == nil {
		return nil
	}
	if err := b.validate(); err != nil {
		var invalid *InvalidOptionError
		if errors.As(err, &invalid) {
			return err
		}
		return &InvalidOptionError{Msg: err.Error()}
	}
	return nil
}

func (b *Base) printUsage() {
	w := b.Flags.Output()
	fmt.Fprintf(w, "Usage: %s\n\n%s\n\n", b.Usage(), b.shortDesc)
	if b.Flags.HasFlags() {
		fmt.Fprintln(w, "Options:")
		b.Flags.PrintDefaults()
	}
}
