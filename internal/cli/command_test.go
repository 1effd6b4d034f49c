package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestBaseAccessors(t *testing.T) {
	b := NewBase("service install", "Install the service", false, "si")
	if b.Name() != "service install" || b.ShortDesc() != "Install the service" || b.Primary() {
		t.Errorf("unexpected base: %+v", b)
	}
	if len(b.Aliases()) != 1 || b.Aliases()[0] != "si" {
		t.Errorf("Aliases() = %v", b.Aliases())
	}
	if !strings.HasSuffix(b.Usage(), " service install [OPTIONS]") {
		t.Errorf("Usage() = %q", b.Usage())
	}
}

func TestBaseParse(t *testing.T) {
	newBase := func() (*Base, *bool, *bytes.Buffer) {
		b := NewBase("facts", "Show facts", true)
		list := b.Flags.Bool("list", false, "list facts")
		var out bytes.Buffer
		b.SetOutput(&out)
		return b, list, &out
	}

	t.Run("valid", func(t *testing.T) {
		b, list, _ := newBase()
		if err := b.Parse([]string{"--list"}); err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if !*list {
			t.Error("--list not set")
		}
	})

	t.Run("unknown flag", func(t *testing.T) {
		b, _, _ := newBase()
		err := b.Parse([]string{"--bogus"})
		var invalid *InvalidOptionError
		if !errors.As(err, &invalid) {
			t.Fatalf("Parse error = %v, want *InvalidOptionError", err)
		}
		if !strings.Contains(invalid.Msg, "bogus") {
			t.Errorf("message = %q", invalid.Msg)
		}
	})

	t.Run("help", func(t *testing.T) {
		b, _, out := newBase()
		if err := b.Parse([]string{"--help"}); !errors.Is(err, ErrHelp) {
			t.Fatalf("Parse error = %v, want ErrHelp", err)
		}
		if !strings.Contains(out.String(), "Usage: ") || !strings.Contains(out.String(), "--list") {
			t.Errorf("help output = %q", out.String())
		}
	})

	t.Run("validation", func(t *testing.T) {
		b, _, _ := newBase()
		b.SetValidate(func() error {
			if b.Flags.NArg() > 0 {
				return errors.New("unexpected argument")
			}
			return nil
		})
		err := b.Parse([]string{"extra"})
		var invalid *InvalidOptionError
		if !errors.As(err, &invalid) || invalid.Msg != "unexpected argument" {
			t.Errorf("Parse error = %v, want InvalidOptionError", err)
		}
	})

	t.Run("typed validation error kept", func(t *testing.T) {
		b, _, _ := newBase()
		want := &InvalidOptionError{Msg: "nope"}
		b.SetValidate(func() error { return want })
		if err := b.Parse(nil); err != want {
			t.Errorf("Parse error = %v, want the validator's error", err)
		}
	})
}
