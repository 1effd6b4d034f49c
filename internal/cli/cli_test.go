package cli

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"
)

type fakeCommand struct {
	*Base
	err     error
	ran     bool
	gotArgs []string
}

func newFake(name string, primary bool, aliases ...string) *fakeCommand {
	return &fakeCommand{Base: NewBase(name, "Run "+name, primary, aliases...)}
}

func (f *fakeCommand) Main(args []string) error {
	f.ran = true
	f.gotArgs = args
	return f.err
}

func newTestCLI(cmds ...Command) (*CLI, *bytes.Buffer, *bytes.Buffer) {
	c := New("rhsm-facts", cmds...)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	return c, &stdout, &stderr
}

func TestNewSkipsAbstractCommand(t *testing.T) {
	c, _, _ := newTestCLI(newFake("cli", false), newFake("facts", true))
	var names []string
	for _, cmd := range c.Commands() {
		names = append(names, cmd.Name())
	}
	if !slices.Equal(names, []string{"facts"}) {
		t.Errorf("Commands() = %v, want [facts]", names)
	}
	if cmd, _ := c.FindBestMatch([]string{"cli"}); cmd != nil {
		t.Errorf("placeholder command is reachable: %v", cmd.Name())
	}
}

func TestFindBestMatch(t *testing.T) {
	facts := newFake("facts", true, "fact")
	service := newFake("service", false)
	install := newFake("service install", false)
	status := newFake("service status", false)
	c, _, _ := newTestCLI(facts, service, install, status)

	tests := []struct {
		name     string
		args     []string
		wantCmd  Command
		wantRest []string
	}{
		{"single word", []string{"facts"}, facts, []string{}},
		{"alias", []string{"fact", "--list"}, facts, []string{"--list"}},
		{"longest match", []string{"service", "install", "--start"}, install, []string{"--start"}},
		{"flags skipped", []string{"--start", "service", "install"}, install, []string{"--start"}},
		{"shorter fallback", []string{"service", "bogus"}, service, []string{"bogus"}},
		{"flag value kept", []string{"facts", "--prefix", "/mnt"}, facts, []string{"--prefix", "/mnt"}},
		{"other sub-command", []string{"service", "status"}, status, []string{}},
		{"unknown", []string{"bogus"}, nil, nil},
		{"only flags", []string{"--help"}, nil, nil},
		{"empty", nil, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, rest := c.FindBestMatch(tt.args)
			if cmd != tt.wantCmd {
				t.Fatalf("FindBestMatch(%v) = %v, want %v", tt.args, cmd, tt.wantCmd)
			}
			if cmd != nil && !slices.Equal(rest, tt.wantRest) {
				t.Errorf("rest = %q, want %q", rest, tt.wantRest)
			}
		})
	}
}

func TestFindBestMatchNamesBeforeAliases(t *testing.T) {
	owner := newFake("list", false)
	aliased := newFake("facts", true, "list")
	c, _, _ := newTestCLI(owner, aliased)

	if cmd, _ := c.FindBestMatch([]string{"list"}); cmd != owner {
		t.Errorf("alias shadowed a command name: got %v", cmd.Name())
	}
}

func TestMainExitCodes(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		cmdErr    error
		want      int
		wantRan   bool
		wantUsage bool
		wantErr   string
	}{
		{name: "no args", args: nil, want: 0, wantUsage: true},
		{name: "unknown command", args: []string{"bogus"}, want: 1, wantUsage: true},
		{name: "help flag", args: []string{"--help"}, want: 0, wantUsage: true},
		{name: "short help flag", args: []string{"-h"}, want: 0, wantUsage: true},
		{name: "unknown then help", args: []string{"bogus", "--help"}, want: 0, wantUsage: true},
		{name: "success", args: []string{"facts"}, want: 0, wantRan: true},
		{name: "command help", args: []string{"facts", "--help"}, cmdErr: ErrHelp, want: 0, wantRan: true},
		{name: "invalid option", args: []string{"facts"}, cmdErr: &InvalidOptionError{Msg: "bad option"}, want: ExitUsage, wantRan: true, wantErr: "bad option\n"},
		{name: "failure", args: []string{"facts"}, cmdErr: errors.New("boom"), want: 1, wantRan: true, wantErr: "error: boom\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newFake("facts", true)
			cmd.err = tt.cmdErr
			c, stdout, stderr := newTestCLI(cmd)

			if got := c.Main(tt.args); got != tt.want {
				t.Errorf("Main(%v) = %d, want %d", tt.args, got, tt.want)
			}
			if cmd.ran != tt.wantRan {
				t.Errorf("command ran = %v, want %v", cmd.ran, tt.wantRan)
			}
			if gotUsage := strings.Contains(stdout.String(), "Usage: rhsm-facts MODULE-NAME"); gotUsage != tt.wantUsage {
				t.Errorf("usage printed = %v, want %v; stdout:\n%s", gotUsage, tt.wantUsage, stdout.String())
			}
			if stderr.String() != tt.wantErr {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.wantErr)
			}
		})
	}
}

func TestMainPassesRemainingArgs(t *testing.T) {
	install := newFake("service install", false)
	c, _, _ := newTestCLI(newFake("service", false), install)

	c.Main([]string{"service", "install", "--config", "/etc/f.yaml"})
	if !slices.Equal(install.gotArgs, []string{"--config", "/etc/f.yaml"}) {
		t.Errorf("args = %q", install.gotArgs)
	}
}

func TestUsage(t *testing.T) {
	c, stdout, _ := newTestCLI(
		newFake("version", false),
		newFake("facts", true),
		newFake("service install", false),
		newFake("arch", false),
	)
	c.Usage()

	want := `Usage: rhsm-facts MODULE-NAME [MODULE-OPTIONS] [--help]

Primary Modules:

  facts            Run facts

Other Modules:

  arch             Run arch
  service install  Run service install
  version          Run version

`
	if stdout.String() != want {
		t.Errorf("Usage() =\n%s\nwant\n%s", stdout.String(), want)
	}
}

func TestUsageWideNames(t *testing.T) {
	c, stdout, _ := newTestCLI(newFake("事実", true), newFake("arch", false))
	c.Usage()

	// Both descriptions start in the same display column.
	for _, line := range []string{"  事実  Run 事実\n", "  arch  Run arch\n"} {
		if !strings.Contains(stdout.String(), line) {
			t.Errorf("Usage() missing %q:\n%s", line, stdout.String())
		}
	}
}

func TestSystemExit(t *testing.T) {
	origExit, origStderr := exitFunc, stderr
	t.Cleanup(func() { exitFunc, stderr = origExit, origStderr })

	var buf bytes.Buffer
	stderr = &buf
	var code int
	exitFunc = func(c int) { code = c }

	SystemExit(2, "first", errors.New("second"))

	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if buf.String() != "first\nsecond\n" {
		t.Errorf("stderr = %q", buf.String())
	}
}
