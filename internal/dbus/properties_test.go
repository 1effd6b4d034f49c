package dbus

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/nikicat/rhsm-facts/internal/testutil"
)

const testIface = "com.redhat.RHSM1.Test"

func wantErrName(t *testing.T, err *dbus.Error, name string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", name)
	}
	if err.Name != name {
		t.Errorf("error name = %q, want %q (%v)", err.Name, name, err)
	}
}

type changeRecorder struct {
	calls []recordedChange
	err   error
}

type recordedChange struct {
	iface       string
	changed     map[string]any
	invalidated []string
}

func (r *changeRecorder) listen(iface string, changed map[string]any, invalidated []string) error {
	r.calls = append(r.calls, recordedChange{iface, changed, invalidated})
	return r.err
}

func TestProperties_Get(t *testing.T) {
	p := NewProperties(testIface, map[string]any{"Version": "1.0", "Count": uint32(3)})

	v, err := p.Get(testIface, "Version")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.Value() != "1.0" {
		t.Errorf("Version = %v, want 1.0", v.Value())
	}

	_, err = p.Get("com.example.Other", "Version")
	wantErrName(t, err, ErrNameUnknownInterface)

	_, err = p.Get("", "Version")
	wantErrName(t, err, ErrNameUnknownInterface)

	_, err = p.Get(testIface, "Missing")
	wantErrName(t, err, ErrNameUnknownProperty)
}

func TestProperties_GetNilValue(t *testing.T) {
	p := NewProperties(testIface, map[string]any{"Empty": nil})
	v, err := p.Get(testIface, "Empty")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.Value() != "" {
		t.Errorf("nil property = %#v, want empty string", v.Value())
	}
}

func TestProperties_GetAll(t *testing.T) {
	p := NewProperties(testIface, map[string]any{"A": "x", "B": int32(2)})

	all, err := p.GetAll(testIface)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 2 || all["A"].Value() != "x" || all["B"].Value() != int32(2) {
		t.Errorf("GetAll = %v", all)
	}

	_, err = p.GetAll("com.example.Other")
	wantErrName(t, err, ErrNameUnknownInterface)
}

func TestProperties_ConstructorCopiesData(t *testing.T) {
	data := map[string]any{"A": "x"}
	p := NewProperties(testIface, data)
	data["A"] = "changed"
	if v, _ := p.Value("A"); v != "x" {
		t.Errorf("bag shares caller's map: A = %v", v)
	}
}

func TestProperties_SetIsDenied(t *testing.T) {
	p := NewProperties(testIface, map[string]any{"Version": "1.0"})
	rec := &changeRecorder{}
	p.Subscribe(rec.listen)

	err := p.Set(testIface, "Version", dbus.MakeVariant("2.0"))
	wantErrName(t, err, ErrNameAccessDenied)

	if v, _ := p.Value("Version"); v != "1.0" {
		t.Errorf("Version = %v after denied set, want 1.0", v)
	}
	if len(rec.calls) != 0 {
		t.Errorf("listener called %d times for denied set", len(rec.calls))
	}
}

func TestProperties_Replace(t *testing.T) {
	p := NewProperties(testIface, map[string]any{"Keep": "same", "Change": 1, "Drop": true})
	rec := &changeRecorder{}
	p.Subscribe(rec.listen)

	p.Replace(map[string]any{"Keep": "same", "Change": 2, "New": "n"})

	if len(rec.calls) != 1 {
		t.Fatalf("listener called %d times, want 1", len(rec.calls))
	}
	got := rec.calls[0]
	if got.iface != testIface {
		t.Errorf("iface = %q", got.iface)
	}
	wantChanged := map[string]any{"Change": 2, "New": "n"}
	if !reflect.DeepEqual(got.changed, wantChanged) {
		t.Errorf("changed = %v, want %v", got.changed, wantChanged)
	}
	if !reflect.DeepEqual(got.invalidated, []string{"Drop"}) {
		t.Errorf("invalidated = %v, want [Drop]", got.invalidated)
	}
	if _, err := p.Get(testIface, "Drop"); err == nil {
		t.Error("removed property still readable")
	}
}

func TestProperties_ReplaceUnchanged(t *testing.T) {
	p := NewProperties(testIface, map[string]any{"A": []string{"x"}})
	rec := &changeRecorder{}
	p.Subscribe(rec.listen)

	p.Replace(map[string]any{"A": []string{"x"}})
	if len(rec.calls) != 0 {
		t.Errorf("listener called for identical data: %v", rec.calls)
	}
}

func TestReadWriteProperties_Set(t *testing.T) {
	p := NewReadWriteProperties(testIface, map[string]any{"Threshold": uint64(60)})
	rec := &changeRecorder{}
	p.Subscribe(rec.listen)

	if err := p.Set(testIface, "Threshold", dbus.MakeVariant(uint64(120))); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := p.Get(testIface, "Threshold")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.Value() != uint64(120) {
		t.Errorf("Threshold = %v, want 120", v.Value())
	}
	if len(rec.calls) != 1 || rec.calls[0].changed["Threshold"] != uint64(120) {
		t.Errorf("listener calls = %v", rec.calls)
	}
}

func TestReadWriteProperties_SetErrors(t *testing.T) {
	tests := []struct {
		name     string
		iface    string
		property string
		wantErr  string
	}{
		{"wrong interface", "com.example.Other", "Threshold", ErrNameUnknownInterface},
		{"empty interface", "", "Threshold", ErrNameUnknownInterface},
		{"unknown property", testIface, "Missing", ErrNameUnknownProperty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewReadWriteProperties(testIface, map[string]any{"Threshold": uint64(60)})
			err := p.Set(tt.iface, tt.property, dbus.MakeVariant(uint64(1)))
			wantErrName(t, err, tt.wantErr)
			if _, ok := p.Value("Missing"); ok {
				t.Error("Set created a new property")
			}
			if v, _ := p.Value("Threshold"); v != uint64(60) {
				t.Errorf("Threshold = %v, want unchanged 60", v)
			}
		})
	}
}

func TestReadWriteProperties_Validator(t *testing.T) {
	p := NewReadWriteProperties(testIface, map[string]any{"Threshold": uint64(60)})
	p.SetValidator("Threshold", func(name string, value any) error {
		if n, ok := value.(uint64); !ok || n == 0 {
			return errors.New("Threshold must be a positive number of seconds")
		}
		return nil
	})

	err := p.Set(testIface, "Threshold", dbus.MakeVariant(uint64(0)))
	wantErrName(t, err, ErrNameInvalidArgs)
	if v, _ := p.Value("Threshold"); v != uint64(60) {
		t.Errorf("Threshold = %v after rejected set, want 60", v)
	}

	if err := p.Set(testIface, "Threshold", dbus.MakeVariant(uint64(5))); err != nil {
		t.Errorf("valid Set: %v", err)
	}
}

func TestReadWriteProperties_ListenerFailure(t *testing.T) {
	p := NewReadWriteProperties(testIface, map[string]any{"Threshold": uint64(60)})
	rec := &changeRecorder{err: errors.New("boom")}
	p.Subscribe(rec.listen)

	err := p.Set(testIface, "Threshold", dbus.MakeVariant(uint64(5)))
	wantErrName(t, err, ErrNameFailed)
}

func TestIntrospectProperties(t *testing.T) {
	p := NewProperties(testIface, map[string]any{
		"Version":   "1.0",
		"FactCount": uint32(7),
		"Threshold": uint64(60),
	})
	got := IntrospectProperties(p, "read")

	want := []struct{ name, sig string }{
		{"FactCount", "u"},
		{"Threshold", "t"},
		{"Version", "s"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d properties, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Name != w.name || got[i].Type != w.sig || got[i].Access != "read" {
			t.Errorf("property %d = %+v, want %s %s read", i, got[i], w.name, w.sig)
		}
	}
}

func TestExport_ServesAndEmitsChanges(t *testing.T) {
	const name = "com.redhat.RHSM1.Test"
	const path = dbus.ObjectPath("/com/redhat/RHSM1/Test")

	addr := testutil.StartBus(t, name)
	server := testutil.Connect(t, addr)

	p := NewProperties(testIface, map[string]any{"Version": "1.0"})
	if err := Export(server, path, p); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if reply, err := server.RequestName(name, dbus.NameFlagDoNotQueue); err != nil || reply != dbus.RequestNameReplyPrimaryOwner {
		t.Fatalf("RequestName: reply=%d err=%v", reply, err)
	}

	client := testutil.Connect(t, addr)
	if err := client.AddMatchSignal(
		dbus.WithMatchInterface(PropertiesInterface),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		t.Fatalf("AddMatchSignal: %v", err)
	}
	signals := make(chan *dbus.Signal, 4)
	client.Signal(signals)

	obj := client.Object(name, path)
	var version dbus.Variant
	if err := obj.Call(PropertiesInterface+".Get", 0, testIface, "Version").Store(&version); err != nil {
		t.Fatalf("Get over bus: %v", err)
	}
	if version.Value() != "1.0" {
		t.Errorf("Version = %v, want 1.0", version.Value())
	}

	call := obj.Call(PropertiesInterface+".Set", 0, testIface, "Version", dbus.MakeVariant("2.0"))
	var dErr dbus.Error
	if !errors.As(call.Err, &dErr) || dErr.Name != ErrNameAccessDenied {
		t.Errorf("Set over bus error = %v, want %s", call.Err, ErrNameAccessDenied)
	}

	p.Replace(map[string]any{"Version": "2.0"})

	select {
	case sig := <-signals:
		if sig.Path != path || len(sig.Body) != 3 {
			t.Fatalf("unexpected signal: %+v", sig)
		}
		if sig.Body[0] != testIface {
			t.Errorf("signal interface = %v", sig.Body[0])
		}
		changed, ok := sig.Body[1].(map[string]dbus.Variant)
		if !ok || changed["Version"].Value() != "2.0" {
			t.Errorf("signal changed = %#v", sig.Body[1])
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no PropertiesChanged signal")
	}
}
