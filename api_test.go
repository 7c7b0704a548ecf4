package negotiate

import (
	"errors"
	"testing"
)

func TestNegotiateEmptySlot(t *testing.T) {
	sched := &ManualScheduler{}
	slot := &Slot{}
	src := NewRecordingSource("local", "1.0.0")

	reg, err := Negotiate(slot, "local", src, WithScheduler(sched))
	if err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}

	got, ok := slot.Registry()
	if !ok || got != reg {
		t.Fatalf("slot.Registry() = %p, %v, want %p", got, ok, reg)
	}
	if _, ok := reg.Source("local"); !ok {
		t.Error("source not registered")
	}
	if src.PluginPolyfills() != 1 {
		t.Errorf("PluginPolyfills() = %d, want 1", src.PluginPolyfills())
	}

	sched.Flush()
	if src.Polyfills() != 1 {
		t.Errorf("Polyfills() = %d, want 1", src.Polyfills())
	}
}

func TestNegotiateDefaultWaitsForReady(t *testing.T) {
	for i := range 200 {
		slot := &Slot{}
		local := NewRecordingSource("local", "1.0.0")
		ext := NewRecordingSource("ext", "2.0.0")

		if _, err := Negotiate(slot, "local", local); err != nil {
			t.Fatalf("Negotiate(local) error = %v", err)
		}
		reg, err := Negotiate(slot, "ext", ext)
		if err != nil {
			t.Fatalf("Negotiate(ext) error = %v", err)
		}
		if reg.Invoked() {
			t.Fatalf("iteration %d: negotiation ran before Ready", i)
		}

		if ran := slot.Ready(); ran != 1 {
			t.Fatalf("iteration %d: Ready() ran %d callbacks, want 1", i, ran)
		}
		if ext.Polyfills() != 1 || local.Polyfills() != 0 {
			t.Fatalf("iteration %d: Polyfills() local=%d ext=%d, want 0 and 1",
				i, local.Polyfills(), ext.Polyfills())
		}
		if slot.Ready() != 0 {
			t.Fatalf("iteration %d: second Ready() ran callbacks", i)
		}
	}
}

func TestNegotiateJoinsExistingRegistry(t *testing.T) {
	sched := &ManualScheduler{}
	slot := &Slot{}

	first, err := Negotiate(slot, "local", NewRecordingSource("local", "1.0.0"), WithScheduler(sched))
	if err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}

	tests := []struct {
		name       string
		apiVersion string
	}{
		{"same_protocol", APIVersion},
		{"older_protocol", "0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := Negotiate(slot, tt.name, NewRecordingSource(tt.name, "2.0.0"),
				WithScheduler(sched), WithAPIVersion(tt.apiVersion))
			if err != nil {
				t.Fatalf("Negotiate() error = %v", err)
			}
			if reg != first {
				t.Error("Negotiate() built a new registry, want the existing one")
			}
			if first.Superseded() {
				t.Error("existing registry was superseded")
			}
		})
	}

	if ran := sched.Flush(); ran != 1 {
		t.Errorf("Flush() ran %d callbacks, want 1", ran)
	}
}

func TestNegotiateNewerProtocolSupersedes(t *testing.T) {
	sched := &ManualScheduler{}
	slot := &Slot{}
	old := NewRecordingSource("local", "1.0.0")
	newer := NewRecordingSource("extension", "1.1.0")

	r1, err := Negotiate(slot, "local", old, WithScheduler(sched))
	if err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}
	r2, err := Negotiate(slot, "extension", newer, WithScheduler(sched), WithAPIVersion("0.2.0"))
	if err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}

	if r2 == r1 {
		t.Fatal("Negotiate() reused an older-protocol registry")
	}
	if !r1.Superseded() {
		t.Error("older registry not superseded")
	}
	if r2.Version() != "0.2.0" {
		t.Errorf("Version() = %q, want 0.2.0", r2.Version())
	}
	if got, _ := slot.Registry(); got != r2 {
		t.Error("slot does not hold the new registry")
	}
	if _, ok := r2.Source("local"); !ok {
		t.Error("new registry lost the source registered with the old one")
	}

	sched.Flush()
	if old.Polyfills() != 0 || newer.Polyfills() != 1 {
		t.Errorf("Polyfills() = %d (old), %d (newer), want 0, 1", old.Polyfills(), newer.Polyfills())
	}
}

func TestNegotiateSeedsFromSlot(t *testing.T) {
	t.Run("plain_config_disables_polyfills", func(t *testing.T) {
		sched := &ManualScheduler{}
		slot := NewSlot(PlainConfig{Config: NewConfig(false)})
		src := NewRecordingSource("local", "1.0.0")

		reg, err := Negotiate(slot, "local", src, WithScheduler(sched))
		if err != nil {
			t.Fatalf("Negotiate() error = %v", err)
		}
		sched.Flush()

		if src.PluginPolyfills() != 0 || src.Polyfills() != 0 {
			t.Errorf("polyfilled with polyfills disabled: plugin=%d init=%d", src.PluginPolyfills(), src.Polyfills())
		}
		if name, ok := reg.NegotiatedName(); !ok || name != "local" {
			t.Errorf("NegotiatedName() = %q, %v", name, ok)
		}
	})

	t.Run("conflict", func(t *testing.T) {
		slot := NewSlot(Conflict{Value: "someone else's global"})
		reg, err := Negotiate(slot, "", nil, WithScheduler(&ManualScheduler{}))
		if err != nil {
			t.Fatalf("Negotiate() error = %v", err)
		}
		if reg.Conflict() != "someone else's global" {
			t.Errorf("Conflict() = %v", reg.Conflict())
		}
		if len(reg.SourceNames()) != 0 {
			t.Errorf("SourceNames() = %v, want none", reg.SourceNames())
		}
	})
}

func TestNegotiatePluginPolyfillFailure(t *testing.T) {
	metrics := NewMetrics(nil)
	slot := &Slot{}
	src := &panickingPlugin{RecordingSource: NewRecordingSource("local", "1.0.0")}

	reg, err := Negotiate(slot, "local", src, WithScheduler(&ManualScheduler{}), WithMetrics(metrics))
	if err != nil {
		t.Fatalf("Negotiate() error = %v, want plugin failure swallowed", err)
	}
	if _, ok := reg.Source("local"); !ok {
		t.Error("source not registered after plugin polyfill panic")
	}
}

func TestNegotiateInvalidOption(t *testing.T) {
	slot := &Slot{}
	if _, err := Negotiate(slot, "local", NewRecordingSource("local", "1.0.0"), WithAPIVersion("")); err == nil {
		t.Fatal("Negotiate() accepted an empty API version")
	}
	if slot.Load() != nil {
		t.Error("slot modified by a failed Negotiate")
	}
}

type panickingPlugin struct {
	*RecordingSource
}

func (*panickingPlugin) PluginPolyfill() error {
	panic(errors.New("plugin shim exploded"))
}
