package dispatch

import (
	"testing"

	"go-cpn-monitor/internal/color"
	"go-cpn-monitor/internal/engine"
	"go-cpn-monitor/internal/marking"
	"go-cpn-monitor/internal/netmodel"
)

func mutexNet() *netmodel.Net {
	n := netmodel.NewNet()
	n.AddTransition(netmodel.NewTransition("Acquire",
		[]netmodel.Arc{netmodel.VarArc("free", "L")},
		[]netmodel.Arc{netmodel.VarArc("held", "L")},
	))
	n.AddTransition(netmodel.NewTransition("Release",
		[]netmodel.Arc{netmodel.VarArc("held", "L")},
		[]netmodel.Arc{netmodel.VarArc("free", "L")},
	))
	n.InitialMarking["free"] = nil
	return n
}

func TestDispatchIgnoresUnmappedEventKind(t *testing.T) {
	n := mutexNet()
	d := New(n, map[string]string{"LockAcquire": "Acquire", "LockRelease": "Release"}, engine.New())
	m := marking.New()

	res := d.Dispatch(Event{Kind: "ThreadSpawn", Fields: map[string]uint64{"parent": 1, "child": 2}}, m)
	if res.Outcome != OutcomeIgnored {
		t.Fatalf("expected Ignored, got %v", res.Outcome)
	}
	if !m.IsEmpty() {
		t.Error("ignored event must not mutate the marking")
	}
}

func TestDispatchIgnoresUnknownEventKind(t *testing.T) {
	n := mutexNet()
	d := New(n, map[string]string{}, engine.New())
	m := marking.New()

	res := d.Dispatch(Event{Kind: "NotARealKind"}, m)
	if res.Outcome != OutcomeIgnored {
		t.Fatalf("expected Ignored for an unknown event kind, got %v", res.Outcome)
	}
}

func TestDispatchLazilyMintsFirstSeenLock(t *testing.T) {
	n := mutexNet()
	d := New(n, map[string]string{"LockAcquire": "Acquire", "LockRelease": "Release"}, engine.New())
	m := marking.New()

	res := d.Dispatch(Event{Kind: "LockAcquire", Fields: map[string]uint64{"thread": 1, "lock_id": 100}}, m)
	if res.Outcome != OutcomeFired {
		t.Fatalf("expected Fired after lazily minting the lock token into free, got %v", res.Outcome)
	}
	if !m.Contains("held", color.New("Lock", 100)) {
		t.Error("expected the lock token to end up in held after acquire")
	}
}

func TestDispatchDoubleAcquireViolates(t *testing.T) {
	n := mutexNet()
	d := New(n, map[string]string{"LockAcquire": "Acquire", "LockRelease": "Release"}, engine.New())
	m := marking.New()

	first := d.Dispatch(Event{Kind: "LockAcquire", Fields: map[string]uint64{"thread": 1, "lock_id": 100}}, m)
	if first.Outcome != OutcomeFired {
		t.Fatalf("expected first acquire to fire, got %v", first.Outcome)
	}

	second := d.Dispatch(Event{Kind: "LockAcquire", Fields: map[string]uint64{"thread": 2, "lock_id": 100}}, m)
	if second.Outcome != OutcomeViolation {
		t.Fatalf("expected second acquire of the same lock to violate, got %v", second.Outcome)
	}
}

func TestDispatchBareReleaseOfNeverSeenLockLeavesMarkingUnchanged(t *testing.T) {
	n := mutexNet()
	d := New(n, map[string]string{"LockAcquire": "Acquire", "LockRelease": "Release"}, engine.New())
	m := marking.New()
	before := m.Hash()

	res := d.Dispatch(Event{Kind: "LockRelease", Fields: map[string]uint64{"thread": 1, "lock_id": 100}}, m)
	if res.Outcome != OutcomeViolation {
		t.Fatalf("expected a double-release-style violation, got %v", res.Outcome)
	}
	if m.Hash() != before {
		t.Errorf("violating event must not leave behind the token it lazily minted to attempt the binding: marking hash changed from %d to %d", before, m.Hash())
	}
	if m.Contains("free", color.New("Lock", 100)) {
		t.Error("the lazily minted token must be rolled back, not left sitting in its inferred home place")
	}
}

func TestDispatchIndependentLocksDoNotInterfere(t *testing.T) {
	n := mutexNet()
	d := New(n, map[string]string{"LockAcquire": "Acquire", "LockRelease": "Release"}, engine.New())
	m := marking.New()

	events := []Event{
		{Kind: "LockAcquire", Fields: map[string]uint64{"thread": 1, "lock_id": 100}},
		{Kind: "LockAcquire", Fields: map[string]uint64{"thread": 2, "lock_id": 200}},
		{Kind: "LockRelease", Fields: map[string]uint64{"thread": 1, "lock_id": 100}},
		{Kind: "LockRelease", Fields: map[string]uint64{"thread": 2, "lock_id": 200}},
	}
	for i, ev := range events {
		if res := d.Dispatch(ev, m); res.Outcome != OutcomeFired {
			t.Fatalf("event %d (%s) expected to fire, got %v", i, ev.Kind, res.Outcome)
		}
	}

	want := marking.New()
	want.Insert("free", color.New("Lock", 100))
	want.Insert("free", color.New("Lock", 200))
	if m.Hash() != want.Hash() {
		t.Errorf("final marking hash %d does not match expected %d", m.Hash(), want.Hash())
	}
}
