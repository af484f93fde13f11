// Package monitor ties the CPN monitor's pieces into the single entry
// point spec §1 describes: observe(event) and marking_hash(). It owns
// the one mutable Marking, drives the dispatcher and violation policy
// per event, and writes the JSONL log records of spec §6.4.
package monitor

import (
	"go-cpn-monitor/internal/dispatch"
	"go-cpn-monitor/internal/engine"
	"go-cpn-monitor/internal/marking"
	"go-cpn-monitor/internal/monitorlog"
	"go-cpn-monitor/internal/netmodel"
	"go-cpn-monitor/internal/violation"
)

// Monitor is the CPN monitor of spec §1: a net, a marking, and the
// policy for what an observed event does to both.
type Monitor struct {
	net            *netmodel.Net
	dispatcher     *dispatch.Dispatcher
	marking        *marking.Marking
	policy         violation.Policy
	log            *monitorlog.Writer // nil when no -log path was configured
	violationCount int
}

// New builds a Monitor over net, mapped through eventMapping (from the
// loaded configuration), seeded with net.InitialMarking. log may be
// nil to disable JSONL logging entirely.
func New(net *netmodel.Net, eventMapping map[string]string, policy violation.Policy, log *monitorlog.Writer) *Monitor {
	m := marking.New()
	seedInitialMarking(m, net)

	return &Monitor{
		net:        net,
		dispatcher: dispatch.New(net, eventMapping, engine.New()),
		marking:    m,
		policy:     policy,
		log:        log,
	}
}

func seedInitialMarking(m *marking.Marking, net *netmodel.Net) {
	for _, place := range net.AllPlaceNames() {
		m.EnsurePlace(place)
	}
	for place, toks := range net.InitialMarking {
		for _, tok := range toks {
			m.Insert(place, tok)
		}
	}
}

// MarkingHash reports the current marking's deterministic hash
// (spec §1's marking_hash() query).
func (mon *Monitor) MarkingHash() uint64 {
	return mon.marking.Hash()
}

// Marking exposes the live marking for read-only inspection (e.g. by
// tests). Callers must not mutate it.
func (mon *Monitor) Marking() *marking.Marking {
	return mon.marking
}

// Observe handles one event (spec §1's observe(event) entry point):
// dispatches it, writes the resulting JSONL event record, and returns
// a non-nil *violation.AbortError when the event's outcome must
// terminate the interpreter — every UnboundPostVariable, or a
// ProtocolViolation under the fail-fast policy (spec §4.5, §7).
func (mon *Monitor) Observe(ev dispatch.Event) error {
	res := mon.dispatcher.Dispatch(ev, mon.marking)

	switch res.Outcome {
	case dispatch.OutcomeIgnored:
		mon.writeEvent(ev, nil, false, nil)
		return nil

	case dispatch.OutcomeFired:
		transitionName := res.TransitionName
		mon.writeEvent(ev, &transitionName, true, nil)
		return nil

	default: // dispatch.OutcomeViolation
		mon.violationCount++
		diag := violation.Build(ev, res.TransitionName, res.Engine, mon.marking)
		reason := string(diag.Reason)
		id := diag.ID.String()
		transitionName := res.TransitionName
		mon.writeViolation(ev, &transitionName, &reason, &id)
		return violation.Decide(mon.policy, diag)
	}
}

// ViolationCount reports how many events this Monitor has observed
// that produced a violation (ProtocolViolation or UnboundPostVariable),
// whether or not that violation aborted under the current policy. A
// host driving the monitor under the continue policy can use this to
// decide whether to still surface a non-zero exit status (spec §6.4).
func (mon *Monitor) ViolationCount() int {
	return mon.violationCount
}

func (mon *Monitor) writeEvent(ev dispatch.Event, transition *string, fired bool, violationReason *string) {
	mon.writeRecord(ev, transition, fired, violationReason, nil)
}

// writeViolation is writeEvent specialized for a violation record: it
// also carries the Diagnostic's correlation id, so multiple violations
// appended to the same shared log (several model-checker-explored
// schedules writing to one file) can be told apart.
func (mon *Monitor) writeViolation(ev dispatch.Event, transition *string, violationReason *string, diagnosticID *string) {
	mon.writeRecord(ev, transition, false, violationReason, diagnosticID)
}

func (mon *Monitor) writeRecord(ev dispatch.Event, transition *string, fired bool, violationReason, diagnosticID *string) {
	if mon.log == nil {
		return
	}
	mon.log.WriteEvent(monitorlog.EventRecord{
		Event:        ev.Kind,
		Fields:       ev.Fields,
		Transition:   transition,
		Fired:        fired,
		MarkingHash:  mon.marking.Hash(),
		Violation:    violationReason,
		DiagnosticID: diagnosticID,
	})
}

// OnExecutionEnd emits the exec_end log record carrying the final
// marking hash, then resets the marking back to initial_marking for
// the next model-checker-explored schedule (spec §4, "on_execution_end").
func (mon *Monitor) OnExecutionEnd() {
	hash := mon.marking.Hash()
	if mon.log != nil {
		mon.log.WriteExecEnd(monitorlog.ExecEndRecord{ExecEnd: true, MarkingHash: hash})
	}
	mon.marking.Reset()
	seedInitialMarking(mon.marking, mon.net)
}
