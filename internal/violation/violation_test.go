package violation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"go-cpn-monitor/internal/color"
	"go-cpn-monitor/internal/dispatch"
	"go-cpn-monitor/internal/engine"
	"go-cpn-monitor/internal/marking"
	"go-cpn-monitor/internal/netmodel"
)

func TestBuildCapturesFailedArcAndMarking(t *testing.T) {
	m := marking.New()
	m.Insert("free", color.New("Lock", 1))
	arc := netmodel.VarArc("held", "L")
	engRes := engine.Result{Reason: engine.NotEnabled, FailedArc: &arc, FailedArcIndex: 0}
	ev := dispatch.Event{Kind: "LockRelease", Fields: map[string]uint64{"thread": 1, "lock_id": 100}}

	diag := Build(ev, "Release", engRes, m)

	require.Equal(t, ProtocolViolation, diag.Reason)
	require.Equal(t, "Release", diag.Transition)
	require.Equal(t, "held:L", diag.FailedArc)
	require.Equal(t, uint64(100), diag.EventFields["lock_id"])
	require.Contains(t, diag.Error(), diag.ID.String(), "the diagnostic's correlation id must actually appear in its rendered message")

	other := Build(ev, "Release", engRes, m)
	require.NotEqual(t, diag.ID, other.ID, "each Diagnostic must get its own correlation id")
}

func TestBuildUnboundPostVariableReason(t *testing.T) {
	m := marking.New()
	arc := netmodel.VarArc("p", "Z")
	engRes := engine.Result{Reason: engine.UnboundPostVariable, FailedArc: &arc}
	diag := Build(dispatch.Event{Kind: "Yield"}, "Bad", engRes, m)

	require.Equal(t, UnboundPostVariable, diag.Reason)
}

func TestDecideFailFastAborts(t *testing.T) {
	diag := Diagnostic{Reason: ProtocolViolation}
	err := Decide(FailFast, diag)

	var abort *AbortError
	require.True(t, errors.As(err, &abort))
	require.Equal(t, diag, abort.Diagnostic)
}

func TestDecideContinueDoesNotAbortOnProtocolViolation(t *testing.T) {
	diag := Diagnostic{Reason: ProtocolViolation}
	err := Decide(Continue, diag)
	require.NoError(t, err)
}

func TestDecideUnboundPostVariableAlwaysAborts(t *testing.T) {
	diag := Diagnostic{Reason: UnboundPostVariable}
	err := Decide(Continue, diag)

	var abort *AbortError
	require.True(t, errors.As(err, &abort))
}
