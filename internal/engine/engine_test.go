package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"go-cpn-monitor/internal/color"
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
	return n
}

func TestFireFiresWhenEnabled(t *testing.T) {
	n := mutexNet()
	m := marking.New()
	lock := color.New("Lock", 100)
	m.Insert("free", lock)

	acquire, ok := n.Transition("Acquire")
	require.True(t, ok)

	binding := netmodel.NewBinding()
	binding["L"] = lock
	res := New().Fire(acquire, binding, m)

	require.Equal(t, Fired, res.Reason)
	require.False(t, m.Contains("free", lock))
	require.True(t, m.Contains("held", lock))
}

func TestFireReportsNotEnabledWithoutMutation(t *testing.T) {
	n := mutexNet()
	m := marking.New()
	before := m.Hash()

	release, ok := n.Transition("Release")
	require.True(t, ok)

	binding := netmodel.NewBinding()
	binding["L"] = color.New("Lock", 100)
	res := New().Fire(release, binding, m)

	require.Equal(t, NotEnabled, res.Reason)
	require.NotNil(t, res.FailedArc)
	require.Equal(t, before, m.Hash(), "marking must be unchanged on NotEnabled")
}

func TestFireGreedySmallestPicksLowestUnboundToken(t *testing.T) {
	n := netmodel.NewNet()
	n.AddTransition(netmodel.NewTransition("Take",
		[]netmodel.Arc{netmodel.VarArc("pool", "X")},
		nil,
	))
	m := marking.New()
	m.Insert("pool", color.New("Loc", 9))
	m.Insert("pool", color.New("Loc", 3))
	m.Insert("pool", color.New("Loc", 7))

	take, _ := n.Transition("Take")
	res := New().Fire(take, netmodel.NewBinding(), m)

	require.Equal(t, Fired, res.Reason)
	require.Equal(t, color.New("Loc", 3), res.Binding["X"])
}

func TestFireUnboundPostVariable(t *testing.T) {
	n := netmodel.NewNet()
	n.AddTransition(netmodel.NewTransition("Bad", nil,
		[]netmodel.Arc{netmodel.VarArc("p", "Z")},
	))
	m := marking.New()

	bad, _ := n.Transition("Bad")
	res := New().Fire(bad, netmodel.NewBinding(), m)

	require.Equal(t, UnboundPostVariable, res.Reason)
	require.True(t, m.IsEmpty())
}

func TestFireTwoUnboundPreArcsOnSamePlaceDoNotClaimTheSameToken(t *testing.T) {
	n := netmodel.NewNet()
	n.AddTransition(netmodel.NewTransition("TakeTwo",
		[]netmodel.Arc{netmodel.VarArc("pool", "X"), netmodel.VarArc("pool", "Y")},
		nil,
	))
	m := marking.New()
	m.Insert("pool", color.New("Loc", 1))

	takeTwo, _ := n.Transition("TakeTwo")
	res := New().Fire(takeTwo, netmodel.NewBinding(), m)

	require.Equal(t, NotEnabled, res.Reason, "only one physical occurrence exists; the second pre-arc must not be satisfied by reusing it")
	require.Equal(t, 1, m.Count("pool", color.New("Loc", 1)), "marking must be unchanged on NotEnabled")
}

func TestFireConcreteAndVariablePreArcOnSamePlaceConsumeDistinctOccurrences(t *testing.T) {
	n := netmodel.NewNet()
	n.AddTransition(netmodel.NewTransition("TakeBoth",
		[]netmodel.Arc{netmodel.ConcreteArc("pool", color.New("Loc", 1)), netmodel.VarArc("pool", "X")},
		nil,
	))
	m := marking.New()
	m.Insert("pool", color.New("Loc", 1))
	m.Insert("pool", color.New("Loc", 1))

	takeBoth, _ := n.Transition("TakeBoth")
	res := New().Fire(takeBoth, netmodel.NewBinding(), m)

	require.Equal(t, Fired, res.Reason)
	require.Equal(t, 0, m.Count("pool", color.New("Loc", 1)), "both occurrences must be consumed, not one double-counted")
}

func TestFireAtomicityPreTokensConsumedPostTokensProduced(t *testing.T) {
	n := netmodel.NewNet()
	n.AddTransition(netmodel.NewTransition("Move",
		[]netmodel.Arc{netmodel.VarArc("a", "X")},
		[]netmodel.Arc{netmodel.VarArc("b", "X"), netmodel.ConcreteArc("tag", color.New("Marker", 1))},
	))
	m := marking.New()
	m.Insert("a", color.New("Loc", 5))

	move, _ := n.Transition("Move")
	res := New().Fire(move, netmodel.NewBinding(), m)

	require.Equal(t, Fired, res.Reason)
	require.Equal(t, 0, m.Count("a", color.New("Loc", 5)))
	require.True(t, m.Contains("b", color.New("Loc", 5)))
	require.True(t, m.Contains("tag", color.New("Marker", 1)))
}
