package monitorlog

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestWriteEventAppendsOneJSONLineWithNullTransition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.log")
	w := Open(path)

	w.WriteEvent(EventRecord{Event: "ThreadSpawn", Fields: map[string]uint64{"parent": 1, "child": 2}, Fired: false, MarkingHash: 42})

	lines := readLines(t, path)
	require.Len(t, lines, 1)

	var rec EventRecord
	require.NoError(t, gojson.Unmarshal([]byte(lines[0]), &rec))
	require.Equal(t, "ThreadSpawn", rec.Event)
	require.Nil(t, rec.Transition)
	require.False(t, rec.Fired)
	require.Equal(t, uint64(42), rec.MarkingHash)
}

func TestWriteEventIncludesViolationReasonWhenSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.log")
	w := Open(path)

	reason := "ProtocolViolation"
	id := "9f8a1b2c-0000-0000-0000-000000000000"
	w.WriteEvent(EventRecord{Event: "LockRelease", Transition: strPtr("Release"), Fired: false, MarkingHash: 7, Violation: &reason, DiagnosticID: &id})

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], `"violation":"ProtocolViolation"`)
	require.Contains(t, lines[0], `"diagnostic_id":"9f8a1b2c-0000-0000-0000-000000000000"`, "a violation's diagnostic id must be present in the shared log so multiple violations can be told apart")
}

func TestWriteExecEndAppendsAfterEventRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.log")
	w := Open(path)

	w.WriteEvent(EventRecord{Event: "Yield", MarkingHash: 1})
	w.WriteExecEnd(ExecEndRecord{ExecEnd: true, MarkingHash: 1})

	lines := readLines(t, path)
	require.Len(t, lines, 2)

	var end ExecEndRecord
	require.NoError(t, gojson.Unmarshal([]byte(lines[1]), &end))
	require.True(t, end.ExecEnd)
	require.Equal(t, uint64(1), end.MarkingHash)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func strPtr(s string) *string { return &s }
