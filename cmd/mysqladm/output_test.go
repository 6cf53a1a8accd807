package main

import (
	"bytes"
	"io"
	"os"
	"testing"

	"mysqladm/protocol"

	"github.com/stretchr/testify/require"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	require.NoError(t, w.Close())
	os.Stdout = old

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func TestReportBatchAllOkReturnsNilError(t *testing.T) {
	flagJSON = false
	defer func() { flagJSON = false }()

	var err error
	out := captureStdout(t, func() {
		err = reportBatch(map[string]protocol.Failure{
			"alice_db1": {},
		})
	})
	require.NoError(t, err)
	require.Contains(t, out, "alice_db1: ok")
}

func TestReportBatchAnyFailureReturnsError(t *testing.T) {
	flagJSON = false
	defer func() { flagJSON = false }()

	var err error
	out := captureStdout(t, func() {
		err = reportBatch(map[string]protocol.Failure{
			"alice_db1": {},
			"alice_db2": {Kind: "already_exists", Message: "database already exists"},
		})
	})
	require.Error(t, err)
	require.Contains(t, out, "alice_db1: ok")
	require.Contains(t, out, "alice_db2: database already exists (already_exists)")
}

func TestReportBatchJSONModeEmitsJSON(t *testing.T) {
	flagJSON = true
	defer func() { flagJSON = false }()

	var err error
	out := captureStdout(t, func() {
		err = reportBatch(map[string]protocol.Failure{
			"alice_db1": {},
		})
	})
	require.NoError(t, err)
	require.Contains(t, out, "\"alice_db1\"")
}

func TestPrintJSONEncodesIndented(t *testing.T) {
	out := captureStdout(t, func() {
		require.NoError(t, printJSON(map[string]int{"a": 1}))
	})
	require.Equal(t, "{\n  \"a\": 1\n}\n", out)
}
