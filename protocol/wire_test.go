package protocol

import (
	"errors"
	"testing"

	"mysqladm/privilege"

	"github.com/stretchr/testify/require"
)

type kindedError struct{ kind, msg string }

func (e kindedError) Error() string { return e.msg }
func (e kindedError) Kind() string  { return e.kind }

func TestNewFailureNilIsZero(t *testing.T) {
	f := NewFailure(nil)
	require.True(t, f.IsZero())
	require.Nil(t, f.Err())
}

func TestNewFailurePreservesKindWhenAvailable(t *testing.T) {
	f := NewFailure(kindedError{kind: "already_exists", msg: "database already exists"})
	require.Equal(t, "already_exists", f.Kind)
	require.Equal(t, "database already exists", f.Message)
	require.False(t, f.IsZero())
}

func TestNewFailureFallsBackToGenericKind(t *testing.T) {
	f := NewFailure(errors.New("boom"))
	require.Equal(t, "error", f.Kind)
}

func TestFailuresFromErrorsProjectsEveryEntry(t *testing.T) {
	errs := map[string]error{
		"ok":   nil,
		"fail": kindedError{kind: "denylisted", msg: "nope"},
	}
	failures := FailuresFromErrors(errs)

	require.True(t, failures["ok"].IsZero())
	require.Equal(t, "denylisted", failures["fail"].Kind)
}

func TestDiffWireRoundTripNew(t *testing.T) {
	row := privilege.Row{Database: "db1", User: "u1", Select: true}
	key := row.Key()

	wire := ToWire(key, privilege.NewDiffs(row))
	require.Equal(t, "new", wire.Kind)

	gotKey, gotDiff, err := wire.FromWire()
	require.NoError(t, err)
	require.Equal(t, key, gotKey)
	require.True(t, gotDiff.IsNew())
	require.Equal(t, row, *gotDiff.New)
}

func TestDiffWireRoundTripModified(t *testing.T) {
	key := privilege.Key{Database: "db1", User: "u1"}
	grant := privilege.NoToYes
	diff := privilege.RowDiff{Database: "db1", User: "u1", Select: &grant}

	wire := ToWire(key, privilege.ModifiedDiffs(diff))
	require.Equal(t, "modified", wire.Kind)

	gotKey, gotDiff, err := wire.FromWire()
	require.NoError(t, err)
	require.Equal(t, key, gotKey)
	require.True(t, gotDiff.IsModified())
	require.NotNil(t, gotDiff.Modified.Select)
	require.Equal(t, privilege.NoToYes, *gotDiff.Modified.Select)
}

func TestDiffWireRoundTripDeletedAndNoop(t *testing.T) {
	key := privilege.Key{Database: "db1", User: "u1"}

	wire := ToWire(key, privilege.DeletedDiffs())
	_, diff, err := wire.FromWire()
	require.NoError(t, err)
	require.True(t, diff.IsDeleted())

	wire = ToWire(key, privilege.NoopDiffs())
	_, diff, err = wire.FromWire()
	require.NoError(t, err)
	require.True(t, diff.IsNoop())
}

func TestDiffWireFromWireRejectsMissingPayload(t *testing.T) {
	_, _, err := DiffWire{Kind: "new"}.FromWire()
	require.Error(t, err)

	_, _, err = DiffWire{Kind: "modified"}.FromWire()
	require.Error(t, err)

	_, _, err = DiffWire{Kind: "bogus"}.FromWire()
	require.Error(t, err)
}
