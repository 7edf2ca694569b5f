package fault

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRaise(t *testing.T) {
	cause := errors.New("buffer overflow")
	var reported *Fault
	defer func() {
		r := recover()
		require.NotNil(t, r)
		f, ok := r.(*Fault)
		require.True(t, ok)
		require.ErrorIs(t, f, cause)
		require.Same(t, reported, f)
		require.Equal(t, "fatal fault: buffer overflow", f.Error())
	}()
	Raise(func(f *Fault) { reported = f }, cause)
}

func TestRaiseWithoutReporter(t *testing.T) {
	require.PanicsWithError(t, "fatal fault: x", func() {
		Raise(nil, errors.New("x"))
	})
}
