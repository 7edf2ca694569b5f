package packet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrom(t *testing.T) {
	testCases := []struct {
		name   string
		input  []byte
		expect []byte
	}{
		{"empty", nil, []byte{}},
		{"short", []byte("pulsing...\n"), []byte("pulsing...\n")},
		{"full", bytes.Repeat([]byte{0xa5}, Capacity), bytes.Repeat([]byte{0xa5}, Capacity)},
		{"over capacity", bytes.Repeat([]byte{1}, Capacity+5), bytes.Repeat([]byte{1}, Capacity)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := From(tc.input)
			require.Equal(t, tc.expect, p.Bytes())
			require.Equal(t, len(tc.expect), p.Len())
		})
	}
}

func TestFromCopies(t *testing.T) {
	src := []byte("rising")
	p := From(src)
	src[0] = 'X'
	require.Equal(t, "rising", p.String())

	q := p
	q.Bytes()[0] = 'Y'
	require.Equal(t, "rising", p.String(), "copied packet must not alias the original")
	require.Equal(t, "Yising", q.String())
}

func TestFromString(t *testing.T) {
	p := FromString("pausing...\n")
	require.Equal(t, []byte("pausing...\n"), p.Bytes())
}
