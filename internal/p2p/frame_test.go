package p2p

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("a query request envelope")

	require.NoError(t, writeFrame(&buf, payload))
	got, err := readFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, make([]byte, 0)))
	b := buf.Bytes()
	b[0], b[1], b[2], b[3] = 0xFF, 0xFF, 0xFF, 0xFF
	_, err := readFrame(bytes.NewReader(b))
	require.Error(t, err)
}

func TestReadFrameRejectsTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, []byte("hello world")))
	truncated := buf.Bytes()[:6]
	_, err := readFrame(bytes.NewReader(truncated))
	require.Error(t, err)
}
