package checksum

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SHA-256 of "hello\n", a well-known vector.
const helloSum = "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03"

func TestSum(t *testing.T) {
	assert.Equal(t, helloSum, Sum([]byte("hello\n")))
}

func TestSum_EmptyInput(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Sum(nil))
}

func TestReader_MatchesSum(t *testing.T) {
	r := NewReader(strings.NewReader("hello\n"))

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
	assert.Equal(t, helloSum, r.Sum())
}

func TestReader_HashCoversOnlyConsumedBytes(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte("hello\nworld\n")))

	buf := make([]byte, 6)
	_, err := io.ReadFull(r, buf)
	require.NoError(t, err)

	assert.Equal(t, helloSum, r.Sum(), "partial reads hash only what was consumed")

	_, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, Sum([]byte("hello\nworld\n")), r.Sum())
}

func TestReader_IndependentOfChunking(t *testing.T) {
	content := strings.Repeat("abc123;", 10000)

	whole := NewReader(strings.NewReader(content))
	_, err := io.ReadAll(whole)
	require.NoError(t, err)

	chunked := NewReader(strings.NewReader(content))
	buf := make([]byte, 37)
	for {
		_, err := chunked.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	assert.Equal(t, whole.Sum(), chunked.Sum())
}
