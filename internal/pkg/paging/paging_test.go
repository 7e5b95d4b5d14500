package paging

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 30, 0, 123456789, time.UTC)
	id := uuid.New()

	cursor := EncodeCursor(at, id)
	gotT, gotID, err := DecodeCursor(cursor)
	require.NoError(t, err)
	assert.True(t, at.Equal(gotT))
	assert.Equal(t, id, gotID)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, cursor := range []string{
		"not base64 !!!",
		"aGVsbG8",            // no separator
		"MTIzfG5vdC1hLXV1aWQ", // "123|not-a-uuid"
	} {
		_, _, err := DecodeCursor(cursor)
		assert.Error(t, err, cursor)
	}
}
