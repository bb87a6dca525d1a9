package sessionid

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/cardczar/internal/randutil"
)

func TestGenerate(t *testing.T) {
	id := Generate()

	assert.Len(t, id, 26)
	assert.NoError(t, Validate(id))
	assert.LessOrEqual(t, id[0], byte('7'), "first character must stay in the 128-bit range")
}

func TestGenerateUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := Generate()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestGenerateSortsByCreationTime(t *testing.T) {
	var ids []string
	for i := 0; i < 10; i++ {
		ids = append(ids, Generate())
		time.Sleep(time.Millisecond)
	}

	assert.True(t, sort.StringsAreSorted(ids), "ids must sort by creation time")
}

func TestGenerateFrom(t *testing.T) {
	id := GenerateFrom(randutil.New(42))

	assert.Len(t, id, 26)
	assert.NoError(t, Validate(id))

	// Same seed in the same millisecond yields the same random tail.
	other := GenerateFrom(randutil.New(42))
	assert.Equal(t, id[12:], other[12:])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "valid id", id: "01h5n0et5q6mt3v7ms1234abcd"},
		{name: "too short", id: "01h5n0et5q6mt3v7ms123", wantErr: true},
		{name: "too long", id: "01h5n0et5q6mt3v7ms1234abcdef", wantErr: true},
		{name: "first char too high", id: "81h5n0et5q6mt3v7ms1234abcd", wantErr: true},
		{name: "invalid character", id: "01h5n0et5q6mt3v7ms1234abci", wantErr: true},
		{name: "uppercase not allowed", id: "01H5N0ET5Q6MT3V7MS1234ABCD", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
