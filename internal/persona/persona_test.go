package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/cardczar/internal/randutil"
)

func TestRosterWellFormed(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)

	seen := make(map[string]bool)
	for _, p := range all {
		assert.NotEmpty(t, p.ID)
		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.Instruction)
		assert.False(t, seen[p.ID], "duplicate persona id %s", p.ID)
		seen[p.ID] = true
	}
}

func TestByID(t *testing.T) {
	p, ok := ByID("caesar")
	require.True(t, ok)
	assert.Equal(t, "Julius Caesar", p.Name)

	_, ok = ByID("nobody")
	assert.False(t, ok)
}

func TestRandomDeterministic(t *testing.T) {
	a := Random(randutil.New(42))
	b := Random(randutil.New(42))
	assert.Equal(t, a, b)
}

func TestRandomN(t *testing.T) {
	picked := RandomN(randutil.New(7), 5)
	require.Len(t, picked, 5)

	seen := make(map[string]bool)
	for _, p := range picked {
		assert.False(t, seen[p.ID])
		seen[p.ID] = true
	}

	all := RandomN(randutil.New(7), len(All())+10)
	assert.Len(t, all, len(All()))
}

func TestAllReturnsCopy(t *testing.T) {
	a := All()
	a[0].Name = "mutated"
	assert.NotEqual(t, "mutated", All()[0].Name)
}
