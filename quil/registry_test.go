package quil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T, defs ...GateDefinition) *Registry {
	t.Helper()
	reg := NewRegistry()
	for _, d := range defs {
		require.NoError(t, reg.Replace(d))
	}
	return reg
}

func TestRegistry(t *testing.T) {
	swap, err := NewGateDefinition("MYSWAP", nil, PermutationSpecification{0, 2, 1, 3})
	require.NoError(t, err)
	rx, err := NewGateDefinition("MYRX", []string{"theta"}, rxMatrix())
	require.NoError(t, err)

	reg := testRegistry(t, swap)
	require.NoError(t, reg.Add(rx))
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"MYRX", "MYSWAP"}, reg.Names())

	got, ok := reg.Definition("MYRX")
	require.True(t, ok)
	assert.True(t, got.Equal(rx))

	_, ok = reg.Definition("NOPE")
	assert.False(t, ok)

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "MYRX", defs[0].Name)
}

func TestRegistryAdd_Duplicate(t *testing.T) {
	swap, err := NewGateDefinition("MYSWAP", nil, PermutationSpecification{0, 2, 1, 3})
	require.NoError(t, err)
	reg := testRegistry(t, swap)

	err = reg.Add(swap)
	assert.ErrorIs(t, err, ErrDuplicateDefinition)

	other, err := NewGateDefinition("MYSWAP", nil, PermutationSpecification{1, 0})
	require.NoError(t, err)
	require.NoError(t, reg.Replace(other))
	got, _ := reg.Definition("MYSWAP")
	assert.Equal(t, 1, got.QubitCount())
}

func TestRegistryAdd_ShadowsStandardGate(t *testing.T) {
	h, err := NewGateDefinition("H", nil, PermutationSpecification{1, 0})
	require.NoError(t, err)

	reg := NewRegistry()
	assert.ErrorIs(t, reg.Add(h), ErrDuplicateDefinition)
	assert.ErrorIs(t, reg.Replace(h), ErrDuplicateDefinition)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			def, err := NewGateDefinition("FLIP", nil, PermutationSpecification{1, 0})
			if err == nil {
				_ = reg.Replace(def)
			}
			reg.Definition("FLIP")
			reg.Names()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, reg.Len())
}
