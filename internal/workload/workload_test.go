package workload

import (
	"math/rand"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want ID
		name string
	}{
		{"0", A5050, "ycsb-a-50-50"},
		{"1", RMW100, "rmw-100"},
		{"2", Upsert100, "upsert-100"},
		{"3", Read100, "read-100"},
	}
	for _, tt := range tests {
		id, err := Parse(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, id)
		assert.Equal(t, tt.name, id.Name())
	}

	for _, bad := range []string{"4", "-1", "a", ""} {
		_, err := Parse(bad)
		assert.True(t, errors.Is(err, ErrUnknownWorkload), bad)
	}
}

func TestFixedPolicies(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for range 100 {
		assert.Equal(t, OpReadModifyWrite, AlwaysRMW(rng))
		assert.Equal(t, OpUpsert, AlwaysUpsert(rng))
		assert.Equal(t, OpRead, AlwaysRead(rng))
	}
}

func TestReadUpsert5050Converges(t *testing.T) {
	const samples = 200_000
	rng := rand.New(rand.NewSource(42))
	reads := 0
	for range samples {
		switch ReadUpsert5050(rng) {
		case OpRead:
			reads++
		case OpUpsert:
		default:
			t.Fatal("unexpected op")
		}
	}
	ratio := float64(reads) / samples
	assert.InDelta(t, 0.5, ratio, 0.01)
}

func TestPolicyReproduciblePerSeed(t *testing.T) {
	a := rand.New(rand.NewSource(9))
	b := rand.New(rand.NewSource(9))
	for range 1000 {
		require.Equal(t, ReadUpsert5050(a), ReadUpsert5050(b))
	}
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "scan", OpScan.String())
	assert.Equal(t, "rmw", OpReadModifyWrite.String())
	assert.Equal(t, "unknown", Op(99).String())
}

func TestMergeMaterialize(t *testing.T) {
	current := []byte{5, 0, 0, 0, 0, 0, 0, 0}
	mod := []byte{3, 0, 0, 0, 0, 0, 0, 0}
	dst := make([]byte, 8)

	n := Merge(current, mod, dst)
	assert.Equal(t, 8, n)
	assert.Equal(t, []byte{8, 0, 0, 0, 0, 0, 0, 0}, dst)
	// current は変更されない
	assert.Equal(t, byte(5), current[0])
}

func TestMergePreservesTailAndWraps(t *testing.T) {
	current := []byte{250, 1, 2, 3, 4, 5, 6, 7}
	dst := make([]byte, 8)
	Merge(current, []byte{10}, dst)
	assert.Equal(t, []byte{4, 1, 2, 3, 4, 5, 6, 7}, dst)
}

func TestMergeSizeOnly(t *testing.T) {
	current := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	assert.Equal(t, 8, Merge(current, []byte{1}, nil))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, current)
}

func TestPropertyMergeDeterministic(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("materialized merge is a pure function of its inputs", prop.ForAll(
		func(current []byte, m byte) bool {
			if len(current) == 0 {
				return Merge(current, []byte{m}, []byte{}) == 0
			}
			d1 := make([]byte, len(current))
			d2 := make([]byte, len(current))
			n1 := Merge(current, []byte{m}, d1)
			n2 := Merge(current, []byte{m}, d2)
			if n1 != n2 || n1 != Merge(current, []byte{m}, nil) {
				return false
			}
			if d1[0] != current[0]+m {
				return false
			}
			for i := 1; i < len(current); i++ {
				if d1[i] != current[i] || d2[i] != current[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.UInt8()),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}
