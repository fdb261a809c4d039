package gauntlet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratorDeterministic(t *testing.T) {
	a := NewGenerator(42).Steps(1000)
	b := NewGenerator(42).Steps(1000)
	assert.Equal(t, a, b)

	c := NewGenerator(43).Steps(1000)
	assert.NotEqual(t, a, c)
}

func TestGeneratorWeights(t *testing.T) {
	const n = 100_000
	counts := make(map[Op]int)

	for _, step := range NewGenerator(7).Steps(n) {
		counts[step.Op]++
		assert.GreaterOrEqual(t, step.Value, 0)
		assert.Less(t, step.Value, MaxValue)
		assert.GreaterOrEqual(t, step.Index, 0)
	}

	expected := map[Op]float64{
		OpPushBack:  0.30,
		OpPushFront: 0.30,
		OpPopBack:   0.15,
		OpPopFront:  0.15,
		OpAccess:    0.10,
	}
	for op, ratio := range expected {
		assert.InDelta(t, ratio, float64(counts[op])/n, 0.01, op.String())
	}
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "push_back(3)", Step{Op: OpPushBack, Value: 3}.String())
	assert.Equal(t, "push_front(9)", Step{Op: OpPushFront, Value: 9}.String())
	assert.Equal(t, "pop_front", Step{Op: OpPopFront, Value: 9}.String())
	assert.Equal(t, "access(12)", Step{Op: OpAccess, Index: 12}.String())
	assert.Equal(t, "op(9)", Op(9).String())
}
