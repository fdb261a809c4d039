package gauntlet

import (
	"fmt"
	"math/rand"
)

type Op uint8

const (
	OpPushBack Op = iota
	OpPushFront
	OpPopBack
	OpPopFront
	OpAccess
)

// pushed values are drawn from [0, MaxValue)
const MaxValue = 1000

func (op Op) String() string {
	switch op {
	case OpPushBack:
		return "push_back"
	case OpPushFront:
		return "push_front"
	case OpPopBack:
		return "pop_back"
	case OpPopFront:
		return "pop_front"
	case OpAccess:
		return "access"
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// Step is one generated operation. Value is only meaningful for pushes.
// Index is a raw non-negative number, the runner reduces it modulo the
// current size, so a step does not depend on the state it is applied to.
type Step struct {
	Op    Op  `msgpack:"op"`
	Value int `msgpack:"value"`
	Index int `msgpack:"index"`
}

func (s Step) String() string {
	switch s.Op {
	case OpPushBack, OpPushFront:
		return fmt.Sprintf("%s(%d)", s.Op, s.Value)
	case OpAccess:
		return fmt.Sprintf("%s(%d)", s.Op, s.Index)
	}
	return s.Op.String()
}

// Generator produces a reproducible stream of steps from a seed.
// weights: 30% push_back, 30% push_front, 15% pop_back, 15% pop_front,
// 10% indexed access
type Generator struct {
	seed   int64
	randor *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		seed:   seed,
		randor: rand.New(rand.NewSource(seed)),
	}
}

func (g *Generator) Seed() int64 {
	return g.seed
}

func (g *Generator) Next() Step {
	var op Op
	switch r := g.randor.Intn(100); {
	case r < 30:
		op = OpPushBack
	case r < 60:
		op = OpPushFront
	case r < 75:
		op = OpPopBack
	case r < 90:
		op = OpPopFront
	default:
		op = OpAccess
	}

	return Step{
		Op:    op,
		Value: g.randor.Intn(MaxValue),
		Index: g.randor.Int(),
	}
}

func (g *Generator) Steps(n int) []Step {
	steps := make([]Step, n)
	for i := range steps {
		steps[i] = g.Next()
	}
	return steps
}
