package segdeque

import (
	"errors"
	"fmt"
	"iter"

	"github.com/rs/zerolog"
)

var (
	// every misuse of the deque (empty access, bad index) is one of these
	ErrPrecondition = errors.New("precondition violation")

	ErrDequeEmpty      = fmt.Errorf("%w: deque empty", ErrPrecondition)
	ErrDequeOutOfRange = fmt.Errorf("%w: deque out of range", ErrPrecondition)
	ErrDequeOptions    = errors.New("invalid deque options")
)

type block[T any] [BlockSize]T

type DequeOptions struct {
	// initial number of directory slots, zero means DefaultDirectorySize
	DirectorySize int

	// receives directory growth events at debug level
	Logger *zerolog.Logger
}

func (opts *DequeOptions) init() error {
	if opts.DirectorySize == 0 {
		opts.DirectorySize = DefaultDirectorySize
	}

	if opts.DirectorySize < MinDirectorySize {
		return ErrDequeOptions
	}

	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	return nil
}

type Stats struct {
	Len int

	// live blocks, always the span [frontBlock, backBlock]
	Blocks      int
	BlockAllocs uint64
	BlockFrees  uint64

	DirectorySize      int
	DirectoryGrowths   uint64
	DirectoryRecenters uint64
}

// Deque is a double-ended queue over a directory of fixed size blocks.
//
// The directory slots in [frontBlock, backBlock] always own a block, the
// others are nil. The front element lives at blocks[frontBlock][frontIndex]
// and the back element at blocks[backBlock][backIndex]. When the deque is
// empty the cursors are parked in the middle of a single block so that the
// first push to either end needs no allocation.
//
// It's not thread-safe.
type Deque[T any] struct {
	blocks []*block[T]

	frontBlock int
	frontIndex int
	backBlock  int
	backIndex  int

	// the total number of elements
	count int

	blockAllocs uint64
	blockFrees  uint64
	growths     uint64
	recenters   uint64

	logger *zerolog.Logger
}

func NewDeque[T any]() *Deque[T] {
	// the default options are always valid
	d, _ := NewDequeWithOptions[T](nil)
	return d
}

func NewDequeWithOptions[T any](opts *DequeOptions) (*Deque[T], error) {
	if opts == nil {
		opts = &DequeOptions{}
	}

	if err := opts.init(); err != nil {
		return nil, err
	}

	d := &Deque[T]{
		blocks: make([]*block[T], opts.DirectorySize),
		logger: opts.Logger,
	}
	d.reset()

	return d, nil
}

// reset drops every block except the middle one and parks both cursors in
// the middle of it. back sits one slot before front, so the first push to
// either end lands on the same block.
func (d *Deque[T]) reset() {
	mid := len(d.blocks) / 2
	for i := range d.blocks {
		if i != mid && d.blocks[i] != nil {
			d.release(i)
		}
	}

	if d.blocks[mid] == nil {
		d.allocate(mid)
	}

	d.frontBlock, d.backBlock = mid, mid
	d.frontIndex = BlockSize / 2
	d.backIndex = d.frontIndex - 1
	d.count = 0
}

func (d *Deque[T]) allocate(slot int) {
	d.blocks[slot] = new(block[T])
	d.blockAllocs++
}

func (d *Deque[T]) release(slot int) {
	d.blocks[slot] = nil
	d.blockFrees++
}

// grow makes room for one more block at the edge a cursor hit. The occupied
// span is centered either in a directory of twice the size or, when less
// than half of the slots are in use, in the current one. Only the slot
// references move, the blocks and the in-block offsets stay put.
func (d *Deque[T]) grow() {
	span := d.backBlock - d.frontBlock + 1
	size := len(d.blocks)

	blocks := d.blocks
	doubled := 2*span >= size
	if doubled {
		size *= 2
		blocks = make([]*block[T], size)
	}

	// both sides keep at least one free slot
	start := (size - span) / 2
	copy(blocks[start:], d.blocks[d.frontBlock:d.backBlock+1])

	if doubled {
		d.growths++
	} else {
		clear(blocks[:start])
		clear(blocks[start+span:])
		d.recenters++
	}

	shift := start - d.frontBlock
	d.frontBlock += shift
	d.backBlock += shift
	d.blocks = blocks

	d.logger.Debug().
		Bool("doubled", doubled).
		Int("directory", size).
		Int("blocks", span).
		Int("shift", shift).
		Msg("grow deque directory")
}

func (d *Deque[T]) PushFront(v T) {
	if d.frontIndex == 0 {
		if d.frontBlock == 0 {
			d.grow()
		}

		d.frontBlock--
		if d.blocks[d.frontBlock] == nil {
			d.allocate(d.frontBlock)
		}
		d.frontIndex = BlockSize
	}

	d.frontIndex--
	d.blocks[d.frontBlock][d.frontIndex] = v
	d.count++
}

func (d *Deque[T]) PushBack(v T) {
	if d.backIndex == BlockSize-1 {
		if d.backBlock == len(d.blocks)-1 {
			d.grow()
		}

		d.backBlock++
		if d.blocks[d.backBlock] == nil {
			d.allocate(d.backBlock)
		}
		d.backIndex = -1
	}

	d.backIndex++
	d.blocks[d.backBlock][d.backIndex] = v
	d.count++
}

func (d *Deque[T]) PopFront() error {
	if d.Empty() {
		return ErrDequeEmpty
	}

	// drop the reference so the garbage collector can reclaim it
	var zero T
	d.blocks[d.frontBlock][d.frontIndex] = zero

	d.count--
	if d.count == 0 {
		d.reset()
		return nil
	}

	d.frontIndex++
	if d.frontIndex == BlockSize {
		d.release(d.frontBlock)
		d.frontBlock++
		d.frontIndex = 0
	}

	return nil
}

func (d *Deque[T]) PopBack() error {
	if d.Empty() {
		return ErrDequeEmpty
	}

	var zero T
	d.blocks[d.backBlock][d.backIndex] = zero

	d.count--
	if d.count == 0 {
		d.reset()
		return nil
	}

	d.backIndex--
	if d.backIndex < 0 {
		d.release(d.backBlock)
		d.backBlock--
		d.backIndex = BlockSize - 1
	}

	return nil
}

func (d *Deque[T]) Front() (T, error) {
	if d.Empty() {
		var zero T
		return zero, ErrDequeEmpty
	}

	return d.blocks[d.frontBlock][d.frontIndex], nil
}

func (d *Deque[T]) Back() (T, error) {
	if d.Empty() {
		var zero T
		return zero, ErrDequeEmpty
	}

	return d.blocks[d.backBlock][d.backIndex], nil
}

// At returns a pointer into the block holding the idx-th element. The
// pointer stays valid until that element is popped, directory growth does
// not move blocks.
func (d *Deque[T]) At(idx int) (*T, error) {
	if idx < 0 || idx >= d.count {
		return nil, ErrDequeOutOfRange
	}

	blk, off := locate(d.frontIndex, idx)
	return &d.blocks[d.frontBlock+blk][off], nil
}

func (d *Deque[T]) Get(idx int) (T, error) {
	p, err := d.At(idx)
	if err != nil {
		var zero T
		return zero, err
	}

	return *p, nil
}

func (d *Deque[T]) Set(idx int, v T) error {
	p, err := d.At(idx)
	if err != nil {
		return err
	}

	*p = v
	return nil
}

func (d *Deque[T]) Len() int {
	return d.count
}

func (d *Deque[T]) Empty() bool {
	return d.count == 0
}

// Clear releases all blocks but keeps the directory capacity
func (d *Deque[T]) Clear() {
	if d.count > 0 {
		// the kept middle block may still hold references
		mid := len(d.blocks) / 2
		if d.blocks[mid] != nil {
			*d.blocks[mid] = block[T]{}
		}
	}

	d.reset()
}

// All yields the elements from front to back. The deque must not be
// modified during the iteration.
func (d *Deque[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		blk, off := d.frontBlock, d.frontIndex
		for i := 0; i < d.count; i++ {
			if !yield(i, d.blocks[blk][off]) {
				return
			}

			off++
			if off == BlockSize {
				blk++
				off = 0
			}
		}
	}
}

// Backward yields the elements from back to front, with their logical
// indexes.
func (d *Deque[T]) Backward() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		blk, off := d.backBlock, d.backIndex
		for i := d.count - 1; i >= 0; i-- {
			if !yield(i, d.blocks[blk][off]) {
				return
			}

			off--
			if off < 0 {
				blk--
				off = BlockSize - 1
			}
		}
	}
}

func (d *Deque[T]) Slice() []T {
	res := make([]T, 0, d.count)
	for _, v := range d.All() {
		res = append(res, v)
	}
	return res
}

func (d *Deque[T]) Stats() Stats {
	return Stats{
		Len:                d.count,
		Blocks:             d.backBlock - d.frontBlock + 1,
		BlockAllocs:        d.blockAllocs,
		BlockFrees:         d.blockFrees,
		DirectorySize:      len(d.blocks),
		DirectoryGrowths:   d.growths,
		DirectoryRecenters: d.recenters,
	}
}
