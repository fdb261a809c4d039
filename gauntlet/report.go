package gauntlet

import (
	"encoding/binary"
	"iter"
	"math/rand"
	"slices"

	"github.com/spaolacci/murmur3"

	"github.com/wenzhang-dev/segdeque"
)

const (
	// number of elements shown from each end
	ReportEdgeSize = 5

	// number of random indexes cross-checked in the report
	ReportSamples = 5
)

type Sample struct {
	Index     int
	Deque     int
	Reference int
}

func (s Sample) Match() bool {
	return s.Deque == s.Reference
}

type Report struct {
	Seed    int64
	Steps   int
	Skipped int

	Size  int
	Front int
	Back  int

	Head    []int
	Tail    []int
	Samples []Sample

	Stats segdeque.Stats

	// murmur3 over the final front-to-back contents
	Fingerprint uint64
}

func (r *Report) Passed() bool {
	for _, s := range r.Samples {
		if !s.Match() {
			return false
		}
	}
	return true
}

// Fingerprint hashes a sequence of values in order, so two sequences with
// the same fingerprint are equal with high probability.
func Fingerprint(seq iter.Seq2[int, int]) uint64 {
	hasher := murmur3.New64()

	var buf [binary.MaxVarintLen64]byte
	for _, v := range seq {
		n := binary.PutVarint(buf[:], int64(v))
		hasher.Write(buf[:n])
	}

	return hasher.Sum64()
}

// Report summarizes the final state. The sample indexes come from their own
// source seeded with seed, so a replayed trace produces the same report.
func (r *Runner) Report(seed int64) (*Report, error) {
	if err := r.VerifyAll(); err != nil {
		return nil, err
	}

	report := &Report{
		Seed:    seed,
		Steps:   r.steps,
		Skipped: r.skipped,
		Size:    r.deque.Len(),
		Stats:   r.deque.Stats(),
	}

	report.Fingerprint = Fingerprint(r.deque.All())
	if expected := Fingerprint(slices.All(r.ref)); expected != report.Fingerprint {
		return nil, &MismatchError{
			Step:     r.steps,
			Op:       r.lastOp,
			What:     "fingerprint",
			Expected: int(expected),
			Got:      int(report.Fingerprint),
		}
	}

	if r.deque.Empty() {
		return report, nil
	}

	report.Front, _ = r.deque.Front()
	report.Back, _ = r.deque.Back()

	size := r.deque.Len()
	head := min(ReportEdgeSize, size)
	for i := 0; i < head; i++ {
		v, _ := r.deque.Get(i)
		report.Head = append(report.Head, v)
	}
	for i := max(0, size-ReportEdgeSize); i < size; i++ {
		v, _ := r.deque.Get(i)
		report.Tail = append(report.Tail, v)
	}

	randor := rand.New(rand.NewSource(seed))
	for i := 0; i < ReportSamples; i++ {
		idx := randor.Intn(size)
		v, _ := r.deque.Get(idx)
		report.Samples = append(report.Samples, Sample{
			Index:     idx,
			Deque:     v,
			Reference: r.ref[idx],
		})
	}

	return report, nil
}
