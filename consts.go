package segdeque

const (
	// number of element slots in one block
	BlockSize = 64

	// initial number of directory slots, the first block sits in the middle
	DefaultDirectorySize = 8

	// smallest directory that still leaves a free slot on both sides of the
	// occupied span after doubling
	MinDirectorySize = 2
)
