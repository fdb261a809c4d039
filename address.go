package segdeque

// locate maps a logical index, counted from the front element, to the
// distance in blocks from the front block and the offset inside that block.
//
// frontIndex is the in-block offset of the front element. It only works
// because every slot between the front and back blocks owns a block.
func locate(frontIndex, idx int) (blk int, off int) {
	abs := frontIndex + idx
	return abs / BlockSize, abs % BlockSize
}
