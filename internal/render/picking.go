package render

import "encoding/binary"

// PickRequest asks the render side which entity hash sits under a cell.
type PickRequest struct {
	ID       uint64
	Viewport ViewportID
	X, Y     int
}

// HashToRGBA encodes an entity hash as the color written by the picking pass.
func HashToRGBA(hash uint32) [4]byte {
	var px [4]byte
	binary.LittleEndian.PutUint32(px[:], hash)
	return px
}

// RGBAToHash decodes a picking pixel. Zero is the clear color and means
// nothing was hit.
func RGBAToHash(px [4]byte) (uint32, bool) {
	h := binary.LittleEndian.Uint32(px[:])
	return h, h != 0
}
