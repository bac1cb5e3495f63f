package gpu

import (
	"encoding/binary"
	"math"
)

// overlayQuadVertexCount is the number of vertices in the fullscreen quad
// (2 triangles).
const overlayQuadVertexCount = 6

// buildOverlayQuadVertices serializes the fullscreen quad into raw vertex
// bytes for GPU upload. Positions are in clip space; texture coordinates
// put (0, 0) at the top-left texel, so V is flipped relative to clip Y.
//
//	Triangle 1: TL, TR, BL
//	Triangle 2: TR, BR, BL
func buildOverlayQuadVertices() []byte {
	type corner struct {
		px, py float32 // clip-space position
		u, v   float32 // texture coordinate
	}
	tl := corner{-1, 1, 0, 0}
	tr := corner{1, 1, 1, 0}
	bl := corner{-1, -1, 0, 1}
	br := corner{1, -1, 1, 1}

	corners := [overlayQuadVertexCount]corner{tl, tr, bl, tr, br, bl}

	data := make([]byte, overlayQuadVertexCount*overlayVertexStride)
	off := 0
	for _, c := range corners {
		writeOverlayVertex(data[off:], c.px, c.py, c.u, c.v)
		off += overlayVertexStride
	}
	return data
}

// writeOverlayVertex writes a single overlay vertex into buf.
func writeOverlayVertex(buf []byte, x, y, u, v float32) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(x))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(y))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(u))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v))
}
