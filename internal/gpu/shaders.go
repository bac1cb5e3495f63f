package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/naga"
)

// Embedded WGSL shader source, compiled at build time via go:embed.
//
//go:embed shaders/overlay.wgsl
var overlayShaderSource string

// GetOverlayShaderSource returns the WGSL source for the overlay shader.
func GetOverlayShaderSource() string {
	return overlayShaderSource
}

// overlayUniformSize is the byte size of the overlay uniform buffer.
// Layout: alpha (f32) + 12 bytes padding = 16 bytes, matching the Params
// struct in overlay.wgsl and WebGPU's minimum uniform alignment.
const overlayUniformSize = 16

// OverlayParams represents the uniform buffer structure for the overlay
// shader. This matches the Params struct in overlay.wgsl.
type OverlayParams struct {
	// Alpha is the per-draw opacity written to the output alpha channel.
	// Passed through unclamped.
	Alpha   float32
	Padding [3]float32
}

// makeOverlayUniform serializes OverlayParams into the 16-byte uniform
// buffer layout.
func makeOverlayUniform(alpha float32) []byte {
	buf := make([]byte, overlayUniformSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(alpha))
	// Padding bytes 4..15 remain zero.
	return buf
}

// CompileShaderToSPIRV compiles WGSL source to a SPIR-V uint32 slice.
// Used by backends that consume SPIR-V and by tests to validate the
// embedded shader source.
func CompileShaderToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	return spirvCode, nil
}
