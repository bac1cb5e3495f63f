package gpu

import (
	"strings"
	"testing"
)

func TestOverlayShaderSourceEmbedded(t *testing.T) {
	src := GetOverlayShaderSource()
	if src == "" {
		t.Fatal("overlay shader source is empty")
	}
	for _, want := range []string{"vs_main", "fs_main", "textureSample", "params.alpha"} {
		if !strings.Contains(src, want) {
			t.Errorf("overlay shader source missing %q", want)
		}
	}
}

// The embedded WGSL must compile cleanly. The SPIR-V magic number doubles
// as a word-order check on the byte-to-word conversion.
func TestOverlayShaderCompiles(t *testing.T) {
	code, err := CompileShaderToSPIRV(GetOverlayShaderSource())
	if err != nil {
		t.Fatalf("overlay shader failed to compile: %v", err)
	}
	if len(code) == 0 {
		t.Fatal("empty SPIR-V output")
	}
	if code[0] != 0x07230203 {
		t.Errorf("SPIR-V magic = %#x, want 0x07230203", code[0])
	}
}

func TestCompileShaderToSPIRVRejectsInvalid(t *testing.T) {
	if _, err := CompileShaderToSPIRV("fn broken("); err == nil {
		t.Error("expected error for invalid WGSL source")
	}
}
