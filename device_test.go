// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package overlay

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

func TestNullDeviceHandle(t *testing.T) {
	var h DeviceHandle = NullDeviceHandle{}

	if h.Device() != nil {
		t.Error("Device() should be nil for the null handle")
	}
	if h.Queue() != nil {
		t.Error("Queue() should be nil for the null handle")
	}
	if h.Adapter() != nil {
		t.Error("Adapter() should be nil for the null handle")
	}
	if got := h.SurfaceFormat(); got != gputypes.TextureFormatUndefined {
		t.Errorf("SurfaceFormat() = %v, want TextureFormatUndefined", got)
	}
	if got := h.AdapterInfo(); got.Type != gpucontext.AdapterTypeUnknown || got.Name != "" {
		t.Errorf("AdapterInfo() = %+v, want unknown adapter with empty name", got)
	}
}

func TestSetCompositorDeviceProviderNullHandle(t *testing.T) {
	resetCompositor()
	t.Cleanup(resetCompositor)

	mock := &mockCompositor{name: "null-handle"}
	if err := RegisterCompositor(mock); err != nil {
		t.Fatalf("RegisterCompositor() = %v", err)
	}

	// A null handle is forwarded like any other provider; rejecting it is
	// the compositor's call.
	if err := SetCompositorDeviceProvider(NullDeviceHandle{}); err != nil {
		t.Errorf("SetCompositorDeviceProvider() = %v, want nil", err)
	}
	if _, ok := mock.provider.(NullDeviceHandle); !ok {
		t.Error("null handle was not forwarded to the compositor")
	}
}
