package undo

import "unsafe"

// sizeOf reports the in-memory footprint of one arena element, used only
// by EstimateSize's bookkeeping.
func sizeOf[T any](v T) uintptr {
	return unsafe.Sizeof(v)
}
