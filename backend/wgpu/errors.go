package wgpu

import "errors"

// Package errors for the wgpu device.
var (
	// ErrNoAdapter is returned when a backend exposes no adapters.
	ErrNoAdapter = errors.New("wgpu: no adapter available")

	// ErrBackendUnavailable is returned when the requested HAL backend is
	// not registered. Import its package to register it.
	ErrBackendUnavailable = errors.New("wgpu: backend not registered")

	// ErrNotHAL is returned by NewFromProvider when the provider does not
	// expose HAL device and queue handles.
	ErrNotHAL = errors.New("wgpu: provider does not expose a HAL device")

	// ErrUnsupportedFormat is returned for texture formats whose memory
	// footprint cannot be computed, such as block-compressed formats.
	ErrUnsupportedFormat = errors.New("wgpu: unsupported texture format")

	// ErrInvalidDescriptor is returned for descriptors with zero sizes.
	ErrInvalidDescriptor = errors.New("wgpu: invalid descriptor")

	// ErrHeapTooSmall is returned when binding an object to a heap smaller
	// than its requirements.
	ErrHeapTooSmall = errors.New("wgpu: heap too small")

	// ErrAlreadyBound is returned when binding an object twice.
	ErrAlreadyBound = errors.New("wgpu: object already bound")

	// ErrForeignObject is returned when an object passed in was not
	// created by this device.
	ErrForeignObject = errors.New("wgpu: object not created by this device")

	// ErrClosed is returned by operations on a closed device.
	ErrClosed = errors.New("wgpu: device closed")
)
