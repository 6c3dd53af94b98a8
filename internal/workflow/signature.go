package workflow

import "sync"

// SignatureCapture holds the raster data of a freehand signature as
// produced by the signing pad. The workflow only cares whether it is
// empty; decoding the image is a UI concern.
type SignatureCapture struct {
	mu   sync.Mutex
	data []byte
}

// NewSignatureCapture creates an empty capture.
func NewSignatureCapture() *SignatureCapture {
	return &SignatureCapture{}
}

// Set replaces the captured raster data.
func (s *SignatureCapture) Set(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make([]byte, len(data))
	copy(s.data, data)
}

// Clear discards the capture.
func (s *SignatureCapture) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
}

// Empty reports whether anything has been captured.
func (s *SignatureCapture) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data) == 0
}

// Data returns a copy of the captured raster data.
func (s *SignatureCapture) Data() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}
