package mocks

import (
	"image"
	"sync"

	"github.com/user/vidcast/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink that records
// everything handed to it.
type DebugSink struct {
	EnabledValue bool

	mu              sync.Mutex
	rawFrames       map[int][]byte
	resampledFrames map[int]image.Image
	recordingJSON   []byte
}

func (m *DebugSink) Enabled() bool {
	return m.EnabledValue
}

func (m *DebugSink) SaveRawFrame(index int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rawFrames == nil {
		m.rawFrames = make(map[int][]byte)
	}
	m.rawFrames[index] = data
	return nil
}

func (m *DebugSink) SaveResampledFrame(tick int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resampledFrames == nil {
		m.resampledFrames = make(map[int]image.Image)
	}
	m.resampledFrames[tick] = img
	return nil
}

func (m *DebugSink) SaveRecordingJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordingJSON = data
	return nil
}

// RawFrameCount returns the number of raw frames saved.
func (m *DebugSink) RawFrameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rawFrames)
}

// RecordingJSON returns the last saved run summary.
func (m *DebugSink) RecordingJSON() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordingJSON
}

var _ ports.DebugSink = (*DebugSink)(nil)
