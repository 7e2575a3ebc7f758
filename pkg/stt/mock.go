package stt

import "sync"

// MockSession is a test double for Session. Emit delivers transcript
// events to the consumer; Sent records every audio frame.
type MockSession struct {
	mu     sync.Mutex
	events chan Transcript
	closed bool
	err    error

	// Sent holds every frame passed to SendAudio.
	Sent [][]byte

	// SendErr, when set, is returned by SendAudio.
	SendErr error
}

var _ Session = (*MockSession)(nil)

// NewMockSession creates a mock session with a buffered event channel.
func NewMockSession() *MockSession {
	return &MockSession{events: make(chan Transcript, 16)}
}

// Emit delivers a transcript event to the consumer.
func (m *MockSession) Emit(t Transcript) {
	m.events <- t
}

// Fail records an error and ends the event stream.
func (m *MockSession) Fail(err error) {
	m.mu.Lock()
	m.err = err
	closed := m.closed
	m.closed = true
	m.mu.Unlock()
	if !closed {
		close(m.events)
	}
}

func (m *MockSession) SendAudio(pcm []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrSessionClosed
	}
	if m.SendErr != nil {
		return m.SendErr
	}
	frame := make([]byte, len(pcm))
	copy(frame, pcm)
	m.Sent = append(m.Sent, frame)
	return nil
}

func (m *MockSession) Transcripts() <-chan Transcript {
	return m.events
}

func (m *MockSession) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *MockSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.events)
	return nil
}
