package player

import (
	"sync"

	"github.com/go-demo/watchparty/internal/model"
)

// FakeAdapter is an in-memory Adapter used by tests and by the memory
// backend's demo mode. It can be told to fail to exercise the
// adapter-failure policy.
type FakeAdapter struct {
	mu    sync.Mutex
	state model.PlayerState
	fail  bool

	// Loads counts Load calls, including reloads of the same video.
	Loads int
}

func NewFakeAdapter() *FakeAdapter {
	return &FakeAdapter{}
}

// Fail makes every subsequent call return ErrAdapterFailure.
func (f *FakeAdapter) Fail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

// SetDuration simulates the widget reporting the video length.
func (f *FakeAdapter) SetDuration(seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Duration = seconds
}

func (f *FakeAdapter) Load(videoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return ErrAdapterFailure
	}
	f.Loads++
	f.state = model.PlayerState{VideoID: videoID}
	return nil
}

func (f *FakeAdapter) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return ErrAdapterFailure
	}
	f.state.IsPlaying = true
	return nil
}

func (f *FakeAdapter) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return ErrAdapterFailure
	}
	f.state.IsPlaying = false
	return nil
}

func (f *FakeAdapter) SeekTo(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return ErrAdapterFailure
	}
	f.state.CurrentTime = seconds
	return nil
}

func (f *FakeAdapter) State() (model.PlayerState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return model.PlayerState{}, ErrAdapterFailure
	}
	return f.state, nil
}
