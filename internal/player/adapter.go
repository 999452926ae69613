// Package player defines the boundary to the embeddable video widget. The
// session only needs playback commands and a readable playback state; how
// frames are rendered is someone else's problem.
package player

import (
	"errors"

	"github.com/go-demo/watchparty/internal/model"
)

// ErrAdapterFailure is returned when the widget cannot load or report.
// Sessions treat it as non-fatal: they keep the last-known player state and
// retry by reloading the same video id.
var ErrAdapterFailure = errors.New("player adapter failure")

// Adapter wraps a third-party video widget. Load must be idempotent for
// the same video id, and implementations may report Duration as 0
// indefinitely; callers must never block waiting for it.
type Adapter interface {
	Load(videoID string) error
	Play() error
	Pause() error
	SeekTo(seconds float64) error
	State() (model.PlayerState, error)
}
