package utils

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

// Room codes avoid lowercase so they survive being read out loud or typed
// from a phone screen. 6 characters of a 36-symbol alphabet is enough for
// human-shared codes; collisions are possible but acceptably rare.
const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 6
	nameSuffixLength = 4
)

// NewRoomCode generates a short, shareable, case-insensitive room code.
func NewRoomCode() string {
	return randomFrom(roomCodeAlphabet, roomCodeLength)
}

// NewUserID generates an opaque unique user id.
func NewUserID() string {
	return uuid.New().String()
}

// NewMessageID generates a unique chat message id.
func NewMessageID() string {
	return uuid.New().String()
}

// DisambiguateName appends a short random tag to a display name that
// collides with an existing participant's name.
func DisambiguateName(name string) string {
	return fmt.Sprintf("%s#%s", name, randomFrom(roomCodeAlphabet, nameSuffixLength))
}

func randomFrom(alphabet string, length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; fall back to
		// uuid-derived bytes rather than returning a constant code.
		copy(buf, uuid.New().String())
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}
