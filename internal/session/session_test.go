package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-demo/watchparty/internal/model"
	apperrors "github.com/go-demo/watchparty/internal/pkg/errors"
	"github.com/go-demo/watchparty/internal/player"
	"github.com/go-demo/watchparty/internal/repository"
	"go.uber.org/zap"
)

func newTestSession(t *testing.T, repo repository.RoomRepository) (*Session, *player.FakeAdapter) {
	t.Helper()

	adapter := player.NewFakeAdapter()
	sess := New(repo, adapter, zap.NewNop(), DefaultConfig())
	return sess, adapter
}

func countSystemMessages(room *model.Room) int {
	n := 0
	for i := range room.Messages {
		if room.Messages[i].IsSystem() {
			n++
		}
	}
	return n
}

func TestSessionCreateRoom(t *testing.T) {
	repo := repository.NewMemoryRepository()
	sess, _ := newTestSession(t, repo)
	ctx := context.Background()

	room, user, err := sess.CreateRoom(ctx, "Movie Night", "Alice")
	if err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}

	if len(room.ID) < 6 {
		t.Errorf("Expected room id of length >= 6, got %q", room.ID)
	}
	if len(room.Participants) != 1 {
		t.Fatalf("Expected one participant, got %d", len(room.Participants))
	}
	if !room.Participants[0].IsHost {
		t.Error("Expected creator to be host")
	}
	if user.ID != room.Participants[0].ID {
		t.Error("Expected returned user to be the sole participant")
	}
	if len(room.Messages) != 1 || !room.Messages[0].IsSystem() {
		t.Errorf("Expected exactly one system message, got %d", len(room.Messages))
	}
	if room.IsPlaying || room.CurrentTime != 0 {
		t.Error("Expected new room to be paused at zero")
	}

	// The snapshot must be persisted and addressable by the share code.
	stored, err := repo.Get(ctx, strings.ToLower(room.ID))
	if err != nil {
		t.Fatalf("Expected room to be persisted: %v", err)
	}
	if !stored.Equal(room) {
		t.Error("Expected persisted snapshot to match the returned room")
	}
}

func TestSessionCreateRoom_Validation(t *testing.T) {
	repo := repository.NewMemoryRepository()
	sess, _ := newTestSession(t, repo)
	ctx := context.Background()

	if _, _, err := sess.CreateRoom(ctx, "  ", "Alice"); err == nil {
		t.Error("Expected error for blank room name")
	}
	if _, _, err := sess.CreateRoom(ctx, "Movie Night", "\t "); err == nil {
		t.Error("Expected error for blank user name")
	}
}

func TestSessionJoinRoom(t *testing.T) {
	repo := repository.NewMemoryRepository()
	host, _ := newTestSession(t, repo)
	ctx := context.Background()

	created, _, err := host.CreateRoom(ctx, "Movie Night", "Alice")
	if err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}

	guest, _ := newTestSession(t, repo)
	room, user, err := guest.JoinRoom(ctx, strings.ToLower(created.ID), "Bob")
	if err != nil {
		t.Fatalf("Failed to join room: %v", err)
	}

	if len(room.Participants) != 2 {
		t.Fatalf("Expected two participants, got %d", len(room.Participants))
	}
	if user.IsHost {
		t.Error("Expected joiner to be non-host")
	}
	if room.Host() == nil || room.Host().Name != "Alice" {
		t.Error("Expected Alice to remain host")
	}
	if len(room.Messages) != 2 {
		t.Errorf("Expected creation + join messages, got %d", len(room.Messages))
	}
	if countSystemMessages(room) != 2 {
		t.Errorf("Expected both messages to be system messages")
	}
}

func TestSessionJoinRoom_NotFound(t *testing.T) {
	repo := repository.NewMemoryRepository()
	sess, _ := newTestSession(t, repo)

	_, _, err := sess.JoinRoom(context.Background(), "ZZZZZZ", "Bob")
	if !apperrors.Is(err, apperrors.ErrRoomNotFound) {
		t.Fatalf("Expected ErrRoomNotFound, got %v", err)
	}
	if _, repoErr := repo.Get(context.Background(), "ZZZZZZ"); repoErr != repository.ErrRoomNotFound {
		t.Error("Expected no room to be fabricated for an unknown id")
	}
}

func TestSessionJoinRoom_NameCollision(t *testing.T) {
	repo := repository.NewMemoryRepository()
	host, _ := newTestSession(t, repo)
	ctx := context.Background()

	created, _, _ := host.CreateRoom(ctx, "Movie Night", "Alice")

	guest, _ := newTestSession(t, repo)
	room, user, err := guest.JoinRoom(ctx, created.ID, "Alice")
	if err != nil {
		t.Fatalf("Expected collision to be resolved, not rejected: %v", err)
	}

	if user.Name == "Alice" {
		t.Error("Expected the joiner's display name to be disambiguated")
	}
	if !strings.HasPrefix(user.Name, "Alice#") {
		t.Errorf("Expected suffixed name, got %q", user.Name)
	}
	if room.Participant(user.ID) == nil {
		t.Error("Expected joiner to be a participant under the new name")
	}
}

func TestSessionJoinRoom_SeedsPlayerState(t *testing.T) {
	repo := repository.NewMemoryRepository()
	host, _ := newTestSession(t, repo)
	ctx := context.Background()

	created, _, _ := host.CreateRoom(ctx, "Movie Night", "Alice")
	if err := host.ChangeVideo(ctx, "abc123XYZ", "Test"); err != nil {
		t.Fatalf("Failed to change video: %v", err)
	}
	if err := host.SyncPlayerState(ctx, model.PlayerPatch{
		IsPlaying:   model.Bool(true),
		CurrentTime: model.Float(42),
	}, true); err != nil {
		t.Fatalf("Failed to sync player state: %v", err)
	}

	guest, adapter := newTestSession(t, repo)
	if _, _, err := guest.JoinRoom(ctx, created.ID, "Bob"); err != nil {
		t.Fatalf("Failed to join room: %v", err)
	}

	state := guest.PlayerState()
	if !state.IsPlaying || state.CurrentTime != 42 || state.VideoID != "abc123XYZ" {
		t.Errorf("Expected player state seeded from the room, got %+v", state)
	}
	if state.Duration != 0 {
		t.Error("Expected duration to stay unknown until the adapter reports it")
	}
	if adapter.Loads != 1 {
		t.Errorf("Expected the adapter to load the current video once, got %d", adapter.Loads)
	}
}

func TestSessionSendMessage(t *testing.T) {
	repo := repository.NewMemoryRepository()
	sess, _ := newTestSession(t, repo)
	ctx := context.Background()

	room, user, _ := sess.CreateRoom(ctx, "Movie Night", "Alice")
	before := len(room.Messages)

	if err := sess.SendMessage(ctx, "  hello there  "); err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}

	got := sess.Room()
	if len(got.Messages) != before+1 {
		t.Fatalf("Expected exactly one appended message, got %d", len(got.Messages)-before)
	}
	last := got.Messages[len(got.Messages)-1]
	if last.Message != "hello there" {
		t.Errorf("Expected trimmed content, got %q", last.Message)
	}
	if last.UserID != user.ID || last.UserName != user.Name {
		t.Error("Expected message attributed to the sender")
	}

	stored, _ := repo.Get(ctx, room.ID)
	if len(stored.Messages) != before+1 {
		t.Error("Expected message to be persisted")
	}
}

func TestSessionSendMessage_Rejections(t *testing.T) {
	repo := repository.NewMemoryRepository()
	sess, _ := newTestSession(t, repo)
	ctx := context.Background()

	room, _, _ := sess.CreateRoom(ctx, "Movie Night", "Alice")
	before := len(sess.Room().Messages)

	if err := sess.SendMessage(ctx, "   "); err != apperrors.ErrEmptyMessage {
		t.Errorf("Expected ErrEmptyMessage, got %v", err)
	}
	if err := sess.SendMessage(ctx, strings.Repeat("x", model.MaxMessageLength+1)); err != apperrors.ErrMessageTooLong {
		t.Errorf("Expected ErrMessageTooLong, got %v", err)
	}

	if len(sess.Room().Messages) != before {
		t.Error("Expected rejected messages to leave the log untouched")
	}
	stored, _ := repo.Get(ctx, room.ID)
	if len(stored.Messages) != before {
		t.Error("Expected rejected messages not to be persisted")
	}
}

func TestSessionSendMessage_NoActiveRoom(t *testing.T) {
	sess, _ := newTestSession(t, repository.NewMemoryRepository())

	if err := sess.SendMessage(context.Background(), "hi"); err != apperrors.ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionChangeVideo_Host(t *testing.T) {
	repo := repository.NewMemoryRepository()
	sess, adapter := newTestSession(t, repo)
	ctx := context.Background()

	room, _, _ := sess.CreateRoom(ctx, "Movie Night", "Alice")

	// Simulate mid-playback before the switch.
	_ = sess.ChangeVideo(ctx, "dQw4w9WgXcQ", "First")
	_ = sess.SyncPlayerState(ctx, model.PlayerPatch{
		IsPlaying:   model.Bool(true),
		CurrentTime: model.Float(120),
	}, true)

	if err := sess.ChangeVideo(ctx, "abc123XYZ", "Second"); err != nil {
		t.Fatalf("Failed to change video: %v", err)
	}

	got := sess.Room()
	if got.CurrentVideo == nil || got.CurrentVideo.ID != "abc123XYZ" {
		t.Fatalf("Expected current video abc123XYZ, got %+v", got.CurrentVideo)
	}
	if got.CurrentVideo.Thumbnail != model.ThumbnailURL("abc123XYZ") {
		t.Error("Expected thumbnail derived from the video id")
	}
	if got.IsPlaying || got.CurrentTime != 0 {
		t.Error("Expected a new video to start paused at zero")
	}

	state := sess.PlayerState()
	if state.IsPlaying || state.CurrentTime != 0 || state.VideoID != "abc123XYZ" {
		t.Errorf("Expected player state reset for the new video, got %+v", state)
	}
	if adapter.Loads != 2 {
		t.Errorf("Expected adapter reloaded per video, got %d loads", adapter.Loads)
	}

	stored, _ := repo.Get(ctx, room.ID)
	if stored.CurrentVideo == nil || stored.CurrentVideo.ID != "abc123XYZ" {
		t.Error("Expected video change to be persisted")
	}
}

func TestSessionChangeVideo_NonHostRejected(t *testing.T) {
	repo := repository.NewMemoryRepository()
	host, _ := newTestSession(t, repo)
	ctx := context.Background()

	created, _, _ := host.CreateRoom(ctx, "Movie Night", "Alice")
	_ = host.ChangeVideo(ctx, "dQw4w9WgXcQ", "First")

	guest, _ := newTestSession(t, repo)
	_, _, _ = guest.JoinRoom(ctx, created.ID, "Bob")

	storedBefore, _ := repo.Get(ctx, created.ID)

	if err := guest.ChangeVideo(ctx, "abc123XYZ", "Hijack"); err != apperrors.ErrNotHost {
		t.Fatalf("Expected ErrNotHost, got %v", err)
	}

	got := guest.Room()
	if got.CurrentVideo.ID != "dQw4w9WgXcQ" {
		t.Error("Expected non-host attempt to leave current video unchanged")
	}

	storedAfter, _ := repo.Get(ctx, created.ID)
	if !storedAfter.Equal(storedBefore) {
		t.Error("Expected non-host attempt to persist nothing")
	}
}

func TestSessionChangeVideo_InvalidID(t *testing.T) {
	repo := repository.NewMemoryRepository()
	sess, _ := newTestSession(t, repo)
	ctx := context.Background()

	_, _, _ = sess.CreateRoom(ctx, "Movie Night", "Alice")

	if err := sess.ChangeVideo(ctx, "not a video id", "Bad"); err != apperrors.ErrInvalidVideoID {
		t.Errorf("Expected ErrInvalidVideoID, got %v", err)
	}
}

func TestSessionSyncPlayerState_ToggleEmitsMessage(t *testing.T) {
	repo := repository.NewMemoryRepository()
	sess, _ := newTestSession(t, repo)
	ctx := context.Background()

	_, _, _ = sess.CreateRoom(ctx, "Movie Night", "Alice")
	_ = sess.ChangeVideo(ctx, "abc123XYZ", "Test")
	before := len(sess.Room().Messages)

	if err := sess.SyncPlayerState(ctx, model.PlayerPatch{IsPlaying: model.Bool(true)}, true); err != nil {
		t.Fatalf("Failed to sync: %v", err)
	}

	got := sess.Room()
	if !got.IsPlaying {
		t.Error("Expected room to be playing")
	}
	if len(got.Messages) != before+1 {
		t.Fatalf("Expected exactly one transition message, got %d new", len(got.Messages)-before)
	}
	last := got.Messages[len(got.Messages)-1]
	if !strings.Contains(last.Message, "started playback") {
		t.Errorf("Expected a started-playback announcement, got %q", last.Message)
	}

	// Pausing announces too.
	_ = sess.SyncPlayerState(ctx, model.PlayerPatch{IsPlaying: model.Bool(false)}, true)
	got = sess.Room()
	if !strings.Contains(got.Messages[len(got.Messages)-1].Message, "paused") {
		t.Error("Expected a paused announcement")
	}
}

func TestSessionSyncPlayerState_SeekMateriality(t *testing.T) {
	repo := repository.NewMemoryRepository()
	sess, _ := newTestSession(t, repo)
	ctx := context.Background()

	_, _, _ = sess.CreateRoom(ctx, "Movie Night", "Alice")
	_ = sess.ChangeVideo(ctx, "abc123XYZ", "Test")
	_ = sess.SyncPlayerState(ctx, model.PlayerPatch{CurrentTime: model.Float(100)}, true)
	before := len(sess.Room().Messages)

	// A small tick must stay silent.
	if err := sess.SyncPlayerState(ctx, model.PlayerPatch{CurrentTime: model.Float(103)}, true); err != nil {
		t.Fatalf("Failed to sync: %v", err)
	}
	if got := len(sess.Room().Messages); got != before {
		t.Errorf("Expected no message for a %ds tick, got %d new", 3, got-before)
	}

	// A material jump announces exactly once.
	if err := sess.SyncPlayerState(ctx, model.PlayerPatch{CurrentTime: model.Float(150)}, true); err != nil {
		t.Fatalf("Failed to sync: %v", err)
	}
	got := sess.Room()
	if len(got.Messages) != before+1 {
		t.Fatalf("Expected exactly one seek message, got %d new", len(got.Messages)-before)
	}
	if !strings.Contains(got.Messages[len(got.Messages)-1].Message, "jumped to 150s") {
		t.Errorf("Expected seek announcement, got %q", got.Messages[len(got.Messages)-1].Message)
	}
}

func TestSessionSyncPlayerState_NonHostStaysLocal(t *testing.T) {
	repo := repository.NewMemoryRepository()
	host, _ := newTestSession(t, repo)
	ctx := context.Background()

	created, _, _ := host.CreateRoom(ctx, "Movie Night", "Alice")
	_ = host.ChangeVideo(ctx, "abc123XYZ", "Test")

	guest, _ := newTestSession(t, repo)
	_, _, _ = guest.JoinRoom(ctx, created.ID, "Bob")
	storedBefore, _ := repo.Get(ctx, created.ID)

	if err := guest.SyncPlayerState(ctx, model.PlayerPatch{
		IsPlaying:   model.Bool(true),
		CurrentTime: model.Float(200),
	}, true); err != nil {
		t.Fatalf("Expected non-host sync to succeed locally: %v", err)
	}

	state := guest.PlayerState()
	if !state.IsPlaying || state.CurrentTime != 200 {
		t.Errorf("Expected local player view updated, got %+v", state)
	}

	storedAfter, _ := repo.Get(ctx, created.ID)
	if !storedAfter.Equal(storedBefore) {
		t.Error("Expected non-host sync to write nothing to the repository")
	}
}

func TestSessionSyncPlayerState_Debounce(t *testing.T) {
	repo := repository.NewMemoryRepository()
	sess, _ := newTestSession(t, repo)
	ctx := context.Background()

	room, _, _ := sess.CreateRoom(ctx, "Movie Night", "Alice")
	_ = sess.ChangeVideo(ctx, "abc123XYZ", "Test")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	sess.now = func() time.Time { return current }

	// First non-forced write is accepted.
	_ = sess.SyncPlayerState(ctx, model.PlayerPatch{CurrentTime: model.Float(10)}, false)
	stored, _ := repo.Get(ctx, room.ID)
	if stored.CurrentTime != 10 {
		t.Fatalf("Expected first tick persisted, got %v", stored.CurrentTime)
	}

	// A second one inside the window is dropped whole: neither persisted
	// nor merged into the local player view.
	current = base.Add(50 * time.Millisecond)
	_ = sess.SyncPlayerState(ctx, model.PlayerPatch{CurrentTime: model.Float(11)}, false)
	stored, _ = repo.Get(ctx, room.ID)
	if stored.CurrentTime != 10 {
		t.Errorf("Expected debounced tick to be dropped, got %v", stored.CurrentTime)
	}
	if got := sess.PlayerState().CurrentTime; got != 10 {
		t.Errorf("Expected debounced tick to leave local state untouched, got %v", got)
	}

	// A forced action inside the window is never dropped.
	_ = sess.SyncPlayerState(ctx, model.PlayerPatch{IsPlaying: model.Bool(true)}, true)
	stored, _ = repo.Get(ctx, room.ID)
	if !stored.IsPlaying {
		t.Error("Expected forced sync to bypass the debounce window")
	}

	// Once the window has passed, non-forced writes flow again.
	current = current.Add(DefaultConfig().DebounceWindow + time.Millisecond)
	_ = sess.SyncPlayerState(ctx, model.PlayerPatch{CurrentTime: model.Float(12)}, false)
	stored, _ = repo.Get(ctx, room.ID)
	if stored.CurrentTime != 12 {
		t.Errorf("Expected tick after the window to persist, got %v", stored.CurrentTime)
	}
}

// TestSessionScenario walks the end-to-end host/guest flow: create, join,
// change video, start playback, and a rejected non-host takeover.
func TestSessionScenario(t *testing.T) {
	repo := repository.NewMemoryRepository()
	ctx := context.Background()

	alice, _ := newTestSession(t, repo)
	room, aliceUser, err := alice.CreateRoom(ctx, "Movie Night", "Alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(room.ID) < 6 {
		t.Errorf("Expected share code of length >= 6, got %q", room.ID)
	}
	if !aliceUser.IsHost || len(room.Participants) != 1 || len(room.Messages) != 1 {
		t.Fatalf("Unexpected initial room: %+v", room)
	}

	bob, _ := newTestSession(t, repo)
	joined, bobUser, err := bob.JoinRoom(ctx, room.ID, "Bob")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if bobUser.IsHost {
		t.Error("Expected Bob to be non-host")
	}
	if len(joined.Participants) != 2 || len(joined.Messages) != 2 {
		t.Fatalf("Unexpected room after join: %d participants, %d messages",
			len(joined.Participants), len(joined.Messages))
	}

	// Alice catches up on Bob's join before acting.
	alice.reconcile(ctx, room.ID)

	if err := alice.ChangeVideo(ctx, "abc123XYZ", "Test"); err != nil {
		t.Fatalf("change video: %v", err)
	}
	got := alice.Room()
	if got.CurrentVideo.ID != "abc123XYZ" || got.IsPlaying || got.CurrentTime != 0 {
		t.Errorf("Unexpected room after video change: %+v", got)
	}
	if len(got.Messages) != 3 {
		t.Errorf("Expected 3 messages after video change, got %d", len(got.Messages))
	}

	if err := alice.SyncPlayerState(ctx, model.PlayerPatch{IsPlaying: model.Bool(true)}, true); err != nil {
		t.Fatalf("sync: %v", err)
	}
	got = alice.Room()
	if !got.IsPlaying {
		t.Error("Expected room to be playing")
	}
	if len(got.Messages) != 4 {
		t.Errorf("Expected 4 messages after playback start, got %d", len(got.Messages))
	}

	// Bob observes everything through reconciliation, then tries to take over.
	bob.reconcile(ctx, room.ID)
	if err := bob.ChangeVideo(ctx, "dQw4w9WgXcQ", "Hijack"); err != apperrors.ErrNotHost {
		t.Fatalf("Expected ErrNotHost, got %v", err)
	}

	stored, _ := repo.Get(ctx, room.ID)
	if stored.CurrentVideo.ID != "abc123XYZ" || len(stored.Messages) != 4 {
		t.Error("Expected rejected takeover to leave the room unchanged")
	}
}
