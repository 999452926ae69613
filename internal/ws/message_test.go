package ws

import (
	"encoding/json"
	"testing"
)

func TestNewMessage(t *testing.T) {
	payload := &SendMessagePayload{Message: "hello"}

	msg, err := NewMessage(MessageTypeSendMessage, payload)
	if err != nil {
		t.Fatalf("Failed to create message: %v", err)
	}

	if msg.Type != MessageTypeSendMessage {
		t.Errorf("Expected type %s, got %s", MessageTypeSendMessage, msg.Type)
	}

	if msg.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}

	if len(msg.Payload) == 0 {
		t.Error("Expected payload to be set")
	}
}

func TestNewErrorMessage(t *testing.T) {
	msg, err := NewErrorMessage(403, "only the host can do that")
	if err != nil {
		t.Fatalf("Failed to create error message: %v", err)
	}

	if msg.Type != MessageTypeError {
		t.Errorf("Expected type %s, got %s", MessageTypeError, msg.Type)
	}

	var payload ErrorPayload
	if err := msg.ParsePayload(&payload); err != nil {
		t.Fatalf("Failed to parse payload: %v", err)
	}

	if payload.Code != 403 {
		t.Errorf("Expected code 403, got %d", payload.Code)
	}

	if payload.Message != "only the host can do that" {
		t.Errorf("Unexpected message '%s'", payload.Message)
	}
}

func TestMessage_ParsePayload(t *testing.T) {
	original := &ChangeVideoPayload{
		VideoID: "abc123XYZ",
		Title:   "Test Video",
	}

	msg, _ := NewMessage(MessageTypeChangeVideo, original)

	var parsed ChangeVideoPayload
	if err := msg.ParsePayload(&parsed); err != nil {
		t.Fatalf("Failed to parse payload: %v", err)
	}

	if parsed.VideoID != original.VideoID {
		t.Errorf("Expected VideoID %s, got %s", original.VideoID, parsed.VideoID)
	}

	if parsed.Title != original.Title {
		t.Errorf("Expected Title %s, got %s", original.Title, parsed.Title)
	}
}

func TestPlayerSyncPayload_PartialFields(t *testing.T) {
	data := []byte(`{"current_time": 42.5, "force": true}`)

	var payload PlayerSyncPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if payload.IsPlaying != nil {
		t.Error("Expected omitted is_playing to stay nil")
	}
	if payload.CurrentTime == nil || *payload.CurrentTime != 42.5 {
		t.Errorf("Expected current_time 42.5, got %v", payload.CurrentTime)
	}
	if !payload.Force {
		t.Error("Expected force to be set")
	}
}

func TestMessage_JSONSerialization(t *testing.T) {
	msg, _ := NewMessage(MessageTypeRoomState, map[string]interface{}{
		"id":   "ROOM01",
		"name": "Movie Night",
	})

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Failed to marshal message: %v", err)
	}

	var parsed Message
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}

	if parsed.Type != msg.Type {
		t.Errorf("Expected type %s, got %s", msg.Type, parsed.Type)
	}
}
