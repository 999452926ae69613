package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/go-demo/watchparty/internal/dto/request"
	"github.com/go-demo/watchparty/internal/dto/response"
	"github.com/go-demo/watchparty/internal/middleware"
	"github.com/go-demo/watchparty/internal/model"
	apperrors "github.com/go-demo/watchparty/internal/pkg/errors"
	"github.com/go-demo/watchparty/internal/repository"
	"github.com/go-demo/watchparty/internal/session"
)

// RoomHandler serves the room lifecycle and in-room operations. Create and
// Join hand out the user id that identifies the caller's session on every
// later request.
type RoomHandler struct {
	manager *session.Manager
	repo    repository.RoomRepository
}

func NewRoomHandler(manager *session.Manager, repo repository.RoomRepository) *RoomHandler {
	return &RoomHandler{
		manager: manager,
		repo:    repo,
	}
}

// Create creates a room with the caller as host.
// POST /api/v1/rooms
func (h *RoomHandler) Create(c *gin.Context) {
	var req request.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request format")
		return
	}

	sess, room, user, err := h.manager.CreateRoom(c.Request.Context(), req.RoomName, req.UserName)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, response.NewSessionResponse(room, user, sess.PlayerState()))
}

// Join joins an existing room by its share code.
// POST /api/v1/rooms/:id/join
func (h *RoomHandler) Join(c *gin.Context) {
	roomID := c.Param("id")

	var req request.JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request format")
		return
	}

	sess, room, user, err := h.manager.JoinRoom(c.Request.Context(), roomID, req.UserName)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewSessionResponse(room, user, sess.PlayerState()))
}

// Preview returns the stored snapshot of a room without joining it, so a
// client can show the room before asking for a name.
// GET /api/v1/rooms/:id
func (h *RoomHandler) Preview(c *gin.Context) {
	room, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == repository.ErrRoomNotFound {
			response.ErrorWithStatus(c, 404, "room not found")
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewRoomResponse(room))
}

// GetState returns the caller's current view of the room and player.
// GET /api/v1/session
func (h *RoomHandler) GetState(c *gin.Context) {
	sess, err := h.manager.Get(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewSessionResponse(sess.Room(), sess.User(), sess.PlayerState()))
}

// SendMessage appends a chat message to the caller's room.
// POST /api/v1/session/messages
func (h *RoomHandler) SendMessage(c *gin.Context) {
	sess, err := h.manager.Get(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request format")
		return
	}

	if err := sess.SendMessage(c.Request.Context(), req.Message); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewRoomResponse(sess.Room()))
}

// ListMessages returns the room's chat log.
// GET /api/v1/session/messages
func (h *RoomHandler) ListMessages(c *gin.Context) {
	sess, err := h.manager.Get(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	room := sess.Room()
	if room == nil {
		response.Error(c, apperrors.ErrSessionNotFound)
		return
	}

	response.Success(c, response.NewMessageListResponse(room.Messages))
}

// ChangeVideo switches the room's video. Host only.
// PUT /api/v1/session/video
func (h *RoomHandler) ChangeVideo(c *gin.Context) {
	sess, err := h.manager.Get(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.ChangeVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request format")
		return
	}

	if err := sess.ChangeVideo(c.Request.Context(), req.VideoID, req.Title); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewRoomResponse(sess.Room()))
}

// SyncPlayer feeds a player state update into the caller's session.
// PUT /api/v1/session/player
func (h *RoomHandler) SyncPlayer(c *gin.Context) {
	sess, err := h.manager.Get(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.PlayerSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request format")
		return
	}

	patch := model.PlayerPatch{
		IsPlaying:   req.IsPlaying,
		CurrentTime: req.CurrentTime,
		Duration:    req.Duration,
	}
	if err := sess.SyncPlayerState(c.Request.Context(), patch, req.Force); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewPlayerStateResponse(sess.PlayerState()))
}

// Teardown releases the caller's session. The room and its participant
// list stay as they are.
// DELETE /api/v1/session
func (h *RoomHandler) Teardown(c *gin.Context) {
	if err := h.manager.Teardown(middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
