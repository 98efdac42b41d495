package matchmaker

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// POST /match/join  body: {playerId, gameMode, sessionType}
func (h *Handler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.svc.RequestMatch(c.Request.Context(), req.PlayerID, req.GameMode, req.SessionType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	resp := JoinResponse{
		Queued:      res.Queued,
		SessionID:   res.SessionID,
		Players:     res.Players,
		GameMode:    req.GameMode,
		SessionType: req.SessionType,
	}
	if res.RetryAfter > 0 {
		resp.RetryAfterMs = res.RetryAfter.Milliseconds()
	}
	c.JSON(http.StatusOK, resp)
}

// POST /match/cancel  body: {playerId, gameMode, sessionType}
func (h *Handler) Cancel(c *gin.Context) {
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.CancelSearch(c.Request.Context(), req.PlayerID, req.GameMode, req.SessionType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// POST /session/heartbeat  body: {sessionId, playerId}
func (h *Handler) Heartbeat(c *gin.Context) {
	var req HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ok, err := h.svc.SendHeartbeat(c.Request.Context(), req.SessionID, req.PlayerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

// POST /session/leave  body: {sessionId, playerId, reason}
func (h *Handler) Leave(c *gin.Context) {
	var req LeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.LeaveSession(c.Request.Context(), req.SessionID, req.PlayerID, req.Reason); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /match/stats
func (h *Handler) Stats(c *gin.Context) {
	st, err := h.svc.QueueStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}
