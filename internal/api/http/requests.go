package http

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
)

type createProcessRequest struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}

type createChannelRequest struct {
	Type       string `json:"type"`
	BufferSize *int   `json:"bufferSize"`
	Name       string `json:"name"`
}

type sendRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	ChannelID string `json:"channelId" binding:"required"`
	Payload   any    `json:"payload"`
}

type killRequest struct {
	PID string `json:"pid" binding:"required"`
}

type acquireLockRequest struct {
	PID       string `json:"pid" binding:"required"`
	ChannelID string `json:"channelId" binding:"required"`
	LockName  string `json:"lockName" binding:"required"`
}

type releaseLockRequest struct {
	OwnerPID     string `json:"ownerPid" binding:"required"`
	LockFullName string `json:"lockFullName" binding:"required"`
}

// bindOptional decodes a JSON body that may be absent.
func bindOptional(c *gin.Context, v any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
