package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/ipcsim/internal/domain/sim"
)

// CreateProcess handles POST /api/process. A missing name becomes
// "proc-<unix ms>" and a missing or zero priority becomes 1.
func (h *Handlers) CreateProcess(c *gin.Context) {
	var req createProcessRequest
	if err := bindOptional(c, &req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		req.Name = fmt.Sprintf("proc-%d", h.now().UnixMilli())
	}
	if req.Priority == 0 {
		req.Priority = 1
	}

	p := h.sim.CreateProcess(req.Name, req.Priority)
	c.JSON(http.StatusOK, gin.H{"ok": true, "process": p})
}

// CreateChannel handles POST /api/channel.
func (h *Handlers) CreateChannel(c *gin.Context) {
	var req createChannelRequest
	if err := bindOptional(c, &req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	size := h.defaultBufferSize
	if req.BufferSize != nil {
		size = *req.BufferSize
	}

	ch, err := h.sim.CreateChannel(sim.ChannelType(req.Type), size, req.Name)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "channel": ch})
}

// Send handles POST /api/send. A full buffer is not an error: the sender
// is blocked and the call still succeeds.
func (h *Handlers) Send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	err := h.sim.SendMessage(sim.PID(req.From), sim.PID(req.To), sim.CID(req.ChannelID), req.Payload)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, sim.ErrChannelNotFound), errors.Is(err, sim.ErrInvalidPayload):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, err.Error())
	}
}

// Step handles POST /api/step and reports the deadlocks the tick found.
func (h *Handlers) Step(c *gin.Context) {
	cycles := h.sim.Step()
	if h.metrics != nil {
		h.metrics.RecordStep()
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deadlocks": nonNil(cycles)})
}

// Kill handles POST /api/kill.
func (h *Handlers) Kill(c *gin.Context) {
	var req killRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if !h.sim.KillProcess(sim.PID(req.PID)) {
		fail(c, http.StatusNotFound, "process not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AcquireLock handles POST /api/acquireLock. Having to wait is a normal
// outcome reported as acquired=false; unknown ids are a 404.
func (h *Handlers) AcquireLock(c *gin.Context) {
	var req acquireLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	pid, cid := sim.PID(req.PID), sim.CID(req.ChannelID)
	acquired, err := h.sim.TryAcquireLock(pid, cid, req.LockName)
	switch {
	case errors.Is(err, sim.ErrProcessNotFound):
		fail(c, http.StatusNotFound, "process not found")
		return
	case errors.Is(err, sim.ErrChannelNotFound):
		fail(c, http.StatusNotFound, "channel not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"acquired": acquired,
		"lock":     sim.LockID{Channel: cid, Name: req.LockName}.String(),
	})
}

// ReleaseLock handles POST /api/releaseLock.
func (h *Handlers) ReleaseLock(c *gin.Context) {
	var req releaseLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if !h.sim.ForceReleaseLock(sim.PID(req.OwnerPID), req.LockFullName) {
		fail(c, http.StatusBadRequest, "could not release lock")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) Reset(c *gin.Context) {
	h.sim.Reset()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) Pause(c *gin.Context) {
	h.sim.Pause()
	c.JSON(http.StatusOK, gin.H{"ok": true, "paused": true})
}

func (h *Handlers) Resume(c *gin.Context) {
	h.sim.Resume()
	c.JSON(http.StatusOK, gin.H{"ok": true, "paused": false})
}

// Detect handles POST /api/detect: deadlock detection without a tick.
func (h *Handlers) Detect(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "cycles": nonNil(h.sim.DetectDeadlocks())})
}

// WaitFor handles GET /api/waitfor. With ?cycles=true the response also
// lists every elementary cycle of the graph.
func (h *Handlers) WaitFor(c *gin.Context) {
	g := h.sim.BuildWaitForGraph()
	resp := gin.H{"ok": true, "graph": g}
	if c.Query("cycles") == "true" {
		resp["cycles"] = nonNil(g.ElementaryCycles())
	}
	c.JSON(http.StatusOK, resp)
}

func nonNil(cycles [][]sim.PID) [][]sim.PID {
	if cycles == nil {
		return [][]sim.PID{}
	}
	return cycles
}
