package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/metheus/shell/internal/agent"
	"github.com/metheus/shell/internal/miniapp"
	"github.com/metheus/shell/internal/shared/types"
	"github.com/metheus/shell/internal/surface"
)

// The outward contract is a success value or a string error message;
// status codes are advisory for HTTP clients.
func errStatus(err error) int {
	switch {
	case errors.Is(err, surface.ErrNotFound),
		errors.Is(err, miniapp.ErrNotRegistered),
		errors.Is(err, agent.ErrNoAgent):
		return http.StatusNotFound
	case errors.Is(err, surface.ErrAlreadyExists),
		errors.Is(err, miniapp.ErrAlreadyLoaded),
		errors.Is(err, miniapp.ErrNotReady),
		errors.Is(err, miniapp.ErrNotVisible),
		errors.Is(err, miniapp.ErrNotLoaded),
		errors.Is(err, miniapp.ErrFaulted),
		errors.Is(err, surface.ErrNotVisible):
		return http.StatusConflict
	case errors.Is(err, surface.ErrHostUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	c.JSON(errStatus(err), gin.H{"error": err.Error()})
}

func (s *Server) record(component, operation string, err error, start time.Time) {
	s.metrics.RecordCommand(component, operation, err, time.Since(start))
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"surfaces":      len(s.surfaces.IDs()),
		"miniapps":      len(s.miniapps.AllConfigs()),
		"cached_agents": len(s.agents.CachedAgents()),
	})
}

// Surface handlers

type createSurfaceRequest struct {
	ID      string `json:"id" binding:"required"`
	Locator string `json:"locator" binding:"required"`
}

func (s *Server) createSurface(c *gin.Context) {
	start := time.Now()
	var req createSurfaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := s.surfaces.Create(req.ID, req.Locator)
	s.record("surface", "create", err, start)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": req.ID})
}

func (s *Server) showSurface(c *gin.Context) {
	start := time.Now()
	var bounds types.Rect
	if err := c.ShouldBindJSON(&bounds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := s.surfaces.Show(c.Param("id"), bounds)
	s.record("surface", "show", err, start)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "visible": true})
}

func (s *Server) hideSurface(c *gin.Context) {
	start := time.Now()
	err := s.surfaces.Hide(c.Param("id"))
	s.record("surface", "hide", err, start)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "visible": false})
}

func (s *Server) destroySurface(c *gin.Context) {
	start := time.Now()
	err := s.surfaces.Destroy(c.Param("id"))
	s.record("surface", "destroy", err, start)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "destroyed": true})
}

func (s *Server) activateSurface(c *gin.Context) {
	start := time.Now()
	err := s.surfaces.SetActive(c.Param("id"))
	s.record("surface", "set_active", err, start)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": c.Param("id")})
}

func (s *Server) resizeAllSurfaces(c *gin.Context) {
	start := time.Now()
	failures := s.surfaces.ResizeAll()
	s.record("surface", "resize_all", nil, start)
	c.JSON(http.StatusOK, gin.H{"failures": failures})
}

func (s *Server) activeSurface(c *gin.Context) {
	id, ok := s.surfaces.ActiveID()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"active": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": id})
}

func (s *Server) getSurface(c *gin.Context) {
	id := c.Param("id")
	c.JSON(http.StatusOK, gin.H{
		"id":      id,
		"exists":  s.surfaces.Exists(id),
		"visible": s.surfaces.IsVisible(id),
	})
}

// Mini-app handlers

func (s *Server) registerMiniApp(c *gin.Context) {
	start := time.Now()
	var cfg types.MiniAppConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := s.miniapps.Register(cfg)
	s.record("miniapp", "register", err, start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": cfg.ID})
}

func (s *Server) listMiniApps(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"miniapps": s.miniapps.AllConfigs()})
}

func (s *Server) miniAppStates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"states": s.miniapps.AllStates()})
}

func (s *Server) getMiniApp(c *gin.Context) {
	id := c.Param("id")
	cfg, ok := s.miniapps.Config(id)
	if !ok {
		s.fail(c, miniapp.ErrNotRegistered)
		return
	}
	st, _ := s.miniapps.State(id)
	c.JSON(http.StatusOK, gin.H{"config": cfg, "state": st})
}

func (s *Server) loadMiniApp(c *gin.Context) {
	start := time.Now()
	err := s.miniapps.Load(c.Request.Context(), c.Param("id"))
	s.record("miniapp", "load", err, start)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "state": types.StateLoaded})
}

func (s *Server) showMiniApp(c *gin.Context) {
	start := time.Now()
	var bounds types.Rect
	if err := c.ShouldBindJSON(&bounds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := s.miniapps.Show(c.Param("id"), bounds)
	s.record("miniapp", "show", err, start)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "state": types.StateVisible})
}

func (s *Server) hideMiniApp(c *gin.Context) {
	start := time.Now()
	err := s.miniapps.Hide(c.Param("id"))
	s.record("miniapp", "hide", err, start)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "state": types.StateLoaded})
}

func (s *Server) unloadMiniApp(c *gin.Context) {
	start := time.Now()
	err := s.miniapps.Unload(c.Param("id"))
	s.record("miniapp", "unload", err, start)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "state": types.StateNotLoaded})
}

func (s *Server) activateMiniApp(c *gin.Context) {
	start := time.Now()
	err := s.miniapps.SetActive(c.Param("id"))
	s.record("miniapp", "set_active", err, start)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": c.Param("id")})
}

func (s *Server) resizeAllMiniApps(c *gin.Context) {
	start := time.Now()
	failures := s.miniapps.ResizeAll()
	s.record("miniapp", "resize_all", nil, start)
	c.JSON(http.StatusOK, gin.H{"failures": failures})
}

func (s *Server) activeMiniApp(c *gin.Context) {
	id, ok := s.miniapps.ActiveID()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"active": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": id})
}

// Agent handlers

type loadAgentRequest struct {
	Code string `json:"code" binding:"required"`
}

func (s *Server) loadAgent(c *gin.Context) {
	start := time.Now()
	var req loadAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := s.agents.Load(c.Request.Context(), c.Param("id"), req.Code)
	s.record("agent", "load", err, start)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agent_id": c.Param("id"), "loaded": true})
}

type runAgentRequest struct {
	Input string `json:"input"`
}

func (s *Server) runAgent(c *gin.Context) {
	start := time.Now()
	var req runAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := s.agents.RunCached(c.Request.Context(), c.Param("id"), req.Input)
	s.record("agent", "run", err, start)
	if err != nil {
		if errors.Is(err, agent.ErrNoAgent) {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) unloadAgent(c *gin.Context) {
	start := time.Now()
	s.agents.Unload(c.Param("id"))
	s.record("agent", "unload", nil, start)
	c.JSON(http.StatusOK, gin.H{"agent_id": c.Param("id"), "unloaded": true})
}

func (s *Server) getAgent(c *gin.Context) {
	code, ok := s.agents.CachedCode(c.Param("id"))
	if !ok {
		s.fail(c, agent.ErrNoAgent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agent_id": c.Param("id"), "code": code})
}

func (s *Server) listAgents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"agents": s.agents.CachedAgents()})
}

// Settings handlers

func (s *Server) listSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"settings": s.settings.List(c.Query("category"))})
}

func (s *Server) getSetting(c *gin.Context) {
	setting, ok := s.settings.Get(c.Param("key"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "setting not found: " + c.Param("key")})
		return
	}
	c.JSON(http.StatusOK, setting)
}

type setSettingRequest struct {
	Value any `json:"value"`
}

func (s *Server) setSetting(c *gin.Context) {
	var req setSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.settings.Set(c.Param("key"), req.Value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "stored": true})
}

func (s *Server) resetSetting(c *gin.Context) {
	if err := s.settings.Reset(c.Param("key")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "reset": true})
}
