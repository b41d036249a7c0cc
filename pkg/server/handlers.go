package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/executor"
	"github.com/renamekit/renamekit/pkg/pathutil"
	"github.com/renamekit/renamekit/pkg/planner"
	"github.com/renamekit/renamekit/pkg/workspace"
)

// PreviewRequest names the files to plan over, either explicitly or as
// one directory, together with the rename configuration.
type PreviewRequest struct {
	Paths           []string            `json:"paths"`
	Dir             string              `json:"dir"`
	Naming          models.NamingConfig `json:"naming"`
	Filter          models.FilterConfig `json:"filter"`
	CaseInsensitive bool                `json:"case_insensitive"`
}

// ApplyRequest is a preview request plus execution options. The plan is
// recomputed server-side; clients never submit raw rename pairs.
type ApplyRequest struct {
	PreviewRequest
	FailFast bool `json:"fail_fast"`
	Backup   bool `json:"backup"`
}

// UndoRequest selects a batch to reverse. An empty batch id means the
// most recent batch.
type UndoRequest struct {
	BatchID string `json:"batch_id"`
}

// ProfileSaveRequest stores a named rename configuration.
type ProfileSaveRequest struct {
	Name   string              `json:"name"`
	Naming models.NamingConfig `json:"naming"`
	Filter models.FilterConfig `json:"filter"`
}

func (s *Server) buildPlan(req *PreviewRequest) (*planner.Plan, error) {
	if len(req.Paths) == 0 && req.Dir == "" {
		return nil, fmt.Errorf("either paths or dir is required")
	}

	ws := workspace.New()
	if req.Dir != "" {
		if _, err := ws.AddDir(req.Dir); err != nil {
			return nil, err
		}
	}
	for _, p := range req.Paths {
		if _, err := ws.AddFile(p); err != nil {
			return nil, err
		}
	}

	// Probe the target directory's case policy unless the client forced it.
	caseInsensitive := req.CaseInsensitive
	if !caseInsensitive && req.Dir != "" {
		caseInsensitive = pathutil.DirCaseInsensitive(req.Dir)
	}

	return planner.Build(ws.Entries(), req.Naming, req.Filter, planner.Options{
		CaseInsensitive: caseInsensitive,
	})
}

func (s *Server) handlePreview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := s.buildPlan(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (s *Server) handleApply(c *gin.Context) {
	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := s.buildPlan(&req.PreviewRequest)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := executor.Options{
		FailFast:      req.FailFast,
		Backup:        req.Backup || s.config.Operations.BackupBeforeRename,
		BackupDirName: s.config.Operations.BackupDirName,
	}
	result, err := s.exec.Apply(c.Request.Context(), plan, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleUndo(c *gin.Context) {
	var req UndoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		result *models.UndoResult
		err    error
	)
	if req.BatchID == "" {
		result, err = s.exec.UndoLast(c.Request.Context())
	} else {
		result, err = s.exec.Undo(c.Request.Context(), req.BatchID)
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleHistoryList(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	batches, err := s.store.ListBatches(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

func (s *Server) handleProfileList(c *gin.Context) {
	names, err := s.profiles.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": names})
}

func (s *Server) handleProfileSave(c *gin.Context) {
	var req ProfileSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := s.profiles.Save(req.Name, req.Naming, req.Filter)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, saved)
}

func (s *Server) handleProfileGet(c *gin.Context) {
	p, err := s.profiles.Load(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleProfileDelete(c *gin.Context) {
	if err := s.profiles.Delete(c.Param("name")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("name")})
}
