package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kapu/gamegen-go/internal/constants"
	"github.com/kapu/gamegen-go/internal/packager"
	apperrors "github.com/kapu/gamegen-go/pkg/errors"
	"go.uber.org/zap"
)

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if s.circuit != nil {
		body["circuit"] = s.circuit.GetCircuitStatus().State.String()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if !s.bindJSON(c, &req) {
		return
	}

	urls, err := req.urls()
	if err != nil {
		s.writeError(c, err)
		return
	}

	records := s.generator.Generate(c.Request.Context(), urls)
	c.PureJSON(http.StatusOK, records)
}

func (s *Server) handleIframe(c *gin.Context) {
	var req iframeRequest
	if !s.bindJSON(c, &req) {
		return
	}

	page, err := packager.Package(req.URL)
	if err != nil {
		s.writeError(c, err)
		return
	}

	filename := strings.ReplaceAll(page.Filename, `"`, "_")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page.HTML))
}

func (s *Server) handleRecentBatches(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history is not enabled"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(c, apperrors.NewValidationError("limit must be a positive integer", "limit", raw))
			return
		}
		limit = n
	}

	ids, err := s.history.RecentBatches(c.Request.Context(), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": ids})
}

func (s *Server) handleLoadBatch(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history is not enabled"})
		return
	}

	records, err := s.history.LoadBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
		return
	}
	c.PureJSON(http.StatusOK, records)
}

func (s *Server) bindJSON(c *gin.Context, dest any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, constants.ServerConfig.MaxRequestBytes)
	if err := c.ShouldBindJSON(dest); err != nil {
		s.writeError(c, apperrors.NewValidationError("invalid request body: "+err.Error(), "body", nil))
		return false
	}
	return true
}

func (s *Server) writeError(c *gin.Context, err error) {
	if verr, ok := apperrors.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
		return
	}

	if appErr, ok := apperrors.AsAppError(err); ok && appErr.StatusCode >= 400 && appErr.StatusCode < 500 {
		c.JSON(appErr.StatusCode, gin.H{"error": appErr.Message})
		return
	}

	s.logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
