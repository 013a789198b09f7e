package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/bytebills/internal/export"
	reportdomain "github.com/smallbiznis/bytebills/internal/report/domain"
)

// GetReport returns the revenue report for ?kind=&from=&to=.
func (s *Server) GetReport(c *gin.Context) {
	var req reportdomain.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	report, err := s.reports.Generate(c.Request.Context(), currentSession(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (s *Server) DownloadReport(c *gin.Context) {
	var req reportdomain.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if _, err := s.reports.Download(c.Request.Context(), currentSession(c), req, export.ResponseSink{W: c.Writer}); err != nil {
		AbortWithError(c, err)
		return
	}
}
