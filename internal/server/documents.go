package server

import (
	"net/http"
	"path"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	documentdomain "github.com/smallbiznis/bytebills/internal/document/domain"
	"github.com/smallbiznis/bytebills/internal/export"
)

const contextKindKey = "document_kind"

type documentRequest struct {
	CompanyID string `json:"companyId"`
	// Version, when set, is the version the caller last read. A stale
	// value fails the update with a conflict.
	Version int64 `json:"version,omitempty"`
	documentdomain.FormValues
}

type statusRequest struct {
	Status documentdomain.Status `json:"status"`
}

func (s *Server) resolveKind() gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, err := documentdomain.ParseKind(strings.ToLower(c.Param("kind")))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Set(contextKindKey, kind)
		c.Next()
	}
}

func kindOf(c *gin.Context) documentdomain.Kind {
	return c.MustGet(contextKindKey).(documentdomain.Kind)
}

func (s *Server) ListDocuments(c *gin.Context) {
	var req documentdomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.Kind = kindOf(c)

	docs, err := s.documents.List(c.Request.Context(), currentSession(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": docs})
}

func (s *Server) CreateDocument(c *gin.Context) {
	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	sess := currentSession(c)
	kind := kindOf(c)

	id, err := s.documents.Create(ctx, sess, kind, req.FormValues, req.CompanyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.documents.Get(ctx, sess, kind, id.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": doc})
}

func (s *Server) GetDocument(c *gin.Context) {
	doc, err := s.documents.Get(c.Request.Context(), currentSession(c), kindOf(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": doc})
}

func (s *Server) UpdateDocument(c *gin.Context) {
	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	sess := currentSession(c)
	id := c.Param("id")

	var previous *documentdomain.Document
	if req.Version > 0 {
		if parsed, err := snowflake.ParseString(id); err == nil {
			previous = &documentdomain.Document{ID: parsed, OwnerID: sess.UserID, Version: req.Version}
		}
	}

	doc, err := s.documents.Update(c.Request.Context(), sess, kindOf(c), id, req.FormValues, req.CompanyID, previous)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": doc})
}

func (s *Server) RemoveDocument(c *gin.Context) {
	if err := s.documents.Remove(c.Request.Context(), currentSession(c), kindOf(c), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ChangeDocumentStatus(c *gin.Context) {
	if kindOf(c) != documentdomain.KindInvoice {
		AbortWithError(c, documentdomain.ErrStatusNotSupported)
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.documents.ChangeStatus(c.Request.Context(), currentSession(c), c.Param("id"), req.Status); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadDocument regenerates the PDF and streams it as an attachment.
func (s *Server) DownloadDocument(c *gin.Context) {
	ctx := c.Request.Context()
	sess := currentSession(c)

	doc, err := s.documents.Get(ctx, sess, kindOf(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if _, err := s.documents.RegenerateAndDownload(ctx, sess, doc, export.ResponseSink{W: c.Writer}); err != nil {
		AbortWithError(c, err)
		return
	}
}

// ArchiveDocument regenerates the PDF and stores a copy in object storage
// under documents/<owner>/<kind>/. Archiving again overwrites the copy.
func (s *Server) ArchiveDocument(c *gin.Context) {
	ctx := c.Request.Context()
	sess := currentSession(c)
	kind := kindOf(c)

	doc, err := s.documents.Get(ctx, sess, kind, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	sink := &export.ObjectSink{Uploader: s.archive, Prefix: path.Join("documents", sess.UserID, string(kind))}
	filename, err := s.documents.RegenerateAndDownload(ctx, sess, doc, sink)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{
		"filename": filename,
		"url":      sink.URL,
	}})
}
