package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	companydomain "github.com/smallbiznis/bytebills/internal/company/domain"
	ierr "github.com/smallbiznis/bytebills/internal/errors"
)

const maxLogoBytes = 2 << 20

var ErrLogoTooLarge = ierr.NewError("logo_too_large").
	WithHint("Logos must be 2 MB or smaller.").
	Mark(ierr.ErrValidation)

func (s *Server) ListCompanies(c *gin.Context) {
	companies, err := s.companies.List(c.Request.Context(), currentSession(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": companies})
}

func (s *Server) CreateCompany(c *gin.Context) {
	var req companydomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	company, err := s.companies.Create(c.Request.Context(), currentSession(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": company})
}

func (s *Server) GetCompany(c *gin.Context) {
	company, err := s.companies.Get(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": company})
}

func (s *Server) UpdateCompany(c *gin.Context) {
	var req companydomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ID = c.Param("id")

	company, err := s.companies.Update(c.Request.Context(), currentSession(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": company})
}

func (s *Server) DeleteCompany(c *gin.Context) {
	if err := s.companies.Delete(c.Request.Context(), currentSession(c), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadCompanyLogo takes a multipart "logo" file.
func (s *Server) UploadCompanyLogo(c *gin.Context) {
	header, err := c.FormFile("logo")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if header.Size > maxLogoBytes {
		AbortWithError(c, ErrLogoTooLarge)
		return
	}

	file, err := header.Open()
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	defer file.Close()

	company, err := s.companies.UploadLogo(c.Request.Context(), currentSession(c), c.Param("id"), companydomain.Logo{
		Body: file,
		Size: header.Size,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": company})
}
