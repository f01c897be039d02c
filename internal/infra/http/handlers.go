package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/chive-pub/chive-sub016/internal/domain"
	"github.com/chive-pub/chive-sub016/internal/usecase"

	"github.com/gin-gonic/gin"
)

// identityHeader carries the authenticated caller's DID, set by the auth
// layer upstream of this service.
const identityHeader = "X-Chive-Identity"

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleVerifySync(c *gin.Context) {
	uri := c.Query("uri")
	if uri == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "InvalidRequest", Message: "uri is required"})
		return
	}
	status := s.verifier.VerifySync(c.Request.Context(), uri)
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleCheckStaleness(c *gin.Context) {
	uri := c.Query("uri")
	if uri == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "InvalidRequest", Message: "uri is required"})
		return
	}
	check := s.verifier.CheckStaleness(c.Request.Context(), uri)
	switch {
	case check.Error != "":
		s.metrics.ObserveStalenessCheck("error")
	case check.IsStale:
		s.metrics.ObserveStalenessCheck("stale")
	default:
		s.metrics.ObserveStalenessCheck("fresh")
	}
	c.JSON(http.StatusOK, check)
}

func (s *Server) handleGetChain(c *gin.Context) {
	uri := c.Query("uri")
	if uri == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "InvalidRequest", Message: "uri is required"})
		return
	}
	chain, err := s.versions.GetVersionChain(c.Request.Context(), uri)
	if err != nil {
		s.renderVersionError(c, err)
		return
	}
	c.JSON(http.StatusOK, chain)
}

func (s *Server) handleGetVersion(c *gin.Context) {
	uri := c.Query("uri")
	if uri == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "InvalidRequest", Message: "uri is required"})
		return
	}
	entry, err := s.versions.GetVersion(c.Request.Context(), uri)
	if err != nil {
		s.renderVersionError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) handleGetLatest(c *gin.Context) {
	uri := c.Query("uri")
	if uri == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "InvalidRequest", Message: "uri is required"})
		return
	}
	latest, err := s.versions.GetLatestVersion(c.Request.Context(), uri)
	if err != nil {
		s.renderVersionError(c, err)
		return
	}
	c.JSON(http.StatusOK, latest)
}

func (s *Server) handleIsLatest(c *gin.Context) {
	uri := c.Query("uri")
	if uri == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "InvalidRequest", Message: "uri is required"})
		return
	}
	latest, err := s.versions.IsLatestVersion(c.Request.Context(), uri)
	if err != nil {
		s.renderVersionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uri": uri, "isLatest": latest})
}

type registerOriginRequest struct {
	Endpoint string `json:"endpoint"`
	Reason   string `json:"reason"`
}

func (s *Server) handleRegisterOrigin(c *gin.Context) {
	var req registerOriginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "InvalidRequest", Message: "invalid json body"})
		return
	}
	identity := c.GetHeader(identityHeader)

	result, err := s.registrar.RegisterOrigin(c.Request.Context(), req.Endpoint, req.Reason, identity)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidEndpoint):
			c.JSON(http.StatusBadRequest, errorResponse{Code: "InvalidEndpoint", Message: err.Error()})
		case errors.Is(err, domain.ErrOriginUnreachable):
			c.JSON(http.StatusBadGateway, errorResponse{Code: "OriginUnreachable", Message: err.Error()})
		default:
			s.logger.Error("register origin failed", "endpoint", req.Endpoint, "error", err)
			c.JSON(http.StatusInternalServerError, errorResponse{Code: "Internal", Message: "registration failed"})
		}
		return
	}
	s.metrics.ObserveOriginRegistered()
	s.metrics.ObserveRecordsIndexed(result.RecordsIndexed)
	c.JSON(http.StatusOK, result)
}

type originView struct {
	Endpoint     string    `json:"endpoint"`
	Status       string    `json:"status"`
	Reason       string    `json:"reason,omitempty"`
	RegisteredAt time.Time `json:"registeredAt"`
}

func (s *Server) handleListOrigins(c *gin.Context) {
	origins, err := s.registrar.ListOrigins(c.Request.Context())
	if err != nil {
		s.logger.Error("list origins failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Code: "Internal", Message: "listing failed"})
		return
	}
	views := make([]originView, 0, len(origins))
	for _, origin := range origins {
		views = append(views, originView{
			Endpoint:     origin.Endpoint,
			Status:       string(origin.Status),
			Reason:       origin.RegistrationReason,
			RegisteredAt: origin.RegisteredAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"origins": views})
}

func (s *Server) renderVersionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrRecordUnavailable):
		c.JSON(http.StatusNotFound, errorResponse{Code: "RecordNotFound", Message: err.Error()})
	case errors.Is(err, domain.ErrDataIntegrity):
		s.logger.Error("version chain integrity failure", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Code: "DataIntegrity", Message: err.Error()})
	default:
		s.logger.Error("version chain resolution failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Code: "Internal", Message: "version resolution failed"})
	}
}
