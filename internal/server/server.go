// Package server exposes the referral intake pipeline and record store
// over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"referral-intake-service/internal/common"
	"referral-intake-service/internal/entity"
	"referral-intake-service/internal/pipeline"
	"referral-intake-service/internal/repository"
)

// Ingestor runs the full upload-to-record pipeline. Satisfied by
// *pipeline.Ingestion.
type Ingestor interface {
	Run(ctx context.Context, up pipeline.Upload) (*entity.Referral, error)
}

// Exporter produces an XLSX workbook of the referral list. Satisfied by
// *export.Service.
type Exporter interface {
	ExportReferralsXLSX(ctx context.Context) ([]byte, error)
}

type Server struct {
	ingest    Ingestor
	repo      repository.ReferralRepository
	exporter  Exporter
	health    func(ctx context.Context) error
	logger    *slog.Logger
	maxUpload int64
	cors      []string
}

type Options struct {
	MaxUploadMiB int64
	// CORSOrigins is a comma-separated origin list; "*" allows all.
	CORSOrigins string
}

func New(ing Ingestor, repo repository.ReferralRepository, exporter Exporter, health func(ctx context.Context) error, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxUploadMiB <= 0 {
		opts.MaxUploadMiB = 20
	}
	origins := []string{"*"}
	if o := strings.TrimSpace(opts.CORSOrigins); o != "" && o != "*" {
		origins = strings.Split(o, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}
	return &Server{
		ingest:    ing,
		repo:      repo,
		exporter:  exporter,
		health:    health,
		logger:    logger,
		maxUpload: opts.MaxUploadMiB << 20,
		cors:      origins,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestID())
	r.MaxMultipartMemory = s.maxUpload

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(s.cors) == 1 && s.cors[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.cors
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", s.healthz)

	v1 := r.Group("/v1")
	{
		v1.POST("/referrals", s.createReferral)
		v1.GET("/referrals", s.listReferrals)
		v1.GET("/referrals/export", s.exportReferrals)
		v1.GET("/referrals/:id", s.getReferral)
		v1.POST("/referrals/:id/status", s.updateStatus)
		v1.PATCH("/referrals/:id", s.updateFields)
		v1.DELETE("/referrals/:id", s.archiveReferral)
	}
	return r
}

// requestID tags every request with a correlation id, echoed back in the
// X-Request-Id header and carried on the context for downstream logging.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-Id")
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Header("X-Request-Id", rid)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), rid))
		c.Next()
	}
}

func (s *Server) healthz(c *gin.Context) {
	if s.health != nil {
		if err := s.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail maps the domain error taxonomy onto HTTP statuses and writes a
// uniform error body.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrUnsupportedFormat):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, common.ErrTextExtraction):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrExtractionService), errors.Is(err, common.ErrExtractionParse):
		status = http.StatusBadGateway
	case errors.Is(err, common.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("http.request_failed",
			"req_id", common.RequestIDFromContext(c.Request.Context()),
			"path", c.FullPath(),
			"error", err,
		)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
