package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/document"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/report"
	"github.com/spigell/resume-screener/internal/screening"
)

const (
	DefaultAddr          = ":8080"
	DefaultMaxUploadSize = 20 << 20

	formatCSV  = "csv"
	formatJSON = "json"
)

// Runner executes one screening run.
type Runner interface {
	Run(ctx context.Context, jobDescription string, docs []document.Document) (*screening.RankedResultSet, error)
}

// Config holds the HTTP surface settings.
type Config struct {
	Addr          string
	MaxUploadSize int64
}

// Server exposes screening runs over HTTP.
type Server struct {
	runner    Runner
	extractor document.Extractor
	logger    *zap.Logger
	cfg       Config
	engine    *gin.Engine
}

// New builds the router. The extractor is used for a job description
// submitted as a file.
func New(runner Runner, extractor document.Extractor, log *zap.Logger, cfg Config) *Server {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = DefaultMaxUploadSize
	}

	s := &Server{
		runner:    runner,
		extractor: extractor,
		logger:    logger.OrNop(log),
		cfg:       cfg,
	}

	engine := gin.New()
	engine.Use(requestID(), requestLogger(s.logger), gin.Recovery())
	engine.GET("/healthz", s.health)
	engine.POST("/screenings", s.screen)
	s.engine = engine

	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) screen(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadSize)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
			return
		}
		respondError(c, http.StatusBadRequest, "multipart form is required")
		return
	}

	format := strings.ToLower(strings.TrimSpace(c.DefaultPostForm("format", c.DefaultQuery("format", formatCSV))))
	if format != formatCSV && format != formatJSON {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}

	ctx := c.Request.Context()

	jd, err := s.jobDescription(ctx, c.PostForm("job_description"), form.File["job_description_file"])
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	docs, err := readUploads(form.File["resumes"])
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	set, err := s.runner.Run(ctx, jd, docs)
	if err != nil {
		var inputErr *screening.InputError
		if errors.As(err, &inputErr) {
			respondError(c, http.StatusBadRequest, inputErr.Error())
			return
		}
		s.logger.Error("screening run failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "screening failed")
		return
	}

	if format == formatJSON {
		c.JSON(http.StatusOK, set)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.DefaultCSVName))
	c.Status(http.StatusOK)
	if err := report.WriteCSV(c.Writer, set.Results); err != nil {
		s.logger.Error("writing csv response", zap.Error(err))
	}
}

// jobDescription prefers the text field and falls back to an uploaded file.
func (s *Server) jobDescription(ctx context.Context, text string, files []*multipart.FileHeader) (string, error) {
	if strings.TrimSpace(text) != "" || len(files) == 0 {
		return text, nil
	}

	docs, err := readUploads(files[:1])
	if err != nil {
		return "", err
	}

	extracted, err := s.extractor.Extract(ctx, docs[0])
	if err != nil {
		return "", err
	}
	return extracted, nil
}

func readUploads(files []*multipart.FileHeader) ([]document.Document, error) {
	docs := make([]document.Document, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %q: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %q: %w", fh.Filename, err)
		}
		docs = append(docs, document.New(fh.Filename, data))
	}
	return docs, nil
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":      message,
		"request_id": requestIDFromContext(c),
	})
}
