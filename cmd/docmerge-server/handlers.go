package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	docmerge "github.com/alnah/go-docmerge"
)

// maxUploadBytes caps the whole multipart body.
const maxUploadBytes = 200 << 20

type server struct {
	merger    *docmerge.Merger
	logger    *slog.Logger
	uploadDir string
	outputDir string
}

func (s *server) registerRoutes(r *gin.Engine) {
	r.GET("/health", s.handleHealth)
	r.GET("/api/status", s.handleStatus)
	r.GET("/downloads/:name", s.handleDownload)
	r.POST("/api/merge", s.handleMerge)
}

// mergeResponse is the wire shape for a successful merge.
type mergeResponse struct {
	Filename       string             `json:"filename"`
	DownloadURL    string             `json:"downloadUrl"`
	FileSize       int64              `json:"fileSize"`
	ProcessedFiles int                `json:"processedFiles"`
	IntegrityScore int                `json:"integrityScore"`
	Metrics        metricsResponse    `json:"metrics"`
	Validation     []validationDetail `json:"validation,omitempty"`
}

type metricsResponse struct {
	TotalMS      int64 `json:"totalMs"`
	ConversionMS int64 `json:"conversionMs"`
	ValidationMS int64 `json:"validationMs"`
	MemoryDelta  int64 `json:"memoryDeltaBytes"`
}

type validationDetail struct {
	Target   string   `json:"target"`
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"engine": s.merger.Probe().Available(),
	})
}

func (s *server) handleStatus(c *gin.Context) {
	snap := s.merger.Snapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"cpuPercent":          snap.CPUPercent,
		"memoryUsed":          snap.MemoryUsed,
		"memoryTotal":         snap.MemoryTotal,
		"memoryPercent":       snap.MemoryPercent,
		"activeOperations":    snap.ActiveOperations,
		"queuedOperations":    snap.QueuedOperations,
		"avgProcessingTimeMs": snap.AvgProcessingTime.Milliseconds(),
	})
}

func (s *server) handleMerge(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("reading multipart form: %v", err)})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "no files uploaded (use multipart field \"files\")"})
		return
	}

	inputs, err := s.stageUploads(files)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: fmt.Sprintf("storing uploads: %v", err)})
		return
	}

	req := docmerge.MergeRequest{
		Files:        inputs,
		OutputFormat: docmerge.OutputFormat(c.DefaultPostForm("format", string(docmerge.FormatPDF))),
		DocumentName: c.DefaultPostForm("name", "merged"),
	}
	if order := c.PostForm("order"); order != "" {
		for _, name := range strings.Split(order, ",") {
			if name = strings.TrimSpace(name); name != "" {
				req.MergeOrder = append(req.MergeOrder, name)
			}
		}
	}

	result, err := s.merger.Merge(c.Request.Context(), req)
	if err != nil {
		s.respondMergeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toMergeResponse(result))
}

// stageUploads copies multipart files into the upload directory. The merger
// owns the staged paths and deletes them when the request completes.
func (s *server) stageUploads(files []*multipart.FileHeader) ([]docmerge.InputFile, error) {
	inputs := make([]docmerge.InputFile, 0, len(files))
	cleanup := func() {
		for _, in := range inputs {
			_ = os.Remove(in.Path)
		}
	}

	for _, fh := range files {
		base := filepath.Base(fh.Filename)
		dst := filepath.Join(s.uploadDir, fmt.Sprintf("%d-%s-%s",
			time.Now().UnixNano(), uuid.NewString()[:8], base))

		if err := saveUpload(fh, dst); err != nil {
			cleanup()
			return nil, err
		}

		inputs = append(inputs, docmerge.InputFile{
			OriginalName: base,
			Path:         dst,
			MIMEType:     fh.Header.Get("Content-Type"),
			Size:         fh.Size,
		})
	}
	return inputs, nil
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("opening upload %q: %w", fh.Filename, err)
	}
	defer func() { _ = src.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) // #nosec G304 -- path built from upload dir
	if err != nil {
		return fmt.Errorf("creating %q: %w", dst, err)
	}

	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("writing %q: %w", dst, err)
	}
	return out.Close()
}

func (s *server) respondMergeError(c *gin.Context, err error) {
	var valErr *docmerge.ValidationError
	if errors.As(err, &valErr) ||
		errors.Is(err, docmerge.ErrNoInputFiles) ||
		errors.Is(err, docmerge.ErrUnsupportedOutputFormat) ||
		errors.Is(err, docmerge.ErrUnsupportedInputType) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s.logger.Error("merge failed", "error", err)
	c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func (s *server) handleDownload(c *gin.Context) {
	name := filepath.Base(c.Param("name"))
	if name == "." || name == string(filepath.Separator) || strings.Contains(name, "..") {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid filename"})
		return
	}

	path := filepath.Join(s.outputDir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "artifact not found"})
		return
	}
	c.FileAttachment(path, name)
}

func toMergeResponse(r *docmerge.MergeResult) mergeResponse {
	resp := mergeResponse{
		Filename:       r.Filename,
		DownloadURL:    "/downloads/" + r.Filename,
		FileSize:       r.FileSize,
		ProcessedFiles: r.ProcessedFiles,
		IntegrityScore: r.IntegrityScore,
		Metrics: metricsResponse{
			TotalMS:      r.Metrics.TotalTime.Milliseconds(),
			ConversionMS: r.Metrics.ConversionTime.Milliseconds(),
			ValidationMS: r.Metrics.ValidationTime.Milliseconds(),
			MemoryDelta:  r.Metrics.MemoryDelta,
		},
	}
	for _, v := range r.ValidationResults {
		resp.Validation = append(resp.Validation, validationDetail{
			Target:   v.Target,
			Valid:    v.Valid,
			Warnings: v.Warnings,
			Errors:   v.Errors,
		})
	}
	return resp
}
