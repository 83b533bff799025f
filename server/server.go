package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patcharaph/AI-Privacy-Guard/engine"
	iface "github.com/patcharaph/AI-Privacy-Guard/interface"
	"github.com/patcharaph/AI-Privacy-Guard/logger"
	"github.com/patcharaph/AI-Privacy-Guard/pipeline"
	"github.com/patcharaph/AI-Privacy-Guard/transform"
)

// Server is the thin HTTP glue over the batch orchestrator. It validates
// payloads, enforces the per-IP quota and shuttles bytes plus options to
// the core.
type Server struct {
	cfg   Config
	eng   *engine.Engine
	orch  *pipeline.Orchestrator
	rates *rateLimiter

	mu            sync.Mutex
	feedback      []feedbackEntry
	quotaRequests []quotaRequest
}

func New(cfg Config, eng *engine.Engine, orch *pipeline.Orchestrator) *Server {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultConfig().MaxBatchSize
	}
	if cfg.RateLimitPerDay <= 0 {
		cfg.RateLimitPerDay = DefaultConfig().RateLimitPerDay
	}
	return &Server{
		cfg:   cfg,
		eng:   eng,
		orch:  orch,
		rates: newRateLimiter(cfg.RateLimitPerDay),
	}
}

// Router builds the gin engine with all API routes mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/styles", s.handleStyles)
	api.POST("/process", s.handleProcess)
	api.POST("/feedback", s.handleFeedback)
	api.GET("/stats", s.handleStats)
	api.GET("/quota", s.handleQuota)
	api.POST("/request-quota", s.handleRequestQuota)
	return r
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	return s.Router().Run(fmt.Sprintf(":%d", s.cfg.Port))
}

func (s *Server) handleHealth(c *gin.Context) {
	states := s.eng.States()
	caps := make(map[string]string, len(states))
	for cat, state := range states {
		caps[string(cat)] = state
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: s.cfg.Version,
		ModelsLoaded: s.eng.Ready(iface.CategoryFace) ||
			s.eng.Ready(iface.CategoryLicensePlate),
		Capabilities: caps,
	})
}

func (s *Server) handleStyles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"styles": transform.StyleKeys()})
}

func (s *Server) handleProcess(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form: " + err.Error()})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}
	if len(files) > s.cfg.MaxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("maximum %d images per batch allowed", s.cfg.MaxBatchSize)})
		return
	}

	clientIP := c.ClientIP()
	if !s.rates.allow(clientIP) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("rate limit exceeded, maximum %d batches per day", s.cfg.RateLimitPerDay)})
		return
	}

	opts := s.optionsFromForm(c)

	images := make([]pipeline.InputImage, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			logger.Log().Warn("cannot open upload", zap.String("filename", fh.Filename), zap.Error(err))
			continue
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			logger.Log().Warn("cannot read upload", zap.String("filename", fh.Filename), zap.Error(err))
			continue
		}
		if ok, reason := s.orch.Validate(data, fh.Filename); !ok {
			logger.Log().Warn("rejecting upload", zap.String("filename", fh.Filename), zap.String("reason", reason))
			continue
		}
		images = append(images, pipeline.InputImage{Data: data, Filename: fh.Filename})
	}
	if len(images) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid images to process"})
		return
	}

	results, totalMS, totalDetections := s.orch.ProcessBatch(images, opts)
	c.JSON(http.StatusOK, ProcessingResponse{
		Success:           true,
		Message:           fmt.Sprintf("Successfully processed %d image(s)", len(results)),
		Results:           results,
		TotalProcessingMS: totalMS,
		ImagesProcessed:   len(results),
		TotalDetections:   totalDetections,
	})
}

func (s *Server) optionsFromForm(c *gin.Context) iface.DetectionOptions {
	intensity, _ := strconv.Atoi(c.DefaultPostForm("blur_intensity", "80"))
	sensitivity, _ := strconv.Atoi(c.DefaultPostForm("detection_sensitivity", "60"))
	return iface.DetectionOptions{
		BlurMode:     iface.BlurMode(c.DefaultPostForm("blur_mode", "gaussian")),
		Intensity:    intensity,
		DetectFaces:  c.DefaultPostForm("detect_faces", "true") == "true",
		DetectPlates: c.DefaultPostForm("detect_plates", "true") == "true",
		Sensitivity:  sensitivity,
		EmojiKey:     c.DefaultPostForm("emoji_key", transform.StyleSmile),
	}.Normalized()
}

func (s *Server) handleFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := uuid.NewString()[:8]
	s.mu.Lock()
	s.feedback = append(s.feedback, feedbackEntry{
		ID:          id,
		MissedType:  req.MissedType,
		Comment:     req.Comment,
		ImageID:     req.ImageID,
		Coordinates: req.Coordinates,
	})
	s.mu.Unlock()
	logger.Log().Info("feedback received",
		zap.String("feedback_id", id),
		zap.String("missed_type", req.MissedType))
	c.JSON(http.StatusOK, FeedbackResponse{
		Success:    true,
		Message:    "Thank you for your feedback! This helps improve our detection accuracy.",
		FeedbackID: id,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	s.mu.Lock()
	total := len(s.feedback)
	byType := map[string]int{"face": 0, "license_plate": 0}
	for _, f := range s.feedback {
		byType[f.MissedType]++
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{
		"total_feedback_count": total,
		"feedback_by_type":     byType,
	})
}

func (s *Server) handleQuota(c *gin.Context) {
	used, limit, remaining := s.rates.usage(c.ClientIP())
	c.JSON(http.StatusOK, gin.H{
		"used":      used,
		"limit":     limit,
		"remaining": remaining,
	})
}

func (s *Server) handleRequestQuota(c *gin.Context) {
	useCase := c.PostForm("use_case")
	if useCase == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "use_case is required"})
		return
	}
	email := c.DefaultPostForm("email", "")
	clientIP := c.ClientIP()
	id := uuid.NewString()[:8]

	s.mu.Lock()
	s.quotaRequests = append(s.quotaRequests, quotaRequest{
		ID:        id,
		IP:        clientIP,
		UseCase:   useCase,
		Email:     email,
		Timestamp: time.Now(),
	})
	s.mu.Unlock()
	s.rates.grant(clientIP, 5)

	logger.Log().Info("quota request",
		zap.String("request_id", id),
		zap.String("use_case", useCase),
		zap.String("email", email))
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Thank you! You've been granted 5 extra batches.",
		"request_id": id,
	})
}
