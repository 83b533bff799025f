package server

import (
	"sync"
	"time"

	iface "github.com/patcharaph/AI-Privacy-Guard/interface"
)

// Config is the HTTP glue configuration.
type Config struct {
	Port            int    `yaml:"port"`
	Version         string `yaml:"version"`
	MaxBatchSize    int    `yaml:"maxBatchSize"`
	RateLimitPerDay int    `yaml:"rateLimitPerDay"`
}

func DefaultConfig() Config {
	return Config{
		Port:            8000,
		Version:         "0.1.0-beta",
		MaxBatchSize:    10,
		RateLimitPerDay: 5,
	}
}

type ProcessingResponse struct {
	Success           bool                    `json:"success"`
	Message           string                  `json:"message"`
	Results           []iface.ProcessedResult `json:"results"`
	TotalProcessingMS float64                 `json:"total_processing_time_ms"`
	ImagesProcessed   int                     `json:"images_processed"`
	TotalDetections   int                     `json:"total_detections"`
}

type FeedbackRequest struct {
	MissedType  string         `json:"missed_type" binding:"required,oneof=face license_plate"`
	Comment     string         `json:"comment" binding:"max=500"`
	ImageID     string         `json:"image_id"`
	Coordinates map[string]any `json:"detection_coordinates"`
}

type FeedbackResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	FeedbackID string `json:"feedback_id"`
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	ModelsLoaded bool              `json:"models_loaded"`
	Capabilities map[string]string `json:"capabilities"`
}

type feedbackEntry struct {
	ID          string
	MissedType  string
	Comment     string
	ImageID     string
	Coordinates map[string]any
}

type quotaRequest struct {
	ID        string
	IP        string
	UseCase   string
	Email     string
	Timestamp time.Time
}

// rateLimiter counts batches per client IP per calendar day.
type rateLimiter struct {
	mu    sync.Mutex
	limit int
	day   string
	used  map[string]int
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{limit: limit, used: map[string]int{}}
}

func (r *rateLimiter) rollover(now time.Time) {
	day := now.Format("2006-01-02")
	if day != r.day {
		r.day = day
		r.used = map[string]int{}
	}
}

// allow consumes one batch for ip, reporting false once the daily limit
// is reached.
func (r *rateLimiter) allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollover(time.Now())
	if r.used[ip] >= r.limit {
		return false
	}
	r.used[ip]++
	return true
}

func (r *rateLimiter) usage(ip string) (used, limit, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollover(time.Now())
	used = r.used[ip]
	return used, r.limit, max(0, r.limit-used)
}

// grant refunds n batches for ip.
func (r *rateLimiter) grant(ip string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollover(time.Now())
	r.used[ip] = max(0, r.used[ip]-n)
}
