package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/classtream/lectures-client/domain"
)

// JobWriter is what the dev backend needs from the store. The Postgres
// store satisfies it; tests use an in-memory fake.
type JobWriter interface {
	InsertJob(ctx context.Context, job domain.Job) error
	UpdateJobStatus(ctx context.Context, jobID string, status domain.JobStatus, summary string) error
	// TransitionJob applies the status change only when the job currently
	// holds `from`; otherwise it fails with ErrInvalidTransition.
	TransitionJob(ctx context.Context, jobID string, from, to domain.JobStatus) error
}

// DevBackend is an in-process stand-in for the real backend's REST surface.
// It validates bearer credentials and writes job records; the actual
// transcription/summarization work stays out of process, optionally
// replaced by a timed simulation so the event stream has something to push.
type DevBackend struct {
	jobs      JobWriter
	secret    []byte
	simulate  bool
	stepDelay time.Duration
	logger    *zap.Logger
}

func NewDevBackend(jobs JobWriter, secret string, simulate bool, stepDelay time.Duration, logger *zap.Logger) *DevBackend {
	return &DevBackend{
		jobs:      jobs,
		secret:    []byte(secret),
		simulate:  simulate,
		stepDelay: stepDelay,
		logger:    logger,
	}
}

// Router builds the backend surface: the two authenticated endpoints plus
// health and metrics.
func (b *DevBackend) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := router.Group("/")
	authed.Use(b.authMiddleware())
	{
		authed.POST("/courses/upload", b.uploadLecture)
		authed.POST("/ai/process-video/:id", b.processVideo)
	}
	return router
}

func (b *DevBackend) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if len(header) > 7 && header[:7] == "Bearer " {
			header = header[7:]
		} else {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims := &idClaims{}
		token, err := jwt.ParseWithClaims(header, claims, func(*jwt.Token) (interface{}, error) {
			return b.secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set("principal_id", claims.Subject)
		c.Set("email", claims.Email)
		c.Next()
	}
}

func (b *DevBackend) uploadLecture(c *gin.Context) {
	title := c.PostForm("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("failed to get video file: %v", err)})
		return
	}

	// The dev backend keeps no blobs; drain the upload to validate it.
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to open uploaded file: %v", err)})
		return
	}
	defer file.Close()
	if _, err := io.Copy(io.Discard, file); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to read uploaded file: %v", err)})
		return
	}

	job := domain.Job{
		ID:        uuid.NewString(),
		Title:     title,
		Status:    domain.JobStatusUploaded,
		VideoURL:  "/media/" + fileHeader.Filename,
		CreatedAt: time.Now().UTC(),
	}
	if err := b.jobs.InsertJob(c.Request.Context(), job); err != nil {
		b.logger.Error("failed to record upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record video"})
		return
	}

	b.logger.Info("upload accepted",
		zap.String("job_id", job.ID),
		zap.String("title", title),
		zap.String("principal_id", c.GetString("principal_id")))
	c.JSON(http.StatusOK, gin.H{"message": "video uploaded", "video_id": job.ID})
}

func (b *DevBackend) processVideo(c *gin.Context) {
	jobID := c.Param("id")
	// Only freshly uploaded videos may enter the pipeline; a replayed
	// request must not drag a processed job back to transcribing.
	err := b.jobs.TransitionJob(c.Request.Context(), jobID, domain.JobStatusUploaded, domain.JobStatusTranscribing)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown video"})
		case errors.Is(err, domain.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "video is not awaiting processing"})
		default:
			b.logger.Error("failed to start processing", zap.String("job_id", jobID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start processing"})
		}
		return
	}

	if b.simulate {
		go b.runPipeline(jobID)
	}

	// Accepted, not done: callers observe completion on the event stream.
	c.JSON(http.StatusAccepted, gin.H{"message": "processing started", "video_id": jobID})
}

// runPipeline walks a job through the remaining statuses on a timer,
// standing in for the real transcription and summarization workers.
func (b *DevBackend) runPipeline(jobID string) {
	ctx := context.Background()
	steps := []struct {
		status  domain.JobStatus
		summary string
	}{
		{domain.JobStatusSummarizing, ""},
		{domain.JobStatusCompleted, "Auto-generated study notes for this lecture."},
	}
	for _, step := range steps {
		time.Sleep(b.stepDelay)
		if err := b.jobs.UpdateJobStatus(ctx, jobID, step.status, step.summary); err != nil {
			b.logger.Error("simulated pipeline step failed",
				zap.String("job_id", jobID),
				zap.String("status", string(step.status)),
				zap.Error(err))
			return
		}
	}
}
