package infrastructure

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/classtream/lectures-client/usecase"
)

// BackendClient issues the user-initiated backend calls. Every request goes
// through the credential-attaching transport; status-code interpretation
// happens here, never in the transport.
type BackendClient struct {
	baseURL string
	httpc   *http.Client
	logger  *zap.Logger
}

func NewBackendClient(baseURL string, creds *usecase.CredentialProvider, logger *zap.Logger) *BackendClient {
	return &BackendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   usecase.NewSecureClient(creds),
		logger:  logger,
	}
}

// UploadLecture submits a video as multipart fields `file` and `title`.
// The form is streamed through a pipe, so the video is never held in memory
// as a whole. Success creates a job in the `uploaded` state, which arrives
// on the event stream shortly after.
func (c *BackendClient) UploadLecture(ctx context.Context, title, filename string, video io.Reader) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadForm(mw, title, filename, video))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/courses/upload", pr)
	if err != nil {
		pr.Close()
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upload rejected: %s", resp.Status)
	}
	c.logger.Info("lecture uploaded", zap.String("title", title))
	return nil
}

// writeUploadForm produces the multipart body consumed by the upload
// request. Its error surfaces through the pipe as the request's body error.
func writeUploadForm(mw *multipart.Writer, title, filename string, video io.Reader) error {
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, video); err != nil {
		return fmt.Errorf("failed to read video content: %w", err)
	}
	if err := mw.WriteField("title", title); err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload form: %w", err)
	}
	return nil
}

// StartProcessing asks the backend to move a job from uploaded toward
// transcribing. Success means accepted, not done: completion is observed
// later on the event stream.
func (c *BackendClient) StartProcessing(ctx context.Context, jobID string) error {
	endpoint := c.baseURL + "/ai/process-video/" + url.PathEscape(jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build process request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("process request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("process request rejected for %s: %s", jobID, resp.Status)
	}
	c.logger.Info("processing accepted", zap.String("job_id", jobID))
	return nil
}
