// Package download fetches prebuilt release artifacts over HTTPS.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// ProgressFunc receives the number of bytes written so far and the expected
// total (-1 when the server did not send Content-Length). The last call of a
// successful download always has written == total.
type ProgressFunc func(written, total int64)

// Downloader fetches artifacts. Transport-level failures (connection resets,
// 5xx) are retried by the HTTP client; everything else is returned as-is.
type Downloader struct {
	client *retryablehttp.Client
	logger *zap.Logger
}

// New creates a Downloader.
func New(logger *zap.Logger) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = leveledLogger{logger.Sugar()}

	return &Downloader{client: client, logger: logger}
}

// Fetch downloads url into dest. The body is streamed to a temp file next to
// dest and renamed into place, so dest is never left half-written. The
// resulting file has mode 0600; callers decide on further permissions.
func (d *Downloader) Fetch(ctx context.Context, url, dest string, progress ProgressFunc) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("User-Agent", "devboot")

	d.logger.Debug("downloading artifact", zap.String("url", url), zap.String("dest", dest))
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download of %s returned status %d", url, resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(dest), ".devboot-download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	var w io.Writer = tmpFile
	if progress != nil {
		w = &countingWriter{w: tmpFile, total: resp.ContentLength, progress: progress}
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write download: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to write download: %w", err)
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return fmt.Errorf("download of %s truncated: got %d of %d bytes", url, n, resp.ContentLength)
	}
	if progress != nil && resp.ContentLength < 0 {
		// Unknown length: report the final size as the total so the
		// receiver sees completion.
		progress(n, n)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to move download into place: %w", err)
	}

	d.logger.Debug("download complete", zap.String("dest", dest), zap.Int64("bytes", n))
	return nil
}

type countingWriter struct {
	w        io.Writer
	written  int64
	total    int64
	progress ProgressFunc
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.written += int64(n)
	c.progress(c.written, c.total)
	return n, err
}

// leveledLogger adapts zap to retryablehttp's LeveledLogger.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
