package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"verifylens/internal/models"
)

var (
	// ErrValidation wraps every reason a file is rejected before upload.
	ErrValidation       = errors.New("file validation failed")
	ErrFileNotFound     = fmt.Errorf("%w: file not found", ErrValidation)
	ErrFileTooLarge     = fmt.Errorf("%w: file too large", ErrValidation)
	ErrInvalidExtension = fmt.Errorf("%w: invalid file type", ErrValidation)

	// ErrUploadFailed means every upload attempt failed.
	ErrUploadFailed = errors.New("upload failed")

	errNoFile = errors.New("upload returned no file")
)

const (
	DefaultMaxFileSize = 100 * 1024 * 1024
	DefaultMaxAttempts = 3

	// processingWaitUnits is the blind pause after a successful upload while
	// the service finishes processing the file. Nothing polls its state.
	processingWaitUnits = 2
)

var supportedExtensions = map[string][]string{
	"video/mp4":  {".mp4"},
	"text/plain": {".txt"},
	"audio/mpeg": {".mp3"},
}

// Uploader hands a local file to the remote file service.
type Uploader interface {
	Upload(ctx context.Context, path, mimeType string) (*models.UploadedMedia, error)
}

type Options struct {
	MaxFileSize int64
	MaxAttempts int
	// BackoffUnit is the time unit for retry backoff and the processing wait.
	BackoffUnit time.Duration
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Processor validates files and uploads them with bounded retry.
type Processor struct {
	uploader    Uploader
	maxFileSize int64
	maxAttempts int
	unit        time.Duration
	sleep       func(time.Duration)
	log         logrus.FieldLogger
}

func NewProcessor(uploader Uploader, opts Options, log logrus.FieldLogger) *Processor {
	p := &Processor{
		uploader:    uploader,
		maxFileSize: opts.MaxFileSize,
		maxAttempts: opts.MaxAttempts,
		unit:        opts.BackoffUnit,
		sleep:       opts.Sleep,
		log:         log,
	}
	if p.maxFileSize <= 0 {
		p.maxFileSize = DefaultMaxFileSize
	}
	if p.maxAttempts <= 0 {
		p.maxAttempts = DefaultMaxAttempts
	}
	if p.unit <= 0 {
		p.unit = time.Second
	}
	if p.sleep == nil {
		p.sleep = time.Sleep
	}
	return p
}

// Process validates the file and uploads it. A nil handle is the only
// failure signal callers need; the error tells validation and upload
// failures apart for logging.
func (p *Processor) Process(ctx context.Context, path, mimeType string) (*models.UploadedMedia, error) {
	log := p.log.WithFields(logrus.Fields{"path": path, "mime_type": mimeType})

	if err := p.Validate(path, mimeType); err != nil {
		log.WithError(err).Warn("File rejected")
		return nil, err
	}

	uploaded, err := p.uploadWithRetry(ctx, path, mimeType, log)
	if err != nil {
		return nil, err
	}
	return uploaded, nil
}

// Validate checks existence, size ceiling and that the extension matches the
// declared MIME type.
func (p *Processor) Validate(path, mimeType string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w - %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w - %s is a directory", ErrFileNotFound, path)
	}

	if info.Size() > p.maxFileSize {
		return fmt.Errorf("%w - %.2fMB", ErrFileTooLarge, float64(info.Size())/1024/1024)
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range supportedExtensions[mimeType] {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w - %q for %s", ErrInvalidExtension, ext, mimeType)
}

func (p *Processor) uploadWithRetry(ctx context.Context, path, mimeType string, log logrus.FieldLogger) (*models.UploadedMedia, error) {
	var lastErr error

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		log.Debugf("Upload attempt %d/%d", attempt+1, p.maxAttempts)

		uploaded, err := p.uploader.Upload(ctx, path, mimeType)
		if err == nil && uploaded == nil {
			err = errNoFile
		}
		if err == nil {
			p.sleep(processingWaitUnits * p.unit)
			log.WithField("file", uploaded.Name).Info("Upload complete")
			return uploaded, nil
		}

		lastErr = err
		log.WithError(err).Warnf("Upload attempt %d failed", attempt+1)

		if attempt < p.maxAttempts-1 {
			p.sleep(time.Duration(1<<attempt) * p.unit)
		}
	}

	log.Error("Max retries reached. Upload failed.")
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrUploadFailed, p.maxAttempts, lastErr)
}
