package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"verifylens/internal/models"
	"verifylens/shared/config"
	"verifylens/shared/media"
)

const invalidResponseFormat = "Invalid response format"

// Reply is one model turn reduced to what the analyzer needs.
type Reply struct {
	Text         string
	TokenCount   int
	ResponseTime time.Duration
}

// ChatSession is a stateful multi-turn exchange with the model.
type ChatSession interface {
	Send(ctx context.Context, prompt string, attachment *models.UploadedMedia) (*Reply, error)
}

type ChatModel interface {
	StartChat(ctx context.Context) (ChatSession, error)
}

type FileProcessor interface {
	Process(ctx context.Context, path, mimeType string) (*models.UploadedMedia, error)
}

type UsageTracker interface {
	TrackUsage(result models.StageResult)
	Stats() models.UsageStats
}

type Analyzer struct {
	model     ChatModel
	processor FileProcessor
	tracker   UsageTracker
	log       logrus.FieldLogger
}

func NewAnalyzer(model ChatModel, processor FileProcessor, tracker UsageTracker, log logrus.FieldLogger) *Analyzer {
	return &Analyzer{
		model:     model,
		processor: processor,
		tracker:   tracker,
		log:       log,
	}
}

// NewFromConfig wires the Gemini model and uploader from the API key and
// upload settings in cfg.
func NewFromConfig(ctx context.Context, cfg *config.Config, tracker UsageTracker, log logrus.FieldLogger) (*Analyzer, error) {
	client, err := NewClient(ctx, cfg.AI.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	processor := media.NewProcessor(media.NewGeminiUploader(client), media.Options{
		MaxFileSize: cfg.Upload.MaxFileSizeBytes(),
		MaxAttempts: cfg.Upload.MaxAttempts,
		BackoffUnit: cfg.Upload.BackoffUnit,
	}, log)

	return NewAnalyzer(NewGeminiModel(client, cfg.AI.Model), processor, tracker, log), nil
}

// AnalyzeMedia uploads the file and runs the stage sequence for mediaType.
// It always returns a result; failures are reported through its Failure kind
// and error message.
func (a *Analyzer) AnalyzeMedia(ctx context.Context, path, mediaType string) (result *models.Analysis) {
	log := a.log.WithFields(logrus.Fields{"path": path, "media_type": mediaType})

	mt := models.MediaType(mediaType)
	mimeType, ok := mt.MIMEType()
	if !ok {
		return &models.Analysis{
			FilePath:  path,
			MediaType: mediaType,
			Failure:   models.FailureUnsupportedMediaType,
			Error:     fmt.Sprintf("Unsupported media type: %s", mediaType),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Analysis panicked")
			result = analysisError(path, mediaType, fmt.Errorf("%v", r))
		}
	}()

	uploaded, err := a.processor.Process(ctx, path, mimeType)
	if err != nil || uploaded == nil {
		failure := models.FailureUpload
		if errors.Is(err, media.ErrValidation) {
			failure = models.FailureValidation
		}
		log.WithError(err).WithField("failure", failure).Warn("File processing failed")
		return &models.Analysis{
			FilePath:  path,
			MediaType: mediaType,
			Failure:   failure,
			Error:     "File processing failed",
		}
	}

	stages, err := a.runStages(ctx, mt, uploaded, log)
	if err != nil {
		log.WithError(err).Error("Analysis failed")
		return analysisError(path, mediaType, err)
	}

	return &models.Analysis{
		FilePath:  path,
		MediaType: mediaType,
		Stages:    stages,
	}
}

func (a *Analyzer) runStages(ctx context.Context, mt models.MediaType, uploaded *models.UploadedMedia, log logrus.FieldLogger) ([]models.StageResult, error) {
	sequence, _ := StagesFor(mt)

	session, err := a.model.StartChat(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]models.StageResult, 0, len(sequence))
	for i, stage := range sequence {
		var attachment *models.UploadedMedia
		if i == 0 {
			attachment = uploaded
		}

		reply, err := session.Send(ctx, stage.Prompt, attachment)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", stage.Name, err)
		}

		result := parseReply(stage.Name, reply)
		if result.Error != "" {
			log.WithField("stage", stage.Name).Warn("Model reply had no text")
		}
		a.tracker.TrackUsage(result)
		results = append(results, result)
	}

	return results, nil
}

func parseReply(stage string, reply *Reply) models.StageResult {
	if reply == nil || reply.Text == "" {
		return models.StageResult{Stage: stage, Error: invalidResponseFormat}
	}
	return models.StageResult{
		Stage:   stage,
		Content: reply.Text,
		Metadata: &models.StageMetadata{
			TokenCount:   reply.TokenCount,
			ResponseTime: reply.ResponseTime.Seconds(),
		},
	}
}

func analysisError(path, mediaType string, err error) *models.Analysis {
	return &models.Analysis{
		FilePath:  path,
		MediaType: mediaType,
		Failure:   models.FailureAnalysis,
		Error:     fmt.Sprintf("Analysis error: %s", err),
	}
}

// UsageStats exposes the tracker the analyzer reports to.
func (a *Analyzer) UsageStats() models.UsageStats {
	return a.tracker.Stats()
}
