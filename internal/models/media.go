package models

import (
	"bytes"
	"encoding/json"
)

type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaText  MediaType = "text"
	MediaAudio MediaType = "audio"
)

var mimeTypes = map[MediaType]string{
	MediaVideo: "video/mp4",
	MediaText:  "text/plain",
	MediaAudio: "audio/mpeg",
}

// MIMEType returns the MIME type uploads of this media type are declared with.
func (m MediaType) MIMEType() (string, bool) {
	mime, ok := mimeTypes[m]
	return mime, ok
}

type AnalysisRequest struct {
	FilePath  string    `json:"file_path"`
	MediaType MediaType `json:"media_type"`
}

// UploadedMedia references a file stored by the upload service.
type UploadedMedia struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MIMEType string `json:"mime_type"`
}

type StageMetadata struct {
	TokenCount   int     `json:"token_count"`
	ResponseTime float64 `json:"response_time"` // seconds
}

// StageResult is either a content record or an error record for one stage.
type StageResult struct {
	Stage    string         `json:"-"`
	Content  string         `json:"content,omitempty"`
	Metadata *StageMetadata `json:"metadata,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type FailureKind string

const (
	FailureNone                 FailureKind = ""
	FailureUnsupportedMediaType FailureKind = "unsupported_media_type"
	FailureValidation           FailureKind = "validation_failed"
	FailureUpload               FailureKind = "upload_failed"
	FailureAnalysis             FailureKind = "analysis_error"
)

// Analysis is the outcome of one AnalyzeMedia call. Stages keep the order
// in which they were run.
type Analysis struct {
	FilePath  string
	MediaType string
	Stages    []StageResult
	Failure   FailureKind
	Error     string
}

func (a *Analysis) Failed() bool {
	return a.Failure != FailureNone
}

// Stage looks up a stage result by name.
func (a *Analysis) Stage(name string) (StageResult, bool) {
	for _, s := range a.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return StageResult{}, false
}

// MarshalJSON renders a successful analysis as an object keyed by stage name
// in run order, and a failed one as an error object.
func (a Analysis) MarshalJSON() ([]byte, error) {
	if a.Failed() {
		payload := struct {
			Error     string `json:"error"`
			FilePath  string `json:"file_path,omitempty"`
			MediaType string `json:"media_type,omitempty"`
		}{Error: a.Error}
		if a.Failure == FailureAnalysis {
			payload.FilePath = a.FilePath
			payload.MediaType = a.MediaType
		}
		return json.Marshal(payload)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range a.Stages {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Stage)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
