package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisJSON(t *testing.T) {
	success := Analysis{MediaType: "text", Stages: []StageResult{
		{Stage: "Verification", Content: "sure", Metadata: &StageMetadata{TokenCount: 3, ResponseTime: 0.5}},
		{Stage: "Content Analysis", Error: "Invalid response format"},
	}}
	failure := Analysis{FilePath: "clip.mp4", MediaType: "video", Failure: FailureAnalysis, Error: "Analysis error: boom"}

	tests := []struct {
		name string
		v    any
		want string
	}{
		{
			name: "stages by value",
			v:    success,
			want: `{"Verification":{"content":"sure","metadata":{"token_count":3,"response_time":0.5}},"Content Analysis":{"error":"Invalid response format"}}`,
		},
		{
			name: "stages by pointer",
			v:    &success,
			want: `{"Verification":{"content":"sure","metadata":{"token_count":3,"response_time":0.5}},"Content Analysis":{"error":"Invalid response format"}}`,
		},
		{
			name: "analysis error by value",
			v:    failure,
			want: `{"error":"Analysis error: boom","file_path":"clip.mp4","media_type":"video"}`,
		},
		{
			name: "validation error keeps only the message",
			v:    Analysis{FilePath: "gone.txt", MediaType: "text", Failure: FailureValidation, Error: "File processing failed"},
			want: `{"error":"File processing failed"}`,
		},
		{
			name: "nested in a struct field",
			v:    struct{ Result Analysis }{Result: failure},
			want: `{"Result":{"error":"Analysis error: boom","file_path":"clip.mp4","media_type":"video"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.v)
			require.NoError(t, err)
			// Exact string match: stage order is part of the output.
			assert.Equal(t, tt.want, string(data))
		})
	}
}
