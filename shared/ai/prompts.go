package ai

import "verifylens/internal/models"

// Stage is one named step of an analysis sequence.
type Stage struct {
	Name   string
	Prompt string
}

// sequences are run in order over one chat session. The first stage carries
// the uploaded media; later stages rely on the conversation so far.
var sequences = map[models.MediaType][]Stage{
	models.MediaVideo: {
		{
			Name: "Transcription",
			Prompt: `Analyze this video and provide:
1. Exact transcription of all spoken words with timestamps
2. Speaker identification (name or description)
3. Basic scene description`,
		},
		{
			Name: "Behavioral Analysis",
			Prompt: `Based on the video, analyze these specific behavioral indicators:
1. Eye Movement Patterns
2. Facial Expressions
3. Body Language`,
		},
		{
			Name: "Statement Analysis",
			Prompt: `Analyze the truthfulness of statements in the video:
1. Note exact statements and timestamps
2. Analyze internal consistency
3. Verify claims`,
		},
	},
	models.MediaText: {
		{
			Name: "Content Analysis",
			Prompt: `Please analyze this text document and identify:
1. Factually incorrect statements
2. Grammatical errors
3. Logical inconsistencies`,
		},
		{
			Name: "Verification",
			Prompt: `For each correction suggested:
1. Rate confidence (0-100%)
2. Provide reasoning
3. Note alternative interpretations`,
		},
	},
	models.MediaAudio: {
		{
			Name: "Transcription",
			Prompt: `Please analyze this audio file and provide:
1. Complete transcription with timestamps
2. Identify incorrect statements
3. Note unclear passages`,
		},
		{
			Name: "Voice Analysis",
			Prompt: `Analyze:
1. Voice patterns
2. Emotional indicators
3. Potential deception markers`,
		},
	},
}

// StagesFor returns a copy of the stage sequence for a media type.
func StagesFor(mediaType models.MediaType) ([]Stage, bool) {
	seq, ok := sequences[mediaType]
	if !ok {
		return nil, false
	}
	out := make([]Stage, len(seq))
	copy(out, seq)
	return out, true
}
