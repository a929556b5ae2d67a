package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"lyricsync/pkg/ai"
)

var _ ai.Client = (*gemini)(nil)

type gemini struct {
	model *genai.GenerativeModel
	ctx   context.Context
}

// NewGemini creates a Gemini-backed client. An empty modelName selects a
// fast default; metadata normalization needs no reasoning depth.
func NewGemini(apiKey, modelName string) *gemini {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		log.Panic().Err(err).Msg("failed to create gemini client")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	model := client.GenerativeModel(modelName)
	return &gemini{model, ctx}
}

func (g *gemini) Name() string {
	return "gemini"
}

func (g *gemini) HandleText(msg string) (string, error) {
	resp, err := g.model.GenerateContent(g.ctx, genai.Text(msg))
	if err != nil {
		log.Error().Err(err).Msg("could not get response from gemini")
		return "", err
	}
	result := fmt.Sprint(resp.Candidates[0].Content.Parts[0])
	return result, nil
}
