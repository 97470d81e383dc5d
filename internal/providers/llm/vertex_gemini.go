package llm

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
)

const extractPrompt = "Transcribe the plain text of this resume. " +
	"Output only the text content, no commentary and no markdown."

type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	if projectID == "" {
		return nil, errors.New("vertex: project id is empty")
	}
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	m := c.GenerativeModel(modelName)
	m.SetTemperature(0)
	return &VertexGemini{client: c, model: m}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

// ExtractText streams the model's transcription of the document and joins the chunks.
func (v *VertexGemini) ExtractText(ctx context.Context, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("vertex: empty document")
	}

	it := v.model.GenerateContentStream(ctx,
		vertexgenai.Blob{MIMEType: mimeType, Data: data},
		vertexgenai.Text(extractPrompt),
	)

	var sb strings.Builder
	for {
		resp, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return "", err
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(vertexgenai.Text); ok {
					sb.WriteString(string(t))
				}
			}
		}
	}
	return sb.String(), nil
}
