package aihost_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Reldnahc/ai-jeopardy-sub000/clients"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/phase"
)

// AIHostClient talks to the external AI host service: board generation and
// drawing judgment. Its internals (which model, how images are classified)
// are the service's business.
type AIHostClient struct {
	*clients.BaseClient
}

// NewAIHostClient creates a client for the AI host service.
func NewAIHostClient(baseURL, apiKey string) *AIHostClient {
	client := &AIHostClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}
	client.SetHeader("Content-Type", "application/json")
	return client
}

type judgeRequest struct {
	ExpectedAnswer string `json:"expected_answer"`
	Drawing        string `json:"drawing"` // data URL
}

type judgeResponse struct {
	Verdict    string `json:"verdict"`
	Transcript string `json:"transcript"`
}

// JudgeImage implements phase.Judge.
func (c *AIHostClient) JudgeImage(ctx context.Context, expectedAnswer, drawingDataURL string) (phase.Judgment, error) {
	body, err := json.Marshal(judgeRequest{
		ExpectedAnswer: expectedAnswer,
		Drawing:        drawingDataURL,
	})
	if err != nil {
		return phase.Judgment{}, fmt.Errorf("failed to marshal judge request: %w", err)
	}

	respBody, err := c.Post(ctx, EndpointJudge, bytes.NewReader(body))
	if err != nil {
		return phase.Judgment{}, fmt.Errorf("failed to judge image: %w", err)
	}

	var resp judgeResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return phase.Judgment{}, fmt.Errorf("failed to parse judge response: %w", err)
	}

	verdict := models.VerdictIncorrect
	if resp.Verdict == string(models.VerdictCorrect) {
		verdict = models.VerdictCorrect
	}
	return phase.Judgment{Verdict: verdict, Transcript: resp.Transcript}, nil
}

type boardsRequest struct {
	Categories []string `json:"categories"`
}

// FetchBoards implements the board repository used when a host starts a
// game.
func (c *AIHostClient) FetchBoards(ctx context.Context, categories []string) (*models.BoardData, error) {
	body, err := json.Marshal(boardsRequest{Categories: categories})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal boards request: %w", err)
	}

	respBody, err := c.Post(ctx, EndpointBoards, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch boards: %w", err)
	}

	var boards models.BoardData
	if err := json.Unmarshal(respBody, &boards); err != nil {
		return nil, fmt.Errorf("failed to parse boards response: %w", err)
	}
	return &boards, nil
}
