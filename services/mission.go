// services/mission.go - Gemini-backed mission and motivation provider
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gemscore/models"

	"github.com/sirupsen/logrus"
)

// ErrProviderUnavailable wraps any transport or parse failure from the
// generative endpoint. Callers must treat it as non-fatal: provider
// failures never touch ledger or mission state.
var ErrProviderUnavailable = errors.New("mission provider unavailable")

const missionPrompt = `You are the manager of a luxury retail boutique. Generate a fun daily ` +
	`sales mission for the floor teams. Provide a mission title, a short introduction, a ` +
	`concrete objective, detailed rules and criteria, and the reward gem type ` +
	`(one of Sapphire, Emerald, Ruby, Diamond).`

// MissionConfig configures the provider client.
type MissionConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// MissionService calls the Gemini generateContent endpoint for the two
// provider actions: a structured daily mission and a short motivational
// line. Responses for missions are schema-constrained JSON.
type MissionService struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewMissionService(cfg MissionConfig) *MissionService {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &MissionService{
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Gemini wire types, the subset of generateContent this service uses.

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string                 `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]interface{} `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func missionSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "OBJECT",
		"properties": map[string]interface{}{
			"title":     map[string]interface{}{"type": "STRING"},
			"content":   map[string]interface{}{"type": "STRING"},
			"objective": map[string]interface{}{"type": "STRING"},
			"rules":     map[string]interface{}{"type": "STRING"},
			"gemType":   map[string]interface{}{"type": "STRING"},
		},
		"required": []string{"title", "content", "objective", "rules", "gemType"},
	}
}

// GenerateMission asks the provider for a new structured daily mission.
func (s *MissionService) GenerateMission(ctx context.Context) (*models.Mission, error) {
	req := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: missionPrompt}}},
		},
		GenerationConfig: &geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   missionSchema(),
		},
	}

	text, err := s.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	var mission models.Mission
	if err := json.Unmarshal([]byte(text), &mission); err != nil {
		return nil, fmt.Errorf("%w: malformed mission payload: %v", ErrProviderUnavailable, err)
	}
	if mission.Title == "" || mission.Content == "" {
		return nil, fmt.Errorf("%w: incomplete mission payload", ErrProviderUnavailable)
	}
	if _, ok := models.GemByName(mission.GemType); !ok {
		mission.GemType = models.Gems[0].Name
	}
	return &mission, nil
}

// Motivate asks the provider for a short encouraging line for a team.
// The string is empty exactly when err is non-nil; callers substitute
// FallbackMotivation.
func (s *MissionService) Motivate(ctx context.Context, teamName string, score int) (string, error) {
	prompt := fmt.Sprintf(
		"In the voice of a luxury boutique manager, write one elegant, motivating sentence "+
			"(50 words max) for team %q, currently at %d points, encouraging them toward next month.",
		teamName, score)

	req := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
	}

	text, err := s.generate(ctx, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// FallbackMotivation is the canned line substituted when the provider is
// unreachable.
func FallbackMotivation(teamName string) string {
	return fmt.Sprintf("Every gem counts, %s — keep the momentum and make next month shine.", teamName)
}

// generate performs one generateContent call with a small retry loop for
// rate limits. Any failure comes back wrapped in ErrProviderUnavailable.
func (s *MissionService) generate(ctx context.Context, reqBody geminiRequest) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("%w: API key not configured", ErrProviderUnavailable)
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrProviderUnavailable, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)

	const maxRetries = 2
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(1<<uint(attempt-1)) * time.Second):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, ctx.Err())
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("%w: create request: %v", ErrProviderUnavailable, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limit exceeded (429)")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("%w: status %d: %s", ErrProviderUnavailable, resp.StatusCode, truncate(string(body), 200))
		}

		var gr geminiResponse
		if err := json.Unmarshal(body, &gr); err != nil {
			return "", fmt.Errorf("%w: parse response: %v", ErrProviderUnavailable, err)
		}
		if gr.Error != nil {
			return "", fmt.Errorf("%w: API error: %s", ErrProviderUnavailable, gr.Error.Message)
		}
		if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
			return "", fmt.Errorf("%w: empty completion", ErrProviderUnavailable)
		}

		var sb strings.Builder
		for _, part := range gr.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}

		logrus.WithFields(logrus.Fields{
			"model":   s.model,
			"attempt": attempt,
			"len":     sb.Len(),
		}).Debug("mission provider call completed")

		return sb.String(), nil
	}

	return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, lastErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
