// Package plantinfo talks to the external plant-information service.
// The service is opaque: it answers species questions with prose and,
// for full lookups, an embedded JSON block of suggested care defaults.
package plantinfo

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

	"github.com/Tai-DucTran/Panny/internal/model"
)

type RequestKind string

const (
	KindCharacteristics RequestKind = "characteristics"
	KindCare            RequestKind = "care"
	KindIllness         RequestKind = "illness"
	KindDiagnosis       RequestKind = "diagnosis"
)

var ErrUnavailable = errors.New("plant info service unavailable")

// CareDefaults is the structured slice of a lookup answer the app can
// apply to a plant record directly.
type CareDefaults struct {
	WateringFrequencyDays    int                 `json:"wateringFrequencyDays,omitempty"`
	RepottingFrequencyMonths int                 `json:"repottingFrequencyMonths,omitempty"`
	SunlightNeeds            model.SunlightLevel `json:"sunlightNeeds,omitempty"`
}

type LookupResult struct {
	Description string        `json:"description"`
	Care        *CareDefaults `json:"care,omitempty"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type infoRequest struct {
	Prompt string `json:"prompt"`
}

type infoResponse struct {
	Text string `json:"text"`
}

// PlantInfo asks one focused question about a species and returns the
// prose answer.
func (c *Client) PlantInfo(ctx context.Context, species string, kind RequestKind, extra string) (string, error) {
	return c.generate(ctx, buildPrompt(species, kind, extra))
}

// CompleteInfo asks for a full profile: a description plus care
// defaults. The defaults arrive as a JSON block inside the prose and
// are best-effort; a missing or unparsable block still yields the
// description.
func (c *Client) CompleteInfo(ctx context.Context, species string) (LookupResult, error) {
	text, err := c.generate(ctx, buildCompletePrompt(species))
	if err != nil {
		return LookupResult{}, err
	}
	return parseLookup(text), nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(infoRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out infoResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out.Text, nil
}

func buildPrompt(species string, kind RequestKind, extra string) string {
	switch kind {
	case KindCare:
		return fmt.Sprintf("Provide comprehensive care instructions for %s, including watering, light, soil, temperature, and humidity requirements.", species)
	case KindIllness:
		return fmt.Sprintf("List the common diseases and issues that affect %s, including symptoms and treatments.", species)
	case KindDiagnosis:
		return fmt.Sprintf("Based on the following description, diagnose the issue with the %s: %s", species, extra)
	default:
		return fmt.Sprintf("Provide detailed information about %s including its appearance, native habitat, and general characteristics.", species)
	}
}

func buildCompletePrompt(species string) string {
	return fmt.Sprintf("Describe the %s houseplant for a plant care app, then append a fenced JSON object with keys wateringFrequencyDays, repottingFrequencyMonths and sunlightNeeds (one of low, medium, bright_indirect, direct).", species)
}

// parseLookup splits a fenced JSON care block out of the prose answer.
func parseLookup(text string) LookupResult {
	res := LookupResult{Description: strings.TrimSpace(text)}

	start := strings.Index(text, "```")
	if start < 0 {
		return res
	}
	block := text[start+3:]
	block = strings.TrimPrefix(block, "json")
	end := strings.Index(block, "```")
	if end < 0 {
		return res
	}

	var care CareDefaults
	if err := json.Unmarshal([]byte(strings.TrimSpace(block[:end])), &care); err != nil {
		return res
	}

	res.Description = strings.TrimSpace(text[:start])
	res.Care = &care
	return res
}
