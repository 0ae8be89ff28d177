// Package llmagent provides a concrete engine.Agent backed by a local
// Ollama server, adapted from the teacher repo's llm.Client
// (llm/ollama.go): same HTTP request shape and debug-logging conventions,
// narrowed to the single run(prompt) -> result contract the Agent Handle
// component needs (spec §3 — the tool-calling/chat/streaming surface of the
// original client is not part of that contract).
package llmagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Agent is an Ollama-backed engine.Agent. It implements engine.Agent
// without importing the engine package, the same way the teacher's
// llm.Client implements framework.LanguageModel by having the right
// methods rather than an explicit interface assertion elsewhere.
type Agent struct {
	AgentName string
	Endpoint  string
	Model     string
	Debug     bool

	client *http.Client
}

// NewAgent builds an Ollama-backed agent named name, targeting model on
// endpoint. An empty endpoint defaults to the local Ollama server.
func NewAgent(name, endpoint, model string) *Agent {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	return &Agent{
		AgentName: name,
		Endpoint:  endpoint,
		Model:     model,
		client:    &http.Client{Timeout: 3 * time.Minute},
	}
}

// Name implements engine.Agent.
func (a *Agent) Name() string { return a.AgentName }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response        string `json:"response"`
	DoneReason      string `json:"done_reason"`
	EvalCount       int    `json:"eval_count"`
	PromptEvalCount int    `json:"prompt_eval_count"`
}

// Run sends prompt to Ollama's /api/generate endpoint and returns the
// completion text, implementing engine.Agent.
func (a *Agent) Run(ctx context.Context, prompt string) (string, error) {
	payload := generateRequest{
		Model:  a.modelName(),
		Prompt: prompt,
		Stream: false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	a.logPayload(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.Endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := strings.TrimSpace(string(msg))
		if detail != "" {
			return "", fmt.Errorf("ollama agent %s: %s: %s", a.AgentName, resp.Status, detail)
		}
		return "", fmt.Errorf("ollama agent %s: %s", a.AgentName, resp.Status)
	}

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	a.logResponse(responseBody)

	var raw generateResponse
	if err := json.Unmarshal(responseBody, &raw); err != nil {
		return "", fmt.Errorf("ollama agent %s: decoding response: %w", a.AgentName, err)
	}
	return raw.Response, nil
}

func (a *Agent) modelName() string {
	if a.Model != "" {
		return a.Model
	}
	return "codellama"
}

func (a *Agent) httpClient() *http.Client {
	if a.client != nil {
		return a.client
	}
	a.client = &http.Client{Timeout: 60 * time.Second}
	return a.client
}

func (a *Agent) logPayload(payload []byte) {
	if !a.Debug {
		return
	}
	log.Printf("[ollama:%s] request payload: %s", a.AgentName, truncate(string(payload), 2048))
}

func (a *Agent) logResponse(resp []byte) {
	if !a.Debug {
		return
	}
	log.Printf("[ollama:%s] response payload: %s", a.AgentName, truncate(string(resp), 2048))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
