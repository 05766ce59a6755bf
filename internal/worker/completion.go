// Package worker contains the background tasks that drain the suggestion and
// alert queues.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/models"
)

// CompletionClient calls an Ollama-style text-completion endpoint:
// POST {model, prompt, stream:false} -> {response}.
type CompletionClient struct {
	apiURL string
	model  string
	client *http.Client
}

// NewCompletionClient builds a client with a generous timeout; the AI call is
// by far the longest suspension in the system.
func NewCompletionClient(apiURL, model string, timeout time.Duration) *CompletionClient {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &CompletionClient{
		apiURL: apiURL,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

type completionRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type completionResponse struct {
	Response string `json:"response"`
}

// SuggestPrice asks the model for a new "por" value given the price history,
// oldest first. The reply is the model's plain-text suggestion.
func (c *CompletionClient) SuggestPrice(ctx context.Context, sellerID, sku string, history []models.HistoryEntry) (string, error) {
	pairs := make([]string, len(history))
	for i, h := range history {
		pairs[i] = fmt.Sprintf("(de=%d, por=%d)", h.De, h.Por)
	}
	prompt := fmt.Sprintf(
		"Você é um especialista em precificação de produtos.\n"+
			"Analise o histórico dos últimos preços de venda ('por') para o produto SKU '%s' do seller '%s'.\n"+
			"Histórico de preços (do mais antigo para o mais recente): [%s]\n"+
			"Com base nessa sequência, sugira um novo preço de venda ('por') para maximizar as chances de venda, "+
			"considerando tendências e possíveis promoções. "+
			"Responda apenas com o valor sugerido, sem texto adicional.",
		sku, sellerID, strings.Join(pairs, ", "),
	)

	body, err := json.Marshal(completionRequest{Model: c.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", errors.Wrap(err, "encoding completion request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "building completion request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling completion endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("completion endpoint returned status %d", resp.StatusCode)
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", errors.Wrap(err, "decoding completion response")
	}
	return strings.TrimSpace(decoded.Response), nil
}
