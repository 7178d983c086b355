// Package insights asks a language model for item defaults and stock
// commentary. Model failures are logged and never reach callers.
package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/pantry/internal/inventory"
)

// Fallback texts returned instead of errors.
const (
	MessageNoItems        = "Adicione insumos ao estoque para receber análises da IA."
	MessageNotConfigured  = "Assistente de IA não configurado."
	MessageEmptyResponse  = "Não foi possível gerar insights no momento."
	MessageUnavailable    = "Erro ao conectar com a IA para análise."
	defaultRequestTimeout = 30 * time.Second
)

var errEmptyResponse = errors.New("insights: empty model response")

// ItemSuggestion holds model-proposed defaults for a new item.
type ItemSuggestion struct {
	Category               string  `json:"category" validate:"required,max=100"`
	Description            string  `json:"description" validate:"max=1000"`
	SuggestedPrice         float64 `json:"suggestedPrice" validate:"gte=0"`
	MinStockRecommendation float64 `json:"minStockRecommendation" validate:"gte=0"`
	UnitSuggestion         string  `json:"unitSuggestion" validate:"required,oneof=un kg g L ml cx pct"`
}

// ModelConfig selects an OpenAI-compatible endpoint.
type ModelConfig struct {
	Model   string
	Token   string
	BaseURL string
}

// NewOpenAIModel builds a chat model client. It returns nil without error when
// no token is configured.
func NewOpenAIModel(cfg ModelConfig) (llms.Model, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, nil
	}
	opts := []openai.Option{openai.WithToken(cfg.Token)}
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("insights: create model client: %w", err)
	}
	return llm, nil
}

// Advisor wraps the model with caching and request coalescing.
type Advisor struct {
	model     llms.Model
	cache     *Cache
	logger    *slog.Logger
	validator *validator.Validate
	group     singleflight.Group
	timeout   time.Duration
}

// NewAdvisor builds Advisor. model and cache may be nil.
func NewAdvisor(model llms.Model, cache *Cache, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{
		model:     model,
		cache:     cache,
		logger:    logger,
		validator: validator.New(),
		timeout:   defaultRequestTimeout,
	}
}

// Enabled reports whether a model is configured.
func (a *Advisor) Enabled() bool {
	return a != nil && a.model != nil
}

// SuggestItemDetails proposes defaults for an item name. It returns nil when
// the name is blank, no model is configured or the answer is unusable.
func (a *Advisor) SuggestItemDetails(ctx context.Context, name string) *ItemSuggestion {
	name = strings.TrimSpace(name)
	if name == "" || !a.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := fmt.Sprintf(`You are a restaurant supply specialist. Propose details for a stock item named %q.
Reply in Brazilian Portuguese with a single JSON object with the keys:
"category" (short culinary category such as Hortifruti, Carnes, Mercearia),
"description" (one technical sentence),
"suggestedPrice" (estimated average unit cost in BRL, number),
"minStockRecommendation" (recommended minimum stock for a mid-sized restaurant, number),
"unitSuggestion" (one of: un, kg, g, L, ml, cx, pct).`, name)

	raw, err := llms.GenerateFromSinglePrompt(ctx, a.model, prompt, llms.WithJSONMode(), llms.WithTemperature(0.2))
	if err != nil {
		a.logger.Warn("item suggestion", slog.String("name", name), slog.Any("error", err))
		return nil
	}
	var suggestion ItemSuggestion
	if err := json.Unmarshal([]byte(extractJSON(raw)), &suggestion); err != nil {
		a.logger.Warn("item suggestion decode", slog.String("name", name), slog.Any("error", err))
		return nil
	}
	if err := a.validator.Struct(suggestion); err != nil {
		a.logger.Warn("item suggestion rejected", slog.String("name", name), slog.Any("error", err))
		return nil
	}
	return &suggestion
}

// InventoryInsights returns a short narrative about the unit's stock. Answers
// are cached per unit version and concurrent calls share one model request,
// which outlives the cancellation of the caller that started it.
func (a *Advisor) InventoryInsights(ctx context.Context, unitID string, items []inventory.Item) string {
	if len(items) == 0 {
		return MessageNoItems
	}
	if !a.Enabled() {
		return MessageNotConfigured
	}
	key, err := a.cache.BuildKey(ctx, unitID, "narrative")
	if err != nil {
		a.logger.Warn("insights cache key", slog.String("unit_id", unitID), slog.Any("error", err))
		key = "insights:" + unitID + ":narrative"
	}
	detached := context.WithoutCancel(ctx)
	v, _, _ := a.group.Do(key, func() (any, error) {
		var text string
		err := a.cache.FetchJSON(detached, key, &text, func(ctx context.Context) (any, error) {
			return a.generateInsights(ctx, items)
		})
		if errors.Is(err, errEmptyResponse) {
			return MessageEmptyResponse, nil
		}
		if err != nil {
			a.logger.Warn("inventory insights", slog.String("unit_id", unitID), slog.Any("error", err))
			return MessageUnavailable, nil
		}
		return text, nil
	})
	return v.(string)
}

type itemDigest struct {
	Name     string  `json:"name"`
	Qty      string  `json:"qty"`
	Min      float64 `json:"min"`
	Category string  `json:"cat"`
	Value    float64 `json:"val"`
}

func (a *Advisor) generateInsights(ctx context.Context, items []inventory.Item) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	digest := make([]itemDigest, len(items))
	for i, item := range items {
		digest[i] = itemDigest{
			Name:     item.Name,
			Qty:      fmt.Sprintf("%g%s", item.Quantity, item.Unit),
			Min:      item.MinStock,
			Category: item.Category,
			Value:    item.Quantity * item.Price,
		}
	}
	payload, err := json.Marshal(digest)
	if err != nil {
		return "", err
	}
	prompt := fmt.Sprintf(`You are an experienced executive chef managing a restaurant. Analyse this stock data (JSON): %s
Write a short report in Brazilian Portuguese Markdown, at most three paragraphs:
1. Identify critical items that could stop the kitchen.
2. Suggest actions for categories with high idle cost.
3. Give one recommendation about waste or purchasing.`, payload)

	text, err := llms.GenerateFromSinglePrompt(ctx, a.model, prompt, llms.WithTemperature(0.4))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errEmptyResponse
	}
	return text, nil
}

// extractJSON trims code fences some models wrap around JSON answers.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
