package scoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	gocache "github.com/patrickmn/go-cache"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const openaiPrompt = `You are a sentiment scoring service. For the text below,
respond with a single JSON object and nothing else:
{"score": <float between 0 and 1 where 0 is most negative>, "keywords": [<salient terms indicating stress, anxiety, depression, or burnout, lowercase>]}

Text:
%s`

// openaiScorer delegates scoring to a chat model. Calls are rate limited and
// results are memoized by text digest so repeated identical texts cost one
// request.
type openaiScorer struct {
	client  *openai.Client
	cfg     *Config
	limiter *rate.Limiter
	cache   *gocache.Cache
}

func newOpenAIScorer(cfg *Config) (Scorer, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("openai api key required")
	}

	clientConfig := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAI.BaseURL
	}

	ttl := cfg.OpenAI.CacheTTLDuration()

	return &openaiScorer{
		client:  openai.NewClientWithConfig(clientConfig),
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.OpenAI.RequestsPerSecond), 1),
		cache:   gocache.New(ttl, 2*ttl),
	}, nil
}

func (o *openaiScorer) Name() string {
	return "openai:" + o.cfg.OpenAI.Model
}

func (o *openaiScorer) Score(ctx context.Context, text string) (Result, error) {
	digest := textDigest(text)
	if cached, ok := o.cache.Get(digest); ok {
		return cached.(Result), nil
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.cfg.OpenAI.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(openaiPrompt, text),
			},
		},
		Temperature: 0,
	})
	if err != nil {
		return Result{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("chat completion returned no choices")
	}

	result, err := o.parse(resp.Choices[0].Message.Content)
	if err != nil {
		return Result{}, err
	}

	o.cache.SetDefault(digest, result)
	return result, nil
}

func (o *openaiScorer) parse(content string) (Result, error) {
	// Models occasionally wrap JSON in a code fence despite instructions.
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var payload struct {
		Score    float64  `json:"score"`
		Keywords []string `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &payload); err != nil {
		return Result{}, fmt.Errorf("parse scorer response: %w", err)
	}

	score := clamp(payload.Score, o.cfg.MinScore, o.cfg.MaxScore)
	keywords := payload.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	return Result{
		Score:    score,
		Label:    LabelFor(score, o.cfg.Thresholds),
		Keywords: keywords,
	}, nil
}

func textDigest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
