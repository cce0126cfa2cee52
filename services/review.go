package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"

	"github.com/adionit7/devstarter/core"
)

const reviewSystemPrompt = `You are an expert software engineer conducting a code review.
Analyze the provided code and give structured, actionable feedback covering:

1. **Bugs & Issues** - anything that could cause errors or unexpected behavior
2. **Security** - potential vulnerabilities (SQL injection, XSS, secrets in code, etc.)
3. **Performance** - inefficiencies, unnecessary complexity, better algorithms
4. **Best Practices** - naming, structure, error handling
5. **Quick Wins** - the 1-2 most impactful improvements to make first

Be specific. Reference line patterns or function names where possible.
Format your response in clean markdown. Keep it under 400 words.`

const defaultReviewLanguage = "python"

// ReviewConfig configures the completion API passthrough.
type ReviewConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// ReviewService proxies code review requests to an OpenAI-compatible
// completion API. It carries no internal state beyond a response cache
// keyed by the exact submission, so identical code is not paid for
// twice.
type ReviewService struct {
	client     openai.Client
	model      string
	cache      core.Cache
	logger     logrus.FieldLogger
	configured bool
}

func NewReviewService(config ReviewConfig, cache core.Cache, logger logrus.FieldLogger) *ReviewService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &ReviewService{
		client:     openai.NewClient(opts...),
		model:      config.Model,
		cache:      cache,
		logger:     logger,
		configured: config.APIKey != "",
	}
}

// Review submits code for AI review and returns the completion.
func (s *ReviewService) Review(ctx context.Context, input core.ReviewInput) (*core.ReviewResult, error) {
	if !s.configured {
		return nil, core.ErrProviderUnavailable
	}
	if input.Language == "" {
		input.Language = defaultReviewLanguage
	}

	key := reviewCacheKey(s.model, input.Language, input.Code)
	if s.cache != nil {
		if cached, err := s.cache.Get(key); err == nil {
			var result core.ReviewResult
			if err := json.Unmarshal(cached, &result); err == nil {
				return &result, nil
			}
		}
	}

	prompt := fmt.Sprintf("Please review this %s code:\n\n```%s\n%s\n```", input.Language, input.Language, input.Code)

	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(reviewSystemPrompt),
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(800),
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		s.logger.WithError(err).Error("completion API call failed")
		return nil, core.ErrProviderUnavailable
	}
	if len(completion.Choices) == 0 {
		return nil, core.ErrProviderUnavailable
	}

	result := &core.ReviewResult{
		Review:   completion.Choices[0].Message.Content,
		Language: input.Language,
		Model:    s.model,
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(result); err == nil {
			_ = s.cache.Set(key, encoded)
		}
	}

	return result, nil
}

func reviewCacheKey(model, language, code string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + language + "\x00" + code))
	return "review:" + hex.EncodeToString(sum[:])
}
