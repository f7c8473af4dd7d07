package curriculum

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Provider は外部のテキスト生成APIです。
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyCompletion は生成APIが選択肢を1件も返さなかった場合のエラーです。
var ErrEmptyCompletion = errors.New("provider returned no choices")

// OpenAIProvider は OpenAI 互換の chat completions API（Groq など）を呼び出します。
// 連続失敗時はサーキットブレーカーで即座に失敗させます。
type OpenAIProvider struct {
	client *openai.Client
	model  string
	cb     *gobreaker.CircuitBreaker
}

// ProviderConfig は OpenAIProvider の設定です。
type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewOpenAIProvider は OpenAIProvider を作成します。
func NewOpenAIProvider(cfg ProviderConfig, log logrus.FieldLogger) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	st := gobreaker.Settings{
		Name:        "GenerationProvider",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},

		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		cb:     gobreaker.NewCircuitBreaker(st),
	}
}

// Complete はプロンプトを唯一のユーザーメッセージとして送り、最初の選択肢の本文をそのまま返します。
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := p.cb.Execute(func() (interface{}, error) {
		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, ErrEmptyCompletion
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}
