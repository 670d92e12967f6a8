package classify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sellerdesk/internal/model"

	"github.com/go-resty/resty/v2"
)

// Result итог классификации диалога
type Result struct {
	Tag        string   `json:"tag"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning,omitempty"`
	Triggers   []string `json:"triggers,omitempty"`
}

// Классификатор не меняет теги чатов, уже находящихся в воронке удаления:
// ими управляют переходы самой воронки.
func inDeletionWorkflow(tag *string) bool {
	if tag == nil {
		return false
	}
	for _, t := range model.DeletionWorkflowTags {
		if *tag == t {
			return true
		}
	}
	return false
}

// Classifier двухступенчатый классификатор диалогов: сначала быстрый
// regex-детектор, затем внешний AI сервис для сложных случаев.
// При пустом URL работает только regex-ступень.
type Classifier struct {
	client *resty.Client
	url    string
}

// New создает классификатор. Пустой url отключает внешнюю ступень.
func New(url string, timeoutSec int) *Classifier {
	if timeoutSec <= 0 {
		timeoutSec = 60
	}
	return &Classifier{
		client: resty.New().SetTimeout(time.Duration(timeoutSec) * time.Second),
		url:    url,
	}
}

type remoteRequest struct {
	ChatHistory     string `json:"chat_history"`
	LastMessageText string `json:"last_message_text"`
	ProductName     string `json:"product_name,omitempty"`
}

// Classify классифицирует диалог по его истории и последнему сообщению
// клиента. Чаты в воронке удаления не переклассифицируются.
func (c *Classifier) Classify(ctx context.Context, chat *model.Chat, chatHistory, lastMessageText string) (*Result, error) {
	if inDeletionWorkflow(chat.Tag) {
		return nil, nil
	}

	// Слишком короткая история не дает контекста ни regex, ни AI
	if len(chatHistory) < 10 {
		return &Result{Tag: model.TagUntagged, Confidence: 1.0, Reasoning: "история пуста"}, nil
	}

	// Ступень 1: regex-детектор
	analysis := DetectDeletionIntent(lastMessageText)

	if analysis.IsDeletionCandidate && analysis.Confidence >= 0.90 {
		return &Result{
			Tag:        model.TagDeletionCandidate,
			Confidence: analysis.Confidence,
			Reasoning:  "высокая уверенность regex-детектора",
			Triggers:   analysis.Triggers,
		}, nil
	}

	if analysis.IsSpam() {
		return &Result{
			Tag:        model.TagSpam,
			Confidence: 1.0,
			Reasoning:  "спам (сплошной капс)",
			Triggers:   analysis.Triggers,
		}, nil
	}

	// Ступень 2: внешний классификатор
	if c.url == "" {
		// Без AI возвращаем результат regex со сниженной уверенностью
		if analysis.IsDeletionCandidate {
			return &Result{
				Tag:        model.TagDeletionCandidate,
				Confidence: analysis.Confidence,
				Reasoning:  "только regex, AI не настроен",
				Triggers:   analysis.Triggers,
			}, nil
		}
		return &Result{Tag: model.TagActive, Confidence: 0.5, Reasoning: "AI не настроен"}, nil
	}

	var productName string
	if chat.ProductName != nil {
		productName = *chat.ProductName
	}

	var result Result
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(remoteRequest{
			ChatHistory:     chatHistory,
			LastMessageText: lastMessageText,
			ProductName:     productName,
		}).
		SetResult(&result).
		Post(c.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("классификатор ответил статусом %d", resp.StatusCode())
	}
	if result.Tag == "" {
		return nil, errors.New("классификатор вернул пустой тег")
	}

	return &result, nil
}
