package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/taskhub/internal/constants"
	"github.com/yukikurage/taskhub/internal/models"
)

type AIService struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

// GeneratedTask is a task proposed by the model; it is not stored until a member creates it.
type GeneratedTask struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
}

// DueDateValue formats the due date for the create form.
func (t GeneratedTask) DueDateValue() string {
	if t.DueDate == nil {
		return ""
	}
	return t.DueDate.Format(constants.DateLayout)
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
		now:    time.Now,
	}
}

// GenerateTasksFromText analyzes text and extracts tasks using OpenAI GPT
func (s *AIService) GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	currentTime := s.now().Format("2006-01-02 15:04:05")
	prompt := fmt.Sprintf(`You are a task extraction assistant. Extract concrete, actionable tasks from the text below.

Current time: %s

Text:
%s

Return a JSON array of at most %d tasks in this format:
[
  {
    "title": "short task title",
    "description": "details of the task",
    "priority": "low, medium or high",
    "due_date": "deadline in ISO8601, e.g. 2025-10-28T23:59:59Z, or null when none is stated"
  }
]

Rules:
- Return an empty array [] when the text contains no tasks
- Convert relative deadlines such as "tomorrow" or "next week" into concrete dates
- due_date must be an ISO8601 string or null
- Return JSON only, without any explanation`, currentTime, text, constants.MaxAIGeneratedTasks)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseGeneratedTasks(resp.Choices[0].Message.Content)
}

// parseGeneratedTasks decodes the model output, tolerating a markdown code fence around the JSON.
func parseGeneratedTasks(content string) ([]GeneratedTask, error) {
	body := strings.TrimSpace(content)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(body, "```")
		body = strings.TrimSpace(body)
	}

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(body), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}
