package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/convosol/docchat/internal/models"
)

const strictSystemPrompt = `You are an assistant that MUST ONLY use the provided CONTEXT to answer the user's question.
Do NOT hallucinate, do NOT use outside knowledge. If the answer cannot be found in the context, reply exactly:
"I don't know based on provided documents."

Be concise. After your answer include a short "Sources:" line listing filename(s) and chunk indices used, for example:
Sources: doc1.txt#2, doc2.txt#0`

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	SystemTemplate string
	BaseURL        string // Ollama server URL
}

// ChatEngine composes ranked chunks into a grounded prompt and generates
// an answer with an LLM.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

// NewChatEngine creates a new ChatEngine with the given configuration.
func NewChatEngine(config ChatConfig) (*ChatEngine, error) {
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 512
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = strictSystemPrompt
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	model, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &ChatEngine{
		config: config,
		llm:    model,
	}, nil
}

// Chat generates an answer to the question grounded in the ranked chunks.
func (ce *ChatEngine) Chat(ctx context.Context, question string, results []models.SearchResult) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, ce.config.SystemTemplate),
		llms.TextParts(llms.ChatMessageTypeHuman, BuildPrompt(question, results)),
	}

	response, err := ce.llm.GenerateContent(ctx, content,
		llms.WithMaxTokens(ce.config.MaxTokens),
		llms.WithTemperature(ce.config.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}
	return response.Choices[0].Content, nil
}

// ChatStream generates the answer as a stream of text fragments.
func (ce *ChatEngine) ChatStream(ctx context.Context, question string, results []models.SearchResult) (<-chan string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, ce.config.SystemTemplate),
		llms.TextParts(llms.ChatMessageTypeHuman, BuildPrompt(question, results)),
	}

	resultChan := make(chan string)

	go func() {
		defer close(resultChan)

		_, err := ce.llm.GenerateContent(ctx, content,
			llms.WithMaxTokens(ce.config.MaxTokens),
			llms.WithTemperature(ce.config.Temperature),
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				resultChan <- string(chunk)
				return nil
			}),
		)
		if err != nil {
			resultChan <- fmt.Sprintf("Error: %v", err)
		}
	}()

	return resultChan, nil
}

// BuildPrompt renders the ranked chunks as context blocks followed by the
// user's question. Chunk text is trimmed for display only; stored text is
// untouched.
func BuildPrompt(question string, results []models.SearchResult) string {
	var b strings.Builder
	b.WriteString("Provided context:\n")
	for _, res := range results {
		fmt.Fprintf(&b, "---\nFilename: %s\nChunk: %d\nText:\n%s\n---\n\n",
			res.Record.Filename, res.Record.ChunkIndex, strings.TrimSpace(res.Record.Text))
	}
	fmt.Fprintf(&b, "User question: %s\n\nIf you can answer, answer and include the Sources line.", question)
	return b.String()
}

// FormatSources lists the unique filename#chunk citations for the results.
func FormatSources(results []models.SearchResult) string {
	var sources []string
	seen := make(map[string]bool)

	for _, res := range results {
		citation := fmt.Sprintf("%s#%d", res.Record.Filename, res.Record.ChunkIndex)
		if !seen[citation] {
			sources = append(sources, citation)
			seen[citation] = true
		}
	}
	if len(sources) == 0 {
		return ""
	}
	return "Sources: " + strings.Join(sources, ", ")
}
