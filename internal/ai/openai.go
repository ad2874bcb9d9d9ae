package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"plex-newsletter/internal/document"

	openai "github.com/sashabaranov/go-openai"
)

// Writer drafts the prose an operator would otherwise type by hand.
type Writer interface {
	// DescribeEntry writes a short blurb for a movie, show or album.
	DescribeEntry(ctx context.Context, kind document.Kind, title, year, language string) (string, error)
	// WriteIntroduction writes an opening paragraph for the newsletter.
	WriteIntroduction(ctx context.Context, n document.Newsletter, language string) (string, error)
}

// OpenAIClient implements Writer using the Chat Completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string // optional
}

func NewOpenAI(cfg Config) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key is not configured")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("openai model must be specified")
	}
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cc), model: cfg.Model}, nil
}

var kindNames = map[document.Kind]string{
	document.KindMovies:  "movie",
	document.KindTVShows: "TV show",
	document.KindMusic:   "music album",
}

func (o *OpenAIClient) DescribeEntry(ctx context.Context, kind document.Kind, title, year, language string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	what, ok := kindNames[kind]
	if !ok {
		return "", fmt.Errorf("no description for %q sections", kind)
	}
	sys := fmt.Sprintf(`
		You write blurbs for a home media server newsletter, in %s.
		Return 1-2 sentences (at most 40 words), no spoilers, no markup, no quotes around the text.
		If you do not know the title, describe it from its name without inventing facts.
		`, langOrDefault(language))
	user := fmt.Sprintf("A %s: %s", what, title)
	if strings.TrimSpace(year) != "" {
		user += fmt.Sprintf(" (%s)", year)
	}
	out, err := o.create(ctx, sys, user)
	if err != nil {
		slog.Error("openai: describe entry error", "title", title, "err", err)
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (o *OpenAIClient) WriteIntroduction(ctx context.Context, n document.Newsletter, language string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()
	b := &strings.Builder{}
	for _, s := range n.Sections {
		if !s.Kind.IsMedia() {
			continue
		}
		for i, it := range s.Items {
			if i >= 10 {
				break
			}
			fmt.Fprintf(b, "- [%s] %s\n", s.Title, it.Title)
		}
	}
	if b.Len() == 0 {
		return "", nil
	}
	sys := fmt.Sprintf(`
		You write the opening paragraph of a friendly newsletter sent to the users of a private media server, in %s.
		Return 2-4 sentences (40-120 words), plain text, warm and light, no links, no lists.
		`, langOrDefault(language))
	user := fmt.Sprintf("Newsletter title: %s\nNew this time (section and title):\n%s\nTask: Write the introduction only.", n.Title, b.String())
	out, err := o.create(ctx, sys, user)
	if err != nil {
		slog.Error("openai: write introduction error", "err", err)
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (o *OpenAIClient) create(ctx context.Context, system, user string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.6,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func langOrDefault(lang string) string {
	l := strings.TrimSpace(lang)
	if l == "" {
		return "English"
	}
	return l
}
