// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/jeranaias/chatdeck/internal/config"
)

// SystemPrompt frames every model request.
const SystemPrompt = "You are a senior React developer. Generate high-quality React code based on user requests.\n" +
	"Use functional components, hooks, and modern best practices. If relevant, include helpful comments."

// Prompt is one user turn handed to a Responder.
type Prompt struct {
	Text     string
	ImageURL string
}

// Input renders the prompt as model input. Image prompts carry the URL so
// the model can reference the mockup.
func (p Prompt) Input() string {
	switch {
	case p.ImageURL != "" && p.Text != "":
		return p.Text + "\n\nUI mockup: " + p.ImageURL
	case p.ImageURL != "":
		return "Generate React code for this UI: " + p.ImageURL
	case p.Text != "":
		return p.Text
	default:
		return "Generate a React component"
	}
}

// Responder produces the assistant reply for a prompt.
type Responder interface {
	Reply(ctx context.Context, p Prompt) (string, error)
}

// NewResponder returns an OpenAI responder when an API key is configured
// and the canned responder otherwise.
func NewResponder(cfg config.OpenAIConfig) Responder {
	if cfg.APIKey == "" {
		return CannedResponder{}
	}
	return NewOpenAIResponder(cfg)
}

// =============================================================================
// CANNED REPLIES
// =============================================================================

var boilerplateKeywords = []string{
	"boilerplate",
	"starter",
	"template",
	"scaffold",
	"setup",
	"initial project",
	"project setup",
	"create project",
	"new project",
	"bootstrap",
	"kickstart",
	"foundation",
}

// IsBoilerplateRequest reports whether text asks for a project skeleton.
func IsBoilerplateRequest(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range boilerplateKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// BoilerplateReply points project-setup requests at the CLI generator.
const BoilerplateReply = "🚀 **For complete project setup, check out my CLI tool:**\n\n" +
	"```bash\nnpx @julseb-lib/julseb-cli\n```\n\n" +
	"This CLI provides ready-to-use project templates and boilerplates for React, Express, and more!\n\n" +
	"📦 **Package:** https://www.npmjs.com/package/@julseb-lib/julseb-cli"

// FallbackReply is sent when the responder fails.
const FallbackReply = "```tsx\n" +
	"import React from 'react';\n\n" +
	"const Button = () => {\n" +
	"    return (\n" +
	"        <button className=\"px-4 py-2 bg-blue-500 text-white rounded hover:bg-blue-600\">\n" +
	"            Click me\n" +
	"        </button>\n" +
	"    );\n" +
	"};\n\n" +
	"export default Button;\n" +
	"```"

// CannedResponder answers offline with a component skeleton named after
// the request.
type CannedResponder struct{}

func (CannedResponder) Reply(ctx context.Context, p Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := ComponentName(p.Text)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Here is a starting point for `%s`:\n\n", name)
	sb.WriteString("```tsx\nimport React from 'react';\n\n")
	fmt.Fprintf(&sb, "const %s = () => {\n", name)
	sb.WriteString("    return (\n")
	fmt.Fprintf(&sb, "        <div className=\"p-4\">\n            {/* %s */}\n        </div>\n", commentSafe(p.Input()))
	sb.WriteString("    );\n};\n\n")
	fmt.Fprintf(&sb, "export default %s;\n```", name)
	return sb.String(), nil
}

// ComponentName derives a PascalCase component name from the first words
// of text.
func ComponentName(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var sb strings.Builder
	for _, w := range words {
		if sb.Len() >= 24 {
			break
		}
		if len(w) < 3 {
			continue
		}
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		sb.WriteString(string(runes))
	}
	name := sb.String()
	if name == "" || !unicode.IsLetter([]rune(name)[0]) {
		return "Component"
	}
	return name
}

func commentSafe(s string) string {
	s = strings.ReplaceAll(s, "*/", "* /")
	return strings.Join(strings.Fields(s), " ")
}

// =============================================================================
// OPENAI
// =============================================================================

// OpenAIResponder asks a chat completion model for the reply.
type OpenAIResponder struct {
	client openai.Client
	model  string
	temp   float64
}

// NewOpenAIResponder creates a responder from cfg.
func NewOpenAIResponder(cfg config.OpenAIConfig) *OpenAIResponder {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIResponder{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		temp:   cfg.Temperature,
	}
}

func (o *OpenAIResponder) Reply(ctx context.Context, p Prompt) (string, error) {
	res, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(p.Input()),
		},
		Temperature: openai.Float(o.temp),
	})
	if err != nil {
		return "", fmt.Errorf("openai generation failed: %w", err)
	}
	if len(res.Choices) == 0 || strings.TrimSpace(res.Choices[0].Message.Content) == "" {
		return "", errors.New("openai returned an empty reply")
	}
	return res.Choices[0].Message.Content, nil
}
