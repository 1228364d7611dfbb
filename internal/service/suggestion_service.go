package service

import (
	"regexp"
	"strings"

	"quickchat/internal/models"
)

// maxSuggestions caps how many templates are offered for a query.
const maxSuggestions = 5

// DefaultPromptTemplates are the built-in suggestions.
var DefaultPromptTemplates = []models.PromptTemplate{
	{
		ID:       "explain-code",
		Title:    "Explain this code",
		Prompt:   "Explain what the following code does, step by step:",
		Kind:     "text",
		Keywords: []string{"code", "explain", "function", "bug"},
		Pattern:  `(?i)\b(func|def|class|const|let|var)\b`,
	},
	{
		ID:       "summarize",
		Title:    "Summarize text",
		Prompt:   "Summarize the following text in five bullet points:",
		Kind:     "text",
		Keywords: []string{"summary", "summarize", "tldr", "shorten"},
	},
	{
		ID:       "email",
		Title:    "Draft an email",
		Prompt:   "Write a short, friendly email about:",
		Kind:     "text",
		Keywords: []string{"email", "mail", "reply", "letter"},
	},
	{
		ID:       "translate",
		Title:    "Translate",
		Prompt:   "Translate the following into English and keep the tone:",
		Kind:     "text",
		Keywords: []string{"translate", "translation", "language"},
	},
	{
		ID:       "brainstorm",
		Title:    "Brainstorm ideas",
		Prompt:   "Give me ten creative ideas for:",
		Kind:     "text",
		Keywords: []string{"idea", "ideas", "brainstorm", "name"},
	},
	{
		ID:       "image-portrait",
		Title:    "Portrait photo",
		Prompt:   "A studio portrait photo, soft lighting, 85mm lens, of",
		Kind:     "image",
		Keywords: []string{"portrait", "photo", "person", "face"},
	},
	{
		ID:       "image-landscape",
		Title:    "Landscape painting",
		Prompt:   "A wide landscape painting at golden hour, oil on canvas, of",
		Kind:     "image",
		Keywords: []string{"landscape", "painting", "mountain", "sunset"},
		Pattern:  `(?i)\b(draw|paint|picture|image)\b`,
	},
}

type compiledTemplate struct {
	template models.PromptTemplate
	pattern  *regexp.Regexp
}

// SuggestionService matches typed text against prompt templates.
type SuggestionService struct {
	templates []compiledTemplate
}

// NewSuggestionService compiles the template patterns. Templates with an
// invalid pattern fall back to keyword matching only.
func NewSuggestionService(templates []models.PromptTemplate) *SuggestionService {
	compiled := make([]compiledTemplate, 0, len(templates))
	for _, t := range templates {
		ct := compiledTemplate{template: t}
		if t.Pattern != "" {
			if re, err := regexp.Compile(t.Pattern); err == nil {
				ct.pattern = re
			}
		}
		compiled = append(compiled, ct)
	}
	return &SuggestionService{templates: compiled}
}

// Suggest returns templates relevant to query. An empty query returns all.
func (s *SuggestionService) Suggest(query string) []models.PromptTemplate {
	query = strings.TrimSpace(query)

	out := make([]models.PromptTemplate, 0, len(s.templates))
	if query == "" {
		for _, ct := range s.templates {
			out = append(out, ct.template)
		}
		return out
	}

	lowered := strings.ToLower(query)
	for _, ct := range s.templates {
		if ct.matches(query, lowered) {
			out = append(out, ct.template)
			if len(out) == maxSuggestions {
				break
			}
		}
	}
	return out
}

func (ct compiledTemplate) matches(query, lowered string) bool {
	if strings.Contains(strings.ToLower(ct.template.Title), lowered) {
		return true
	}
	for _, kw := range ct.template.Keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return ct.pattern != nil && ct.pattern.MatchString(query)
}
