package telephony

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/acme/interview-callback/internal/config"
)

// AssistantTemplate renders the static assistant descriptor for a caller.
type AssistantTemplate struct {
	name  string
	first *template.Template
	voice Voice
	model Model
}

// NewAssistantTemplate parses the greeting template from configuration.
func NewAssistantTemplate(cfg config.AssistantConfig) (*AssistantTemplate, error) {
	tmpl, err := template.New("first_message").Option("missingkey=zero").Parse(cfg.FirstMessageTemplate)
	if err != nil {
		return nil, fmt.Errorf("assistant: parse first message: %w", err)
	}
	return &AssistantTemplate{
		name:  cfg.Name,
		first: tmpl,
		voice: Voice{Provider: cfg.VoiceProvider, VoiceID: cfg.VoiceID},
		model: Model{Provider: cfg.ModelProvider, Model: cfg.Model},
	}, nil
}

// Render interpolates the user name and position into the greeting.
func (t *AssistantTemplate) Render(userName, position string) (Assistant, error) {
	var b strings.Builder
	data := struct {
		UserName string
		Position string
	}{UserName: userName, Position: position}
	if err := t.first.Execute(&b, data); err != nil {
		return Assistant{}, fmt.Errorf("assistant: render first message: %w", err)
	}
	return Assistant{
		Name:         t.name,
		FirstMessage: b.String(),
		Voice:        t.voice,
		Model:        t.model,
	}, nil
}
