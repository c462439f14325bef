package telephony

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme/interview-callback/internal/config"
)

func TestAssistantTemplateRender(t *testing.T) {
	tmpl, err := NewAssistantTemplate(config.AssistantConfig{
		Name:                 "Interview Assistant",
		FirstMessageTemplate: "Hello {{.UserName}}! I'm your AI interviewer for the {{.Position}} position. Are you ready to begin the interview?",
		VoiceProvider:        "azure",
		VoiceID:              "andrew",
		ModelProvider:        "anthropic",
		Model:                "claude-3-opus-20240229",
	})
	require.NoError(t, err)

	assistant, err := tmpl.Render("Ada", "Backend Engineer")
	require.NoError(t, err)

	assert.Equal(t, "Interview Assistant", assistant.Name)
	assert.Equal(t, "Hello Ada! I'm your AI interviewer for the Backend Engineer position. Are you ready to begin the interview?", assistant.FirstMessage)
	assert.Equal(t, Voice{Provider: "azure", VoiceID: "andrew"}, assistant.Voice)
	assert.Equal(t, Model{Provider: "anthropic", Model: "claude-3-opus-20240229"}, assistant.Model)
}

func TestAssistantTemplateEmptyPosition(t *testing.T) {
	tmpl, err := NewAssistantTemplate(config.AssistantConfig{FirstMessageTemplate: "for the {{.Position}} position"})
	require.NoError(t, err)

	assistant, err := tmpl.Render("Ada", "")
	require.NoError(t, err)
	assert.Equal(t, "for the  position", assistant.FirstMessage)
}

func TestAssistantTemplateParseError(t *testing.T) {
	_, err := NewAssistantTemplate(config.AssistantConfig{FirstMessageTemplate: "{{.UserName"})
	require.Error(t, err)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Invalid number", UserMessage(&ProviderError{Message: "Invalid number"}))
	assert.Equal(t, FallbackErrorMessage, UserMessage(&ProviderError{}))
	assert.Equal(t, FallbackErrorMessage, UserMessage(errors.New("boom")))
}
