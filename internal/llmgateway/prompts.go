package llmgateway

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"text/template"
)

//go:embed prompts/system.prompt prompts/user.prompt prompts/schema.json
var promptFiles embed.FS

// promptContract is the embedded system prompt, user-prompt template, and JSON schema
// loaded once at construction, the way the teacher's PromptManager parses its embedded
// prompts/*.prompt files at startup rather than re-reading disk per request.
type promptContract struct {
	systemPrompt string
	userTemplate *template.Template
	schema       json.RawMessage
}

func loadPromptContract() (*promptContract, error) {
	systemBytes, err := promptFiles.ReadFile("prompts/system.prompt")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded system prompt: %w", err)
	}

	userBytes, err := promptFiles.ReadFile("prompts/user.prompt")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded user prompt: %w", err)
	}
	tmpl, err := template.New("user").Parse(string(userBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded user prompt template: %w", err)
	}

	schemaBytes, err := promptFiles.ReadFile("prompts/schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded response schema: %w", err)
	}
	if !json.Valid(schemaBytes) {
		return nil, fmt.Errorf("embedded response schema is not valid JSON")
	}

	return &promptContract{
		systemPrompt: string(systemBytes),
		userTemplate: tmpl,
		schema:       json.RawMessage(schemaBytes),
	}, nil
}

func (p *promptContract) renderUser(sections userPromptData) (string, error) {
	var buf bytes.Buffer
	if err := p.userTemplate.Execute(&buf, sections); err != nil {
		return "", fmt.Errorf("failed to render user prompt template: %w", err)
	}
	return buf.String(), nil
}

// userPromptData supplies the digest sections to the user-prompt template's {{.Field}}
// placeholders.
type userPromptData struct {
	RepositoryMetadata string
	LanguageStats      string
	DirectoryTree      string
	Readme             string
	Documentation      string
	BuildAndPackage    string
	Tests              string
	Code               string
}
