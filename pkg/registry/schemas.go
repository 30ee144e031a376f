package registry

import (
	"fmt"
	"strings"

	"github.com/gestia/automate/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// actionSchemas declares the JSON Schema for each action kind's
// parameters. Rule create and update validate against these before a
// rule is accepted; dispatch trusts validated parameters.
var actionSchemas = map[models.ActionKind]map[string]any{
	models.ActionAssignTask: {
		"type": "object",
		"properties": map[string]any{
			"assignee": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"assignee"},
	},
	models.ActionChangeStatus: {
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"status"},
	},
	models.ActionAddTag: {
		"type": "object",
		"properties": map[string]any{
			"tag": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"tag"},
	},
	models.ActionRemoveTag: {
		"type": "object",
		"properties": map[string]any{
			"tag": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"tag"},
	},
	models.ActionSetPriority: {
		"type": "object",
		"properties": map[string]any{
			"priority": map[string]any{
				"type": "string",
				"enum": []string{"low", "medium", "high", "urgent"},
			},
		},
		"required": []string{"priority"},
	},
	models.ActionSetDueDate: {
		"type": "object",
		"properties": map[string]any{
			"due_date": map[string]any{"type": "string", "format": "date-time"},
		},
		"required": []string{"due_date"},
	},
	models.ActionSendNotification: {
		"type": "object",
		"properties": map[string]any{
			"message":   map[string]any{"type": "string", "minLength": 1},
			"recipient": map[string]any{"type": "string"},
		},
		"required": []string{"message"},
	},
	models.ActionCreateSubtask: {
		"type": "object",
		"properties": map[string]any{
			"title":    map[string]any{"type": "string", "minLength": 1},
			"assignee": map[string]any{"type": "string"},
		},
		"required": []string{"title"},
	},
	models.ActionAddComment: {
		"type": "object",
		"properties": map[string]any{
			"comment": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"comment"},
	},
}

// ValidateAction checks an action's parameters against the schema for
// its kind. Unknown kinds are rejected.
func ValidateAction(action models.Action) error {
	schema, ok := actionSchemas[action.Type]
	if !ok {
		return fmt.Errorf("unknown action kind '%s'", action.Type)
	}

	parameters := action.Parameters
	if parameters == nil {
		parameters = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(parameters)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return fmt.Errorf("invalid parameters for action '%s': %s", action.Type, strings.Join(descriptions, "; "))
	}

	return nil
}
