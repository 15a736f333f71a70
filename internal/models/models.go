// Package models loads the backend's model catalog and picks the model used
// for new jobs.
package models

import (
	"context"
	"fmt"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/schema"
	"github.com/jackzampolin/bookwatch/internal/status"
	"github.com/jackzampolin/bookwatch/internal/types"
	"github.com/jackzampolin/bookwatch/internal/view"
)

// Fallback is selected when the configured model is not offered.
const Fallback = "models/gemini-1.5-flash"

// Load fetches GET /api/models.
func Load(ctx context.Context, client *api.Client) ([]types.ModelInfo, error) {
	raw, err := client.GetText(ctx, "/api/models")
	if err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}
	var models []types.ModelInfo
	if err := schema.Decode(schema.Models, []byte(raw), &models); err != nil {
		return nil, err
	}
	return models, nil
}

// Select picks preferred if offered, then Fallback, then the first model.
// It returns false only for an empty catalog.
func Select(models []types.ModelInfo, preferred string) (types.ModelInfo, bool) {
	if len(models) == 0 {
		return types.ModelInfo{}, false
	}
	for _, name := range []string{preferred, Fallback} {
		if name == "" {
			continue
		}
		for _, m := range models {
			if m.Name == name {
				return m, true
			}
		}
	}
	return models[0], true
}

// Option is one entry of a model picker.
type Option struct {
	Name     string `json:"name" yaml:"name"`
	Label    string `json:"label" yaml:"label"`
	Hint     string `json:"hint,omitempty" yaml:"hint,omitempty"`
	Selected bool   `json:"selected" yaml:"selected"`
}

// Options builds picker entries with the Select result marked.
func Options(models []types.ModelInfo, preferred string) []Option {
	selected, _ := Select(models, preferred)
	opts := make([]Option, 0, len(models))
	for _, m := range models {
		opts = append(opts, Option{
			Name:     m.Name,
			Label:    Label(m),
			Hint:     view.TokenLimits(m.InputTokenLimit, m.OutputTokenLimit),
			Selected: m.Name == selected.Name,
		})
	}
	return opts
}

// Label renders "Display Name (short-name)", or the short name alone.
func Label(m types.ModelInfo) string {
	short := status.ShortModelName(m.Name)
	if m.DisplayName == "" {
		return short
	}
	return fmt.Sprintf("%s (%s)", m.DisplayName, short)
}
