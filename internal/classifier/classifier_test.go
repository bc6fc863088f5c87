package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"socialsaver/internal/domain"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name         string
		output       string
		wantCategory domain.Category
		wantSummary  string
	}{
		{
			name:         "well formed",
			output:       "Category: Fitness\nSummary: A 20 minute kettlebell routine.",
			wantCategory: domain.CategoryFitness,
			wantSummary:  "A 20 minute kettlebell routine.",
		},
		{
			name:         "labels are case insensitive",
			output:       "CATEGORY: coding\nsummary:  Goroutines explained. ",
			wantCategory: domain.CategoryCoding,
			wantSummary:  "Goroutines explained.",
		},
		{
			name:         "last line wins",
			output:       "Category: Food\nSummary: first\nCategory: Travel\nSummary: second",
			wantCategory: domain.CategoryTravel,
			wantSummary:  "second",
		},
		{
			name:         "missing summary uses last non-blank line",
			output:       "Category: Coding\nThis post walks through a Rust borrow checker bug.\n\n",
			wantCategory: domain.CategoryCoding,
			wantSummary:  "This post walks through a Rust borrow checker bug.",
		},
		{
			name:         "fuzzy category",
			output:       "Category: Home fitness and gym\nSummary: Leg day.",
			wantCategory: domain.CategoryFitness,
			wantSummary:  "Leg day.",
		},
		{
			name:         "unknown category",
			output:       "Category: Astrology\nSummary: Stars.",
			wantCategory: domain.CategoryOther,
			wantSummary:  "Stars.",
		},
		{
			name:         "value keeps inner colons",
			output:       "Category: Coding\nSummary: Go 1.25: what changed",
			wantCategory: domain.CategoryCoding,
			wantSummary:  "Go 1.25: what changed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, summary := ParseResponse(tt.output)
			assert.Equal(t, tt.wantCategory, category)
			assert.Equal(t, tt.wantSummary, summary)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Best ramen in Tokyo")

	assert.Contains(t, prompt, "Best ramen in Tokyo")
	assert.Contains(t, prompt, "Fitness, Coding, Food, Travel, Design, Business, Education, Entertainment, Health, Productivity, Other")
	assert.Contains(t, prompt, "Category: <category>\nSummary: <summary>")
}
