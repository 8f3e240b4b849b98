package services

import (
	"testing"
)

func TestIsValidType(t *testing.T) {
	for _, typ := range questionTypeOrder {
		if !IsValidType(string(typ)) {
			t.Fatalf("IsValidType(%q) = false, want true", typ)
		}
	}
	if IsValidType("essay") {
		t.Fatalf("IsValidType(essay) = true, want false")
	}
	if IsValidType("") {
		t.Fatalf("IsValidType(\"\") = true, want false")
	}
}

func TestDefaultConfigPerType(t *testing.T) {
	cfg := DefaultConfig(QuestionOpenText)
	if cfg.CharacterLimit == nil || *cfg.CharacterLimit != 500 {
		t.Fatalf("open_text default character limit = %v, want 500", cfg.CharacterLimit)
	}

	cfg = DefaultConfig(QuestionMultipleChoice)
	if len(cfg.Options) != 2 || cfg.Options[0] != "Option 1" || cfg.Options[1] != "Option 2" {
		t.Fatalf("multiple_choice default options = %v", cfg.Options)
	}
	if cfg.AllowMultipleSelection {
		t.Fatalf("multiple_choice should default to single selection")
	}

	cfg = DefaultConfig(QuestionCheckboxSet)
	if cfg.MinSelections == nil || *cfg.MinSelections != 1 {
		t.Fatalf("checkbox_set default min selections = %v, want 1", cfg.MinSelections)
	}

	cfg = DefaultConfig(QuestionLikertScale)
	if cfg.ScalePoints != 5 {
		t.Fatalf("likert default points = %d, want 5", cfg.ScalePoints)
	}
	if cfg.MinLabel != "Strongly disagree" || cfg.MaxLabel != "Strongly agree" {
		t.Fatalf("likert default labels = %q / %q", cfg.MinLabel, cfg.MaxLabel)
	}
	if !cfg.ShowNumbers {
		t.Fatalf("likert should show numbers by default")
	}

	cfg = DefaultConfig(QuestionTrueFalse)
	if cfg.Options != nil || cfg.CharacterLimit != nil {
		t.Fatalf("true_false default config should be empty, got %+v", cfg)
	}
}

func TestDefaultConfigReturnsFreshCopies(t *testing.T) {
	a := DefaultConfig(QuestionMultipleChoice)
	a.Options[0] = "mutated"
	b := DefaultConfig(QuestionMultipleChoice)
	if b.Options[0] != "Option 1" {
		t.Fatalf("default config shares option slice across calls")
	}

	c := DefaultConfig(QuestionCheckboxSet)
	*c.MinSelections = 9
	d := DefaultConfig(QuestionCheckboxSet)
	if *d.MinSelections != 1 {
		t.Fatalf("default config shares min selections pointer across calls")
	}
}

func TestQuestionTypeCatalogOrderAndLabels(t *testing.T) {
	catalog := QuestionTypeCatalog()
	if len(catalog) != 7 {
		t.Fatalf("catalog len = %d, want 7", len(catalog))
	}
	if catalog[0].Type != QuestionOpenText || catalog[6].Type != QuestionLikertScale {
		t.Fatalf("catalog order = %v", catalog)
	}
	for _, info := range catalog {
		if info.Label == "" {
			t.Fatalf("type %q has no label", info.Type)
		}
	}
	if catalog[4].Label != "Checkboxes" {
		t.Fatalf("checkbox label = %q", catalog[4].Label)
	}
}

func TestConfigFieldsDrivesEditor(t *testing.T) {
	fields := ConfigFields(QuestionDropdownSelect)
	if len(fields) != 2 || fields[0] != "options" || fields[1] != "default_option" {
		t.Fatalf("dropdown fields = %v", fields)
	}
	fields[0] = "mutated"
	if ConfigFields(QuestionDropdownSelect)[0] != "options" {
		t.Fatalf("ConfigFields exposes the internal slice")
	}
}
