package services

// questionTypeSpec describes one supported question type: its editor label,
// the config fields that are meaningful for it, and a factory for the config
// applied whenever a question is switched to the type.
type questionTypeSpec struct {
	Label   string
	Fields  []string
	Default func() QuestionConfig
}

func intp(v int) *int { return &v }

// questionTypes is the static type catalog. It is built once and only read
// afterwards; Default always returns a fresh value so callers cannot alias
// the table.
var questionTypes = map[QuestionType]questionTypeSpec{
	QuestionOpenText: {
		Label:  "Open text",
		Fields: []string{"character_limit", "min_length"},
		Default: func() QuestionConfig {
			return QuestionConfig{CharacterLimit: intp(500)}
		},
	},
	QuestionMultipleChoice: {
		Label:  "Multiple choice",
		Fields: []string{"options", "allow_multiple_selection", "allow_other_option", "default_option"},
		Default: func() QuestionConfig {
			return QuestionConfig{Options: []string{"Option 1", "Option 2"}, AllowMultipleSelection: false}
		},
	},
	QuestionTrueFalse: {
		Label:   "True / false",
		Fields:  []string{"true_label", "false_label"},
		Default: func() QuestionConfig { return QuestionConfig{} },
	},
	QuestionDropdownSelect: {
		Label:  "Dropdown list",
		Fields: []string{"options", "default_option"},
		Default: func() QuestionConfig {
			return QuestionConfig{Options: []string{"Option 1", "Option 2"}}
		},
	},
	QuestionCheckboxSet: {
		Label:  "Checkboxes",
		Fields: []string{"options", "min_selections", "max_selections"},
		Default: func() QuestionConfig {
			return QuestionConfig{Options: []string{"Option 1", "Option 2"}, MinSelections: intp(1)}
		},
	},
	QuestionRadioGroup: {
		Label:  "Radio group",
		Fields: []string{"options", "allow_other_option"},
		Default: func() QuestionConfig {
			return QuestionConfig{Options: []string{"Option 1", "Option 2"}}
		},
	},
	QuestionLikertScale: {
		Label:  "Likert scale",
		Fields: []string{"scale_points", "min_label", "max_label", "show_numbers"},
		Default: func() QuestionConfig {
			return QuestionConfig{
				ScalePoints: 5,
				MinLabel:    "Strongly disagree",
				MaxLabel:    "Strongly agree",
				ShowNumbers: true,
			}
		},
	},
}

// questionTypeOrder fixes the catalog order for UI listings.
var questionTypeOrder = []QuestionType{
	QuestionOpenText,
	QuestionMultipleChoice,
	QuestionTrueFalse,
	QuestionDropdownSelect,
	QuestionCheckboxSet,
	QuestionRadioGroup,
	QuestionLikertScale,
}

func IsValidType(candidate string) bool {
	_, ok := questionTypes[QuestionType(candidate)]
	return ok
}

// DefaultConfig returns the config a question receives when switched to the
// given type. The previous config is always discarded wholesale; no field
// migration between types.
func DefaultConfig(t QuestionType) QuestionConfig {
	spec, ok := questionTypes[t]
	if !ok {
		return QuestionConfig{}
	}
	return spec.Default()
}

func TypeLabel(t QuestionType) string {
	return questionTypes[t].Label
}

// ConfigFields lists the config fields relevant to the type, driving both
// the editor UI and the validator.
func ConfigFields(t QuestionType) []string {
	return append([]string(nil), questionTypes[t].Fields...)
}

type QuestionTypeInfo struct {
	Type   QuestionType   `json:"type"`
	Label  string         `json:"label"`
	Fields []string       `json:"fields"`
	Config QuestionConfig `json:"default_config"`
}

// QuestionTypeCatalog returns the full catalog in stable order.
func QuestionTypeCatalog() []QuestionTypeInfo {
	out := make([]QuestionTypeInfo, 0, len(questionTypeOrder))
	for _, t := range questionTypeOrder {
		spec := questionTypes[t]
		out = append(out, QuestionTypeInfo{Type: t, Label: spec.Label, Fields: append([]string(nil), spec.Fields...), Config: spec.Default()})
	}
	return out
}

// DefaultQuestionType is the type newly added questions start with.
func DefaultQuestionType() QuestionType { return QuestionOpenText }
