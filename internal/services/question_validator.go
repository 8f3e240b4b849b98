package services

// ValidateQuestion checks a question's config against its type's rules and
// collects every applicable error; it never stops at the first one. Pure
// function, no side effects.
func ValidateQuestion(q Question) QuestionValidation {
	var errs []string

	switch q.Type {
	case QuestionOpenText:
		cfg := q.Config
		if cfg.CharacterLimit != nil && *cfg.CharacterLimit < 1 {
			errs = append(errs, "character limit must be greater than 0")
		}
		if cfg.MinLength != nil && *cfg.MinLength < 0 {
			errs = append(errs, "minimum length cannot be negative")
		}
		if cfg.CharacterLimit != nil && cfg.MinLength != nil && *cfg.MinLength > *cfg.CharacterLimit {
			errs = append(errs, "minimum length cannot exceed the character limit")
		}

	case QuestionMultipleChoice, QuestionDropdownSelect, QuestionCheckboxSet, QuestionRadioGroup:
		errs = append(errs, validateOptions(q.Type, q.Config.Options)...)
		if q.Type == QuestionCheckboxSet {
			errs = append(errs, validateSelectionBounds(q.Config)...)
		}

	case QuestionLikertScale:
		points := q.Config.ScalePoints
		if points < 3 {
			errs = append(errs, "the scale must have at least 3 points")
		} else if points > 10 {
			errs = append(errs, "the scale cannot have more than 10 points")
		}

	case QuestionTrueFalse:
		// no additional checks

	default:
		errs = append(errs, "invalid question type")
	}

	return QuestionValidation{Valid: len(errs) == 0, Errors: errs}
}

func validateOptions(t QuestionType, options []string) []string {
	var errs []string
	if len(options) < 2 {
		errs = append(errs, "must have at least 2 options")
		return errs
	}
	empty := 0
	for _, op := range options {
		if isBlank(op) {
			empty++
		}
	}
	if empty > 0 {
		errs = append(errs, "options cannot be empty")
	}
	if hasDuplicates(options) {
		errs = append(errs, "options cannot be duplicated")
	}
	// Dropdown lists scroll, so they tolerate a few more entries.
	if t == QuestionDropdownSelect {
		if len(options) > 15 {
			errs = append(errs, "dropdown lists cannot have more than 15 options")
		}
	} else if len(options) > 10 {
		errs = append(errs, "cannot have more than 10 options")
	}
	return errs
}

func validateSelectionBounds(cfg QuestionConfig) []string {
	var errs []string
	if cfg.MinSelections != nil && *cfg.MinSelections < 0 {
		errs = append(errs, "minimum selections cannot be negative")
	}
	if cfg.MaxSelections != nil && *cfg.MaxSelections < 1 {
		errs = append(errs, "maximum selections must be greater than 0")
	}
	if cfg.MinSelections != nil && cfg.MaxSelections != nil && *cfg.MinSelections > *cfg.MaxSelections {
		errs = append(errs, "minimum selections cannot exceed maximum selections")
	}
	if cfg.MaxSelections != nil && len(cfg.Options) > 0 && *cfg.MaxSelections > len(cfg.Options) {
		errs = append(errs, "maximum selections cannot exceed the number of options")
	}
	return errs
}

func hasDuplicates(options []string) bool {
	seen := make(map[string]struct{}, len(options))
	for _, op := range options {
		if _, ok := seen[op]; ok {
			return true
		}
		seen[op] = struct{}{}
	}
	return false
}
