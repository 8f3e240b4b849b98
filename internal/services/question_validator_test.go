package services

import (
	"strings"
	"testing"
)

func hasError(v QuestionValidation, substr string) bool {
	for _, e := range v.Errors {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidateOpenText(t *testing.T) {
	q := Question{Type: QuestionOpenText, Config: QuestionConfig{CharacterLimit: intp(500)}}
	if v := ValidateQuestion(q); !v.Valid {
		t.Fatalf("default open_text should be valid, got %v", v.Errors)
	}

	q.Config.CharacterLimit = intp(0)
	if v := ValidateQuestion(q); v.Valid || !hasError(v, "character limit must be greater than 0") {
		t.Fatalf("zero character limit accepted: %v", v.Errors)
	}

	q.Config = QuestionConfig{CharacterLimit: intp(10), MinLength: intp(20)}
	v := ValidateQuestion(q)
	if v.Valid || !hasError(v, "minimum length cannot exceed the character limit") {
		t.Fatalf("min > limit accepted: %v", v.Errors)
	}

	q.Config = QuestionConfig{MinLength: intp(-1)}
	if v := ValidateQuestion(q); v.Valid || !hasError(v, "minimum length cannot be negative") {
		t.Fatalf("negative min length accepted: %v", v.Errors)
	}
}

func TestValidateChoiceOptions(t *testing.T) {
	q := Question{Type: QuestionMultipleChoice, Config: QuestionConfig{Options: []string{"only one"}}}
	v := ValidateQuestion(q)
	if v.Valid || !hasError(v, "at least 2 options") {
		t.Fatalf("single option accepted: %v", v.Errors)
	}
	// too few options short-circuits the remaining option checks
	if len(v.Errors) != 1 {
		t.Fatalf("errors = %v, want only the count error", v.Errors)
	}

	q.Config.Options = []string{"a", "  ", "a"}
	v = ValidateQuestion(q)
	if !hasError(v, "options cannot be empty") || !hasError(v, "options cannot be duplicated") {
		t.Fatalf("blank+duplicate options not both reported: %v", v.Errors)
	}
}

func TestValidateOptionCountCaps(t *testing.T) {
	many := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = "op" + strings.Repeat("t", i+1)
		}
		return out
	}

	// radio groups cap at 10
	q := Question{Type: QuestionRadioGroup, Config: QuestionConfig{Options: many(11)}}
	if v := ValidateQuestion(q); v.Valid || !hasError(v, "more than 10 options") {
		t.Fatalf("11 radio options accepted: %v", v.Errors)
	}

	// dropdowns tolerate up to 15
	q = Question{Type: QuestionDropdownSelect, Config: QuestionConfig{Options: many(15)}}
	if v := ValidateQuestion(q); !v.Valid {
		t.Fatalf("15 dropdown options rejected: %v", v.Errors)
	}
	q.Config.Options = many(16)
	if v := ValidateQuestion(q); v.Valid || !hasError(v, "more than 15 options") {
		t.Fatalf("16 dropdown options accepted: %v", v.Errors)
	}
}

func TestValidateCheckboxSelectionBounds(t *testing.T) {
	base := QuestionConfig{Options: []string{"a", "b", "c"}}

	cfg := base
	cfg.MinSelections = intp(2)
	cfg.MaxSelections = intp(1)
	v := ValidateQuestion(Question{Type: QuestionCheckboxSet, Config: cfg})
	if v.Valid || !hasError(v, "minimum selections cannot exceed maximum selections") {
		t.Fatalf("min > max accepted: %v", v.Errors)
	}

	cfg = base
	cfg.MaxSelections = intp(5)
	v = ValidateQuestion(Question{Type: QuestionCheckboxSet, Config: cfg})
	if v.Valid || !hasError(v, "maximum selections cannot exceed the number of options") {
		t.Fatalf("max > option count accepted: %v", v.Errors)
	}

	cfg = base
	cfg.MinSelections = intp(-1)
	cfg.MaxSelections = intp(0)
	v = ValidateQuestion(Question{Type: QuestionCheckboxSet, Config: cfg})
	if !hasError(v, "minimum selections cannot be negative") || !hasError(v, "maximum selections must be greater than 0") {
		t.Fatalf("negative/zero bounds not both reported: %v", v.Errors)
	}

	cfg = base
	cfg.MinSelections = intp(1)
	cfg.MaxSelections = intp(3)
	if v := ValidateQuestion(Question{Type: QuestionCheckboxSet, Config: cfg}); !v.Valid {
		t.Fatalf("well-formed checkbox rejected: %v", v.Errors)
	}
}

func TestValidateLikertScalePoints(t *testing.T) {
	q := Question{Type: QuestionLikertScale, Config: QuestionConfig{ScalePoints: 2}}
	if v := ValidateQuestion(q); v.Valid || !hasError(v, "at least 3 points") {
		t.Fatalf("2-point scale accepted: %v", v.Errors)
	}

	q.Config.ScalePoints = 12
	if v := ValidateQuestion(q); v.Valid || !hasError(v, "more than 10 points") {
		t.Fatalf("12-point scale accepted: %v", v.Errors)
	}

	for _, points := range []int{3, 5, 7, 10} {
		q.Config.ScalePoints = points
		if v := ValidateQuestion(q); !v.Valid {
			t.Fatalf("%d-point scale rejected: %v", points, v.Errors)
		}
	}
}

func TestValidateTrueFalseAndUnknownType(t *testing.T) {
	if v := ValidateQuestion(Question{Type: QuestionTrueFalse}); !v.Valid {
		t.Fatalf("true_false rejected: %v", v.Errors)
	}
	v := ValidateQuestion(Question{Type: "essay"})
	if v.Valid || !hasError(v, "invalid question type") {
		t.Fatalf("unknown type accepted: %v", v.Errors)
	}
}
