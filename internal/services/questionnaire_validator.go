package services

import (
	"fmt"
	"strings"
)

const (
	maxTitleLength       = 100
	maxDescriptionLength = 500
	maxQuestionText      = 500
	maxQuestions         = 50
)

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

// ValidateQuestionnaire runs every structural check over the whole draft and
// reports all failures at once: general problems in GeneralErrors, question
// problems keyed by question id. Stateless; the caller decides when to run it.
func ValidateQuestionnaire(draft *Questionnaire) QuestionnaireValidation {
	var general []string
	questionErrs := map[string][]string{}

	if isBlank(draft.Title) {
		general = append(general, "title is required")
	} else if len(draft.Title) > maxTitleLength {
		general = append(general, fmt.Sprintf("title cannot exceed %d characters", maxTitleLength))
	}

	if isBlank(draft.Description) {
		general = append(general, "description is required")
	} else if len(draft.Description) > maxDescriptionLength {
		general = append(general, fmt.Sprintf("description cannot exceed %d characters", maxDescriptionLength))
	}

	if len(draft.Questions) == 0 {
		general = append(general, "add at least one question")
	} else if len(draft.Questions) > maxQuestions {
		general = append(general, fmt.Sprintf("cannot exceed %d questions per questionnaire", maxQuestions))
	}

	for _, q := range draft.Questions {
		var errs []string
		if isBlank(q.Text) {
			errs = append(errs, "question text is required")
		} else if len(q.Text) > maxQuestionText {
			errs = append(errs, fmt.Sprintf("question text cannot exceed %d characters", maxQuestionText))
		}
		if q.Order < 1 {
			errs = append(errs, "question order must be greater than 0")
		}
		errs = append(errs, ValidateQuestion(q).Errors...)
		if len(errs) > 0 {
			questionErrs[q.ID] = errs
		}
	}

	if hasDuplicateOrders(draft.Questions) {
		general = append(general, "question orders must be unique")
	}

	if len(draft.AssignedUserTypes) == 0 {
		general = append(general, "assign the questionnaire to at least one user type")
	} else if unknown := unknownUserTypes(draft.AssignedUserTypes); len(unknown) > 0 {
		general = append(general, "invalid user types: "+strings.Join(unknown, ", "))
	}

	if draft.StartDate != nil && draft.EndDate != nil && !draft.StartDate.Before(*draft.EndDate) {
		general = append(general, "start date must be before end date")
	}

	return QuestionnaireValidation{
		Valid:          len(general) == 0 && len(questionErrs) == 0,
		GeneralErrors:  general,
		QuestionErrors: questionErrs,
	}
}

func hasDuplicateOrders(qs []Question) bool {
	seen := make(map[int]struct{}, len(qs))
	for _, q := range qs {
		if _, ok := seen[q.Order]; ok {
			return true
		}
		seen[q.Order] = struct{}{}
	}
	return false
}

func IsValidUserType(candidate string) bool {
	switch UserType(candidate) {
	case UserTypeStudent, UserTypeFaculty, UserTypeStaff:
		return true
	}
	return false
}

func unknownUserTypes(types []UserType) []string {
	var out []string
	for _, t := range types {
		if !IsValidUserType(string(t)) {
			out = append(out, string(t))
		}
	}
	return out
}
