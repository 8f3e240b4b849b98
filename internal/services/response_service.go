package services

import (
	"fmt"
	"time"
)

type ResponseStore interface {
	GetQuestionnaire(id string) (*Questionnaire, error)
	InsertResponse(r *QuestionnaireResponse) (*QuestionnaireResponse, error)
	GetResponse(questionnaireID, userID string) (*QuestionnaireResponse, error)
	UpdateResponse(r *QuestionnaireResponse) error
	CountCompletedResponses(questionnaireID string) (int, error)
}

// ResponseService validates and records user answers to published
// questionnaires.
type ResponseService struct {
	store ResponseStore
	now   func() time.Time
	idGen func() string
}

func NewResponseService(store ResponseStore) *ResponseService {
	return &ResponseService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(12) },
	}
}

// ValidateAnswer checks one answer against its question. An empty answer is
// fine unless the question is required; beyond that the question type
// decides what a well-formed value looks like.
func ValidateAnswer(q Question, value any) (bool, string) {
	if isEmptyAnswer(value) {
		if q.Required {
			return false, "this question is required"
		}
		return true, ""
	}

	switch q.Type {
	case QuestionOpenText:
		text, ok := value.(string)
		if !ok {
			return false, "the answer must be text"
		}
		if q.Config.MinLength != nil && len(text) < *q.Config.MinLength {
			return false, fmt.Sprintf("at least %d characters", *q.Config.MinLength)
		}
		if q.Config.CharacterLimit != nil && len(text) > *q.Config.CharacterLimit {
			return false, fmt.Sprintf("at most %d characters", *q.Config.CharacterLimit)
		}

	case QuestionCheckboxSet:
		selected, ok := toStringSlice(value)
		if !ok {
			return false, "select at least one option"
		}
		if q.Config.MinSelections != nil && len(selected) < *q.Config.MinSelections {
			return false, fmt.Sprintf("select at least %d options", *q.Config.MinSelections)
		}
		if q.Config.MaxSelections != nil && len(selected) > *q.Config.MaxSelections {
			return false, fmt.Sprintf("cannot select more than %d options", *q.Config.MaxSelections)
		}

	case QuestionLikertScale:
		points := q.Config.ScalePoints
		if points == 0 {
			points = 5
		}
		v, ok := toInt(value)
		if !ok || v < 1 || v > points {
			return false, "invalid scale value"
		}

	case QuestionMultipleChoice, QuestionDropdownSelect, QuestionRadioGroup, QuestionTrueFalse:
		// any non-empty selection is accepted; option membership is the
		// rendering layer's concern since "other" entries are free text
	}

	return true, ""
}

// Submit records a completed response. Every answer must validate and every
// required question must be answered; the questionnaire has to be active and
// inside its availability window.
func (s *ResponseService) Submit(questionnaireID, userID string, answers []Answer) (*QuestionnaireResponse, error) {
	q, err := s.questionnaireOpenFor(questionnaireID)
	if err != nil {
		return nil, err
	}
	if existing, err := s.store.GetResponse(questionnaireID, userID); err != nil {
		return nil, err
	} else if existing != nil && existing.Status == ResponseCompleted {
		return nil, NewConflictError("questionnaire already answered")
	}

	byQuestion := map[string]Answer{}
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}
	for id := range byQuestion {
		if indexOfQuestion(q.Questions, id) < 0 {
			return nil, NewInvalidError("answer references an unknown question")
		}
	}
	answered := 0
	for _, question := range q.Questions {
		a, ok := byQuestion[question.ID]
		if !ok {
			if question.Required {
				return nil, NewInvalidError("required question unanswered: " + question.ID)
			}
			continue
		}
		if valid, msg := ValidateAnswer(question, a.Value); !valid {
			return nil, NewInvalidError(msg)
		}
		if !isEmptyAnswer(a.Value) {
			answered++
		}
	}

	now := s.now()
	resp := &QuestionnaireResponse{
		ID:              s.idGen(),
		QuestionnaireID: questionnaireID,
		UserID:          userID,
		Answers:         answers,
		Status:          ResponseCompleted,
		Progress:        progressPercent(answered, len(q.Questions)),
		StartedAt:       now,
		CompletedAt:     &now,
	}
	created, err := s.store.InsertResponse(resp)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return resp, nil
	}
	return created, nil
}

// SaveProgress stores a partial answer set without requiring completeness;
// only well-formed answers are accepted.
func (s *ResponseService) SaveProgress(questionnaireID, userID string, answers []Answer) (*QuestionnaireResponse, error) {
	q, err := s.questionnaireOpenFor(questionnaireID)
	if err != nil {
		return nil, err
	}
	answered := 0
	for _, a := range answers {
		i := indexOfQuestion(q.Questions, a.QuestionID)
		if i < 0 {
			return nil, NewInvalidError("answer references an unknown question")
		}
		if valid, msg := ValidateAnswer(q.Questions[i], a.Value); !valid {
			return nil, NewInvalidError(msg)
		}
		if !isEmptyAnswer(a.Value) {
			answered++
		}
	}

	existing, err := s.store.GetResponse(questionnaireID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == ResponseCompleted {
		return nil, NewConflictError("questionnaire already answered")
	}
	now := s.now()
	if existing == nil {
		existing = &QuestionnaireResponse{
			ID:              s.idGen(),
			QuestionnaireID: questionnaireID,
			UserID:          userID,
			StartedAt:       now,
		}
		existing.Answers = answers
		existing.Status = ResponseInProgress
		existing.Progress = progressPercent(answered, len(q.Questions))
		created, err := s.store.InsertResponse(existing)
		if err != nil {
			return nil, err
		}
		if created != nil {
			return created, nil
		}
		return existing, nil
	}
	existing.Answers = answers
	existing.Status = ResponseInProgress
	existing.Progress = progressPercent(answered, len(q.Questions))
	if err := s.store.UpdateResponse(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *ResponseService) CompletedCount(questionnaireID string) (int, error) {
	return s.store.CountCompletedResponses(questionnaireID)
}

func (s *ResponseService) questionnaireOpenFor(id string) (*Questionnaire, error) {
	q, err := s.store.GetQuestionnaire(id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, NewNotFoundError("questionnaire not found")
	}
	if q.Status != StatusActive {
		return nil, NewForbiddenError("questionnaire is not active")
	}
	now := s.now()
	if q.StartDate != nil && now.Before(*q.StartDate) {
		return nil, NewForbiddenError("questionnaire is not yet available")
	}
	if q.EndDate != nil && now.After(*q.EndDate) {
		return nil, NewForbiddenError("questionnaire is no longer available")
	}
	return q, nil
}

func progressPercent(answered, total int) int {
	if total == 0 {
		return 0
	}
	return answered * 100 / total
}

func indexOfQuestion(qs []Question, id string) int {
	for i, q := range qs {
		if q.ID == id {
			return i
		}
	}
	return -1
}

func isEmptyAnswer(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	}
	return false
}

func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
