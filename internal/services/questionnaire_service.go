package services

import (
	"context"
	"sort"
	"strings"
	"time"
)

type QuestionnaireFilter struct {
	Title    string
	Status   QuestionnaireStatus
	UserType UserType
	Skip     int
	Limit    int
}

type QuestionnaireStore interface {
	InsertQuestionnaire(q *Questionnaire) (*Questionnaire, error)
	GetQuestionnaire(id string) (*Questionnaire, error)
	UpdateQuestionnaire(q *Questionnaire) error
	DeleteQuestionnaire(id string) error
	ListQuestionnaires(filter QuestionnaireFilter) ([]*Questionnaire, int, error)
	AddAudit(entry AuditEntry)
}

// QuestionnaireService is the server-side counterpart of the authoring
// controller: it re-runs the same structural validation on every write and
// owns ids, timestamps and the status lifecycle.
type QuestionnaireService struct {
	store QuestionnaireStore
	now   func() time.Time
	idGen func() string
}

func NewQuestionnaireService(store QuestionnaireStore) *QuestionnaireService {
	return &QuestionnaireService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(8) },
	}
}

func (s *QuestionnaireService) Create(createdBy string, draft *Questionnaire) (*Questionnaire, error) {
	if createdBy == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	if draft == nil {
		return nil, NewInvalidError("questionnaire required")
	}
	q := draft.Clone()
	q.Title = strings.TrimSpace(q.Title)
	q.Description = strings.TrimSpace(q.Description)
	if result := ValidateQuestionnaire(q); !result.Valid {
		return nil, &ValidationError{Result: result}
	}

	q.ID = s.idGen()
	q.CreatedBy = createdBy
	now := s.now()
	q.CreatedAt = now
	q.UpdatedAt = now
	q.TotalResponses = 0
	if q.Status == "" {
		q.Status = StatusDraft
	}
	normalizeQuestions(q)

	created, err := s.store.InsertQuestionnaire(q)
	if err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: createdBy, Action: "create_questionnaire", Target: q.ID})
	if created == nil {
		return q, nil
	}
	return created, nil
}

// CreateDraft persists a work-in-progress questionnaire without the
// structural checks that gate publication; the stored copy is always a
// draft. Incomplete drafts are expected here, completeness is enforced on
// submit.
func (s *QuestionnaireService) CreateDraft(createdBy string, draft *Questionnaire) (*Questionnaire, error) {
	if createdBy == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	if draft == nil {
		return nil, NewInvalidError("questionnaire required")
	}
	q := draft.Clone()
	q.Title = strings.TrimSpace(q.Title)
	q.Description = strings.TrimSpace(q.Description)
	q.ID = s.idGen()
	q.CreatedBy = createdBy
	now := s.now()
	q.CreatedAt = now
	q.UpdatedAt = now
	q.TotalResponses = 0
	q.Status = StatusDraft
	normalizeQuestions(q)

	created, err := s.store.InsertQuestionnaire(q)
	if err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: createdBy, Action: "save_draft", Target: q.ID})
	if created == nil {
		return q, nil
	}
	return created, nil
}

// UpdateDraft overwrites a stored draft with the current session state,
// again without publication checks. Creation metadata survives the
// overwrite.
func (s *QuestionnaireService) UpdateDraft(id, actor string, draft *Questionnaire) error {
	old, err := s.store.GetQuestionnaire(id)
	if err != nil {
		return err
	}
	if old == nil {
		return NewNotFoundError("questionnaire not found")
	}
	updated := draft.Clone()
	updated.ID = id
	updated.CreatedBy = old.CreatedBy
	updated.CreatedAt = old.CreatedAt
	updated.TotalResponses = old.TotalResponses
	updated.Status = StatusDraft
	updated.Title = strings.TrimSpace(updated.Title)
	updated.Description = strings.TrimSpace(updated.Description)
	normalizeQuestions(updated)
	updated.UpdatedAt = s.now()
	if err := s.store.UpdateQuestionnaire(updated); err != nil {
		return err
	}
	s.store.AddAudit(AuditEntry{Time: updated.UpdatedAt, Actor: actor, Action: "save_draft", Target: id})
	return nil
}

// QuestionnairePatch is a partial update; nil fields stay as they are.
type QuestionnairePatch struct {
	Title             *string
	Description       *string
	Questions         *[]Question
	AssignedUserTypes *[]UserType
	StartDate         *time.Time
	EndDate           *time.Time
	ClearDates        bool
	Status            *QuestionnaireStatus
}

func (s *QuestionnaireService) Update(id, actor string, patch QuestionnairePatch) (*Questionnaire, error) {
	old, err := s.store.GetQuestionnaire(id)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, NewNotFoundError("questionnaire not found")
	}
	updated := old.Clone()
	if patch.Title != nil {
		updated.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		updated.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Questions != nil {
		updated.Questions = cloneQuestions(*patch.Questions)
	}
	if patch.AssignedUserTypes != nil {
		updated.AssignedUserTypes = append([]UserType(nil), (*patch.AssignedUserTypes)...)
	}
	if patch.ClearDates {
		updated.StartDate, updated.EndDate = nil, nil
	}
	if patch.StartDate != nil {
		updated.StartDate = patch.StartDate
	}
	if patch.EndDate != nil {
		updated.EndDate = patch.EndDate
	}
	if patch.Status != nil {
		updated.Status = *patch.Status
	}

	if result := ValidateQuestionnaire(updated); !result.Valid {
		return nil, &ValidationError{Result: result}
	}
	normalizeQuestions(updated)
	updated.UpdatedAt = s.now()
	if err := s.store.UpdateQuestionnaire(updated); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: updated.UpdatedAt, Actor: actor, Action: "update_questionnaire", Target: id})
	return updated, nil
}

func (s *QuestionnaireService) ChangeStatus(id, actor string, status QuestionnaireStatus) error {
	switch status {
	case StatusDraft, StatusActive, StatusInactive:
	default:
		return NewInvalidError("invalid questionnaire status")
	}
	q, err := s.store.GetQuestionnaire(id)
	if err != nil {
		return err
	}
	if q == nil {
		return NewNotFoundError("questionnaire not found")
	}
	updated := q.Clone()
	updated.Status = status
	updated.UpdatedAt = s.now()
	if err := s.store.UpdateQuestionnaire(updated); err != nil {
		return err
	}
	s.store.AddAudit(AuditEntry{Time: updated.UpdatedAt, Actor: actor, Action: "status_change", Target: id, Note: string(status)})
	return nil
}

// Duplicate copies a questionnaire under a new title as a fresh draft; every
// question gets a new id and responses do not carry over.
func (s *QuestionnaireService) Duplicate(id, actor, newTitle string) (*Questionnaire, error) {
	if isBlank(newTitle) {
		return nil, NewInvalidError("title required")
	}
	if len(newTitle) > maxTitleLength {
		return nil, NewInvalidError("title too long")
	}
	src, err := s.store.GetQuestionnaire(id)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, NewNotFoundError("questionnaire not found")
	}
	copy := src.Clone()
	copy.ID = s.idGen()
	copy.Title = strings.TrimSpace(newTitle)
	copy.Status = StatusDraft
	copy.CreatedBy = actor
	now := s.now()
	copy.CreatedAt = now
	copy.UpdatedAt = now
	copy.TotalResponses = 0
	for i := range copy.Questions {
		copy.Questions[i].ID = newQuestionID()
	}
	created, err := s.store.InsertQuestionnaire(copy)
	if err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: actor, Action: "duplicate_questionnaire", Target: id, Note: copy.ID})
	if created == nil {
		return copy, nil
	}
	return created, nil
}

func (s *QuestionnaireService) Delete(id, actor string) error {
	if err := s.store.DeleteQuestionnaire(id); err != nil {
		return err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "delete_questionnaire", Target: id})
	return nil
}

func (s *QuestionnaireService) Get(id string) (*Questionnaire, error) {
	return s.store.GetQuestionnaire(id)
}

func (s *QuestionnaireService) List(filter QuestionnaireFilter) ([]*Questionnaire, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Skip < 0 {
		filter.Skip = 0
	}
	return s.store.ListQuestionnaires(filter)
}

// ListAssigned returns the questionnaires a user of the given type can
// answer right now: active ones whose availability window contains now.
func (s *QuestionnaireService) ListAssigned(userType UserType) ([]*Questionnaire, error) {
	if !IsValidUserType(string(userType)) {
		return nil, NewInvalidError("invalid user type")
	}
	all, _, err := s.store.ListQuestionnaires(QuestionnaireFilter{Status: StatusActive, UserType: userType, Limit: maxQuestions * 2})
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]*Questionnaire, 0, len(all))
	for _, q := range all {
		if q.StartDate != nil && now.Before(*q.StartDate) {
			continue
		}
		if q.EndDate != nil && now.After(*q.EndDate) {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// normalizeQuestions assigns ids where missing and fixes storage order to
// match the order field.
func normalizeQuestions(q *Questionnaire) {
	for i := range q.Questions {
		if q.Questions[i].ID == "" {
			q.Questions[i].ID = newQuestionID()
		}
	}
	sort.SliceStable(q.Questions, func(i, j int) bool { return q.Questions[i].Order < q.Questions[j].Order })
}

// serviceQuestionnaireAPI lets a DraftController persist through the
// service. Draft payloads take the lenient save path so partial work can be
// stored at any point; anything else goes through full validation, the same
// checks the HTTP layer runs.
type serviceQuestionnaireAPI struct {
	svc   *QuestionnaireService
	actor string
}

func NewServiceQuestionnaireAPI(svc *QuestionnaireService, actor string) QuestionnaireAPI {
	return &serviceQuestionnaireAPI{svc: svc, actor: actor}
}

func (a *serviceQuestionnaireAPI) Create(_ context.Context, draft *Questionnaire) (*Questionnaire, error) {
	if draft.Status == StatusDraft {
		return a.svc.CreateDraft(a.actor, draft)
	}
	return a.svc.Create(a.actor, draft)
}

func (a *serviceQuestionnaireAPI) Update(_ context.Context, id string, draft *Questionnaire) error {
	if draft.Status == StatusDraft {
		return a.svc.UpdateDraft(id, a.actor, draft)
	}
	patch := QuestionnairePatch{
		Title:             &draft.Title,
		Description:       &draft.Description,
		Questions:         &draft.Questions,
		AssignedUserTypes: &draft.AssignedUserTypes,
		Status:            &draft.Status,
		ClearDates:        true,
		StartDate:         draft.StartDate,
		EndDate:           draft.EndDate,
	}
	_, err := a.svc.Update(id, a.actor, patch)
	return err
}
