package services

import (
	"context"
	"log"
	"time"
)

// QuestionnaireAPI is the persistence collaborator a draft session talks to.
// The controller only needs a success value or an error it can catch.
type QuestionnaireAPI interface {
	Create(ctx context.Context, draft *Questionnaire) (*Questionnaire, error)
	Update(ctx context.Context, id string, draft *Questionnaire) error
}

const (
	placeholderTitle       = "Untitled draft"
	placeholderDescription = "Draft without description"
	submitFailedMessage    = "the questionnaire could not be saved, please try again"
)

// DraftController owns the in-memory draft of one authoring session and
// mediates every edit to it. Single session, single goroutine; none of its
// methods are safe for concurrent use.
type DraftController struct {
	api QuestionnaireAPI

	draft           Questionnaire
	submitAttempted bool
	lastValidation  *QuestionnaireValidation
	inFlight        bool

	now   func() time.Time
	newID func() string
}

func NewDraftController(api QuestionnaireAPI) *DraftController {
	return &DraftController{
		api:   api,
		draft: Questionnaire{Status: StatusDraft},
		now:   func() time.Time { return time.Now().UTC() },
		newID: newQuestionID,
	}
}

// NewDraftControllerFrom starts an edit session over an existing
// questionnaire.
func NewDraftControllerFrom(api QuestionnaireAPI, existing *Questionnaire) *DraftController {
	c := NewDraftController(api)
	if existing != nil {
		c.draft = *existing.Clone()
	}
	return c
}

// Draft returns a copy of the current draft state.
func (c *DraftController) Draft() *Questionnaire { return c.draft.Clone() }

func (c *DraftController) SetTitle(title string)      { c.draft.Title = title; c.revalidate() }
func (c *DraftController) SetDescription(desc string) { c.draft.Description = desc; c.revalidate() }

func (c *DraftController) SetStatus(status QuestionnaireStatus) {
	c.draft.Status = status
	c.revalidate()
}

func (c *DraftController) SetAssignedUserTypes(types []UserType) {
	c.draft.AssignedUserTypes = append([]UserType(nil), types...)
	c.revalidate()
}

func (c *DraftController) SetDates(start, end *time.Time) {
	c.draft.StartDate = start
	c.draft.EndDate = end
	c.revalidate()
}

// AddQuestion appends a fresh question of the default type with its registry
// default config. Returns nil once the draft is at the question cap.
func (c *DraftController) AddQuestion() *Question {
	if len(c.draft.Questions) >= maxQuestions {
		return nil
	}
	q := Question{
		ID:     c.newID(),
		Type:   DefaultQuestionType(),
		Config: DefaultConfig(DefaultQuestionType()),
	}
	c.draft.Questions = AppendQuestion(c.draft.Questions, q)
	c.revalidate()
	added := c.draft.Questions[len(c.draft.Questions)-1]
	return &added
}

// QuestionPatch carries the editable fields of a question; nil means leave
// unchanged.
type QuestionPatch struct {
	Text        *string
	Description *string
	Required    *bool
	Config      *QuestionConfig
}

func (c *DraftController) UpdateQuestion(id string, patch QuestionPatch) bool {
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	q := &c.draft.Questions[i]
	if patch.Text != nil {
		q.Text = *patch.Text
	}
	if patch.Description != nil {
		q.Description = *patch.Description
	}
	if patch.Required != nil {
		q.Required = *patch.Required
	}
	if patch.Config != nil {
		q.Config = cloneConfig(*patch.Config)
	}
	c.revalidate()
	return true
}

// ChangeQuestionType swaps the question to newType and replaces its config
// with the registry default wholesale; text, description, required and order
// survive the switch.
func (c *DraftController) ChangeQuestionType(id string, newType QuestionType) bool {
	if !IsValidType(string(newType)) {
		return false
	}
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.draft.Questions[i].Type = newType
	c.draft.Questions[i].Config = DefaultConfig(newType)
	c.revalidate()
	return true
}

func (c *DraftController) DeleteQuestion(id string) bool {
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.draft.Questions = RemoveQuestionAt(c.draft.Questions, i)
	c.revalidate()
	return true
}

// CanDeleteQuestions reports whether the delete control should be enabled;
// the editor keeps the last question so the draft never becomes empty
// mid-edit.
func (c *DraftController) CanDeleteQuestions() bool { return len(c.draft.Questions) > 1 }

func (c *DraftController) MoveQuestion(fromIndex, toIndex int) {
	c.draft.Questions = MoveByDragDrop(c.draft.Questions, fromIndex, toIndex)
	c.revalidate()
}

func (c *DraftController) SetQuestionOrder(id string, requestedOrder int) {
	i := c.indexOf(id)
	if i < 0 {
		return
	}
	c.draft.Questions = MoveByExplicitOrder(c.draft.Questions, i, requestedOrder)
	c.revalidate()
}

func (c *DraftController) DuplicateQuestion(id string) *Question {
	i := c.indexOf(id)
	if i < 0 || len(c.draft.Questions) >= maxQuestions {
		return nil
	}
	c.draft.Questions = DuplicateQuestionAt(c.draft.Questions, i)
	c.revalidate()
	added := c.draft.Questions[len(c.draft.Questions)-1]
	return &added
}

// Progress is the cosmetic completion percentage: one fifth per satisfied
// top-level condition (title, description, questions, audience, status).
func (c *DraftController) Progress() int {
	done := 0
	if !isBlank(c.draft.Title) {
		done++
	}
	if !isBlank(c.draft.Description) {
		done++
	}
	if len(c.draft.Questions) > 0 {
		done++
	}
	if len(c.draft.AssignedUserTypes) > 0 {
		done++
	}
	if c.draft.Status != "" {
		done++
	}
	return done * 100 / 5
}

func (c *DraftController) LastValidation() *QuestionnaireValidation { return c.lastValidation }

// Submit validates the draft and, when valid, hands it to the persistence
// collaborator. The returned result is what the UI renders: validation
// failures and backend failures both land there; the draft itself is kept
// either way. A second submit while one is pending is rejected.
func (c *DraftController) Submit(ctx context.Context) (*QuestionnaireValidation, error) {
	if c.inFlight {
		return nil, NewConflictError("a submission is already in progress")
	}
	c.submitAttempted = true
	result := ValidateQuestionnaire(&c.draft)
	c.lastValidation = &result
	if !result.Valid {
		return &result, nil
	}

	c.inFlight = true
	defer func() { c.inFlight = false }()

	if err := c.persist(ctx, c.draft.Clone()); err != nil {
		log.Printf("draft: submit failed: %v", err)
		result = QuestionnaireValidation{
			Valid:          false,
			GeneralErrors:  []string{submitFailedMessage},
			QuestionErrors: map[string][]string{},
		}
		c.lastValidation = &result
		return &result, nil
	}
	return &result, nil
}

// SaveDraft persists whatever exists without blocking on validation,
// substituting placeholders for a blank title or description. The session
// state is kept on failure.
func (c *DraftController) SaveDraft(ctx context.Context) error {
	if c.inFlight {
		return NewConflictError("a submission is already in progress")
	}
	c.inFlight = true
	defer func() { c.inFlight = false }()

	payload := c.draft.Clone()
	if isBlank(payload.Title) {
		payload.Title = placeholderTitle
	}
	if isBlank(payload.Description) {
		payload.Description = placeholderDescription
	}
	payload.Status = StatusDraft

	if err := c.persist(ctx, payload); err != nil {
		log.Printf("draft: save draft failed: %v", err)
		return NewBadGatewayError(submitFailedMessage)
	}
	return nil
}

func (c *DraftController) persist(ctx context.Context, payload *Questionnaire) error {
	if c.api == nil {
		return NewInvalidError("persistence collaborator not configured")
	}
	if payload.ID == "" {
		created, err := c.api.Create(ctx, payload)
		if err != nil {
			return err
		}
		if created != nil {
			c.draft.ID = created.ID
		}
		return nil
	}
	return c.api.Update(ctx, payload.ID, payload)
}

// revalidate refreshes the stored result after an edit, but only once the
// user has attempted a submit; before that the draft stays error-free on
// screen.
func (c *DraftController) revalidate() {
	if !c.submitAttempted {
		return
	}
	result := ValidateQuestionnaire(&c.draft)
	c.lastValidation = &result
}

func (c *DraftController) indexOf(id string) int {
	for i, q := range c.draft.Questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}
