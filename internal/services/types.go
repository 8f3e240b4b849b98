package services

import "time"

type QuestionType string

const (
	QuestionOpenText       QuestionType = "open_text"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionDropdownSelect QuestionType = "dropdown_select"
	QuestionCheckboxSet    QuestionType = "checkbox_set"
	QuestionRadioGroup     QuestionType = "radio_group"
	QuestionLikertScale    QuestionType = "likert_scale"
)

type QuestionnaireStatus string

const (
	StatusDraft    QuestionnaireStatus = "draft"
	StatusActive   QuestionnaireStatus = "active"
	StatusInactive QuestionnaireStatus = "inactive"
)

// UserType identifies the audiences a questionnaire can be assigned to.
type UserType string

const (
	UserTypeStudent UserType = "student"
	UserTypeFaculty UserType = "faculty"
	UserTypeStaff   UserType = "staff"
)

type ResponseStatus string

const (
	ResponsePending    ResponseStatus = "pending"
	ResponseInProgress ResponseStatus = "in_progress"
	ResponseCompleted  ResponseStatus = "completed"
)

// QuestionConfig is the per-type settings bag of a question. Only the fields
// the registry lists for the question's type are meaningful; the rest stay at
// their zero value. Numeric fields where "unset" differs from zero are
// pointers.
type QuestionConfig struct {
	CharacterLimit         *int     `json:"character_limit,omitempty"`
	MinLength              *int     `json:"min_length,omitempty"`
	Options                []string `json:"options,omitempty"`
	AllowMultipleSelection bool     `json:"allow_multiple_selection,omitempty"`
	AllowOtherOption       bool     `json:"allow_other_option,omitempty"`
	DefaultOption          string   `json:"default_option,omitempty"`
	MinSelections          *int     `json:"min_selections,omitempty"`
	MaxSelections          *int     `json:"max_selections,omitempty"`
	ScalePoints            int      `json:"scale_points,omitempty"`
	MinLabel               string   `json:"min_label,omitempty"`
	MaxLabel               string   `json:"max_label,omitempty"`
	ShowNumbers            bool     `json:"show_numbers,omitempty"`
	TrueLabel              string   `json:"true_label,omitempty"`
	FalseLabel             string   `json:"false_label,omitempty"`
}

type Question struct {
	ID          string         `json:"id"`
	Type        QuestionType   `json:"type"`
	Text        string         `json:"text"`
	Description string         `json:"description,omitempty"`
	Required    bool           `json:"required"`
	Order       int            `json:"order"`
	Config      QuestionConfig `json:"config"`
}

type Questionnaire struct {
	ID                string              `json:"id"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Questions         []Question          `json:"questions"`
	AssignedUserTypes []UserType          `json:"assigned_user_types"`
	StartDate         *time.Time          `json:"start_date,omitempty"`
	EndDate           *time.Time          `json:"end_date,omitempty"`
	Status            QuestionnaireStatus `json:"status"`
	CreatedBy         string              `json:"created_by,omitempty"`
	CreatedAt         time.Time           `json:"created_at,omitempty"`
	UpdatedAt         time.Time           `json:"updated_at,omitempty"`
	TotalResponses    int                 `json:"total_responses,omitempty"`
}

// Clone returns a deep copy so callers can mutate drafts without sharing
// question or option slices.
func (q *Questionnaire) Clone() *Questionnaire {
	if q == nil {
		return nil
	}
	out := *q
	out.Questions = cloneQuestions(q.Questions)
	out.AssignedUserTypes = append([]UserType(nil), q.AssignedUserTypes...)
	if q.StartDate != nil {
		t := *q.StartDate
		out.StartDate = &t
	}
	if q.EndDate != nil {
		t := *q.EndDate
		out.EndDate = &t
	}
	return &out
}

func cloneQuestions(qs []Question) []Question {
	if qs == nil {
		return nil
	}
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = cloneQuestion(q)
	}
	return out
}

func cloneQuestion(q Question) Question {
	q.Config = cloneConfig(q.Config)
	return q
}

func cloneConfig(c QuestionConfig) QuestionConfig {
	c.Options = append([]string(nil), c.Options...)
	c.CharacterLimit = cloneIntPtr(c.CharacterLimit)
	c.MinLength = cloneIntPtr(c.MinLength)
	c.MinSelections = cloneIntPtr(c.MinSelections)
	c.MaxSelections = cloneIntPtr(c.MaxSelections)
	return c
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

type QuestionValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

type QuestionnaireValidation struct {
	Valid          bool                `json:"valid"`
	GeneralErrors  []string            `json:"general_errors"`
	QuestionErrors map[string][]string `json:"question_errors"`
}

// Answer is a user's answer to a single question. Value carries a string,
// []string or number depending on the question type.
type Answer struct {
	QuestionID string `json:"question_id"`
	Value      any    `json:"value"`
	OtherText  string `json:"other_text,omitempty"`
}

type QuestionnaireResponse struct {
	ID              string         `json:"id"`
	QuestionnaireID string         `json:"questionnaire_id"`
	UserID          string         `json:"user_id"`
	Answers         []Answer       `json:"answers"`
	Status          ResponseStatus `json:"status"`
	Progress        int            `json:"progress"`
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
)

type AppointmentKind string

const (
	AppointmentPsychological AppointmentKind = "psychological"
	AppointmentAcademic      AppointmentKind = "academic"
	AppointmentGeneral       AppointmentKind = "general"
)

type Appointment struct {
	ID           string            `json:"id"`
	StudentID    string            `json:"student_id"`
	StaffID      string            `json:"staff_id,omitempty"`
	Kind         AppointmentKind   `json:"kind"`
	Motive       string            `json:"motive"`
	Status       AppointmentStatus `json:"status"`
	RequestedAt  time.Time         `json:"requested_at"`
	PreferredAt  *time.Time        `json:"preferred_at,omitempty"`
	ScheduledAt  *time.Time        `json:"scheduled_at,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	Location     string            `json:"location,omitempty"`
	StudentNotes string            `json:"student_notes,omitempty"`
	StaffNotes   string            `json:"staff_notes,omitempty"`
}

type User struct {
	ID        string
	Email     string
	Name      string
	Role      string // student, faculty, staff or admin
	PassHash  []byte
	CreatedAt time.Time
}

type AuditEntry struct {
	Time   time.Time `json:"time"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Target string    `json:"target"`
	Note   string    `json:"note,omitempty"`
}
