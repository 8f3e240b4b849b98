package api

import "github.com/ssp-platform/ssp/internal/services"

// Store is the persistence surface the HTTP layer needs. The in-memory store
// implements it for tests and single-node dev runs; internal/db provides the
// SQLite-backed implementation.
type Store interface {
	// users
	AddUser(u *services.User) error
	FindUserByEmail(email string) (*services.User, error)

	// questionnaires
	InsertQuestionnaire(q *services.Questionnaire) (*services.Questionnaire, error)
	GetQuestionnaire(id string) (*services.Questionnaire, error)
	UpdateQuestionnaire(q *services.Questionnaire) error
	DeleteQuestionnaire(id string) error
	ListQuestionnaires(filter services.QuestionnaireFilter) ([]*services.Questionnaire, int, error)

	// responses
	InsertResponse(r *services.QuestionnaireResponse) (*services.QuestionnaireResponse, error)
	GetResponse(questionnaireID, userID string) (*services.QuestionnaireResponse, error)
	UpdateResponse(r *services.QuestionnaireResponse) error
	CountCompletedResponses(questionnaireID string) (int, error)

	// appointments
	InsertAppointment(a *services.Appointment) (*services.Appointment, error)
	GetAppointment(id string) (*services.Appointment, error)
	UpdateAppointment(a *services.Appointment) error
	ListAppointmentsByUser(userID string) ([]*services.Appointment, error)

	AddAudit(entry services.AuditEntry)
	ListAudit() []services.AuditEntry
}
