package api

import (
	"sort"
	"strings"
	"sync"

	"github.com/ssp-platform/ssp/internal/services"
)

// memoryStore keeps everything behind one RWMutex; copies go in and out so
// callers never share slices with the store.
type memoryStore struct {
	mu             sync.RWMutex
	usersByEmail   map[string]*services.User
	questionnaires map[string]*services.Questionnaire
	responses      map[string]*services.QuestionnaireResponse // keyed questionnaireID+"/"+userID
	appointments   map[string]*services.Appointment
	audit          []services.AuditEntry
}

func NewMemoryStore() Store { return newMemoryStore() }

func newMemoryStore() *memoryStore {
	return &memoryStore{
		usersByEmail:   map[string]*services.User{},
		questionnaires: map[string]*services.Questionnaire{},
		responses:      map[string]*services.QuestionnaireResponse{},
		appointments:   map[string]*services.Appointment{},
	}
}

func (s *memoryStore) AddUser(u *services.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *u
	s.usersByEmail[strings.ToLower(u.Email)] = &copy
	return nil
}

func (s *memoryStore) FindUserByEmail(email string) (*services.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	copy := *u
	return &copy, nil
}

func (s *memoryStore) InsertQuestionnaire(q *services.Questionnaire) (*services.Questionnaire, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questionnaires[q.ID] = q.Clone()
	return q.Clone(), nil
}

func (s *memoryStore) GetQuestionnaire(id string) (*services.Questionnaire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questionnaires[id].Clone(), nil
}

func (s *memoryStore) UpdateQuestionnaire(q *services.Questionnaire) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questionnaires[q.ID]; !ok {
		return services.NewNotFoundError("questionnaire not found")
	}
	s.questionnaires[q.ID] = q.Clone()
	return nil
}

func (s *memoryStore) DeleteQuestionnaire(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questionnaires[id]; !ok {
		return services.NewNotFoundError("questionnaire not found")
	}
	delete(s.questionnaires, id)
	return nil
}

func (s *memoryStore) ListQuestionnaires(filter services.QuestionnaireFilter) ([]*services.Questionnaire, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := []*services.Questionnaire{}
	for _, q := range s.questionnaires {
		if !questionnaireMatches(q, filter) {
			continue
		}
		matched = append(matched, q.Clone())
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)
	if filter.Skip > 0 {
		if filter.Skip >= len(matched) {
			return []*services.Questionnaire{}, total, nil
		}
		matched = matched[filter.Skip:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func questionnaireMatches(q *services.Questionnaire, filter services.QuestionnaireFilter) bool {
	if filter.Title != "" && !strings.Contains(strings.ToLower(q.Title), strings.ToLower(filter.Title)) {
		return false
	}
	if filter.Status != "" && q.Status != filter.Status {
		return false
	}
	if filter.UserType != "" {
		found := false
		for _, t := range q.AssignedUserTypes {
			if t == filter.UserType {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func responseKey(questionnaireID, userID string) string { return questionnaireID + "/" + userID }

func (s *memoryStore) InsertResponse(r *services.QuestionnaireResponse) (*services.QuestionnaireResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *r
	s.responses[responseKey(r.QuestionnaireID, r.UserID)] = &copy
	out := copy
	return &out, nil
}

func (s *memoryStore) GetResponse(questionnaireID, userID string) (*services.QuestionnaireResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.responses[responseKey(questionnaireID, userID)]
	if !ok {
		return nil, nil
	}
	copy := *r
	return &copy, nil
}

func (s *memoryStore) UpdateResponse(r *services.QuestionnaireResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := responseKey(r.QuestionnaireID, r.UserID)
	if _, ok := s.responses[key]; !ok {
		return services.NewNotFoundError("response not found")
	}
	copy := *r
	s.responses[key] = &copy
	return nil
}

func (s *memoryStore) CountCompletedResponses(questionnaireID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.responses {
		if r.QuestionnaireID == questionnaireID && r.Status == services.ResponseCompleted {
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) InsertAppointment(a *services.Appointment) (*services.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *a
	s.appointments[a.ID] = &copy
	out := copy
	return &out, nil
}

func (s *memoryStore) GetAppointment(id string) (*services.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, nil
	}
	copy := *a
	return &copy, nil
}

func (s *memoryStore) UpdateAppointment(a *services.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[a.ID]; !ok {
		return services.NewNotFoundError("appointment not found")
	}
	copy := *a
	s.appointments[a.ID] = &copy
	return nil
}

func (s *memoryStore) ListAppointmentsByUser(userID string) ([]*services.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Appointment{}
	for _, a := range s.appointments {
		if a.StudentID == userID || a.StaffID == userID {
			copy := *a
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

func (s *memoryStore) AddAudit(e services.AuditEntry) {
	s.mu.Lock()
	s.audit = append(s.audit, e)
	s.mu.Unlock()
}

func (s *memoryStore) ListAudit() []services.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]services.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}
