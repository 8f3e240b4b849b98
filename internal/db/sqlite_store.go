package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ssp-platform/ssp/internal/api"
	"github.com/ssp-platform/ssp/internal/services"
)

// SQLiteStore persists the whole platform in a single SQLite file. Question
// and answer structures are stored as JSON columns; everything queried on
// (status, ids, dates) gets its own column.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens the SQLite database at path and applies migrations.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return conn, nil
}

func NewSQLiteStore(conn *sql.DB) (*SQLiteStore, error) {
	if conn == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := conn.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: conn}, nil
}

func NewStore(conn *sql.DB) (api.Store, error) {
	return NewSQLiteStore(conn)
}

func toNullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func encodeJSON(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeQuestions(ns sql.NullString) []services.Question {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	var out []services.Question
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		log.Printf("sqlite store: decode questions: %v", err)
		return nil
	}
	return out
}

func decodeUserTypes(ns sql.NullString) []services.UserType {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	var out []services.UserType
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		log.Printf("sqlite store: decode user types: %v", err)
		return nil
	}
	return out
}

func decodeAnswers(ns sql.NullString) []services.Answer {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	var out []services.Answer
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		log.Printf("sqlite store: decode answers: %v", err)
		return nil
	}
	return out
}

// users

func (s *SQLiteStore) AddUser(u *services.User) error {
	_, err := s.db.Exec(
		`INSERT INTO users (id, email, name, role, pass_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, strings.ToLower(u.Email), toNullString(u.Name), u.Role, u.PassHash, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindUserByEmail(email string) (*services.User, error) {
	row := s.db.QueryRow(
		`SELECT id, email, name, role, pass_hash, created_at FROM users WHERE email = ?`,
		strings.ToLower(email),
	)
	var u services.User
	var name sql.NullString
	err := row.Scan(&u.ID, &u.Email, &name, &u.Role, &u.PassHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.Name = name.String
	return &u, nil
}

// questionnaires

func (s *SQLiteStore) InsertQuestionnaire(q *services.Questionnaire) (*services.Questionnaire, error) {
	questions, err := encodeJSON(q.Questions)
	if err != nil {
		return nil, fmt.Errorf("encode questions: %w", err)
	}
	userTypes, err := encodeJSON(q.AssignedUserTypes)
	if err != nil {
		return nil, fmt.Errorf("encode user types: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO questionnaires (id, title, description, questions, assigned_user_types, start_date, end_date, status, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Title, toNullString(q.Description), questions, userTypes,
		toNullTime(q.StartDate), toNullTime(q.EndDate), string(q.Status),
		toNullString(q.CreatedBy), q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert questionnaire: %w", err)
	}
	return q.Clone(), nil
}

func (s *SQLiteStore) GetQuestionnaire(id string) (*services.Questionnaire, error) {
	row := s.db.QueryRow(
		`SELECT id, title, description, questions, assigned_user_types, start_date, end_date, status, created_by, created_at, updated_at
		 FROM questionnaires WHERE id = ?`, id)
	q, err := scanQuestionnaire(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get questionnaire: %w", err)
	}
	return q, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestionnaire(row rowScanner) (*services.Questionnaire, error) {
	var q services.Questionnaire
	var description, questions, userTypes, createdBy sql.NullString
	var startDate, endDate sql.NullTime
	var status string
	err := row.Scan(&q.ID, &q.Title, &description, &questions, &userTypes,
		&startDate, &endDate, &status, &createdBy, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	q.Description = description.String
	q.Questions = decodeQuestions(questions)
	q.AssignedUserTypes = decodeUserTypes(userTypes)
	q.StartDate = fromNullTime(startDate)
	q.EndDate = fromNullTime(endDate)
	q.Status = services.QuestionnaireStatus(status)
	q.CreatedBy = createdBy.String
	return &q, nil
}

func (s *SQLiteStore) UpdateQuestionnaire(q *services.Questionnaire) error {
	questions, err := encodeJSON(q.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	userTypes, err := encodeJSON(q.AssignedUserTypes)
	if err != nil {
		return fmt.Errorf("encode user types: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE questionnaires SET title = ?, description = ?, questions = ?, assigned_user_types = ?,
		 start_date = ?, end_date = ?, status = ?, updated_at = ? WHERE id = ?`,
		q.Title, toNullString(q.Description), questions, userTypes,
		toNullTime(q.StartDate), toNullTime(q.EndDate), string(q.Status), q.UpdatedAt, q.ID,
	)
	if err != nil {
		return fmt.Errorf("update questionnaire: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("questionnaire not found")
	}
	return nil
}

func (s *SQLiteStore) DeleteQuestionnaire(id string) error {
	res, err := s.db.Exec(`DELETE FROM questionnaires WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete questionnaire: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("questionnaire not found")
	}
	return nil
}

// ListQuestionnaires filters title and status in SQL; the user-type filter
// runs in Go because the assignment list lives in a JSON column.
func (s *SQLiteStore) ListQuestionnaires(filter services.QuestionnaireFilter) ([]*services.Questionnaire, int, error) {
	query := `SELECT id, title, description, questions, assigned_user_types, start_date, end_date, status, created_by, created_at, updated_at
	 FROM questionnaires WHERE 1=1`
	args := []any{}
	if filter.Title != "" {
		query += ` AND lower(title) LIKE ?`
		args = append(args, "%"+strings.ToLower(filter.Title)+"%")
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list questionnaires: %w", err)
	}
	defer rows.Close()

	matched := []*services.Questionnaire{}
	for rows.Next() {
		q, err := scanQuestionnaire(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan questionnaire: %w", err)
		}
		if filter.UserType != "" && !assignedTo(q, filter.UserType) {
			continue
		}
		matched = append(matched, q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list questionnaires: %w", err)
	}

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

func assignedTo(q *services.Questionnaire, t services.UserType) bool {
	for _, ut := range q.AssignedUserTypes {
		if ut == t {
			return true
		}
	}
	return false
}

// responses

func (s *SQLiteStore) InsertResponse(r *services.QuestionnaireResponse) (*services.QuestionnaireResponse, error) {
	answers, err := encodeJSON(r.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO responses (id, questionnaire_id, user_id, answers, status, progress, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (questionnaire_id, user_id) DO UPDATE SET
		   answers = excluded.answers, status = excluded.status,
		   progress = excluded.progress, completed_at = excluded.completed_at`,
		r.ID, r.QuestionnaireID, r.UserID, answers, string(r.Status), r.Progress,
		r.StartedAt, toNullTime(r.CompletedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert response: %w", err)
	}
	out := *r
	return &out, nil
}

func (s *SQLiteStore) GetResponse(questionnaireID, userID string) (*services.QuestionnaireResponse, error) {
	row := s.db.QueryRow(
		`SELECT id, questionnaire_id, user_id, answers, status, progress, started_at, completed_at
		 FROM responses WHERE questionnaire_id = ? AND user_id = ?`, questionnaireID, userID)
	var r services.QuestionnaireResponse
	var answers sql.NullString
	var status string
	var completedAt sql.NullTime
	err := row.Scan(&r.ID, &r.QuestionnaireID, &r.UserID, &answers, &status, &r.Progress, &r.StartedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get response: %w", err)
	}
	r.Answers = decodeAnswers(answers)
	r.Status = services.ResponseStatus(status)
	r.CompletedAt = fromNullTime(completedAt)
	return &r, nil
}

func (s *SQLiteStore) UpdateResponse(r *services.QuestionnaireResponse) error {
	answers, err := encodeJSON(r.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE responses SET answers = ?, status = ?, progress = ?, completed_at = ?
		 WHERE questionnaire_id = ? AND user_id = ?`,
		answers, string(r.Status), r.Progress, toNullTime(r.CompletedAt), r.QuestionnaireID, r.UserID,
	)
	if err != nil {
		return fmt.Errorf("update response: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("response not found")
	}
	return nil
}

func (s *SQLiteStore) CountCompletedResponses(questionnaireID string) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM responses WHERE questionnaire_id = ? AND status = ?`,
		questionnaireID, string(services.ResponseCompleted),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return n, nil
}

// appointments

func (s *SQLiteStore) InsertAppointment(a *services.Appointment) (*services.Appointment, error) {
	_, err := s.db.Exec(
		`INSERT INTO appointments (id, student_id, staff_id, kind, motive, status, requested_at, preferred_at, scheduled_at, completed_at, location, student_notes, staff_notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.StudentID, toNullString(a.StaffID), string(a.Kind), a.Motive, string(a.Status),
		a.RequestedAt, toNullTime(a.PreferredAt), toNullTime(a.ScheduledAt), toNullTime(a.CompletedAt),
		toNullString(a.Location), toNullString(a.StudentNotes), toNullString(a.StaffNotes),
	)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	out := *a
	return &out, nil
}

func (s *SQLiteStore) GetAppointment(id string) (*services.Appointment, error) {
	row := s.db.QueryRow(
		`SELECT id, student_id, staff_id, kind, motive, status, requested_at, preferred_at, scheduled_at, completed_at, location, student_notes, staff_notes
		 FROM appointments WHERE id = ?`, id)
	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func scanAppointment(row rowScanner) (*services.Appointment, error) {
	var a services.Appointment
	var staffID, location, studentNotes, staffNotes sql.NullString
	var kind, status string
	var preferredAt, scheduledAt, completedAt sql.NullTime
	err := row.Scan(&a.ID, &a.StudentID, &staffID, &kind, &a.Motive, &status,
		&a.RequestedAt, &preferredAt, &scheduledAt, &completedAt, &location, &studentNotes, &staffNotes)
	if err != nil {
		return nil, err
	}
	a.StaffID = staffID.String
	a.Kind = services.AppointmentKind(kind)
	a.Status = services.AppointmentStatus(status)
	a.PreferredAt = fromNullTime(preferredAt)
	a.ScheduledAt = fromNullTime(scheduledAt)
	a.CompletedAt = fromNullTime(completedAt)
	a.Location = location.String
	a.StudentNotes = studentNotes.String
	a.StaffNotes = staffNotes.String
	return &a, nil
}

func (s *SQLiteStore) UpdateAppointment(a *services.Appointment) error {
	res, err := s.db.Exec(
		`UPDATE appointments SET staff_id = ?, kind = ?, motive = ?, status = ?, preferred_at = ?, scheduled_at = ?, completed_at = ?, location = ?, student_notes = ?, staff_notes = ?
		 WHERE id = ?`,
		toNullString(a.StaffID), string(a.Kind), a.Motive, string(a.Status),
		toNullTime(a.PreferredAt), toNullTime(a.ScheduledAt), toNullTime(a.CompletedAt),
		toNullString(a.Location), toNullString(a.StudentNotes), toNullString(a.StaffNotes), a.ID,
	)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("appointment not found")
	}
	return nil
}

func (s *SQLiteStore) ListAppointmentsByUser(userID string) ([]*services.Appointment, error) {
	rows, err := s.db.Query(
		`SELECT id, student_id, staff_id, kind, motive, status, requested_at, preferred_at, scheduled_at, completed_at, location, student_notes, staff_notes
		 FROM appointments WHERE student_id = ? OR staff_id = ?`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()
	out := []*services.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

// audit

func (s *SQLiteStore) AddAudit(e services.AuditEntry) {
	_, err := s.db.Exec(
		`INSERT INTO audit_log (at, actor, action, target, note) VALUES (?, ?, ?, ?, ?)`,
		e.Time, toNullString(e.Actor), e.Action, toNullString(e.Target), toNullString(e.Note),
	)
	if err != nil {
		log.Printf("sqlite store: add audit: %v", err)
	}
}

func (s *SQLiteStore) ListAudit() []services.AuditEntry {
	rows, err := s.db.Query(`SELECT at, actor, action, target, note FROM audit_log ORDER BY seq ASC`)
	if err != nil {
		log.Printf("sqlite store: list audit: %v", err)
		return nil
	}
	defer rows.Close()
	var out []services.AuditEntry
	for rows.Next() {
		var e services.AuditEntry
		var actor, target, note sql.NullString
		if err := rows.Scan(&e.Time, &actor, &e.Action, &target, &note); err != nil {
			log.Printf("sqlite store: scan audit: %v", err)
			return out
		}
		e.Actor = actor.String
		e.Target = target.String
		e.Note = note.String
		out = append(out, e)
	}
	return out
}
