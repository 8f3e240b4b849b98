package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ssp-platform/ssp/internal/middleware"
	"github.com/ssp-platform/ssp/internal/services"
)

type Router struct {
	store          Store
	auth           *services.AuthService
	questionnaires *services.QuestionnaireService
	responses      *services.ResponseService
	appointments   *services.AppointmentService
}

func NewRouter(store Store) *Router {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Router{
		store:          store,
		auth:           services.NewAuthService(store, middleware.SignToken),
		questionnaires: services.NewQuestionnaireService(store),
		responses:      services.NewResponseService(store),
		appointments:   services.NewAppointmentService(store),
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	// public
	mux.HandleFunc("/api/auth/register", rt.handleRegister)       // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)             // POST
	mux.HandleFunc("/api/question-types", rt.handleQuestionTypes) // GET

	// everything else needs a valid token; role checks happen per handler
	authed := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }
	mux.Handle("/api/questionnaires", authed(rt.handleQuestionnaires))
	mux.Handle("/api/questionnaires/", authed(rt.handleQuestionnaire))
	mux.Handle("/api/appointments", authed(rt.handleAppointments))
	mux.Handle("/api/appointments/", authed(rt.handleAppointmentScoped))
	mux.Handle("/api/audit", authed(rt.handleAudit))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps service errors onto HTTP statuses; validation failures keep
// their structured shape so the editor can render them per question.
func writeErr(w http.ResponseWriter, err error) {
	if ve, ok := services.AsValidationError(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, ve.Result)
		return
	}
	status := http.StatusInternalServerError
	if se, ok := services.AsServiceError(err); ok {
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorForbidden:
			status = http.StatusForbidden
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		case services.ErrorBadGateway:
			status = http.StatusBadGateway
		}
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func claims(r *http.Request) (*middleware.Claims, bool) {
	return middleware.ClaimsFromContext(r.Context())
}

func requireAdmin(w http.ResponseWriter, r *http.Request) (*middleware.Claims, bool) {
	c, ok := claims(r)
	if !ok {
		writeErr(w, services.NewUnauthorizedError("unauthorized"))
		return nil, false
	}
	if c.Role != "admin" {
		writeErr(w, services.NewForbiddenError("forbidden"))
		return nil, false
	}
	return c, true
}

// POST /api/auth/register
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "user_id": res.UserID, "role": res.Role})
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "user_id": res.UserID, "role": res.Role})
}

// GET /api/question-types returns the static type catalog driving the editor.
func (rt *Router) handleQuestionTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"question_types": services.QuestionTypeCatalog()})
}

// GET|POST /api/questionnaires
func (rt *Router) handleQuestionnaires(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rt.listQuestionnaires(w, r)
	case http.MethodPost:
		rt.createQuestionnaire(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (rt *Router) listQuestionnaires(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	q := r.URL.Query()
	filter := services.QuestionnaireFilter{
		Title:    q.Get("title"),
		Status:   services.QuestionnaireStatus(q.Get("status")),
		UserType: services.UserType(q.Get("user_type")),
		Skip:     intQuery(q.Get("skip")),
		Limit:    intQuery(q.Get("limit")),
	}
	list, total, err := rt.questionnaires.List(filter)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questionnaires": list, "total": total, "skip": filter.Skip, "limit": filter.Limit})
}

func (rt *Router) createQuestionnaire(w http.ResponseWriter, r *http.Request) {
	c, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	var draft services.Questionnaire
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := rt.questionnaires.Create(c.UID, &draft)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// /api/questionnaires/{id}[/status|/duplicate|/responses] and
// /api/questionnaires/assigned
func (rt *Router) handleQuestionnaire(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/questionnaires/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}

	if parts[0] == "assigned" && len(parts) == 1 {
		rt.listAssigned(w, r)
		return
	}

	id := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			rt.getQuestionnaire(w, r, id)
		case http.MethodPut:
			rt.updateQuestionnaire(w, r, id)
		case http.MethodDelete:
			rt.deleteQuestionnaire(w, r, id)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch parts[1] {
	case "status":
		rt.changeStatus(w, r, id)
	case "duplicate":
		rt.duplicateQuestionnaire(w, r, id)
	case "responses":
		rt.submitResponse(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (rt *Router) listAssigned(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	c, ok := claims(r)
	if !ok {
		writeErr(w, services.NewUnauthorizedError("unauthorized"))
		return
	}
	userType := c.Role
	if v := r.URL.Query().Get("user_type"); v != "" && c.Role == "admin" {
		userType = v
	}
	list, err := rt.questionnaires.ListAssigned(services.UserType(userType))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questionnaires": list, "total": len(list)})
}

func (rt *Router) getQuestionnaire(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := claims(r); !ok {
		writeErr(w, services.NewUnauthorizedError("unauthorized"))
		return
	}
	q, err := rt.questionnaires.Get(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if q == nil {
		writeErr(w, services.NewNotFoundError("questionnaire not found"))
		return
	}
	if n, err := rt.responses.CompletedCount(id); err == nil {
		q.TotalResponses = n
	}
	writeJSON(w, http.StatusOK, q)
}

func (rt *Router) updateQuestionnaire(w http.ResponseWriter, r *http.Request, id string) {
	c, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	var req struct {
		Title             *string                       `json:"title"`
		Description       *string                       `json:"description"`
		Questions         *[]services.Question          `json:"questions"`
		AssignedUserTypes *[]services.UserType          `json:"assigned_user_types"`
		StartDate         *time.Time                    `json:"start_date"`
		EndDate           *time.Time                    `json:"end_date"`
		Status            *services.QuestionnaireStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	updated, err := rt.questionnaires.Update(id, c.UID, services.QuestionnairePatch{
		Title:             req.Title,
		Description:       req.Description,
		Questions:         req.Questions,
		AssignedUserTypes: req.AssignedUserTypes,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		Status:            req.Status,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (rt *Router) deleteQuestionnaire(w http.ResponseWriter, r *http.Request, id string) {
	c, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	if err := rt.questionnaires.Delete(id, c.UID); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// PUT /api/questionnaires/{id}/status
func (rt *Router) changeStatus(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	c, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	var req struct {
		Status services.QuestionnaireStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := rt.questionnaires.ChangeStatus(id, c.UID, req.Status); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "status": req.Status})
}

// POST /api/questionnaires/{id}/duplicate
func (rt *Router) duplicateQuestionnaire(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	c, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	copy, err := rt.questionnaires.Duplicate(id, c.UID, req.Title)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, copy)
}

// POST /api/questionnaires/{id}/responses
func (rt *Router) submitResponse(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	c, ok := claims(r)
	if !ok {
		writeErr(w, services.NewUnauthorizedError("unauthorized"))
		return
	}
	var req struct {
		Answers []services.Answer `json:"answers"`
		Partial bool              `json:"partial"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var resp *services.QuestionnaireResponse
	var err error
	if req.Partial {
		resp, err = rt.responses.SaveProgress(id, c.UID, req.Answers)
	} else {
		resp, err = rt.responses.Submit(id, c.UID, req.Answers)
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/audit returns the mutation trail, admin only.
func (rt *Router) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	entries := rt.store.ListAudit()
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "total": len(entries)})
}

// GET|POST /api/appointments
func (rt *Router) handleAppointments(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(r)
	if !ok {
		writeErr(w, services.NewUnauthorizedError("unauthorized"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		bucket := services.AppointmentBucket(r.URL.Query().Get("view"))
		list, err := rt.appointments.ListByBucket(c.UID, bucket)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"appointments": list, "total": len(list)})
	case http.MethodPost:
		var req struct {
			Kind        services.AppointmentKind `json:"kind"`
			Motive      string                   `json:"motive"`
			PreferredAt *time.Time               `json:"preferred_at"`
			Notes       string                   `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		a, err := rt.appointments.Request(c.UID, req.Kind, req.Motive, req.PreferredAt, req.Notes)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// PUT /api/appointments/{id}/confirm|complete|cancel
func (rt *Router) handleAppointmentScoped(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(r)
	if !ok {
		writeErr(w, services.NewUnauthorizedError("unauthorized"))
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/appointments/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := parts[0]

	var a *services.Appointment
	var err error
	switch parts[1] {
	case "confirm":
		if c.Role != "staff" && c.Role != "admin" {
			writeErr(w, services.NewForbiddenError("forbidden"))
			return
		}
		var req struct {
			ScheduledAt time.Time `json:"scheduled_at"`
			Location    string    `json:"location"`
		}
		if derr := json.NewDecoder(r.Body).Decode(&req); derr != nil {
			http.Error(w, derr.Error(), http.StatusBadRequest)
			return
		}
		a, err = rt.appointments.Confirm(id, c.UID, req.ScheduledAt, req.Location)
	case "complete":
		if c.Role != "staff" && c.Role != "admin" {
			writeErr(w, services.NewForbiddenError("forbidden"))
			return
		}
		var req struct {
			Notes string `json:"notes"`
		}
		// body is optional here
		if derr := json.NewDecoder(r.Body).Decode(&req); derr != nil && !errors.Is(derr, io.EOF) {
			http.Error(w, derr.Error(), http.StatusBadRequest)
			return
		}
		a, err = rt.appointments.Complete(id, c.UID, req.Notes)
	case "cancel":
		a, err = rt.appointments.Cancel(id, c.UID, c.Role == "admin")
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func intQuery(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
