package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"collegedecision/internal/dataset"
	"collegedecision/internal/datespec"
	"collegedecision/internal/decision"
	"collegedecision/internal/ics"
	"collegedecision/internal/listing"
	appLog "collegedecision/internal/log"
	"collegedecision/internal/model"
	"collegedecision/internal/ratelimit"
	"collegedecision/internal/store"
	"collegedecision/internal/suggest"
)

const (
	maxJSONBody   = 64 << 10
	maxImportBody = 1 << 20
	// maxCustom caps one visitor's custom list.
	maxCustom = 100
)

// universityDTO is one row of /api/universities.
type universityDTO struct {
	model.University
	Status   decision.Status `json:"status"`
	IsToday  bool            `json:"isToday"`
	IsPassed bool            `json:"isPassed"`
	Logo     string          `json:"logo"`
}

type universitiesResponse struct {
	Now          time.Time       `json:"now"`
	Universities []universityDTO `json:"universities"`
}

// handleUniversities returns the merged list in display order.
func (s *Server) handleUniversities(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	list := s.sorter.Sort(s.universities(r), now)

	resp := universitiesResponse{Now: now, Universities: make([]universityDTO, 0, len(list))}
	for _, u := range list {
		c := decision.Classify(u, now)
		resp.Universities = append(resp.Universities, universityDTO{
			University: u,
			Status:     c.Status,
			IsToday:    c.IsToday,
			IsPassed:   c.IsPassed,
			Logo:       s.logoPath(u),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type snapshotResponse struct {
	decision.Snapshot
	Logo     string                `json:"logo"`
	Calendar map[string]*ics.Links `json:"calendar"`
}

// handleUniversity returns one countdown snapshot.
func (s *Server) handleUniversity(w http.ResponseWriter, r *http.Request) {
	u, err := listing.FindByDomain(s.universities(r), r.PathValue("domain"))
	if err != nil {
		writeError(w, http.StatusNotFound, "university not found")
		return
	}
	snap := decision.Snap(u, s.now())
	writeJSON(w, http.StatusOK, snapshotResponse{
		Snapshot: snap,
		Logo:     s.logoPath(u),
		Calendar: calendarLinks(snap),
	})
}

// handleUniversityCalendar exports one university's decision dates.
//
// GET /api/universities/{domain}/calendar.ics?reminders=7
//   - reminders: daily countdown reminders before the regular date (0-60)
func (s *Server) handleUniversityCalendar(w http.ResponseWriter, r *http.Request) {
	u, err := listing.FindByDomain(s.universities(r), r.PathValue("domain"))
	if err != nil {
		writeError(w, http.StatusNotFound, "university not found")
		return
	}
	s.writeCalendar(w, r, []model.University{u}, u.Name+" Decisions", u.Domain+".ics")
}

// handleCalendar exports every listed university.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	s.writeCalendar(w, r, s.universities(r), "College Decisions", "decisions.ics")
}

func (s *Server) writeCalendar(w http.ResponseWriter, r *http.Request, list []model.University, name, filename string) {
	days := parseIntDefault(r.URL.Query().Get("reminders"), 0)
	if days < 0 {
		days = 0
	}
	if days > ics.MaxReminderDays {
		days = ics.MaxReminderDays
	}

	body, err := ics.Export(list, ics.ExportOptions{
		BaseURL:      s.cfg.BaseURL,
		Name:         name,
		ReminderDays: days,
		Now:          s.now(),
	})
	if err != nil {
		appLog.Error("calendar export failed", err, "file", filename)
		writeError(w, http.StatusInternalServerError, "failed to export calendar")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type suggestRequest struct {
	Suggestion string `json:"suggestion"`
}

// handleSuggest relays a "please add X" suggestion to Discord.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	// A malformed body is reported after the limiter has counted it.
	_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req)

	err := s.suggest.Submit(r.Context(), clientIP(r), req.Suggestion, s.universities(r))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	case errors.Is(err, ratelimit.ErrLimited):
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
	case errors.Is(err, suggest.ErrEmpty):
		writeError(w, http.StatusBadRequest, "Invalid suggestion")
	case errors.Is(err, suggest.ErrDuplicate):
		writeError(w, http.StatusConflict, "University already listed")
	default:
		appLog.Error("suggestion error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// customRequest is the payload of POST /api/custom.
type customRequest struct {
	Name                string          `json:"name" validate:"required,max=200"`
	Domain              string          `json:"domain" validate:"required,max=253"`
	NotificationEarly   string          `json:"notificationEarly"`
	NotificationRegular string          `json:"notificationRegular" validate:"required"`
	ShowEarly           bool            `json:"showEarly"`
	Time                string          `json:"time"`
	NotConfirmedDate    bool            `json:"notConfirmedDate"`
	Gradient            *model.Gradient `json:"gradient"`
}

type customResponse struct {
	Universities []model.University `json:"universities"`
}

func (s *Server) handleCustomList(w http.ResponseWriter, r *http.Request) {
	custom := s.state(r).Custom
	if custom == nil {
		custom = []model.University{}
	}
	writeJSON(w, http.StatusOK, customResponse{Universities: custom})
}

// handleCustomAdd stores one visitor-defined university. Entries that
// collide with a listed university by domain or name are rejected.
func (s *Server) handleCustomAdd(w http.ResponseWriter, r *http.Request) {
	var req customRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	u, err := dataset.Resolve(model.University{
		ID:                  uuid.NewString(),
		Name:                strings.TrimSpace(req.Name),
		Domain:              req.Domain,
		NotificationEarly:   strings.TrimSpace(req.NotificationEarly),
		NotificationRegular: strings.TrimSpace(req.NotificationRegular),
		ShowEarly:           req.ShowEarly,
		Time:                req.Time,
		NotConfirmedDate:    req.NotConfirmedDate,
		Gradient:            req.Gradient,
		Custom:              true,
	})
	if err != nil {
		writeValidationError(w, err)
		return
	}
	if _, err := datespec.Parse(u.NotificationRegular, u.Time); err != nil {
		writeError(w, http.StatusBadRequest, "invalid notificationRegular: "+err.Error())
		return
	}
	if u.ShowEarly {
		if _, err := datespec.Parse(u.NotificationEarly, u.Time); err != nil {
			writeError(w, http.StatusBadRequest, "invalid notificationEarly: "+err.Error())
			return
		}
	}

	owner := ensureVisitor(w, r)
	st, err := store.LoadOrEmpty(r.Context(), s.store, owner)
	if err != nil {
		appLog.Error("failed to load visitor state", err, "client", owner)
		writeError(w, http.StatusInternalServerError, "failed to load custom list")
		return
	}
	if len(st.Custom) >= maxCustom {
		writeError(w, http.StatusUnprocessableEntity, "custom list is full")
		return
	}
	if clash, ok := listing.Conflict(listing.Merge(s.static, st.Custom), u); ok {
		writeError(w, http.StatusConflict, "conflicts with "+clash.Name)
		return
	}

	st.Custom = append(st.Custom, u)
	if err := s.store.Save(r.Context(), owner, st); err != nil {
		appLog.Error("failed to save visitor state", err, "client", owner)
		writeError(w, http.StatusInternalServerError, "failed to save custom list")
		return
	}
	appLog.Info("custom university added", "client", owner, "domain", u.Domain)
	writeJSON(w, http.StatusCreated, u)
}

// handleCustomClear drops the visitor's custom list, keeping the selection.
func (s *Server) handleCustomClear(w http.ResponseWriter, r *http.Request) {
	owner, ok := visitor(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	st, err := store.LoadOrEmpty(r.Context(), s.store, owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load custom list")
		return
	}
	st.Custom = nil
	if err := s.saveOrClear(r, owner, st); err != nil {
		appLog.Error("failed to clear custom list", err, "client", owner)
		writeError(w, http.StatusInternalServerError, "failed to clear custom list")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCustomDelete removes one custom entry by id.
func (s *Server) handleCustomDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	owner, ok := visitor(r)
	if !ok {
		writeError(w, http.StatusNotFound, "custom university not found")
		return
	}
	st, err := store.LoadOrEmpty(r.Context(), s.store, owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load custom list")
		return
	}

	kept := st.Custom[:0:0]
	for _, u := range st.Custom {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(st.Custom) {
		writeError(w, http.StatusNotFound, "custom university not found")
		return
	}
	st.Custom = kept
	if err := s.saveOrClear(r, owner, st); err != nil {
		appLog.Error("failed to save visitor state", err, "client", owner)
		writeError(w, http.StatusInternalServerError, "failed to save custom list")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type importResponse struct {
	Imported []model.University `json:"imported"`
	Skipped  int                `json:"skipped"`
}

// handleCustomImport reads a calendar previously exported by this site and
// adds its universities to the visitor's custom list.
func (s *Server) handleCustomImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "calendar too large")
		return
	}
	events, err := ics.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid calendar")
		return
	}

	owner := ensureVisitor(w, r)
	st, err := store.LoadOrEmpty(r.Context(), s.store, owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load custom list")
		return
	}

	resp := importResponse{Imported: []model.University{}}
	for _, raw := range ics.Universities(events) {
		raw.ID = uuid.NewString()
		raw.Custom = true
		u, err := dataset.Resolve(raw)
		if err != nil || len(st.Custom) >= maxCustom {
			resp.Skipped++
			continue
		}
		if _, clash := listing.Conflict(listing.Merge(s.static, st.Custom), u); clash {
			resp.Skipped++
			continue
		}
		st.Custom = append(st.Custom, u)
		resp.Imported = append(resp.Imported, u)
	}

	if len(resp.Imported) > 0 {
		if err := s.store.Save(r.Context(), owner, st); err != nil {
			appLog.Error("failed to save visitor state", err, "client", owner)
			writeError(w, http.StatusInternalServerError, "failed to save custom list")
			return
		}
	}
	appLog.Info("calendar imported", "client", owner, "imported", len(resp.Imported), "skipped", resp.Skipped)
	writeJSON(w, http.StatusOK, resp)
}

type selectRequest struct {
	Domain string `json:"domain" validate:"required,max=253"`
}

// handleSelect remembers the visitor's last opened countdown.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	owner := ensureVisitor(w, r)
	st, err := store.LoadOrEmpty(r.Context(), s.store, owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load selection")
		return
	}
	u, err := listing.FindByDomain(listing.Merge(s.static, st.Custom), req.Domain)
	if err != nil {
		writeError(w, http.StatusNotFound, "university not found")
		return
	}
	st.LastSelected = u.Domain
	if err := s.store.Save(r.Context(), owner, st); err != nil {
		appLog.Error("failed to save selection", err, "client", owner)
		writeError(w, http.StatusInternalServerError, "failed to save selection")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"selected": u.Domain})
}

// handleUnselect forgets the last opened countdown.
func (s *Server) handleUnselect(w http.ResponseWriter, r *http.Request) {
	owner, ok := visitor(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	st, err := store.LoadOrEmpty(r.Context(), s.store, owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load selection")
		return
	}
	st.LastSelected = ""
	if err := s.saveOrClear(r, owner, st); err != nil {
		appLog.Error("failed to clear selection", err, "client", owner)
		writeError(w, http.StatusInternalServerError, "failed to clear selection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// saveOrClear saves st, or clears the owner entirely once st is empty.
func (s *Server) saveOrClear(r *http.Request, owner string, st store.State) error {
	if len(st.Custom) == 0 && st.LastSelected == "" {
		return s.store.Clear(r.Context(), owner)
	}
	return s.store.Save(r.Context(), owner, st)
}
