package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/tauraamui/scandaemon/pkg/api/auth"
	"github.com/tauraamui/scandaemon/pkg/database/models"
	"github.com/tauraamui/scandaemon/pkg/log"
	"github.com/tauraamui/scandaemon/pkg/scanner"
	"github.com/tauraamui/scandaemon/pkg/state"
)

type tokenResponse struct {
	Token string `json:"token"`
}

type sessionResponse struct {
	Title string      `json:"title"`
	UUID  string      `json:"uuid"`
	State state.State `json:"state"`
}

type scanResponse struct {
	UUID         string    `json:"uuid"`
	CameraTitle  string    `json:"camera_title"`
	Format       string    `json:"format"`
	ValueType    string    `json:"value_type"`
	RawValue     string    `json:"raw_value"`
	DisplayValue string    `json:"display_value"`
	ScannedAt    time.Time `json:"scanned_at"`
}

func (h *handler) authenticate(w http.ResponseWriter, r *http.Request) {
	username, password, ok := r.BasicAuth()
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing credentials")
		return
	}
	if h.users == nil {
		writeError(w, http.StatusServiceUnavailable, "authentication unavailable")
		return
	}

	user, err := h.users.Authenticate(username, password)
	if err != nil {
		log.Warn("Failed login attempt for user [%s]", username)
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := auth.GenToken(h.secret, user.UUID)
	if err != nil {
		log.Error("Unable to generate token: %v", err)
		writeError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *handler) listSessions(w http.ResponseWriter, r *http.Request) {
	resp := []sessionResponse{}
	for _, sess := range h.sessions.Sessions() {
		resp = append(resp, sessionResponse{Title: sess.Title(), UUID: sess.UUID(), State: sess.State()})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) session(w http.ResponseWriter, r *http.Request) (*scanner.Session, bool) {
	title := mux.Vars(r)["title"]
	sess, ok := h.sessions.Session(title)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown camera: "+title)
	}
	return sess, ok
}

func (h *handler) sessionState(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (h *handler) takePicture(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if !sess.TakePicture() {
		writeError(w, http.StatusServiceUnavailable, "session is not running")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *handler) listScans(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); len(l) > 0 {
		v, err := strconv.Atoi(l)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = v
	}

	scans, err := sess.Scans(limit)
	if err != nil {
		log.Error("Unable to list scans for camera [%s]: %v", sess.Title(), err)
		writeError(w, http.StatusInternalServerError, "unable to list scans")
		return
	}
	writeJSON(w, http.StatusOK, toScanResponses(scans))
}

func toScanResponses(scans []models.Scan) []scanResponse {
	resp := make([]scanResponse, 0, len(scans))
	for _, s := range scans {
		resp = append(resp, scanResponse{
			UUID:         s.UUID,
			CameraTitle:  s.CameraTitle,
			Format:       s.Format,
			ValueType:    s.ValueType,
			RawValue:     s.RawValue,
			DisplayValue: s.DisplayValue,
			ScannedAt:    s.ScannedAt,
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Unable to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
