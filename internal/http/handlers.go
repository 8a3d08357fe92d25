package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/events"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/pubsub"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/store"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/tournament"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/verification"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// VerifyMemberHandler is the verification request surface. Response codes
// follow the error taxonomy: 404 missing documents, 400 bad request or
// membership problems, 409 event conflicts, 500 anything unexpected.
func (s *Server) VerifyMemberHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req verification.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("Failed to decode verify request", "error", err, "requestID", requestIDFromContext(r))
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		result, err := s.Verifier.Verify(r.Context(), req)
		if err != nil {
			s.writeVerifyError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) writeVerifyError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound   *verification.NotFoundError
		membership *verification.MembershipError
		conflict   *verification.ConflictError
		validation *verification.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &membership):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &conflict):
		writeJSONError(w, http.StatusConflict, err.Error())
	default:
		log.Error("Verification failed unexpectedly", "error", err, "requestID", requestIDFromContext(r))
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

// EventLabelsHandler resolves a team's raw event references to display
// labels, the same resolution the verifier uses for conflict checking.
func (s *Server) EventLabelsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID := r.URL.Query().Get("teamId")
		if teamID == "" {
			writeJSONError(w, http.StatusBadRequest, "missing teamId")
			return
		}
		doc, err := s.Store.Get(r.Context(), store.Teams, teamID)
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			log.Error("Failed to load team", "error", err, "teamID", teamID)
			writeJSONError(w, http.StatusInternalServerError, "internal error")
			return
		}
		team := tournament.TeamFromDoc(doc)
		refs := events.References(team)
		labels, err := s.Resolver.ResolveLabels(r.Context(), team.TournamentID, refs)
		if err != nil {
			log.Error("Failed to resolve event labels", "error", err, "teamID", teamID)
			writeJSONError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"references": refs,
			"labels":     labels,
		})
	}
}

// GetHistoryHandler returns one athlete's derived history document.
func (s *Server) GetHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		globalID := r.URL.Query().Get("globalId")
		if globalID == "" {
			writeJSONError(w, http.StatusBadRequest, "missing globalId")
			return
		}
		doc, err := s.Store.Get(r.Context(), store.UserHistory, globalID)
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "no history for athlete")
			return
		}
		if err != nil {
			log.Error("Failed to load history", "error", err, "globalID", globalID)
			writeJSONError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, doc.Data)
	}
}

// RequestRebuildHandler publishes a manual rebuild request for one athlete.
// The rebuild itself runs when the push subscription delivers the message.
func (s *Server) RequestRebuildHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		globalID := r.URL.Query().Get("globalId")
		if globalID == "" {
			writeJSONError(w, http.StatusBadRequest, "missing globalId")
			return
		}
		if err := s.pubsub.SendMessage(pubsub.EventRebuildHistory, pubsub.RebuildRequest{GlobalID: globalID}); err != nil {
			log.Error("Failed to publish rebuild request", "error", err, "globalID", globalID)
			writeJSONError(w, http.StatusInternalServerError, "failed to publish rebuild request")
			return
		}
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, "Rebuild requested for %s", globalID)
	}
}

// BestTimeTriggerHandler consumes record-written push messages and folds the
// written record into the athlete's personal bests. Failures are logged and
// swallowed; there is no retry, the next write self-heals.
func (s *Server) BestTimeTriggerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev pubsub.RecordEvent
		if !s.decodePushMessage(w, r, &ev) {
			return
		}
		if ev.After == nil {
			// Deletions carry no after snapshot; recomputation never runs for them.
			w.Write([]byte("OK"))
			return
		}
		if err := s.BestTime.Apply(r.Context(), ev.After); err != nil {
			log.Error("Best time upsert failed", "error", err, "collection", ev.Collection, "id", ev.ID)
		}
		w.Write([]byte("OK"))
	}
}

// HistoryTriggerHandler consumes record-written push messages and rebuilds
// the history of every affected athlete.
func (s *Server) HistoryTriggerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev pubsub.RecordEvent
		if !s.decodePushMessage(w, r, &ev) {
			return
		}
		s.History.HandleRecordWrite(r.Context(), ev)
		w.Write([]byte("OK"))
	}
}

// RebuildTriggerHandler consumes manual rebuild requests.
func (s *Server) RebuildTriggerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pubsub.RebuildRequest
		if !s.decodePushMessage(w, r, &req) {
			return
		}
		if req.GlobalID == "" {
			log.Warn("Rebuild request without globalId, ignoring")
			w.Write([]byte("OK"))
			return
		}
		if err := s.History.Rebuild(r.Context(), req.GlobalID); err != nil {
			log.Error("Manual history rebuild failed", "error", err, "globalID", req.GlobalID)
		}
		w.Write([]byte("OK"))
	}
}

// decodePushMessage unwraps the push subscription envelope (base64 payload
// inside a JSON wrapper) and decodes the payload into out. It writes the
// error response itself and reports whether decoding succeeded.
func (s *Server) decodePushMessage(w http.ResponseWriter, r *http.Request, out any) bool {
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("Failed to read request body", "error", err)
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return false
	}
	log.Debug("Received push message", "body", string(bodyBytes))

	var pubsubMsg struct {
		Subscription string `json:"subscription"`
		Message      struct {
			Data string `json:"data"`
		} `json:"message"`
	}
	if err := json.Unmarshal(bodyBytes, &pubsubMsg); err != nil {
		log.Error("Failed to unmarshal wrapper JSON", "error", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}

	rawData, err := base64.StdEncoding.DecodeString(pubsubMsg.Message.Data)
	if err != nil {
		log.Error("Failed to decode base64 data", "error", err)
		http.Error(w, "Invalid base64 data", http.StatusBadRequest)
		return false
	}
	if err := s.pubsub.ProcessMessage(rawData, out); err != nil {
		http.Error(w, "Invalid message payload", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
