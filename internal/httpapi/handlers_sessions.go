package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/session"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/syncer"
)

type createSessionRequest struct {
	ID string `json:"id,omitempty" validate:"omitempty,max=128"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = s.newID()
	}
	st := session.New(id, s.now())
	if err := s.sessions.Create(r.Context(), st); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "session": st})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{"ok": true, "session": st}
	if sync := s.syncStatus(st); len(sync) > 0 {
		resp["sync"] = sync
	}
	writeJSON(w, http.StatusOK, resp)
}

// syncStatus reports the dispatch state of the session's verdict and plan
// records while the dispatcher still tracks them.
func (s *Server) syncStatus(st session.State) map[string]string {
	if s.sync == nil || st.VerdictID == "" {
		return nil
	}
	out := map[string]string{}
	for _, kind := range []syncer.Kind{syncer.KindVerdict, syncer.KindPlan} {
		rec := syncer.Record{Kind: kind, VerdictID: st.VerdictID}
		if task, ok := s.sync.Lookup(rec.Key()); ok && task != nil {
			out[string(kind)] = string(task.State())
		}
	}
	return out
}

func (s *Server) handleSessionCommand(w http.ResponseWriter, r *http.Request) {
	var cmd session.Command
	if err := s.decode(r, &cmd); err != nil {
		writeError(w, err)
		return
	}
	cmd.At = s.now()
	if cmd.Type == session.CmdSubmitAudit {
		cmd.VerdictID = s.newID()
	}
	st, err := s.sessions.Update(r.Context(), chi.URLParam(r, "id"), func(cur session.State) (session.State, error) {
		return session.Apply(cur, cmd)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	s.afterCommand(cmd, st)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "session": st})
}

// afterCommand records metrics and schedules sync for commands that complete
// an audit step.
func (s *Server) afterCommand(cmd session.Command, st session.State) {
	switch cmd.Type {
	case session.CmdSubmitAudit:
		if st.Verdict == nil {
			return
		}
		if s.metrics != nil {
			s.metrics.ObserveAudit(string(st.Verdict.Bottleneck))
		}
		s.dispatch(syncer.Record{Kind: syncer.KindVerdict, VerdictID: st.VerdictID, SessionID: st.ID, Verdict: *st.Verdict, At: st.UpdatedAt})
	case session.CmdAttachSoft:
		if st.Verdict == nil || st.Plan == nil {
			return
		}
		if s.metrics != nil {
			s.metrics.ObservePlan(string(st.Verdict.Bottleneck), string(cmd.SoftBottleneck))
		}
		if st.VerdictID == "" {
			log.Warn().Str("session_id", st.ID).Msg("plan generated without verdict id, not synced")
			return
		}
		s.dispatch(syncer.Record{Kind: syncer.KindPlan, VerdictID: st.VerdictID, SessionID: st.ID, Verdict: *st.Verdict, Plan: st.Plan, At: st.UpdatedAt})
	case session.CmdSkipPrescription:
		if s.metrics != nil {
			s.metrics.ObserveSkip()
		}
	}
}
