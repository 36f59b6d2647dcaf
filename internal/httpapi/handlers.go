package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kettleofketchup/DraftForge-sub000/internal/config"
	"github.com/kettleofketchup/DraftForge-sub000/internal/engine"
	"github.com/kettleofketchup/DraftForge-sub000/internal/hub"
	"github.com/kettleofketchup/DraftForge-sub000/internal/session"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// CreateDraft builds a session from a posted draft definition and returns the
// join code. Definition errors are the caller's problem; everything the
// engine rejects at construction comes back as a 400.
func CreateDraft(h *hub.Hub, log *zap.Logger, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var def engine.Definition
		if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if def.Rules == nil && (cfg.ReserveMs > 0 || cfg.GraceMs > 0) {
			rules := engine.DefaultRules()
			if cfg.ReserveMs > 0 {
				rules.ReserveMs = cfg.ReserveMs
			}
			if cfg.GraceMs > 0 {
				rules.GraceMs = cfg.GraceMs
			}
			def.Rules = &rules
		}
		state, err := engine.NewState(def)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			reply := make(chan *session.Session, 1)
			h.Inbox() <- hub.GetSession{Code: c, Reply: reply}
			if <-reply == nil {
				code = c
				break
			}
			log.Info("code collision, regenerating", zap.String("code", c))
		}

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.CreateSession{Code: code, State: state, Reply: reply}
		if <-reply == nil {
			http.Error(w, "failed to create draft", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

// GetDraft serves a point-in-time read of the draft for pages that render
// before the socket comes up.
func GetDraft(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.GetSession{Code: code, Reply: reply}
		sess := <-reply
		if sess == nil {
			http.Error(w, "draft not found", http.StatusNotFound)
			return
		}

		view := make(chan session.View, 1)
		sess.Inbox() <- session.GetView{Reply: view}
		v := <-view

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Code    string       `json:"code"`
			Version int          `json:"version"`
			State   engine.State `json:"state"`
		}{Code: code, Version: v.Version, State: v.State})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
