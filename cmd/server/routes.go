package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Vobludalib/tournament-server/internal/bracket"
	"github.com/Vobludalib/tournament-server/internal/httputil"
	"github.com/Vobludalib/tournament-server/internal/middleware"
	"github.com/Vobludalib/tournament-server/internal/service"
	"github.com/Vobludalib/tournament-server/internal/wire"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// respondError maps the model's error taxonomy onto status codes: absent
// things are 404, malformed documents 400, declined transitions 409 and
// invariant violations 500.
func respondError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, bracket.ErrNotFound):
		httputil.NotFound(w, r, msg, err)
	case errors.Is(err, wire.ErrDocument), errors.Is(err, bracket.ErrDuplicateID):
		httputil.BadRequest(w, r, msg, err)
	case errors.Is(err, bracket.ErrInvalidOperation), errors.Is(err, bracket.ErrValidation):
		httputil.Conflict(w, r, msg, err)
	default:
		httputil.InternalServerError(w, r, msg, err)
	}
}

func intParam(r *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, name))
}

func newRouter(svc *service.TournamentService) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/tournament", func(w http.ResponseWriter, r *http.Request) {
		doc, err := svc.Document(r.Context())
		if err != nil {
			respondError(w, r, "Failed to render tournament", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, doc)
	})

	r.Put("/tournament", func(w http.ResponseWriter, r *http.Request) {
		var doc wire.TournamentDocument
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			httputil.BadRequest(w, r, "Invalid tournament document", err)
			return
		}
		if err := svc.Replace(r.Context(), &doc); err != nil {
			respondError(w, r, "Failed to load tournament document", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/tournament/status", func(w http.ResponseWriter, r *http.Request) {
		status, err := svc.Status(r.Context())
		if err != nil {
			respondError(w, r, "Failed to get status", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": string(status)})
	})

	r.Post("/tournament/start", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Start(r.Context()); err != nil {
			respondError(w, r, "Failed to start tournament", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/tournament/finish", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Finish(r.Context()); err != nil {
			respondError(w, r, "Failed to finish tournament", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/tournament/data", func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.Data(r.Context())
		if err != nil {
			respondError(w, r, "Failed to get data", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, data)
	})

	r.Get("/tournament/data/{key}", func(w http.ResponseWriter, r *http.Request) {
		value, err := svc.DataValue(r.Context(), chi.URLParam(r, "key"))
		if err != nil {
			respondError(w, r, "Failed to get data entry", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"value": value})
	})

	r.Put("/tournament/data/{key}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			httputil.BadRequest(w, r, "Invalid data entry", err)
			return
		}
		if err := svc.UpsertDataValue(r.Context(), chi.URLParam(r, "key"), body.Value); err != nil {
			respondError(w, r, "Failed to upsert data entry", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Delete("/tournament/data/{key}", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteDataValue(r.Context(), chi.URLParam(r, "key")); err != nil {
			respondError(w, r, "Failed to delete data entry", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/entrants", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			entrants, err := svc.Entrants(r.Context())
			if err != nil {
				respondError(w, r, "Failed to list entrants", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, entrants)
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var doc wire.EntrantDocument
			if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
				httputil.BadRequest(w, r, "Invalid entrant document", err)
				return
			}
			if err := svc.CreateEntrant(r.Context(), doc); err != nil {
				respondError(w, r, "Failed to create entrant", err)
				return
			}
			w.WriteHeader(http.StatusCreated)
		})

		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := intParam(r, "id")
			if err != nil {
				httputil.BadRequest(w, r, "Invalid entrant ID", err)
				return
			}
			doc, err := svc.Entrant(r.Context(), id)
			if err != nil {
				respondError(w, r, "Failed to get entrant", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, doc)
		})

		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := intParam(r, "id")
			if err != nil {
				httputil.BadRequest(w, r, "Invalid entrant ID", err)
				return
			}
			if err := svc.DeleteEntrant(r.Context(), id); err != nil {
				respondError(w, r, "Failed to delete entrant", err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	r.Route("/sets", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			sets, err := svc.Sets(r.Context())
			if err != nil {
				respondError(w, r, "Failed to list sets", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, sets)
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var input service.SetInput
			if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
				httputil.BadRequest(w, r, "Invalid set document", err)
				return
			}
			if err := svc.CreateSet(r.Context(), input); err != nil {
				respondError(w, r, "Failed to create set", err)
				return
			}
			w.WriteHeader(http.StatusCreated)
		})

		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := intParam(r, "id")
			if err != nil {
				httputil.BadRequest(w, r, "Invalid set ID", err)
				return
			}
			doc, err := svc.Set(r.Context(), id)
			if err != nil {
				respondError(w, r, "Failed to get set", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, doc)
		})

		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := intParam(r, "id")
			if err != nil {
				httputil.BadRequest(w, r, "Invalid set ID", err)
				return
			}
			if err := svc.DeleteSet(r.Context(), id); err != nil {
				respondError(w, r, "Failed to delete set", err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/{id}/setup-complete", func(w http.ResponseWriter, r *http.Request) {
			id, err := intParam(r, "id")
			if err != nil {
				httputil.BadRequest(w, r, "Invalid set ID", err)
				return
			}
			if err := svc.SetSetupComplete(r.Context(), id); err != nil {
				respondError(w, r, "Failed to complete set setup", err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/{id}/start", func(w http.ResponseWriter, r *http.Request) {
			id, err := intParam(r, "id")
			if err != nil {
				httputil.BadRequest(w, r, "Invalid set ID", err)
				return
			}
			if err := svc.StartSet(r.Context(), id); err != nil {
				respondError(w, r, "Failed to start set", err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/{id}/evaluate", func(w http.ResponseWriter, r *http.Request) {
			id, err := intParam(r, "id")
			if err != nil {
				httputil.BadRequest(w, r, "Invalid set ID", err)
				return
			}
			changed, err := svc.EvaluateSet(r.Context(), id)
			if err != nil {
				respondError(w, r, "Failed to evaluate set", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, map[string]bool{"changed": changed})
		})

		r.Post("/{id}/propagate", func(w http.ResponseWriter, r *http.Request) {
			id, err := intParam(r, "id")
			if err != nil {
				httputil.BadRequest(w, r, "Invalid set ID", err)
				return
			}
			changed, err := svc.PropagateSet(r.Context(), id)
			if err != nil {
				respondError(w, r, "Failed to propagate set", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, map[string]bool{"changed": changed})
		})

		r.Put("/{id}/games/{number}", func(w http.ResponseWriter, r *http.Request) {
			id, err := intParam(r, "id")
			if err != nil {
				httputil.BadRequest(w, r, "Invalid set ID", err)
				return
			}
			number, err := intParam(r, "number")
			if err != nil {
				httputil.BadRequest(w, r, "Invalid game number", err)
				return
			}
			var body struct {
				Data map[string]string `json:"data"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, r, "Invalid game document", err)
				return
			}
			if err := svc.PutGame(r.Context(), id, number, body.Data); err != nil {
				respondError(w, r, "Failed to put game", err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/{id}/games/{number}/start", func(w http.ResponseWriter, r *http.Request) {
			id, err := intParam(r, "id")
			if err != nil {
				httputil.BadRequest(w, r, "Invalid set ID", err)
				return
			}
			number, err := intParam(r, "number")
			if err != nil {
				httputil.BadRequest(w, r, "Invalid game number", err)
				return
			}
			if err := svc.StartGame(r.Context(), id, number); err != nil {
				respondError(w, r, "Failed to start game", err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/{id}/games/{number}/rollback", func(w http.ResponseWriter, r *http.Request) {
			id, err := intParam(r, "id")
			if err != nil {
				httputil.BadRequest(w, r, "Invalid set ID", err)
				return
			}
			number, err := intParam(r, "number")
			if err != nil {
				httputil.BadRequest(w, r, "Invalid game number", err)
				return
			}
			if err := svc.RollbackGame(r.Context(), id, number); err != nil {
				respondError(w, r, "Failed to roll back game", err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/{id}/games/{number}/winner", func(w http.ResponseWriter, r *http.Request) {
			id, err := intParam(r, "id")
			if err != nil {
				httputil.BadRequest(w, r, "Invalid set ID", err)
				return
			}
			number, err := intParam(r, "number")
			if err != nil {
				httputil.BadRequest(w, r, "Invalid game number", err)
				return
			}
			var body struct {
				EntrantID int `json:"entrantId"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, r, "Invalid winner document", err)
				return
			}
			if err := svc.SetGameWinner(r.Context(), id, number, body.EntrantID); err != nil {
				respondError(w, r, "Failed to set game winner", err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}
