package api

import (
	"net/http"

	"github.com/mmynk/nutrimed/internal/apperr"
	"github.com/mmynk/nutrimed/internal/httpx"
	"github.com/mmynk/nutrimed/internal/service"
)

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, healthResponse{Message: "NutriMedAI API", Status: "ok"})
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			h.fail(w, r, apperr.Wrap(apperr.StoreUnavailable, "database unreachable", err))
			return
		}
	}
	httpx.WriteJSON(w, http.StatusOK, healthResponse{Message: "ready", Status: "ok"})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := h.decoder.Decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toTokenResponse(res))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := h.decoder.Decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTokenResponse(res))
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.CurrentUser(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) listAnalyses(w http.ResponseWriter, r *http.Request) {
	list, err := h.analyses.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAnalysisList(list))
}

func (h *Handler) createAnalysis(w http.ResponseWriter, r *http.Request) {
	var req createAnalysisRequest
	if err := h.decoder.Decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	a, err := h.analyses.Create(r.Context(), service.NewAnalysis{
		DishName: req.DishName,
		Text:     req.Analysis,
		Preview:  req.Preview,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toAnalysisResponse(a))
}

func (h *Handler) renameAnalysis(w http.ResponseWriter, r *http.Request) {
	var req renameAnalysisRequest
	if err := h.decoder.Decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.analyses.Rename(r.Context(), r.PathValue("id"), req.DishName); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) deleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := h.analyses.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) deleteAllAnalyses(w http.ResponseWriter, r *http.Request) {
	n, err := h.analyses.DeleteAll(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, deleteAllResponse{OK: true, Deleted: n})
}
