package goal

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ajo/internal/contribution"
	"github.com/MrJamesThe3rd/ajo/internal/goal"
	"github.com/MrJamesThe3rd/ajo/internal/http/api"
)

type Handler struct {
	goals         *goal.Service
	contributions *contribution.Service
}

func NewHandler(goals *goal.Service, contributions *contribution.Service) *Handler {
	return &Handler{goals: goals, contributions: contributions}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/summary", h.summary)
	r.Get("/{id}", h.get)
	r.Get("/{id}/contributions", h.contributionsFor)
}

type createGoalRequest struct {
	Name         string          `json:"name" validate:"required,max=120"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	TargetDate   string          `json:"target_date" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, r, err)
		return
	}

	params := goal.CreateParams{
		UserID:       api.User(r),
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
	}

	if req.TargetDate != "" {
		date, err := api.ParseDate(req.TargetDate)
		if err != nil {
			api.Error(w, r, err)
			return
		}

		params.TargetDate = &date
	}

	g, err := h.goals.Create(r.Context(), params)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusCreated, toGoalResponse(g))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	progress, err := h.goals.List(r.Context(), api.User(r))
	if err != nil {
		api.Error(w, r, err)
		return
	}

	resp := make([]progressResponse, len(progress))
	for i := range progress {
		resp[i] = toProgressResponse(&progress[i])
	}

	api.JSON(w, http.StatusOK, resp)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.goals.Summary(r.Context(), api.User(r))
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, summaryResponse{
		Goals:     s.Goals,
		Completed: s.Completed,
		Saved:     s.Saved,
		Target:    s.Target,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLID(r, "id")
	if err != nil {
		api.Error(w, r, err)
		return
	}

	p, err := h.goals.Progress(r.Context(), api.User(r), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, toProgressResponse(p))
}

func (h *Handler) contributionsFor(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLID(r, "id")
	if err != nil {
		api.Error(w, r, err)
		return
	}

	// Progress doubles as the ownership check.
	if _, err := h.goals.Progress(r.Context(), api.User(r), id); err != nil {
		api.Error(w, r, err)
		return
	}

	cs, err := h.contributions.ListForGoal(r.Context(), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, toContributionList(cs))
}
