package contribution

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ajo/internal/contribution"
	"github.com/MrJamesThe3rd/ajo/internal/errs"
	"github.com/MrJamesThe3rd/ajo/internal/group"
	"github.com/MrJamesThe3rd/ajo/internal/http/api"
)

type Handler struct {
	svc    *contribution.Service
	groups *group.Service
}

func NewHandler(svc *contribution.Service, groups *group.Service) *Handler {
	return &Handler{svc: svc, groups: groups}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.record)
	r.Get("/", h.list)
}

type recordRequest struct {
	GoalID  *uuid.UUID      `json:"goal_id"`
	GroupID *uuid.UUID      `json:"group_id"`
	Amount  decimal.Decimal `json:"amount"`
	Note    string          `json:"note" validate:"max=500"`
	Date    string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type contributionResponse struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	GoalID     *uuid.UUID      `json:"goal_id,omitempty"`
	GroupID    *uuid.UUID      `json:"group_id,omitempty"`
	CycleIndex *int            `json:"cycle_index,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
	Date       time.Time       `json:"date"`
	CreatedAt  time.Time       `json:"created_at"`
}

func toResponse(c *contribution.Contribution) contributionResponse {
	return contributionResponse{
		ID:         c.ID,
		UserID:     c.UserID,
		GoalID:     c.GoalID,
		GroupID:    c.GroupID,
		CycleIndex: c.CycleIndex,
		Amount:     c.Amount,
		Note:       c.Note,
		Date:       c.Date,
		CreatedAt:  c.CreatedAt,
	}
}

func toResponseList(cs []*contribution.Contribution) []contributionResponse {
	resp := make([]contributionResponse, len(cs))
	for i, c := range cs {
		resp[i] = toResponse(c)
	}

	return resp
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, r, err)
		return
	}

	date, err := api.ParseDate(req.Date)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	c, err := h.svc.Record(r.Context(), contribution.RecordParams{
		UserID: api.User(r),
		Target: contribution.Target{GoalID: req.GoalID, GroupID: req.GroupID},
		Amount: req.Amount,
		Note:   req.Note,
		Date:   date,
	})
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusCreated, toResponse(c))
}

// list returns the caller's contributions, or with group_id and cycle set,
// every member's contributions to that group cycle.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("group_id") == "" {
		cs, err := h.svc.ListForUser(r.Context(), api.User(r))
		if err != nil {
			api.Error(w, r, err)
			return
		}

		api.JSON(w, http.StatusOK, toResponseList(cs))

		return
	}

	groupID, err := uuid.Parse(q.Get("group_id"))
	if err != nil {
		api.Error(w, r, errs.Invalid("invalid group_id"))
		return
	}

	idx, err := strconv.Atoi(q.Get("cycle"))
	if err != nil {
		api.Error(w, r, errs.Invalid("cycle is required with group_id"))
		return
	}

	paid, err := h.groups.ContributionStatus(r.Context(), groupID, idx)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	if _, ok := paid[api.User(r)]; !ok {
		api.Error(w, r, errs.ErrNotAMember)
		return
	}

	cs, err := h.svc.ListForGroupCycle(r.Context(), groupID, idx)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, toResponseList(cs))
}
