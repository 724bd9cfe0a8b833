package group

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ajo/internal/cycle"
	"github.com/MrJamesThe3rd/ajo/internal/errs"
	"github.com/MrJamesThe3rd/ajo/internal/group"
	"github.com/MrJamesThe3rd/ajo/internal/http/api"
	"github.com/MrJamesThe3rd/ajo/internal/ledger"
)

type Handler struct {
	svc *group.Service
}

func NewHandler(svc *group.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Post("/join", h.join)
	r.Get("/{id}", h.status)
	r.Get("/{id}/schedule", h.schedule)
	r.Get("/{id}/cycles/{index}", h.cycleStatus)
	r.Post("/{id}/advance", h.advance)
	r.Delete("/{id}/membership", h.leave)
}

type createGroupRequest struct {
	Name        string          `json:"name" validate:"required,max=120"`
	CycleAmount decimal.Decimal `json:"cycle_amount"`
	Frequency   string          `json:"frequency" validate:"required"`
	MemberLimit int             `json:"member_limit" validate:"required"`
	AnchorDate  string          `json:"anchor_date" validate:"omitempty,datetime=2006-01-02"`
}

type joinRequest struct {
	InviteCode string `json:"invite_code" validate:"required"`
}

type cycleStatusResponse struct {
	CycleIndex int                `json:"cycle_index"`
	Complete   bool               `json:"complete"`
	Paid       map[uuid.UUID]bool `json:"paid"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, r, err)
		return
	}

	freq, err := cycle.ParseFrequency(req.Frequency)
	if err != nil {
		api.Error(w, r, errs.Invalid("%v", err))
		return
	}

	anchor, err := api.ParseDate(req.AnchorDate)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	g, err := h.svc.Create(r.Context(), group.CreateParams{
		CreatorID:   api.User(r),
		Name:        req.Name,
		CycleAmount: req.CycleAmount,
		Frequency:   freq,
		MemberLimit: req.MemberLimit,
		AnchorDate:  anchor,
	})
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusCreated, toGroupResponse(g))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.ListForUser(r.Context(), api.User(r))
	if err != nil {
		api.Error(w, r, err)
		return
	}

	resp := make([]groupResponse, len(groups))
	for i, g := range groups {
		resp[i] = toGroupResponse(g)
	}

	api.JSON(w, http.StatusOK, resp)
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, r, err)
		return
	}

	m, err := h.svc.Join(r.Context(), req.InviteCode, api.User(r))
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusCreated, toMemberResponse(m))
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	st, ok := h.memberStatus(w, r)
	if !ok {
		return
	}

	api.JSON(w, http.StatusOK, toStatusResponse(st))
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	st, ok := h.memberStatus(w, r)
	if !ok {
		return
	}

	payouts, err := h.svc.Schedule(r.Context(), st.Group.ID)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, toPayoutList(payouts))
}

func (h *Handler) cycleStatus(w http.ResponseWriter, r *http.Request) {
	st, ok := h.memberStatus(w, r)
	if !ok {
		return
	}

	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		api.Error(w, r, errs.Invalid("invalid cycle index"))
		return
	}

	paid, err := h.svc.ContributionStatus(r.Context(), st.Group.ID, idx)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, cycleStatusResponse{CycleIndex: idx, Complete: ledger.Complete(paid), Paid: paid})
}

func (h *Handler) advance(w http.ResponseWriter, r *http.Request) {
	st, ok := h.memberStatus(w, r)
	if !ok {
		return
	}

	// Status already advanced the group as far as it is due.
	api.JSON(w, http.StatusOK, toGroupResponse(st.Group))
}

func (h *Handler) leave(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLID(r, "id")
	if err != nil {
		api.Error(w, r, err)
		return
	}

	if err := h.svc.Leave(r.Context(), id, api.User(r)); err != nil {
		api.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// memberStatus loads the group's status and rejects callers outside it.
func (h *Handler) memberStatus(w http.ResponseWriter, r *http.Request) (*group.Status, bool) {
	id, err := api.URLID(r, "id")
	if err != nil {
		api.Error(w, r, err)
		return nil, false
	}

	st, err := h.statusFor(r.Context(), id, api.User(r))
	if err != nil {
		api.Error(w, r, err)
		return nil, false
	}

	return st, true
}

func (h *Handler) statusFor(ctx context.Context, groupID, userID uuid.UUID) (*group.Status, error) {
	st, err := h.svc.Status(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if !st.IsMember(userID) {
		return nil, errs.ErrNotAMember
	}

	return st, nil
}
