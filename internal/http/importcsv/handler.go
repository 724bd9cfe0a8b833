package importcsv

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ajo/internal/contribution"
	"github.com/MrJamesThe3rd/ajo/internal/errs"
	"github.com/MrJamesThe3rd/ajo/internal/http/api"
	"github.com/MrJamesThe3rd/ajo/internal/importer"
)

const maxUpload = 10 << 20

type Handler struct {
	importSvc *importer.Service
}

func NewHandler(importSvc *importer.Service) *Handler {
	return &Handler{importSvc: importSvc}
}

// Routes is mounted under a goal, so {id} is the goal the statement feeds.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importStatement)
}

type contributionResponse struct {
	ID     uuid.UUID       `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
	Date   time.Time       `json:"date"`
}

type importResponse struct {
	Profile       string                 `json:"profile"`
	Imported      int                    `json:"imported"`
	Skipped       int                    `json:"skipped"`
	Contributions []contributionResponse `json:"contributions"`
}

func (h *Handler) importStatement(w http.ResponseWriter, r *http.Request) {
	goalID, err := api.URLID(r, "id")
	if err != nil {
		api.Error(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxUpload); err != nil {
		api.Error(w, r, errs.Invalid("failed to parse form: %v", err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		api.Error(w, r, errs.Invalid("file field is required"))
		return
	}
	defer file.Close()

	result, err := h.importSvc.Import(r.Context(), api.User(r), goalID, file)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusCreated, toImportResponse(result))
}

func toImportResponse(res *importer.Result) importResponse {
	resp := importResponse{
		Profile:       res.Profile,
		Imported:      len(res.Recorded),
		Skipped:       res.Skipped,
		Contributions: make([]contributionResponse, len(res.Recorded)),
	}

	for i, c := range res.Recorded {
		resp.Contributions[i] = toContribution(c)
	}

	return resp
}

func toContribution(c *contribution.Contribution) contributionResponse {
	return contributionResponse{ID: c.ID, Amount: c.Amount, Note: c.Note, Date: c.Date}
}
