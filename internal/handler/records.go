package handler

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mandawilson/smile-dashboard/internal/middleware"
	"github.com/mandawilson/smile-dashboard/internal/schema"
	"github.com/mandawilson/smile-dashboard/internal/server"
	"github.com/mandawilson/smile-dashboard/internal/service"
	"github.com/mandawilson/smile-dashboard/internal/validation"
)

// MaxPageSize bounds one list page; DefaultPageSize applies when the
// request sets no limit. Downloads are not paged.
const (
	MaxPageSize     = 5000
	DefaultPageSize = 100
)

const tsvContentType = "text/tab-separated-values; charset=utf-8"

// RecordsRequest is the query string of the list and download endpoints.
// An empty "billed=" selects no billed value at all.
type RecordsRequest struct {
	Search   string   `query:"search" validate:"max=2000"`
	Billed   []string `query:"billed" validate:"dive,omitempty,oneof=Yes No"`
	CohortID string   `query:"cohortId" validate:"max=200"`
	Limit    int      `query:"limit" validate:"min=0,max=5000"`
	Offset   int      `query:"offset" validate:"min=0"`

	billedFilter bool
}

func (r *RecordsRequest) Validate() error {
	return validation.Struct(r)
}

func (r *RecordsRequest) query() service.RecordsQuery {
	billed := make([]string, 0, len(r.Billed))
	for _, b := range r.Billed {
		if b != "" {
			billed = append(billed, b)
		}
	}
	return service.RecordsQuery{
		Search:       r.Search,
		BilledFilter: r.billedFilter,
		Billed:       billed,
		CohortID:     r.CohortID,
		Limit:        r.Limit,
		Offset:       r.Offset,
	}
}

// RecordsHandler serves the cohorts and samples list views.
type RecordsHandler struct {
	Handler
	records *service.RecordsService
}

func NewRecordsHandler(s *server.Server, records *service.RecordsService) *RecordsHandler {
	return &RecordsHandler{
		Handler: NewHandler(s),
		records: records,
	}
}

func newRecordsRequest() *RecordsRequest {
	return &RecordsRequest{}
}

// page is the query of one list page.
func (r *RecordsRequest) page() service.RecordsQuery {
	q := r.query()
	if q.Limit == 0 {
		q.Limit = DefaultPageSize
	}
	return q
}

func (h *RecordsHandler) ListCohorts() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *RecordsRequest) (*service.RecordList, error) {
		req.billedFilter = c.QueryParams().Has("billed")
		return h.records.Cohorts(c.Request().Context(), currentUser(c), req.page())
	}, http.StatusOK, newRecordsRequest)
}

func (h *RecordsHandler) DownloadCohorts() echo.HandlerFunc {
	return HandleFile(h.Handler, func(c echo.Context, req *RecordsRequest) ([]byte, error) {
		req.billedFilter = c.QueryParams().Has("billed")
		q := req.query()
		q.Limit, q.Offset = 0, 0

		list, err := h.records.Cohorts(c.Request().Context(), currentUser(c), q)
		if err != nil {
			return nil, err
		}
		return toTSV(list)
	}, http.StatusOK, newRecordsRequest, "cohorts.tsv", tsvContentType)
}

func (h *RecordsHandler) ListSamples() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *RecordsRequest) (*service.RecordList, error) {
		return h.records.Samples(c.Request().Context(), currentUser(c), req.page())
	}, http.StatusOK, newRecordsRequest)
}

func (h *RecordsHandler) DownloadSamples() echo.HandlerFunc {
	return HandleFile(h.Handler, func(c echo.Context, req *RecordsRequest) ([]byte, error) {
		q := req.query()
		q.Limit, q.Offset = 0, 0

		list, err := h.records.Samples(c.Request().Context(), currentUser(c), q)
		if err != nil {
			return nil, err
		}
		return toTSV(list)
	}, http.StatusOK, newRecordsRequest, "samples.tsv", tsvContentType)
}

func toTSV(list *service.RecordList) ([]byte, error) {
	var buf bytes.Buffer
	if err := service.WriteTSV(&buf, list); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// currentUser converts the authenticated identity, if any, into the
// GraphQL user.
func currentUser(c echo.Context) *schema.User {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		return nil
	}
	return &schema.User{
		ID:        identity.UserID,
		Email:     identity.Email,
		SessionID: identity.SessionID,
	}
}
