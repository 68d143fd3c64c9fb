package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jwalitptl/birthcare-portal/internal/calendar"
	"github.com/jwalitptl/birthcare-portal/internal/model"
)

const (
	calendarPath = "/prenatal-calendar"
	todayPath    = "/todays-visits"
	visitsPath   = "/prenatal-visits"
)

// Visits reads the prenatal calendar and schedules visits. It satisfies calendar.Source.
type Visits struct {
	client *Client
	visits *Resource[model.VisitRecord]
}

func NewVisits(client *Client) *Visits {
	return &Visits{
		client: client,
		visits: NewResource[model.VisitRecord](client, "visits", visitsPath),
	}
}

var _ calendar.Source = (*Visits)(nil)

func (v *Visits) VisitsBetween(ctx context.Context, start, end calendar.Date) ([]model.VisitRecord, error) {
	query := url.Values{}
	query.Set("start", start.String())
	query.Set("end", end.String())
	return v.fetch(ctx, "calendar", calendarPath, query)
}

func (v *Visits) TodaysVisits(ctx context.Context) ([]model.VisitRecord, error) {
	return v.fetch(ctx, "todays_visits", todayPath, nil)
}

func (v *Visits) fetch(ctx context.Context, name, path string, query url.Values) ([]model.VisitRecord, error) {
	resp, err := v.client.do(ctx, name, http.MethodGet, path, nil, query)
	if err != nil {
		status, msg := failure(resp, err)
		return nil, &APIError{Status: status, Message: msg, Err: err}
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		msg := parseError(resp.Body()).Message
		if msg == "" {
			msg = genericErrorMessage
		}
		return nil, &APIError{Status: resp.StatusCode(), Message: msg}
	}
	page, err := decodeList[model.VisitRecord](resp.Body())
	if err != nil {
		return nil, &APIError{Status: resp.StatusCode(), Message: genericErrorMessage, Err: err}
	}
	return page.Items, nil
}

// Schedule creates a visit on the server.
func (v *Visits) Schedule(ctx context.Context, req model.ScheduleVisitRequest) Result[model.VisitRecord] {
	return v.visits.Create(ctx, req)
}
