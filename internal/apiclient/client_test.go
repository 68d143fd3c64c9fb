package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/birthcare-portal/internal/calendar"
	"github.com/jwalitptl/birthcare-portal/internal/model"
	"github.com/jwalitptl/birthcare-portal/pkg/circuitbreaker"
	"github.com/jwalitptl/birthcare-portal/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL:         srv.URL,
		Timeout:         2 * time.Second,
		RetryCount:      2,
		RetryWait:       time.Millisecond,
		RetryMaxWait:    5 * time.Millisecond,
		BreakerFailures: 3,
		BreakerTimeout:  time.Minute,
	}, logger.Nop(), nil)
}

func TestCreateSendsBodyAndToken(t *testing.T) {
	var gotBody map[string]interface{}
	var gotAuth, gotMethod, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":7,"name":"Delivery Room 1","bed_count":2}}`))
	})
	rooms := NewResource[model.Room](client, "rooms", "rooms")

	ctx := WithToken(context.Background(), "tok-123")
	res := rooms.Create(ctx, map[string]interface{}{"name": "Delivery Room 1", "beds": 2})

	require.True(t, res.OK(), res.Message)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/rooms", gotPath)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, map[string]interface{}{"name": "Delivery Room 1", "beds": float64(2)}, gotBody)
	assert.Equal(t, int64(7), res.Record.ID)
	assert.Equal(t, 2, res.Record.BedCount)
	assert.NoError(t, res.AsError())
}

func TestUpdateTargetsMember(t *testing.T) {
	var gotMethod, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		_, _ = w.Write([]byte(`{"id":3,"name":"Recovery","bed_count":4}`))
	})
	rooms := NewResource[model.Room](client, "rooms", "/rooms/")

	res := rooms.Update(context.Background(), 3, map[string]interface{}{"name": "Recovery", "beds": 4})
	require.True(t, res.OK())
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/rooms/3", gotPath)
	assert.Equal(t, "Recovery", res.Record.Name)
}

func TestWriteNormalizesErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		outcome    Outcome
		message    string
		fieldError map[string]string
	}{
		{
			name:       "field errors as lists",
			status:     http.StatusUnprocessableEntity,
			body:       `{"message":"The given data was invalid.","errors":{"name":["The name has already been taken."],"beds":["Too many"]}}`,
			outcome:    OutcomeFieldErrors,
			message:    "The given data was invalid.",
			fieldError: map[string]string{"name": "The name has already been taken.", "beds": "Too many"},
		},
		{
			name:       "field errors as strings without message",
			status:     http.StatusBadRequest,
			body:       `{"errors":{"patient_id":"Select a patient"}}`,
			outcome:    OutcomeFieldErrors,
			message:    fieldErrorsMessage,
			fieldError: map[string]string{"patient_id": "Select a patient"},
		},
		{
			name:    "generic message",
			status:  http.StatusConflict,
			body:    `{"message":"Room is occupied"}`,
			outcome: OutcomeGenericError,
			message: "Room is occupied",
		},
		{
			name:    "error key",
			status:  http.StatusForbidden,
			body:    `{"error":"Forbidden"}`,
			outcome: OutcomeGenericError,
			message: "Forbidden",
		},
		{
			name:    "unparseable body",
			status:  http.StatusBadRequest,
			body:    `<html>bad</html>`,
			outcome: OutcomeGenericError,
			message: genericErrorMessage,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{}`,
			outcome: OutcomeGenericError,
			message: genericErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			rooms := NewResource[model.Room](client, "rooms", "/rooms")

			res := rooms.Create(context.Background(), map[string]interface{}{"name": "x"})
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.message, res.Message)
			assert.Equal(t, tt.fieldError, res.FieldErrors)
			assert.Error(t, res.AsError())
		})
	}
}

func TestListAcceptsEnvelopes(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		count int
		total int
	}{
		{name: "bare array", body: `[{"id":1,"name":"A"},{"id":2,"name":"B"}]`, count: 2},
		{name: "data array", body: `{"data":[{"id":1,"name":"A"}]}`, count: 1},
		{name: "data with meta", body: `{"data":[{"id":1}],"meta":{"current_page":1,"per_page":15,"total":31,"last_page":3}}`, count: 1, total: 31},
		{name: "nested paginator", body: `{"data":{"current_page":1,"data":[{"id":1},{"id":2},{"id":3}],"total":3,"last_page":1}}`, count: 3, total: 3},
		{name: "null data", body: `{"data":null}`, count: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			roles := NewResource[model.Role](client, "roles", "/roles")

			page, err := roles.ListPage(context.Background(), nil)
			require.NoError(t, err)
			assert.Len(t, page.Items, tt.count)
			if tt.total > 0 {
				require.NotNil(t, page.Pagination)
				assert.Equal(t, tt.total, page.Pagination.Total)
			}
		})
	}
}

func TestListFailureIsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Not allowed"}`))
	})
	roles := NewResource[model.Role](client, "roles", "/roles")

	_, err := roles.List(context.Background(), nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "Not allowed", apiErr.Message)
}

func TestReadsAreRetriedWritesAreNot(t *testing.T) {
	var gets, posts atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if gets.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(`[]`))
		default:
			posts.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}
	})
	bills := NewResource[model.Bill](client, "bills", "/bills")

	items, err := bills.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int32(3), gets.Load())

	res := bills.Create(context.Background(), map[string]interface{}{"patient_id": 1})
	assert.Equal(t, OutcomeGenericError, res.Outcome)
	assert.Equal(t, int32(1), posts.Load())
}

func TestBreakerOpensAfterServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	rooms := NewResource[model.Room](client, "rooms", "/rooms")

	for i := 0; i < 3; i++ {
		_ = rooms.Delete(context.Background(), 1)
	}
	before := calls.Load()

	err := rooms.Delete(context.Background(), 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, errors.Is(err, circuitbreaker.ErrOpen))
	assert.Equal(t, unavailableMessage, apiErr.Message)
	assert.Equal(t, before, calls.Load())
}

func TestCancelledCallDoesNotTripBreaker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	rooms := NewResource[model.Room](client, "rooms", "/rooms")

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := rooms.Create(ctx, map[string]interface{}{})
		assert.Equal(t, OutcomeGenericError, res.Outcome)
		assert.ErrorIs(t, res.Err, context.Canceled)
	}
	assert.Equal(t, circuitbreaker.StateClosed, client.breaker.State())
}

func TestVisitsQueriesRange(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case calendarPath:
			gotQuery = r.URL.RawQuery
			_, _ = w.Write([]byte(`{"data":[{"id":1,"patient_name":"Ana","visit_name":"First visit","scheduled_date":"2025-03-14"}]}`))
		case todayPath:
			_, _ = w.Write([]byte(`[{"id":2,"scheduled_date":"2025-03-14T08:00:00Z"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	visits := NewVisits(client)

	m := calendar.Month{Year: 2025, Month: time.March}
	start, end := m.Range()
	got, err := visits.VisitsBetween(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, "end=2025-03-31&start=2025-03-01", gotQuery)
	require.Len(t, got, 1)
	assert.Equal(t, "Ana", got[0].PatientName)

	today, err := visits.TodaysVisits(context.Background())
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, int64(2), today[0].ID)
}

func TestScheduleReturnsFieldErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, visitsPath, r.URL.Path)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"scheduled_date":["The date is in the past."]}}`))
	})
	visits := NewVisits(client)

	res := visits.Schedule(context.Background(), model.ScheduleVisitRequest{PatientID: 1, VisitNumber: 1, VisitName: "First", ScheduledDate: "2020-01-01"})
	assert.Equal(t, OutcomeFieldErrors, res.Outcome)
	assert.Equal(t, "The date is in the past.", res.FieldErrors["scheduled_date"])
}
