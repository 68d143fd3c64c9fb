package resource

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/birthcare-portal/internal/apiclient"
	"github.com/jwalitptl/birthcare-portal/internal/crud"
	"github.com/jwalitptl/birthcare-portal/internal/model"
	"github.com/jwalitptl/birthcare-portal/pkg/logger"
)

func TestRoomValidation(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]interface{}
		errs   map[string]string
	}{
		{
			name:   "empty name and zero beds",
			fields: map[string]interface{}{"name": "", "beds": 0},
			errs:   map[string]string{"name": "Room name is required", "beds": "Number of beds must be at least 1"},
		},
		{
			name:   "missing name only",
			fields: map[string]interface{}{"beds": 2},
			errs:   map[string]string{"name": "Room name is required"},
		},
		{
			name:   "blank name is missing",
			fields: map[string]interface{}{"name": "   ", "beds": "3"},
			errs:   map[string]string{"name": "Room name is required"},
		},
		{
			name:   "beds not a number",
			fields: map[string]interface{}{"name": "Room 1", "beds": "two"},
			errs:   map[string]string{"beds": "Number of beds must be a whole number"},
		},
		{
			name:   "fractional beds are not truncated",
			fields: map[string]interface{}{"name": "Room 1", "beds": 1.5},
			errs:   map[string]string{"beds": "Number of beds must be a whole number"},
		},
		{
			name:   "bad beds still reports the missing name",
			fields: map[string]interface{}{"name": "", "beds": "two"},
			errs:   map[string]string{"name": "Room name is required", "beds": "Number of beds must be a whole number"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, errs := RoomSchema{}.Prepare(tt.fields)
			assert.Nil(t, body)
			assert.Equal(t, tt.errs, errs)
		})
	}
}

func TestRoomBodyFromFormStrings(t *testing.T) {
	body, errs := RoomSchema{}.Prepare(map[string]interface{}{"name": " Room 101 ", "beds": "2"})
	require.Nil(t, errs)
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Room 101","beds":2}`, string(raw))
}

func TestRoleValidation(t *testing.T) {
	_, errs := RoleSchema{}.Prepare(map[string]interface{}{"name": ""})
	assert.Equal(t, map[string]string{
		"name":        "Role name is required",
		"permissions": "Select at least one permission",
	}, errs)

	_, errs = RoleSchema{}.Prepare(map[string]interface{}{"name": "Nurse", "permissions": []interface{}{}})
	assert.Equal(t, map[string]string{"permissions": "Select at least one permission"}, errs)

	_, errs = RoleSchema{}.Prepare(map[string]interface{}{"name": "Nurse", "permissions": []interface{}{"view_patients", "fly"}})
	assert.Equal(t, map[string]string{"permissions": "Unknown permission"}, errs)
}

func TestRoleBodyDeduplicatesPermissions(t *testing.T) {
	body, errs := RoleSchema{}.Prepare(map[string]interface{}{
		"name":        "Midwife",
		"permissions": []interface{}{"view_prenatal", "schedule_visits", "view_prenatal"},
	})
	require.Nil(t, errs)
	assert.Equal(t, roleBody{
		Name:        "Midwife",
		Permissions: []model.PermissionTag{model.PermissionViewPrenatal, model.PermissionScheduleVisits},
	}, body)
}

func TestRoleFieldsRoundTrip(t *testing.T) {
	role := model.Role{Base: model.Base{ID: 3}, Name: "Billing", Permissions: []model.PermissionTag{model.PermissionViewBilling}}
	body, errs := RoleSchema{}.Prepare(RoleSchema{}.Fields(role))
	require.Nil(t, errs)
	assert.Equal(t, roleBody{Name: "Billing", Permissions: []model.PermissionTag{model.PermissionViewBilling}}, body)
}

func TestBillValidation(t *testing.T) {
	_, errs := BillSchema{}.Prepare(map[string]interface{}{"billing_date": "2025-03-14"})
	assert.Equal(t, map[string]string{
		"patient_id": "Select a patient",
		"items":      "Add at least one line item",
	}, errs)

	_, errs = BillSchema{}.Prepare(map[string]interface{}{
		"patient_id":   "7",
		"billing_date": "14/03/2025",
		"items": []interface{}{
			map[string]interface{}{"description": "Consult", "quantity": 1, "unit_price": 50},
			map[string]interface{}{"description": "", "quantity": 0, "unit_price": -1},
		},
	})
	assert.Equal(t, map[string]string{
		"billing_date":         "Billing date must be a date (YYYY-MM-DD)",
		"items[1].description": "Item description is required",
		"items[1].quantity":    "Quantity must be at least 1",
		"items[1].unit_price":  "Unit price cannot be negative",
	}, errs)

	_, errs = BillSchema{}.Prepare(map[string]interface{}{
		"patient_id":   3.7,
		"billing_date": "2025-03-14",
		"items": []interface{}{
			map[string]interface{}{"description": "Consult", "quantity": 2.5, "unit_price": 50},
		},
	})
	assert.Equal(t, map[string]string{
		"patient_id":        "Select a patient",
		"items[0].quantity": "Quantity must be a whole number",
	}, errs)
}

func TestBillBodyTotals(t *testing.T) {
	body, errs := BillSchema{}.Prepare(map[string]interface{}{
		"patient_id":   7,
		"billing_date": "2025-03-14",
		"items": []interface{}{
			map[string]interface{}{"description": "Consult", "quantity": "2", "unit_price": "19.99"},
			map[string]interface{}{"description": "Ultrasound", "quantity": 1, "unit_price": 120.5},
		},
	})
	require.Nil(t, errs)
	bill := body.(billBody)
	assert.Equal(t, model.BillStatusUnpaid, bill.Status)
	assert.Equal(t, 160.48, bill.TotalAmount)
	assert.Len(t, bill.Items, 2)
}

func TestSearchAndRows(t *testing.T) {
	room := model.Room{Base: model.Base{ID: 1}, Name: "Delivery A", BedCount: 2}
	assert.Contains(t, RoomSchema{}.SearchText(room), "Delivery A")
	assert.Equal(t, []interface{}{int64(1), "Delivery A", 2, ""}, RoomSchema{}.Row(room))
	assert.Len(t, RoomSchema{}.Columns(), len(RoomSchema{}.Row(room)))
	assert.Len(t, RoleSchema{}.Columns(), len(RoleSchema{}.Row(model.Role{})))
	assert.Len(t, BillSchema{}.Columns(), len(BillSchema{}.Row(model.Bill{})))
}

// fakeRoomsAPI is a minimal /rooms collection.
func fakeRoomsAPI(t *testing.T, posts *atomic.Int32, lastBody *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/rooms":
			_, _ = w.Write([]byte(`{"data":[{"id":1,"name":"Recovery","bed_count":4}]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/rooms":
			posts.Add(1)
			raw, _ := io.ReadAll(r.Body)
			*lastBody = string(raw)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":2,"name":"Room 101","bed_count":2}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func mountRooms(t *testing.T, baseURL string) crud.Page {
	t.Helper()
	client := apiclient.New(apiclient.Config{BaseURL: baseURL, Timeout: 2 * time.Second}, logger.Nop(), nil)
	p := Kinds()[KindRooms].New(client, crud.Config{Logger: logger.Nop()})
	t.Cleanup(p.Close)
	require.NoError(t, p.Load(context.Background()))
	return p
}

func TestRoomCreateScenario(t *testing.T) {
	var posts atomic.Int32
	var body string
	srv := fakeRoomsAPI(t, &posts, &body)
	p := mountRooms(t, srv.URL)

	require.NoError(t, p.OpenCreate())
	require.NoError(t, p.EditFields(map[string]interface{}{"name": "Room 101", "beds": 2}))
	require.NoError(t, p.Submit(context.Background()))

	assert.Equal(t, int32(1), posts.Load())
	assert.JSONEq(t, `{"name":"Room 101","beds":2}`, body)

	view := p.Render("").(crud.View[model.Room])
	assert.False(t, view.ModalOpen)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "Room 101", view.Items[1].Name)
	assert.Equal(t, 2, view.Items[1].BedCount)
}

func TestRoomInvalidCreateScenario(t *testing.T) {
	var posts atomic.Int32
	var body string
	srv := fakeRoomsAPI(t, &posts, &body)
	p := mountRooms(t, srv.URL)

	require.NoError(t, p.OpenCreate())
	require.NoError(t, p.EditFields(map[string]interface{}{"name": "", "beds": 0}))
	require.NoError(t, p.Submit(context.Background()))

	assert.Equal(t, int32(0), posts.Load())
	view := p.Render("").(crud.View[model.Room])
	assert.True(t, view.ModalOpen)
	assert.Equal(t, map[string]string{
		"name": "Room name is required",
		"beds": "Number of beds must be at least 1",
	}, view.Modal.Errors)
	assert.Len(t, view.Items, 1)
}
