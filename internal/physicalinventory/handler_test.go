package physicalinventory

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockmanagement/internal/permission"
	"github.com/odyssey-erp/stockmanagement/internal/stockevent"
)

func newTestRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/physicalInventories", NewHandler(nil, svc).MountRoutes)
	return r
}

func encodeInventory(t *testing.T, inv PhysicalInventory) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(inv)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestHandleSubmit(t *testing.T) {
	publisher := newMemoryPublisher()
	router := newTestRouter(NewService(&stubAuthorizer{}, publisher, nil, nil))
	inv := sampleInventory(uuid.New(), uuid.New())

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/physicalInventories", encodeInventory(t, inv)))

	require.Equal(t, http.StatusCreated, res.Code)
	var result SubmitResult
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &result))
	require.Equal(t, 2, result.Events)
	require.Len(t, publisher.published, 1)
}

func TestHandlePreviewOpenLMISPayload(t *testing.T) {
	router := newTestRouter(NewService(&stubAuthorizer{}, newMemoryPublisher(), nil, nil))
	orderable := uuid.New()
	body := `{
		"programId": "` + uuid.NewString() + `",
		"facilityId": "` + uuid.NewString() + `",
		"isDraft": false,
		"occurredDate": "2026-10-01T08:00:00+02:00",
		"signature": "clerk",
		"documentNumber": "DOC-1",
		"lineItems": [{"orderable": {"id": "` + orderable.String() + `", "productCode": "C100"}, "quantity": 42}]
	}`

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/physicalInventories/events", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, res.Code)
	var events []stockevent.Event
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &events))
	require.Len(t, events, 1)
	require.Equal(t, orderable, events[0].OrderableID)
	require.Equal(t, 42, events[0].Quantity)
	require.Equal(t, "DOC-1", events[0].DocumentNumber)
	_, offset := events[0].OccurredDate.Zone()
	require.Equal(t, 2*3600, offset)
}

func TestHandleSubmitErrors(t *testing.T) {
	cases := []struct {
		name   string
		authz  *stubAuthorizer
		body   func() *bytes.Reader
		status int
	}{
		{
			name:   "malformed json",
			authz:  &stubAuthorizer{},
			body:   func() *bytes.Reader { return bytes.NewReader([]byte("{")) },
			status: http.StatusBadRequest,
		},
		{
			name:  "missing orderable",
			authz: &stubAuthorizer{},
			body: func() *bytes.Reader {
				inv := sampleInventory(uuid.New())
				inv.LineItems[0].Orderable = nil
				return encodeInventory(t, inv)
			},
			status: http.StatusBadRequest,
		},
		{
			name:  "missing quantity",
			authz: &stubAuthorizer{},
			body: func() *bytes.Reader {
				return bytes.NewReader([]byte(`{
					"programId": "` + uuid.NewString() + `",
					"facilityId": "` + uuid.NewString() + `",
					"occurredDate": "2026-10-01T08:00:00Z",
					"documentNumber": "D1",
					"lineItems": [{"orderable": {"id": "` + uuid.NewString() + `"}}]
				}`))
			},
			status: http.StatusBadRequest,
		},
		{
			name:  "oversized document",
			authz: &stubAuthorizer{},
			body: func() *bytes.Reader {
				return bytes.NewReader([]byte(`{"signature":"` + strings.Repeat("x", maxBodyBytes) + `"}`))
			},
			status: http.StatusRequestEntityTooLarge,
		},
		{
			name:   "right not held",
			authz:  &stubAuthorizer{err: permission.NotHeld(permission.RightStockInventoriesEdit)},
			body:   func() *bytes.Reader { return encodeInventory(t, sampleInventory(uuid.New())) },
			status: http.StatusForbidden,
		},
		{
			name:  "draft",
			authz: &stubAuthorizer{},
			body: func() *bytes.Reader {
				inv := sampleInventory(uuid.New())
				inv.IsDraft = true
				return encodeInventory(t, inv)
			},
			status: http.StatusUnprocessableEntity,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			publisher := newMemoryPublisher()
			router := newTestRouter(NewService(tc.authz, publisher, nil, nil))
			res := httptest.NewRecorder()
			router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/physicalInventories", tc.body()))
			require.Equal(t, tc.status, res.Code)
			require.Empty(t, publisher.published)
		})
	}
}
