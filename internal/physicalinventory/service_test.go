package physicalinventory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockmanagement/internal/permission"
	"github.com/odyssey-erp/stockmanagement/internal/platform/httpx"
	"github.com/odyssey-erp/stockmanagement/internal/shared"
	"github.com/odyssey-erp/stockmanagement/internal/stockevent"
)

type authzCall struct {
	op    permission.Operation
	scope permission.Scope
}

type stubAuthorizer struct {
	err   error
	calls []authzCall
}

func (s *stubAuthorizer) Require(ctx context.Context, op permission.Operation, scope permission.Scope) error {
	s.calls = append(s.calls, authzCall{op, scope})
	return s.err
}

type memoryPublisher struct {
	err       error
	published map[string][]stockevent.Event
}

func newMemoryPublisher() *memoryPublisher {
	return &memoryPublisher{published: make(map[string][]stockevent.Event)}
}

func (p *memoryPublisher) PublishStockEvents(ctx context.Context, sourceKey string, events []stockevent.Event) error {
	if p.err != nil {
		return p.err
	}
	p.published[sourceKey] = append(p.published[sourceKey], events...)
	return nil
}

type memoryIdempotency struct {
	keys map[string]string
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: make(map[string]string)}
}

func (m *memoryIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if _, ok := m.keys[key]; ok {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = module
	return nil
}

func (m *memoryIdempotency) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.keys[key]
	return ok, nil
}

// racingIdempotency records the key from another submission between lookup and insert.
type racingIdempotency struct {
	*memoryIdempotency
}

func (r racingIdempotency) Exists(ctx context.Context, key string) (bool, error) {
	seen, err := r.memoryIdempotency.Exists(ctx, key)
	r.keys[key] = "concurrent"
	return seen, err
}

func TestSubmitPublishesOneEventPerLine(t *testing.T) {
	authz := &stubAuthorizer{}
	publisher := newMemoryPublisher()
	svc := NewService(authz, publisher, newMemoryIdempotency(), nil)
	inv := sampleInventory(uuid.New(), uuid.New())

	result, err := svc.Submit(context.Background(), inv)
	require.NoError(t, err)
	require.Equal(t, 2, result.Events)
	require.Equal(t, inv.DocumentNumber, result.DocumentNumber)

	require.Len(t, authz.calls, 1)
	require.Equal(t, permission.OpEditPhysicalInventory, authz.calls[0].op)
	require.Equal(t, permission.ID(inv.ProgramID), authz.calls[0].scope.ProgramID)
	require.Equal(t, permission.ID(inv.FacilityID), authz.calls[0].scope.FacilityID)

	require.Len(t, publisher.published, 1)
	for key, events := range publisher.published {
		require.Contains(t, key, inv.DocumentNumber)
		require.Len(t, events, 2)
	}
}

func TestSubmitDeniedPublishesNothing(t *testing.T) {
	publisher := newMemoryPublisher()
	svc := NewService(&stubAuthorizer{err: permission.NotHeld(permission.RightStockInventoriesEdit)}, publisher, nil, nil)

	_, err := svc.Submit(context.Background(), sampleInventory(uuid.New()))
	require.ErrorIs(t, err, permission.ErrRightNotHeld)
	require.Empty(t, publisher.published)
}

func TestSubmitRejectsDraft(t *testing.T) {
	publisher := newMemoryPublisher()
	svc := NewService(&stubAuthorizer{}, publisher, nil, nil)
	inv := sampleInventory(uuid.New())
	inv.IsDraft = true

	_, err := svc.Submit(context.Background(), inv)
	require.ErrorIs(t, err, ErrDraftNotSubmittable)
	require.ErrorIs(t, err, httpx.ErrUnprocessable)
	require.Empty(t, publisher.published)
}

func TestSubmitRejectsDuplicateDocument(t *testing.T) {
	publisher := newMemoryPublisher()
	svc := NewService(&stubAuthorizer{}, publisher, newMemoryIdempotency(), nil)
	inv := sampleInventory(uuid.New())

	_, err := svc.Submit(context.Background(), inv)
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), inv)
	require.ErrorIs(t, err, ErrAlreadySubmitted)
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestSubmitRecordsNoKeyWhenPublishFails(t *testing.T) {
	publisher := newMemoryPublisher()
	publisher.err = errors.New("redis unavailable")
	idem := newMemoryIdempotency()
	svc := NewService(&stubAuthorizer{}, publisher, idem, nil)
	inv := sampleInventory(uuid.New())

	_, err := svc.Submit(context.Background(), inv)
	require.Error(t, err)
	require.Empty(t, idem.keys)

	publisher.err = nil
	_, err = svc.Submit(context.Background(), inv)
	require.NoError(t, err)
	require.Len(t, idem.keys, 1)
}

func TestSubmitToleratesConcurrentDuplicate(t *testing.T) {
	publisher := newMemoryPublisher()
	svc := NewService(&stubAuthorizer{}, publisher, racingIdempotency{newMemoryIdempotency()}, nil)
	inv := sampleInventory(uuid.New())

	result, err := svc.Submit(context.Background(), inv)
	require.NoError(t, err)
	require.Equal(t, 1, result.Events)
	require.Len(t, publisher.published, 1)
}

func TestSubmitValidatesBeforeAuthorizing(t *testing.T) {
	authz := &stubAuthorizer{}
	svc := NewService(authz, newMemoryPublisher(), nil, nil)
	inv := sampleInventory(uuid.New())
	inv.ProgramID = uuid.Nil
	inv.LineItems[0].Orderable = nil

	_, err := svc.Submit(context.Background(), inv)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Contains(t, err.Error(), "programId")
	require.Contains(t, err.Error(), "lineItems[0].orderable")
	require.Empty(t, authz.calls)
}

func TestPreviewReturnsEventsWithoutPublishing(t *testing.T) {
	publisher := newMemoryPublisher()
	svc := NewService(&stubAuthorizer{}, publisher, nil, nil)
	inv := sampleInventory(uuid.New(), uuid.New(), uuid.New())
	inv.IsDraft = true

	events, err := svc.Preview(context.Background(), inv)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Empty(t, publisher.published)
}
