package inventory

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		quantity, threshold int
		want                StockState
	}{
		{0, 5, StockOut},
		{1, 5, StockLow},
		{5, 5, StockLow},
		{6, 5, StockOK},
		{0, 0, StockOut},
		{1, 0, StockOK},
		{40, 10, StockOK},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.quantity, tc.threshold), "quantity=%d threshold=%d", tc.quantity, tc.threshold)
	}
}

type mockRepo struct {
	items map[uuid.UUID]*Supply
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Supply, error) {
	s, ok := m.items[id]
	if !ok {
		return nil, ErrSupplyNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockRepo) Create(_ context.Context, s *Supply) error {
	cp := *s
	m.items[s.ID] = &cp
	return nil
}

func (m *mockRepo) List(_ context.Context) ([]Supply, error) {
	var out []Supply
	for _, s := range m.items {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRepo) AdjustQuantity(_ context.Context, id uuid.UUID, delta int) (*Supply, error) {
	s, ok := m.items[id]
	if !ok {
		return nil, ErrSupplyNotFound
	}
	if s.Quantity+delta < 0 {
		return nil, ErrInsufficientStock
	}
	s.Quantity += delta
	cp := *s
	return &cp, nil
}

func newTestService() *Service {
	return NewService(&mockRepo{items: make(map[uuid.UUID]*Supply)}, zap.NewNop())
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "", Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidSupply)

	_, err = svc.Create(ctx, CreateInput{Name: "Guantes", Quantity: -1})
	assert.ErrorIs(t, err, ErrInvalidSupply)

	s, err := svc.Create(ctx, CreateInput{Name: "Guantes", Quantity: 10, ReorderThreshold: 5})
	require.NoError(t, err)
	assert.Equal(t, "unit", s.Unit)
	assert.Equal(t, StockOK, s.State())
}

func TestList_FilterByState(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, in := range []CreateInput{
		{Name: "Anestesia", Quantity: 0, ReorderThreshold: 5},
		{Name: "Guantes", Quantity: 3, ReorderThreshold: 5},
		{Name: "Resina 3M", Quantity: 20, ReorderThreshold: 5},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	low, err := svc.List(ctx, StockLow)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Guantes", low[0].Name)

	reorder, err := svc.ListNeedingReorder(ctx)
	require.NoError(t, err)
	require.Len(t, reorder, 2)
	assert.Equal(t, "Anestesia", reorder[0].Name)

	_, err = svc.List(ctx, StockState("EMPTY"))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAdjust(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	s, err := svc.Create(ctx, CreateInput{Name: "Hilo dental", Quantity: 6, ReorderThreshold: 5})
	require.NoError(t, err)

	updated, err := svc.Adjust(ctx, s.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)
	assert.Equal(t, StockLow, updated.State())

	_, err = svc.Adjust(ctx, s.ID, -6)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	updated, err = svc.Adjust(ctx, s.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, StockOut, updated.State())

	_, err = svc.Adjust(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrSupplyNotFound)
}

func TestAdjust_RejectsOutOfBoundsDelta(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	s, err := svc.Create(ctx, CreateInput{Name: "Gasas", Quantity: 10, ReorderThreshold: 2})
	require.NoError(t, err)

	for _, delta := range []int{0, MaxAdjustment + 1, -MaxAdjustment - 1, 1 << 40} {
		_, err := svc.Adjust(ctx, s.ID, delta)
		assert.ErrorIs(t, err, ErrInvalidAdjustment, "delta %d", delta)
	}

	updated, err := svc.Adjust(ctx, s.ID, MaxAdjustment)
	require.NoError(t, err)
	assert.Equal(t, 10+MaxAdjustment, updated.Quantity)
}
