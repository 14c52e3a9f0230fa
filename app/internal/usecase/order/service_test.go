package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	domorder "example.com/storefront/app/internal/domain/order"
)

type mockOrderRepository struct {
	orders    map[int64]*domorder.Order
	filters   []domorder.ListFilter
	updated   map[int64]domorder.Status
	updateErr error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{
		orders:  make(map[int64]*domorder.Order),
		updated: make(map[int64]domorder.Status),
	}
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id int64) (*domorder.Order, error) {
	if o, ok := m.orders[id]; ok {
		cloned := *o
		return &cloned, nil
	}
	return nil, domorder.ErrOrderNotFound
}

func (m *mockOrderRepository) List(ctx context.Context, filter domorder.ListFilter) ([]*domorder.Order, error) {
	m.filters = append(m.filters, filter)
	var result []*domorder.Order
	for _, o := range m.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		cloned := *o
		result = append(result, &cloned)
	}
	return result, nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id int64, status domorder.Status) (*domorder.Order, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, domorder.ErrOrderNotFound
	}
	o.Status = status
	m.updated[id] = status
	cloned := *o
	return &cloned, nil
}

func seedOrders(repo *mockOrderRepository) {
	repo.orders[1] = &domorder.Order{
		ID:            1,
		Code:          "ABC1234",
		UserID:        100,
		Amount:        decimal.NewFromInt(250),
		TransactionID: "ref-1",
		Status:        domorder.StatusDelivered,
		Items: []domorder.OrderItem{
			{ID: 1, OrderID: 1, ProductID: 10, ProductName: "Kettle", Quantity: 2, Amount: decimal.NewFromInt(200), Paid: true},
			{ID: 2, OrderID: 1, ProductID: 20, Quantity: 1, Amount: decimal.NewFromInt(50), Paid: true},
		},
		CreatedAt: time.Now(),
	}
	repo.orders[2] = &domorder.Order{ID: 2, Code: "XYZ9876", UserID: 200, Status: domorder.StatusProcessing}
}

func TestHistory_FiltersByUser(t *testing.T) {
	repo := newMockOrderRepository()
	seedOrders(repo)
	svc := NewService(repo)

	orders, err := svc.History(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "ABC1234", orders[0].Code)
	require.Equal(t, domorder.UnavailableProductName, orders[0].Items[1].DisplayName())

	require.Len(t, repo.filters, 1)
	require.NotNil(t, repo.filters[0].UserID)
	require.Equal(t, int64(100), *repo.filters[0].UserID)
}

func TestList_WithStatusFilter(t *testing.T) {
	repo := newMockOrderRepository()
	seedOrders(repo)
	svc := NewService(repo)

	status := domorder.StatusProcessing
	orders, err := svc.List(context.Background(), domorder.ListFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, int64(2), orders[0].ID)

	bogus := domorder.Status("LOST")
	_, err = svc.List(context.Background(), domorder.ListFilter{Status: &bogus})
	require.ErrorIs(t, err, domorder.ErrInvalidStatus)
}

func TestGetOrder(t *testing.T) {
	repo := newMockOrderRepository()
	seedOrders(repo)
	svc := NewService(repo)

	o, err := svc.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "ABC1234", o.Code)
	require.Len(t, o.Items, 2)

	o, err = svc.GetByID(context.Background(), 999)
	require.ErrorIs(t, err, domorder.ErrOrderNotFound)
	require.Nil(t, o)
}

func TestUpdateOrderStatus(t *testing.T) {
	tests := []struct {
		name    string
		id      int64
		status  domorder.Status
		wantErr error
	}{
		{name: "cancel", id: 2, status: domorder.StatusCancelled},
		{name: "ship", id: 2, status: domorder.StatusShipped},
		{name: "invalid status", id: 2, status: domorder.Status("REFUNDED"), wantErr: domorder.ErrInvalidStatus},
		{name: "lowercase status", id: 2, status: domorder.Status("delivered"), wantErr: domorder.ErrInvalidStatus},
		{name: "missing order", id: 999, status: domorder.StatusShipped, wantErr: domorder.ErrOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockOrderRepository()
			seedOrders(repo)
			svc := NewService(repo)

			o, err := svc.UpdateStatus(context.Background(), tt.id, tt.status)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, repo.updated)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.status, o.Status)
			require.Equal(t, tt.status, repo.updated[tt.id])
		})
	}
}

func TestUpdateOrderStatus_RepositoryError(t *testing.T) {
	repo := newMockOrderRepository()
	seedOrders(repo)
	repo.updateErr = errors.New("deadlock")
	svc := NewService(repo)

	_, err := svc.UpdateStatus(context.Background(), 1, domorder.StatusCancelled)
	require.EqualError(t, err, "deadlock")
}
