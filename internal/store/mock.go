package store

import (
	"context"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
	"github.com/shopspring/decimal"
)

// MockCollection is a mock implementation of service.Collection for
// testing sync and command code without a database.
type MockCollection[T model.Entity, P any] struct {
	// Functions that can be set by tests to control behavior
	ListFn   func(ctx context.Context, userID string) ([]T, error)
	InsertFn func(ctx context.Context, row T) (T, error)
	UpdateFn func(ctx context.Context, id string, patch P) (T, error)
	DeleteFn func(ctx context.Context, id string) error

	// Events is the channel handed out by Subscribe. Tests push
	// change events into it to simulate the server feed.
	Events chan service.ChangeEvent[T]

	// Call tracking
	ListCalls   []string
	InsertCalls []T
	UpdateCalls []UpdateCall[P]
	DeleteCalls []string
	Cancelled   int
}

// UpdateCall records the parameters of an Update call.
type UpdateCall[P any] struct {
	ID    string
	Patch P
}

// NewMockCollection creates a mock collection with a buffered event
// channel ready for use.
func NewMockCollection[T model.Entity, P any]() *MockCollection[T, P] {
	return &MockCollection[T, P]{
		Events: make(chan service.ChangeEvent[T], 16),
	}
}

// List implements service.Collection.List.
func (m *MockCollection[T, P]) List(ctx context.Context, userID string) ([]T, error) {
	m.ListCalls = append(m.ListCalls, userID)
	if m.ListFn != nil {
		return m.ListFn(ctx, userID)
	}
	return []T{}, nil
}

// Insert implements service.Collection.Insert.
func (m *MockCollection[T, P]) Insert(ctx context.Context, row T) (T, error) {
	m.InsertCalls = append(m.InsertCalls, row)
	if m.InsertFn != nil {
		return m.InsertFn(ctx, row)
	}
	return row, nil
}

// Update implements service.Collection.Update.
func (m *MockCollection[T, P]) Update(ctx context.Context, id string, patch P) (T, error) {
	m.UpdateCalls = append(m.UpdateCalls, UpdateCall[P]{ID: id, Patch: patch})
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, patch)
	}
	var zero T
	return zero, nil
}

// Delete implements service.Collection.Delete.
func (m *MockCollection[T, P]) Delete(ctx context.Context, id string) error {
	m.DeleteCalls = append(m.DeleteCalls, id)
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

// Subscribe implements service.Collection.Subscribe, returning the
// test-controlled event channel.
func (m *MockCollection[T, P]) Subscribe(_ context.Context) (<-chan service.ChangeEvent[T], func(), error) {
	return m.Events, func() { m.Cancelled++ }, nil
}

// MockGoalCollection extends MockCollection with the balance increment.
type MockGoalCollection struct {
	MockCollection[model.Goal, model.GoalPatch]

	AddToCurrentAmountFn    func(ctx context.Context, id string, delta decimal.Decimal) (model.Goal, error)
	AddToCurrentAmountCalls []AddToCurrentAmountCall
}

// AddToCurrentAmountCall records the parameters of an increment call.
type AddToCurrentAmountCall struct {
	ID    string
	Delta decimal.Decimal
}

// NewMockGoalCollection creates a mock goal collection.
func NewMockGoalCollection() *MockGoalCollection {
	return &MockGoalCollection{
		MockCollection: MockCollection[model.Goal, model.GoalPatch]{
			Events: make(chan service.ChangeEvent[model.Goal], 16),
		},
	}
}

// AddToCurrentAmount implements service.GoalCollection.
func (m *MockGoalCollection) AddToCurrentAmount(ctx context.Context, id string, delta decimal.Decimal) (model.Goal, error) {
	m.AddToCurrentAmountCalls = append(m.AddToCurrentAmountCalls, AddToCurrentAmountCall{ID: id, Delta: delta})
	if m.AddToCurrentAmountFn != nil {
		return m.AddToCurrentAmountFn(ctx, id, delta)
	}
	return model.Goal{ID: id, CurrentAmount: delta}, nil
}

// MockStore bundles mock collections behind the service.Store
// interface so trackers and commands can run against it.
type MockStore struct {
	SubscriptionCol *MockCollection[model.Subscription, model.SubscriptionPatch]
	DocumentCol     *MockCollection[model.Document, model.DocumentPatch]
	BudgetCol       *MockCollection[model.Budget, model.BudgetPatch]
	GoalCol         *MockGoalCollection
	TransactionCol  *MockCollection[model.Transaction, model.TransactionPatch]
	NotificationCol *MockCollection[model.Notification, model.NotificationPatch]

	ProfileFn func(ctx context.Context, userID string) (*model.Profile, error)
	MigrateFn func(ctx context.Context) error

	Closed bool
}

// NewMockStore creates a mock store with every collection populated.
func NewMockStore() *MockStore {
	return &MockStore{
		SubscriptionCol: NewMockCollection[model.Subscription, model.SubscriptionPatch](),
		DocumentCol:     NewMockCollection[model.Document, model.DocumentPatch](),
		BudgetCol:       NewMockCollection[model.Budget, model.BudgetPatch](),
		GoalCol:         NewMockGoalCollection(),
		TransactionCol:  NewMockCollection[model.Transaction, model.TransactionPatch](),
		NotificationCol: NewMockCollection[model.Notification, model.NotificationPatch](),
	}
}

// Subscriptions implements service.Store.
func (m *MockStore) Subscriptions() service.Collection[model.Subscription, model.SubscriptionPatch] {
	return m.SubscriptionCol
}

// Documents implements service.Store.
func (m *MockStore) Documents() service.Collection[model.Document, model.DocumentPatch] {
	return m.DocumentCol
}

// Budgets implements service.Store.
func (m *MockStore) Budgets() service.Collection[model.Budget, model.BudgetPatch] {
	return m.BudgetCol
}

// Goals implements service.Store.
func (m *MockStore) Goals() service.GoalCollection {
	return m.GoalCol
}

// Transactions implements service.Store.
func (m *MockStore) Transactions() service.Collection[model.Transaction, model.TransactionPatch] {
	return m.TransactionCol
}

// Notifications implements service.Store.
func (m *MockStore) Notifications() service.Collection[model.Notification, model.NotificationPatch] {
	return m.NotificationCol
}

// Profile implements service.Store.
func (m *MockStore) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	if m.ProfileFn != nil {
		return m.ProfileFn(ctx, userID)
	}
	return &model.Profile{ID: userID}, nil
}

// Migrate implements service.Store.
func (m *MockStore) Migrate(ctx context.Context) error {
	if m.MigrateFn != nil {
		return m.MigrateFn(ctx)
	}
	return nil
}

// Close implements service.Store.
func (m *MockStore) Close() error {
	m.Closed = true
	return nil
}

// Ensure the mocks satisfy the storage interfaces.
var (
	_ service.Store                                                     = (*MockStore)(nil)
	_ service.GoalCollection                                            = (*MockGoalCollection)(nil)
	_ service.Collection[model.Subscription, model.SubscriptionPatch]   = (*MockCollection[model.Subscription, model.SubscriptionPatch])(nil)
)
