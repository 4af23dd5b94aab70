package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ridloal/product-dashboard/internal/notification"
	"github.com/ridloal/product-dashboard/internal/permission"
	permMocks "github.com/ridloal/product-dashboard/internal/permission/mocks"
	pDomain "github.com/ridloal/product-dashboard/internal/product/domain"
	pRepo "github.com/ridloal/product-dashboard/internal/product/repository"
	"github.com/ridloal/product-dashboard/internal/product/repository/mocks"
	"github.com/ridloal/product-dashboard/internal/product/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var seedProducts = []pDomain.Product{
	{ID: 1, Name: "Laptop", Price: 1200, Currency: "USD"},
	{ID: 2, Name: "Phone", Price: 800, Currency: "EUR"},
}

func newTestService(perms []permission.Capability) (DashboardService, *mocks.MockProductRepository, *permMocks.MockSource) {
	mockRepo := new(mocks.MockProductRepository)
	mockPerms := new(permMocks.MockSource)
	mockPerms.On("FetchPermissions", mock.Anything).Return(perms, nil).Maybe()
	return NewDashboardService(mockRepo, mockPerms, notification.NewChannel(0)), mockRepo, mockPerms
}

// mounted returns a service whose working list holds seedProducts.
func mounted(t *testing.T, perms []permission.Capability) (DashboardService, *mocks.MockProductRepository) {
	t.Helper()
	svc, mockRepo, _ := newTestService(perms)
	mockRepo.On("FetchAll", mock.Anything).Return(append([]pDomain.Product(nil), seedProducts...), nil).Once()
	require.NoError(t, svc.Mount(context.Background()))
	return svc, mockRepo
}

func TestDashboardService_Mount(t *testing.T) {
	ctx := context.Background()

	t.Run("Loads permissions and products", func(t *testing.T) {
		svc, mockRepo := mounted(t, permission.All())

		view := svc.Snapshot()
		assert.Equal(t, seedProducts, view.Products)
		assert.Equal(t, permission.All(), view.Permissions)
		assert.False(t, view.Loading)
		assert.False(t, view.Busy())
		assert.Equal(t, notification.Notification{Visible: true, Text: MsgLoaded, Severity: notification.SeveritySuccess}, view.Notification)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Permission fetch fails", func(t *testing.T) {
		mockRepo := new(mocks.MockProductRepository)
		mockPerms := new(permMocks.MockSource)
		mockPerms.On("FetchPermissions", ctx).Return(nil, errors.New("permission service down")).Once()
		svc := NewDashboardService(mockRepo, mockPerms, notification.NewChannel(0))

		err := svc.Mount(ctx)
		assert.ErrorIs(t, err, ErrFetchFailed)

		view := svc.Snapshot()
		assert.Empty(t, view.Products)
		assert.Empty(t, view.Permissions)
		assert.False(t, view.Loading)
		assert.Equal(t, MsgFetchFailed, view.Notification.Text)
		assert.Equal(t, notification.SeverityError, view.Notification.Severity)
		mockRepo.AssertNotCalled(t, "FetchAll", mock.Anything)
	})

	t.Run("Product fetch fails keeps permissions", func(t *testing.T) {
		svc, mockRepo, _ := newTestService(permission.All())
		mockRepo.On("FetchAll", ctx).Return(nil, errors.New("store down")).Once()

		err := svc.Mount(ctx)
		assert.ErrorIs(t, err, ErrFetchFailed)

		view := svc.Snapshot()
		assert.Empty(t, view.Products)
		assert.Equal(t, permission.All(), view.Permissions)
		assert.False(t, view.Loading)
		assert.Equal(t, MsgFetchFailed, view.Notification.Text)
	})

	t.Run("No READ skips product fetch", func(t *testing.T) {
		svc, mockRepo, _ := newTestService([]permission.Capability{permission.Create})

		require.NoError(t, svc.Mount(ctx))

		view := svc.Snapshot()
		assert.Empty(t, view.Products)
		assert.Equal(t, notification.Notification{Visible: true, Text: MsgLoaded, Severity: notification.SeveritySuccess}, view.Notification)
		mockRepo.AssertNotCalled(t, "FetchAll", mock.Anything)
	})
}

func TestDashboardService_Create(t *testing.T) {
	ctx := context.Background()
	fields := pDomain.ProductFields{Name: "Tablet", Price: 300, Currency: "USD"}

	t.Run("Appends the store echo", func(t *testing.T) {
		svc, mockRepo := mounted(t, permission.All())
		echo := &pDomain.Product{ID: 1700000000000, Name: "Tablet", Price: 300, Currency: "USD"}
		mockRepo.On("Create", ctx, fields).Return(echo, nil).Once()

		created, err := svc.Submit(ctx, pDomain.CreateProduct{Fields: fields})
		require.NoError(t, err)
		assert.Equal(t, echo, created)

		view := svc.Snapshot()
		require.Len(t, view.Products, 3)
		assert.Equal(t, *echo, view.Products[2])
		assert.False(t, view.Mutating)
		assert.Equal(t, MsgCreated, view.Notification.Text)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Store failure leaves list untouched", func(t *testing.T) {
		svc, mockRepo := mounted(t, permission.All())
		mockRepo.On("Create", ctx, fields).Return(nil, errors.New("boom")).Once()

		_, err := svc.Submit(ctx, pDomain.CreateProduct{Fields: fields})
		assert.ErrorIs(t, err, ErrOperationFailed)

		view := svc.Snapshot()
		assert.Equal(t, seedProducts, view.Products)
		assert.False(t, view.Mutating)
		assert.Equal(t, MsgCreateFailed, view.Notification.Text)
		assert.Equal(t, notification.SeverityError, view.Notification.Severity)
	})

	t.Run("Without CREATE the store is not called", func(t *testing.T) {
		svc, mockRepo := mounted(t, []permission.Capability{permission.Read})

		_, err := svc.Submit(ctx, pDomain.CreateProduct{Fields: fields})
		assert.ErrorIs(t, err, ErrPermissionDenied)
		assert.Equal(t, MsgPermissionDenied, svc.Snapshot().Notification.Text)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestDashboardService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Store echo overrides the draft", func(t *testing.T) {
		svc, mockRepo := mounted(t, permission.All())
		draft := pDomain.ProductFields{Name: "Laptop Pro", Price: 1500, Currency: "USD"}
		echo := &pDomain.Product{ID: 1, Name: "Laptop Pro 14", Price: 1499, Currency: "USD"}
		mockRepo.On("Update", ctx, draft.WithID(1)).Return(echo, nil).Once()

		_, err := svc.Submit(ctx, pDomain.EditProduct{ID: 1, Fields: draft})
		require.NoError(t, err)

		view := svc.Snapshot()
		assert.Equal(t, []pDomain.Product{*echo, seedProducts[1]}, view.Products)
		assert.Equal(t, MsgUpdated, view.Notification.Text)
	})

	t.Run("Not found", func(t *testing.T) {
		svc, mockRepo := mounted(t, permission.All())
		mockRepo.On("Update", ctx, mock.Anything).Return(nil, pRepo.ErrProductNotFound).Once()

		_, err := svc.Submit(ctx, pDomain.EditProduct{ID: 99, Fields: seedProducts[0].Fields()})
		assert.ErrorIs(t, err, ErrOperationFailed)
		assert.ErrorIs(t, err, pRepo.ErrProductNotFound)

		view := svc.Snapshot()
		assert.Equal(t, seedProducts, view.Products)
		assert.Equal(t, MsgNotFound, view.Notification.Text)
	})

	t.Run("Without UPDATE the store is not called", func(t *testing.T) {
		svc, mockRepo := mounted(t, []permission.Capability{permission.Read, permission.Create})

		_, err := svc.Submit(ctx, pDomain.EditProduct{ID: 1, Fields: seedProducts[0].Fields()})
		assert.ErrorIs(t, err, ErrPermissionDenied)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestDashboardService_SingleMutationInFlight(t *testing.T) {
	ctx := context.Background()
	svc, mockRepo := mounted(t, permission.All())

	fields := pDomain.ProductFields{Name: "Tablet", Price: 300, Currency: "USD"}
	started := make(chan struct{})
	release := make(chan struct{})
	mockRepo.On("Create", mock.Anything, fields).Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(&pDomain.Product{ID: 3, Name: "Tablet", Price: 300, Currency: "USD"}, nil).Once()

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, pDomain.CreateProduct{Fields: fields})
		errCh <- err
	}()
	<-started

	view := svc.Snapshot()
	assert.True(t, view.Mutating)
	assert.True(t, view.Busy())

	_, err := svc.Submit(ctx, pDomain.EditProduct{ID: 1, Fields: fields})
	assert.ErrorIs(t, err, ErrMutationInProgress)

	close(release)
	require.NoError(t, <-errCh)
	assert.False(t, svc.Snapshot().Mutating)
	assert.Len(t, svc.Snapshot().Products, 3)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDashboardService_SubmitForm(t *testing.T) {
	ctx := context.Background()

	t.Run("Invalid form stays open", func(t *testing.T) {
		svc, mockRepo := mounted(t, permission.All())
		require.NoError(t, svc.OpenCreate())

		form := pDomain.ProductForm{Name: "", Price: "-5", Currency: "usd"}
		fieldErrs, err := svc.SubmitForm(ctx, form)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, validation.FieldErrors{
			validation.FieldName:     validation.MsgNameRequired,
			validation.FieldPrice:    validation.MsgPriceNotPositive,
			validation.FieldCurrency: validation.MsgCurrencyInvalid,
		}, fieldErrs)

		view := svc.Snapshot()
		require.NotNil(t, view.Form)
		assert.Equal(t, FormCreate, view.Form.Mode)
		assert.Equal(t, form, view.Form.Values)
		assert.Equal(t, fieldErrs, view.Form.Errors)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Create mode dispatches a create", func(t *testing.T) {
		svc, mockRepo := mounted(t, permission.All())
		require.NoError(t, svc.OpenCreate())
		assert.Equal(t, "Create Product", svc.Snapshot().Form.Title())
		assert.Nil(t, svc.Snapshot().Form.Initial)

		fields := pDomain.ProductFields{Name: "Tablet", Price: 300, Currency: "USD"}
		mockRepo.On("Create", ctx, fields).Return(&pDomain.Product{ID: 3, Name: "Tablet", Price: 300, Currency: "USD"}, nil).Once()

		_, err := svc.SubmitForm(ctx, pDomain.ProductForm{Name: "Tablet", Price: "300", Currency: "USD"})
		require.NoError(t, err)
		assert.Nil(t, svc.Snapshot().Form)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Edit mode dispatches an update", func(t *testing.T) {
		svc, mockRepo := mounted(t, permission.All())
		require.NoError(t, svc.OpenEdit(2))

		form := svc.Snapshot().Form
		require.NotNil(t, form)
		assert.Equal(t, "Edit Product", form.Title())
		assert.Equal(t, seedProducts[1].Fields(), *form.Initial)
		assert.Equal(t, pDomain.ProductForm{Name: "Phone", Price: "800", Currency: "EUR"}, form.Values)

		updated := pDomain.Product{ID: 2, Name: "Phone X", Price: 850, Currency: "EUR"}
		mockRepo.On("Update", ctx, updated).Return(&updated, nil).Once()

		_, err := svc.SubmitForm(ctx, pDomain.ProductForm{Name: "Phone X", Price: "850", Currency: "EUR"})
		require.NoError(t, err)
		assert.Nil(t, svc.Snapshot().Form)
		assert.Equal(t, updated, svc.Snapshot().Products[1])
	})

	t.Run("Store failure closes the form", func(t *testing.T) {
		svc, mockRepo := mounted(t, permission.All())
		require.NoError(t, svc.OpenCreate())
		mockRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("boom")).Once()

		_, err := svc.SubmitForm(ctx, pDomain.ProductForm{Name: "Tablet", Price: "300", Currency: "USD"})
		assert.ErrorIs(t, err, ErrOperationFailed)
		assert.Nil(t, svc.Snapshot().Form)
		assert.Equal(t, MsgCreateFailed, svc.Snapshot().Notification.Text)
	})

	t.Run("No open form", func(t *testing.T) {
		svc, _ := mounted(t, permission.All())
		_, err := svc.SubmitForm(ctx, pDomain.ProductForm{})
		assert.ErrorIs(t, err, ErrNoOpenForm)
	})

	t.Run("Open requires permission", func(t *testing.T) {
		svc, _ := mounted(t, []permission.Capability{permission.Read})
		assert.ErrorIs(t, svc.OpenCreate(), ErrPermissionDenied)
		assert.ErrorIs(t, svc.OpenEdit(1), ErrPermissionDenied)
	})

	t.Run("Edit of unknown product", func(t *testing.T) {
		svc, _ := mounted(t, permission.All())
		assert.ErrorIs(t, svc.OpenEdit(42), pRepo.ErrProductNotFound)
	})

	t.Run("Cancel closes without a store call", func(t *testing.T) {
		svc, mockRepo := mounted(t, permission.All())
		require.NoError(t, svc.OpenEdit(1))
		svc.CloseForm()
		assert.Nil(t, svc.Snapshot().Form)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestDashboardService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Confirm removes the product", func(t *testing.T) {
		svc, mockRepo := mounted(t, permission.All())
		require.NoError(t, svc.RequestDelete(1))

		confirm := svc.Snapshot().Confirmation
		require.NotNil(t, confirm)
		assert.Equal(t, DeleteDialogTitle, confirm.Title)
		assert.Equal(t, int64(1), confirm.ProductID)
		assert.Contains(t, confirm.Description, "Laptop")

		mockRepo.On("Delete", ctx, int64(1)).Return(nil).Once()
		require.NoError(t, svc.ConfirmDelete(ctx))

		view := svc.Snapshot()
		assert.Nil(t, view.Confirmation)
		assert.Equal(t, []pDomain.Product{seedProducts[1]}, view.Products)
		assert.Equal(t, MsgDeleted, view.Notification.Text)

		assert.ErrorIs(t, svc.ConfirmDelete(ctx), ErrNoPendingDelete)
		mockRepo.AssertNumberOfCalls(t, "Delete", 1)
	})

	t.Run("Cancel never calls the store", func(t *testing.T) {
		svc, mockRepo := mounted(t, permission.All())
		require.NoError(t, svc.RequestDelete(2))
		require.NoError(t, svc.CancelDelete())

		assert.Nil(t, svc.Snapshot().Confirmation)
		assert.Equal(t, seedProducts, svc.Snapshot().Products)
		assert.ErrorIs(t, svc.CancelDelete(), ErrNoPendingDelete)
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("Store failure", func(t *testing.T) {
		svc, mockRepo := mounted(t, permission.All())
		require.NoError(t, svc.RequestDelete(2))
		mockRepo.On("Delete", ctx, int64(2)).Return(pRepo.ErrProductNotFound).Once()

		err := svc.ConfirmDelete(ctx)
		assert.ErrorIs(t, err, ErrOperationFailed)
		assert.Equal(t, seedProducts, svc.Snapshot().Products)
		assert.Equal(t, MsgNotFound, svc.Snapshot().Notification.Text)
	})

	t.Run("Other store failure", func(t *testing.T) {
		svc, mockRepo := mounted(t, permission.All())
		require.NoError(t, svc.RequestDelete(2))
		mockRepo.On("Delete", ctx, int64(2)).Return(errors.New("boom")).Once()

		assert.ErrorIs(t, svc.ConfirmDelete(ctx), ErrOperationFailed)
		assert.Equal(t, MsgDeleteFailed, svc.Snapshot().Notification.Text)
	})

	t.Run("Request requires DELETE", func(t *testing.T) {
		svc, _ := mounted(t, []permission.Capability{permission.Read, permission.Update})
		assert.ErrorIs(t, svc.RequestDelete(1), ErrPermissionDenied)
		assert.Nil(t, svc.Snapshot().Confirmation)
	})
}

func TestDashboardService_DismissNotification(t *testing.T) {
	svc, _ := mounted(t, permission.All())
	require.True(t, svc.Snapshot().Notification.Visible)

	svc.DismissNotification()
	assert.False(t, svc.Snapshot().Notification.Visible)
}

func TestDashboardService_SnapshotIsACopy(t *testing.T) {
	svc, _ := mounted(t, permission.All())

	view := svc.Snapshot()
	view.Products[0].Name = "Changed"
	view.Permissions[0] = permission.Delete

	assert.Equal(t, "Laptop", svc.Snapshot().Products[0].Name)
	assert.Equal(t, permission.All(), svc.Snapshot().Permissions)
}

// Runs the full lifecycle against the in-memory store seeded with two products.
func TestDashboardService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	repo := pRepo.NewMemoryProductRepository(pRepo.WithSeed(pRepo.StaticSeed(seedProducts)))
	svc := NewDashboardService(repo, permission.NewStaticSource(permission.All()...), notification.NewChannel(0))

	require.NoError(t, svc.Mount(ctx))
	assert.Equal(t, seedProducts, svc.Snapshot().Products)

	created, err := svc.Submit(ctx, pDomain.CreateProduct{Fields: pDomain.ProductFields{Name: "Tablet", Price: 300, Currency: "USD"}})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	_, err = svc.Submit(ctx, pDomain.EditProduct{ID: 1, Fields: pDomain.ProductFields{Name: "Laptop Pro", Price: 1500, Currency: "USD"}})
	require.NoError(t, err)

	require.NoError(t, svc.RequestDelete(2))
	require.NoError(t, svc.ConfirmDelete(ctx))

	want := []pDomain.Product{
		{ID: 1, Name: "Laptop Pro", Price: 1500, Currency: "USD"},
		*created,
	}
	assert.Equal(t, want, svc.Snapshot().Products)

	stored, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, stored)

	_, err = svc.Submit(ctx, pDomain.EditProduct{ID: 2, Fields: pDomain.ProductFields{Name: "Phone", Price: 1, Currency: "EUR"}})
	assert.ErrorIs(t, err, pRepo.ErrProductNotFound)
	assert.Equal(t, want, svc.Snapshot().Products)
}

func TestDashboardService_MutationRejectedWhileLoading(t *testing.T) {
	ctx := context.Background()
	svc, mockRepo := mounted(t, permission.All())

	started := make(chan struct{})
	release := make(chan struct{})
	mockRepo.On("FetchAll", mock.Anything).Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(append([]pDomain.Product(nil), seedProducts...), nil).Once()

	errCh := make(chan error, 1)
	go func() { errCh <- svc.Mount(ctx) }()
	<-started
	require.True(t, svc.Snapshot().Loading)

	fields := pDomain.ProductFields{Name: "Tablet", Price: 300, Currency: "USD"}
	_, err := svc.Submit(ctx, pDomain.CreateProduct{Fields: fields})
	assert.ErrorIs(t, err, ErrMutationInProgress)
	assert.Equal(t, MsgBusy, svc.Snapshot().Notification.Text)

	close(release)
	require.NoError(t, <-errCh)
	assert.Equal(t, seedProducts, svc.Snapshot().Products)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	// Once loading is over the same create goes through and stays in the list.
	mockRepo.On("Create", ctx, fields).Return(&pDomain.Product{ID: 3, Name: "Tablet", Price: 300, Currency: "USD"}, nil).Once()
	_, err = svc.Submit(ctx, pDomain.CreateProduct{Fields: fields})
	require.NoError(t, err)
	assert.Len(t, svc.Snapshot().Products, 3)
}

func TestDashboardService_DeleteDialogs(t *testing.T) {
	ctx := context.Background()

	t.Run("Second request while one is open is rejected", func(t *testing.T) {
		svc, mockRepo := mounted(t, permission.All())
		require.NoError(t, svc.RequestDelete(1))

		assert.ErrorIs(t, svc.RequestDelete(2), ErrDeletePending)
		require.NotNil(t, svc.Snapshot().Confirmation)
		assert.Equal(t, int64(1), svc.Snapshot().Confirmation.ProductID)

		mockRepo.On("Delete", ctx, int64(1)).Return(nil).Once()
		require.NoError(t, svc.ConfirmDelete(ctx))
		assert.Equal(t, []pDomain.Product{seedProducts[1]}, svc.Snapshot().Products)
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, int64(2))
	})

	t.Run("DeleteProduct leaves the open dialog alone", func(t *testing.T) {
		svc, mockRepo := mounted(t, permission.All())
		require.NoError(t, svc.RequestDelete(1))

		mockRepo.On("Delete", ctx, int64(2)).Return(nil).Once()
		require.NoError(t, svc.DeleteProduct(ctx, 2))

		view := svc.Snapshot()
		assert.Equal(t, []pDomain.Product{seedProducts[0]}, view.Products)
		require.NotNil(t, view.Confirmation)
		assert.Equal(t, int64(1), view.Confirmation.ProductID)
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, int64(1))
	})

	t.Run("DeleteProduct checks permission and existence", func(t *testing.T) {
		svc, mockRepo := mounted(t, permission.All())
		assert.ErrorIs(t, svc.DeleteProduct(ctx, 42), pRepo.ErrProductNotFound)

		readOnly, readOnlyRepo := mounted(t, []permission.Capability{permission.Read})
		assert.ErrorIs(t, readOnly.DeleteProduct(ctx, 1), ErrPermissionDenied)

		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		readOnlyRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("Confirm during another mutation keeps the dialog open", func(t *testing.T) {
		svc, mockRepo := mounted(t, permission.All())
		require.NoError(t, svc.RequestDelete(2))

		fields := pDomain.ProductFields{Name: "Tablet", Price: 300, Currency: "USD"}
		started := make(chan struct{})
		release := make(chan struct{})
		mockRepo.On("Create", mock.Anything, fields).Run(func(args mock.Arguments) {
			close(started)
			<-release
		}).Return(&pDomain.Product{ID: 3, Name: "Tablet", Price: 300, Currency: "USD"}, nil).Once()

		errCh := make(chan error, 1)
		go func() {
			_, err := svc.Submit(ctx, pDomain.CreateProduct{Fields: fields})
			errCh <- err
		}()
		<-started

		assert.ErrorIs(t, svc.ConfirmDelete(ctx), ErrMutationInProgress)
		view := svc.Snapshot()
		require.NotNil(t, view.Confirmation)
		assert.Equal(t, MsgBusy, view.Notification.Text)
		assert.Equal(t, notification.SeverityError, view.Notification.Severity)

		close(release)
		require.NoError(t, <-errCh)

		mockRepo.On("Delete", ctx, int64(2)).Return(nil).Once()
		require.NoError(t, svc.ConfirmDelete(ctx))
		assert.Nil(t, svc.Snapshot().Confirmation)
		assert.Len(t, svc.Snapshot().Products, 2)
	})
}
