package mocks

import (
	"context"

	"github.com/ridloal/product-dashboard/internal/dashboard/service"
	pDomain "github.com/ridloal/product-dashboard/internal/product/domain"
	"github.com/ridloal/product-dashboard/internal/product/validation"
	"github.com/stretchr/testify/mock"
)

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Mount(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDashboardService) Submit(ctx context.Context, input pDomain.ProductInput) (*pDomain.Product, error) {
	args := m.Called(ctx, input)
	if res := args.Get(0); res != nil {
		return res.(*pDomain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDashboardService) OpenCreate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDashboardService) OpenEdit(id int64) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockDashboardService) CloseForm() {
	m.Called()
}

func (m *MockDashboardService) SubmitForm(ctx context.Context, form pDomain.ProductForm) (validation.FieldErrors, error) {
	args := m.Called(ctx, form)
	if res := args.Get(0); res != nil {
		return res.(validation.FieldErrors), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDashboardService) RequestDelete(id int64) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockDashboardService) ConfirmDelete(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDashboardService) DeleteProduct(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDashboardService) CancelDelete() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDashboardService) Snapshot() service.DashboardView {
	args := m.Called()
	return args.Get(0).(service.DashboardView)
}

func (m *MockDashboardService) DismissNotification() {
	m.Called()
}

func (m *MockDashboardService) Audit(ctx context.Context) (service.AuditReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(service.AuditReport), args.Error(1)
}
