package mocks

import (
	"context"

	"github.com/ridloal/product-dashboard/internal/permission"
	"github.com/stretchr/testify/mock"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) FetchPermissions(ctx context.Context) ([]permission.Capability, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.([]permission.Capability), args.Error(1)
	}
	return nil, args.Error(1)
}
