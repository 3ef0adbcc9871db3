// Package mocks provides testify mocks shared by package tests.
package mocks

import (
	"context"

	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/amirasaad/fxconvert/pkg/provider"
	"github.com/stretchr/testify/mock"
)

// MockRateClient is a mock implementation of provider.RateClient.
type MockRateClient struct {
	mock.Mock
}

func NewMockRateClient() *MockRateClient {
	return &MockRateClient{}
}

func (m *MockRateClient) ListCurrencies(ctx context.Context) (currency.Table, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(currency.Table), args.Error(1)
}

func (m *MockRateClient) GetLatestRate(
	ctx context.Context,
	amount float64,
	from, to string,
) (*provider.ConversionResponse, error) {
	args := m.Called(ctx, amount, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.ConversionResponse), args.Error(1)
}

var _ provider.RateClient = (*MockRateClient)(nil)
