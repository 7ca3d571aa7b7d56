package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, req model.ProductRequest) (*model.Product, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id string, req model.UpdateProductRequest) (*model.Product, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestProductHandler_GetAll(t *testing.T) {
	logger := zerolog.Nop()

	testProducts := []model.Product{
		{ID: "P001", Name: "Mug", Price: decimal.NewFromInt(100), Category: "Kitchen", CreatedAt: time.Now()},
		{ID: "P002", Name: "Lamp", Price: decimal.NewFromInt(250), Category: "Home", CreatedAt: time.Now()},
	}

	tests := []struct {
		name           string
		queryParams    string
		mockReturn     []model.Product
		mockError      error
		expectedStatus int
		expectedLimit  int
		expectedOffset int
		expectService  bool
	}{
		{
			name:           "Success with default pagination",
			mockReturn:     testProducts,
			expectedStatus: http.StatusOK,
			expectedLimit:  10,
			expectService:  true,
		},
		{
			name:           "Success with custom pagination",
			queryParams:    "?limit=20&offset=10",
			mockReturn:     testProducts,
			expectedStatus: http.StatusOK,
			expectedLimit:  20,
			expectedOffset: 10,
			expectService:  true,
		},
		{
			name:           "Invalid limit parameter",
			queryParams:    "?limit=abc",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid offset parameter",
			queryParams:    "?offset=xyz",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Service error",
			mockError:      errors.New("database error"),
			expectedStatus: http.StatusInternalServerError,
			expectedLimit:  10,
			expectService:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, logger)

			if tt.expectService {
				mockService.On("GetAll", mock.Anything, tt.expectedLimit, tt.expectedOffset).
					Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/products"+tt.queryParams, nil)
			w := httptest.NewRecorder()

			handler.GetAll(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "database error")
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestProductHandler_GetByID(t *testing.T) {
	logger := zerolog.Nop()

	testProduct := &model.Product{ID: "P001", Name: "Mug", Price: decimal.NewFromInt(100), Category: "Kitchen"}

	tests := []struct {
		name           string
		productID      string
		mockReturn     *model.Product
		mockError      error
		expectedStatus int
	}{
		{name: "Success", productID: "P001", mockReturn: testProduct, expectedStatus: http.StatusOK},
		{name: "Product not found", productID: "P999", mockError: model.ErrProductNotFound, expectedStatus: http.StatusNotFound},
		{name: "Service error", productID: "P001", mockError: errors.New("database error"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, logger)

			mockService.On("GetByID", mock.Anything, tt.productID).Return(tt.mockReturn, tt.mockError)

			req := httptest.NewRequest(http.MethodGet, "/api/products/"+tt.productID, nil)
			req.SetPathValue("id", tt.productID)
			w := httptest.NewRecorder()

			handler.GetByID(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var got model.Product
				require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
				assert.Equal(t, "P001", got.ID)
				assert.True(t, got.Price.Equal(decimal.NewFromInt(100)))
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestProductHandler_Create(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		body           string
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			body:           `{"id":"P010","name":"Kettle","price":"799.50","category":"Kitchen"}`,
			expectedStatus: http.StatusCreated,
			expectService:  true,
		},
		{
			name:           "Duplicate",
			body:           `{"id":"P001","name":"Mug","price":100,"category":"Kitchen"}`,
			mockError:      model.ErrProductExists,
			expectedStatus: http.StatusConflict,
			expectService:  true,
		},
		{
			name:           "Missing name",
			body:           `{"id":"P010","price":1,"category":"Kitchen"}`,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "Invalid JSON",
			body:           `{"id":`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, logger)

			if tt.expectService {
				var created *model.Product
				if tt.mockError == nil {
					created = &model.Product{ID: "P010", Name: "Kettle", Price: decimal.RequireFromString("799.50"), Category: "Kitchen"}
				}
				mockService.On("Create", mock.Anything, mock.AnythingOfType("model.ProductRequest")).Return(created, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/admin/products", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.Create(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if !tt.expectService {
				mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestProductHandler_Update(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		body           string
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			body:           `{"name":"Steel Kettle","description":"1.5 litre","price":"849.00","category":"Kitchen","stock":12}`,
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Unknown product",
			body:           `{"name":"Steel Kettle","price":849,"category":"Kitchen"}`,
			mockError:      model.ErrProductNotFound,
			expectedStatus: http.StatusNotFound,
			expectService:  true,
		},
		{
			name:           "Negative stock",
			body:           `{"name":"Steel Kettle","price":849,"category":"Kitchen","stock":-1}`,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "Missing category",
			body:           `{"name":"Steel Kettle","price":849}`,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "Invalid JSON",
			body:           `{"name":`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, logger)

			if tt.expectService {
				var updated *model.Product
				if tt.mockError == nil {
					updated = &model.Product{ID: "P001", Name: "Steel Kettle", Description: "1.5 litre", Price: decimal.RequireFromString("849.00"), Category: "Kitchen", Stock: 12}
				}
				mockService.On("Update", mock.Anything, "P001", mock.AnythingOfType("model.UpdateProductRequest")).Return(updated, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPut, "/api/admin/products/P001", strings.NewReader(tt.body))
			req.SetPathValue("id", "P001")
			w := httptest.NewRecorder()

			handler.Update(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var got model.Product
				require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
				assert.Equal(t, "1.5 litre", got.Description)
				assert.Equal(t, 12, got.Stock)
			}
			if !tt.expectService {
				mockService.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestProductHandler_Delete(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		mockError      error
		expectedStatus int
	}{
		{name: "Success", expectedStatus: http.StatusNoContent},
		{name: "Not found", mockError: model.ErrProductNotFound, expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, logger)
			mockService.On("Delete", mock.Anything, "P001").Return(tt.mockError)

			req := httptest.NewRequest(http.MethodDelete, "/api/admin/products/P001", nil)
			req.SetPathValue("id", "P001")
			w := httptest.NewRecorder()

			handler.Delete(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}
