package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "quickchat/internal/errors"
	"quickchat/internal/models"
	"quickchat/internal/service/mocks"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreditHandler_ListPlans(t *testing.T) {
	m := &mocks.MockCreditService{
		ListPlansFunc: func() []models.Plan { return models.Plans },
	}
	router := gin.New()
	router.GET("/credit/plan", NewCreditHandler(m).ListPlans)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/credit/plan", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].([]interface{})
	assert.Len(t, data, 3)
	assert.Equal(t, "basic", data[0].(map[string]interface{})["_id"])
}

func TestCreditHandler_Purchase(t *testing.T) {
	userID := primitive.NewObjectID()

	tests := []struct {
		name           string
		body           interface{}
		serviceErr     error
		expectedStatus int
	}{
		{name: "returns checkout url", body: models.PurchaseRequest{PlanID: "pro"}, expectedStatus: http.StatusOK},
		{name: "missing plan", body: map[string]string{}, expectedStatus: http.StatusBadRequest},
		{name: "unknown plan", body: models.PurchaseRequest{PlanID: "gold"}, serviceErr: apperrors.ErrInvalidPlan, expectedStatus: http.StatusNotFound},
		{
			name:           "payment provider failure",
			body:           models.PurchaseRequest{PlanID: "pro"},
			serviceErr:     fmt.Errorf("%w: boom", apperrors.ErrPaymentProviderFailure),
			expectedStatus: http.StatusBadGateway,
		},
		{name: "internal error", body: models.PurchaseRequest{PlanID: "pro"}, serviceErr: errors.New("db"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mocks.MockCreditService{
				PurchaseFunc: func(ctx context.Context, uid primitive.ObjectID, req *models.PurchaseRequest, origin string) (*models.PurchaseResponse, error) {
					assert.Equal(t, userID, uid)
					assert.Equal(t, "https://client.example.com", origin)
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &models.PurchaseResponse{URL: "https://checkout.stripe.com/x"}, nil
				},
			}
			router := gin.New()
			router.POST("/credit/purchase", setUserID(userID), NewCreditHandler(m).Purchase)

			req := newJSONRequest(t, http.MethodPost, "/credit/purchase", tt.body)
			req.Header.Set("Origin", "https://client.example.com")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				data := decodeResponse(t, w)["data"].(map[string]interface{})
				assert.Equal(t, "https://checkout.stripe.com/x", data["url"])
			}
		})
	}
}

func TestCreditHandler_ListTransactions(t *testing.T) {
	userID := primitive.NewObjectID()
	m := &mocks.MockCreditService{
		ListTransactionsFunc: func(ctx context.Context, uid primitive.ObjectID) ([]models.Transaction, error) {
			assert.Equal(t, userID, uid)
			return []models.Transaction{{PlanID: "basic", StripeSessionID: "cs_secret"}}, nil
		},
	}
	router := gin.New()
	router.GET("/credit/transactions", setUserID(userID), NewCreditHandler(m).ListTransactions)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/credit/transactions", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "cs_secret")

	t.Run("store failure is logged and hidden", func(t *testing.T) {
		dbErr := errors.New("connection reset")
		m := &mocks.MockCreditService{
			ListTransactionsFunc: func(ctx context.Context, uid primitive.ObjectID) ([]models.Transaction, error) {
				return nil, dbErr
			},
		}
		var errs []error
		router := gin.New()
		router.GET("/credit/transactions", captureErrors(&errs), setUserID(userID), NewCreditHandler(m).ListTransactions)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/credit/transactions", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection reset")
		assert.Equal(t, []error{dbErr}, errs)
	})
}

func TestCreditHandler_StripeWebhook(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

	tests := []struct {
		name           string
		serviceErr     error
		expectedStatus int
	}{
		{name: "acknowledges the event", expectedStatus: http.StatusOK},
		{name: "invalid signature", serviceErr: fmt.Errorf("%w: bad", apperrors.ErrInvalidWebhookSignature), expectedStatus: http.StatusBadRequest},
		{name: "fulfilment unavailable", serviceErr: apperrors.ErrFulfillmentUnavailable, expectedStatus: http.StatusServiceUnavailable},
		{name: "internal error", serviceErr: errors.New("boom"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mocks.MockCreditService{
				HandleWebhookFunc: func(ctx context.Context, body []byte, signature string) error {
					assert.Equal(t, payload, body)
					assert.Equal(t, "t=1,v1=abc", signature)
					return tt.serviceErr
				},
			}
			router := gin.New()
			router.POST("/stripe", NewCreditHandler(m).StripeWebhook)

			req := httptest.NewRequest(http.MethodPost, "/stripe", bytes.NewReader(payload))
			req.Header.Set("Stripe-Signature", "t=1,v1=abc")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	t.Run("rejects oversized payload", func(t *testing.T) {
		m := &mocks.MockCreditService{
			HandleWebhookFunc: func(ctx context.Context, body []byte, signature string) error {
				t.Fatal("service must not be called")
				return nil
			},
		}
		router := gin.New()
		router.POST("/stripe", NewCreditHandler(m).StripeWebhook)

		req := httptest.NewRequest(http.MethodPost, "/stripe", bytes.NewReader(make([]byte, maxWebhookBodyBytes+1)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
