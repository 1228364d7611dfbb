//go:build api

package api

import (
	"net/http"
	"testing"
	"time"

	"quickchat/internal/models"
	"quickchat/test/api/testserver"
	"quickchat/test/fixtures"
	"quickchat/test/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const fulfilmentTimeout = 5 * time.Second

// TestListPlans tests the GET /api/credit/plan endpoint.
func TestListPlans(t *testing.T) {
	testServer.CleanupBetweenTests(t)

	user := testserver.NewAuthHelper(testServer).CreateDefaultUser(t)

	w := testutil.MakeAuthRequest(t, testServer.Router, http.MethodGet, "/api/credit/plan", user.Token, nil)

	require.Equal(t, http.StatusOK, w.Code)
	data := testutil.ParseAPIListResponse(t, w).Data
	require.Len(t, data, 3)
	assert.Equal(t, "basic", data[0]["_id"])
	assert.Equal(t, float64(100), data[0]["credits"])
	assert.Equal(t, "premium", data[2]["_id"])
	assert.Equal(t, float64(30), data[2]["price"])
}

// TestPurchase tests the POST /api/credit/purchase endpoint.
func TestPurchase(t *testing.T) {
	testServer.CleanupBetweenTests(t)

	auth := testserver.NewAuthHelper(testServer)

	t.Run("success - creates an unpaid transaction and a checkout session", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		user := auth.CreateDefaultUser(t)

		w := testutil.MakeRequestWithHeaders(t, testServer.Router, http.MethodPost, "/api/credit/purchase",
			models.PurchaseRequest{PlanID: "pro"},
			map[string]string{
				"Authorization": "Bearer " + user.Token,
				"Origin":        "https://chat.example.com",
			})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := testutil.ParseAPIResponse(t, w)
		assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", resp.Data["url"])

		txnID, err := primitive.ObjectIDFromHex(resp.Data["transactionId"].(string))
		require.NoError(t, err)
		txn, err := testServer.TransactionRepo.FindByID(testutil.TestContext(t), txnID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, txn.UserID)
		assert.Equal(t, "pro", txn.PlanID)
		assert.Equal(t, 500, txn.Credits)
		assert.False(t, txn.IsPaid)
		assert.Equal(t, "cs_test_1", txn.StripeSessionID)

		requests := testServer.Gateway.Requests()
		require.Len(t, requests, 1)
		assert.Equal(t, int64(2000), requests[0].AmountCents)
		assert.Equal(t, "https://chat.example.com/loading", requests[0].SuccessURL)
		assert.Equal(t, "https://chat.example.com", requests[0].CancelURL)
		assert.Equal(t, txnID.Hex(), requests[0].TransactionID)
	})

	t.Run("error - unknown plan", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		user := auth.CreateDefaultUser(t)

		w := testutil.MakeAuthRequest(t, testServer.Router, http.MethodPost, "/api/credit/purchase", user.Token,
			models.PurchaseRequest{PlanID: "platinum"})

		testserver.AssertErrorResponse(t, w, http.StatusNotFound, "invalid plan")
		assert.Empty(t, testServer.Gateway.Requests())
	})
}

// TestStripeWebhook tests POST /api/stripe through to credit fulfilment.
func TestStripeWebhook(t *testing.T) {
	testServer.CleanupBetweenTests(t)

	auth := testserver.NewAuthHelper(testServer)
	payments := testserver.NewPaymentHelper(testServer)

	t.Run("paid checkout grants the plan's credits exactly once", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		user := auth.SeedUser(t, fixtures.NewUser().WithCredits(5).BuildPtr())
		txn := payments.SeedTransactionRaw(t, fixtures.NewTransaction().WithUserID(user.ID).BuildPtr())
		payload := payments.CheckoutCompletedEvent(t, "evt_1", txn.ID.Hex(), testserver.TestAppID, "paid")

		w := payments.PostWebhook(t, payload)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, true, testutil.ParseAPIResponse(t, w).Data["received"])

		paid := payments.WaitForPaid(t, txn.ID, fulfilmentTimeout)
		assert.NotNil(t, paid.PaidAt)
		require.Eventually(t, func() bool {
			return auth.Credits(t, user.ID) == 105
		}, fulfilmentTimeout, 20*time.Millisecond)

		// Stripe redelivers the same event
		w = payments.PostWebhook(t, payload)
		require.Equal(t, http.StatusOK, w.Code)

		assert.Never(t, func() bool {
			return auth.Credits(t, user.ID) != 105
		}, 300*time.Millisecond, 20*time.Millisecond)
	})

	t.Run("unpaid checkout is acknowledged but not fulfilled", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		user := auth.SeedUser(t, fixtures.NewUser().WithCredits(5).BuildPtr())
		txn := payments.SeedTransactionRaw(t, fixtures.NewTransaction().WithUserID(user.ID).BuildPtr())

		w := payments.PostWebhook(t, payments.CheckoutCompletedEvent(t, "evt_2", txn.ID.Hex(), testserver.TestAppID, "unpaid"))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Never(t, func() bool {
			return auth.Credits(t, user.ID) != 5
		}, 300*time.Millisecond, 20*time.Millisecond)
	})

	t.Run("checkout from another app is ignored", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		user := auth.SeedUser(t, fixtures.NewUser().WithCredits(5).BuildPtr())
		txn := payments.SeedTransactionRaw(t, fixtures.NewTransaction().WithUserID(user.ID).BuildPtr())

		w := payments.PostWebhook(t, payments.CheckoutCompletedEvent(t, "evt_3", txn.ID.Hex(), "otherapp", "paid"))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Never(t, func() bool {
			return auth.Credits(t, user.ID) != 5
		}, 300*time.Millisecond, 20*time.Millisecond)
	})

	t.Run("already paid transaction is a no-op", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		user := auth.SeedUser(t, fixtures.NewUser().WithCredits(5).BuildPtr())
		txn := payments.SeedTransactionRaw(t, fixtures.NewTransaction().WithUserID(user.ID).Paid().BuildPtr())

		w := payments.PostWebhook(t, payments.CheckoutCompletedEvent(t, "evt_4", txn.ID.Hex(), testserver.TestAppID, "paid"))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Never(t, func() bool {
			return auth.Credits(t, user.ID) != 5
		}, 300*time.Millisecond, 20*time.Millisecond)
	})

	t.Run("fulfilment failure answers 503 and redelivery does not grant twice", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		user := auth.SeedUser(t, fixtures.NewUser().WithCredits(5).BuildPtr())
		txn := payments.SeedTransactionRaw(t, fixtures.NewTransaction().WithUserID(user.ID).BuildPtr())
		payload := payments.CheckoutCompletedEvent(t, "evt_6", txn.ID.Hex(), testserver.TestAppID, "paid")
		testServer.Fulfiller.FailNext(1)

		w := payments.PostWebhook(t, payload)
		testserver.AssertErrorResponse(t, w, http.StatusServiceUnavailable, "payment processing is busy, please retry")

		// The background retry settles it
		payments.WaitForPaid(t, txn.ID, fulfilmentTimeout)
		require.Eventually(t, func() bool {
			return auth.Credits(t, user.ID) == 105
		}, fulfilmentTimeout, 20*time.Millisecond)

		w = payments.PostWebhook(t, payload)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 105, auth.Credits(t, user.ID))
	})

	t.Run("error - bad signature", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		payload := payments.CheckoutCompletedEvent(t, "evt_5", primitive.NewObjectID().Hex(), testserver.TestAppID, "paid")

		w := testutil.MakeRequestWithHeaders(t, testServer.Router, http.MethodPost, "/api/stripe", payload,
			map[string]string{"Stripe-Signature": "t=1,v1=deadbeef"})

		testserver.AssertErrorResponse(t, w, http.StatusBadRequest, "invalid webhook signature")
	})
}

// TestCheckoutReconciliation covers a paid checkout whose webhook never
// led to fulfilment.
func TestCheckoutReconciliation(t *testing.T) {
	testServer.CleanupBetweenTests(t)

	auth := testserver.NewAuthHelper(testServer)
	payments := testserver.NewPaymentHelper(testServer)

	user := auth.SeedUser(t, fixtures.NewUser().WithCredits(5).BuildPtr())
	lost := payments.SeedTransactionRaw(t, fixtures.NewTransaction().WithUserID(user.ID).WithSessionID("cs_lost").BuildPtr())
	payments.SeedTransactionRaw(t, fixtures.NewTransaction().WithUserID(user.ID).WithSessionID("cs_open").BuildPtr())
	testServer.Gateway.MarkSessionPaid("cs_lost", lost.ID.Hex())

	queued := testServer.Reconciler.Reconcile(testutil.TestContext(t))

	assert.Equal(t, 1, queued)
	payments.WaitForPaid(t, lost.ID, fulfilmentTimeout)
	require.Eventually(t, func() bool {
		return auth.Credits(t, user.ID) == 105
	}, fulfilmentTimeout, 20*time.Millisecond)

	// A second pass finds nothing left to do
	assert.Equal(t, 0, testServer.Reconciler.Reconcile(testutil.TestContext(t)))
}

// TestListTransactions tests the GET /api/credit/transactions endpoint.
func TestListTransactions(t *testing.T) {
	testServer.CleanupBetweenTests(t)

	auth := testserver.NewAuthHelper(testServer)
	payments := testserver.NewPaymentHelper(testServer)

	user := auth.CreateDefaultUser(t)
	other := auth.SeedUser(t, fixtures.NewUser().BuildPtr())
	payments.SeedTransactionRaw(t, fixtures.NewTransaction().WithUserID(user.ID).Paid().BuildPtr())
	payments.SeedTransactionRaw(t, fixtures.NewTransaction().WithUserID(other.ID).BuildPtr())

	w := testutil.MakeAuthRequest(t, testServer.Router, http.MethodGet, "/api/credit/transactions", user.Token, nil)

	require.Equal(t, http.StatusOK, w.Code)
	data := testutil.ParseAPIListResponse(t, w).Data
	require.Len(t, data, 1)
	assert.Equal(t, user.ID.Hex(), data[0]["userId"])
	assert.Equal(t, true, data[0]["isPaid"])
	assert.NotContains(t, data[0], "stripeSessionId")
}
