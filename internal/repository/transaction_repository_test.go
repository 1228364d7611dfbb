package repository

import (
	"context"
	"testing"
	"time"

	"quickchat/internal/database"
	apperrors "quickchat/internal/errors"
	"quickchat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTransactionRepository(t *testing.T) {
	tdb := SetupTestDB(t)
	defer tdb.Cleanup(t)

	repo := NewTransactionRepository(tdb.Database)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	newTxn := func(t *testing.T) *models.Transaction {
		t.Helper()
		txn := &models.Transaction{UserID: userID, PlanID: "pro", Amount: 20, Credits: 500, IsPaid: true}
		require.NoError(t, repo.Create(ctx, txn))
		return txn
	}

	t.Run("Create always starts unpaid", func(t *testing.T) {
		tdb.ClearCollection(t, database.TransactionsCollection)

		txn := newTxn(t)

		found, err := repo.FindByID(ctx, txn.ID)
		require.NoError(t, err)
		assert.False(t, found.IsPaid)
		assert.Nil(t, found.PaidAt)
		assert.Equal(t, 500, found.Credits)
	})

	t.Run("FindByID unknown", func(t *testing.T) {
		_, err := repo.FindByID(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
	})

	t.Run("SetSessionID", func(t *testing.T) {
		tdb.ClearCollection(t, database.TransactionsCollection)

		txn := newTxn(t)
		require.NoError(t, repo.SetSessionID(ctx, txn.ID, "cs_test_123"))

		found, err := repo.FindByID(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, "cs_test_123", found.StripeSessionID)

		assert.ErrorIs(t, repo.SetSessionID(ctx, primitive.NewObjectID(), "x"), apperrors.ErrTransactionNotFound)
	})

	t.Run("MarkPaid succeeds once", func(t *testing.T) {
		tdb.ClearCollection(t, database.TransactionsCollection)

		txn := newTxn(t)

		paid, err := repo.MarkPaid(ctx, txn.ID)
		require.NoError(t, err)
		assert.True(t, paid.IsPaid)
		assert.NotNil(t, paid.PaidAt)

		_, err = repo.MarkPaid(ctx, txn.ID)
		assert.ErrorIs(t, err, apperrors.ErrTransactionAlreadyPaid)

		_, err = repo.MarkPaid(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
	})

	t.Run("FindPendingCheckouts", func(t *testing.T) {
		tdb.ClearCollection(t, database.TransactionsCollection)

		pending := newTxn(t)
		require.NoError(t, repo.SetSessionID(ctx, pending.ID, "cs_pending"))
		paid := newTxn(t)
		require.NoError(t, repo.SetSessionID(ctx, paid.ID, "cs_paid"))
		_, err := repo.MarkPaid(ctx, paid.ID)
		require.NoError(t, err)
		newTxn(t) // never reached checkout
		old := newTxn(t)
		require.NoError(t, repo.SetSessionID(ctx, old.ID, "cs_old"))
		_, err = tdb.Database.Collection(database.TransactionsCollection).UpdateOne(ctx,
			bson.M{"_id": old.ID},
			bson.M{"$set": bson.M{"createdAt": time.Now().Add(-96 * time.Hour)}},
		)
		require.NoError(t, err)

		txns, err := repo.FindPendingCheckouts(ctx, time.Now().Add(-72*time.Hour))
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, pending.ID, txns[0].ID)
		assert.Equal(t, "cs_pending", txns[0].StripeSessionID)
	})

	t.Run("FindByUser newest first", func(t *testing.T) {
		tdb.ClearCollection(t, database.TransactionsCollection)

		first := newTxn(t)
		second := newTxn(t)
		require.NoError(t, repo.Create(ctx, &models.Transaction{UserID: primitive.NewObjectID(), PlanID: "basic"}))

		txns, err := repo.FindByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, txns, 2)
		assert.Equal(t, second.ID, txns[0].ID)
		assert.Equal(t, first.ID, txns[1].ID)
	})
}
