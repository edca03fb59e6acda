package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"spotted/internal/config"
	"spotted/internal/models"
)

var linkFailure = mtest.CreateCommandErrorResponse(mtest.CommandError{
	Code:    2,
	Name:    "BadValue",
	Message: "link failed",
})

func writeOK(n int32) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

// sentCommands lists "<command> <collection>" for every command the client sent.
func sentCommands(mt *mtest.T) []string {
	out := make([]string, 0)
	for _, ev := range mt.GetAllStartedEvents() {
		out = append(out, ev.CommandName+" "+ev.Command.Lookup(ev.CommandName).StringValue())
	}
	return out
}

func newMockStore(mt *mtest.T) (*Store, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	return NewStore(mt.DB, false, zap.New(core)), logs
}

func TestCreateAndLink(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("spot is pushed onto its author", func(mt *mtest.T) {
		store, logs := newMockStore(mt)
		mt.AddMockResponses(writeOK(1), writeOK(1))

		id, err := store.CreateSpot(context.Background(), models.NewSpot(models.SpotFields{Car: "S2000"}, primitive.NewObjectID()))

		require.NoError(mt, err)
		assert.False(mt, id.IsZero())
		assert.Equal(mt, []string{"insert spots", "update users"}, sentCommands(mt))
		assert.Zero(mt, logs.Len())
	})

	mt.Run("failed link removes the inserted spot", func(mt *mtest.T) {
		store, logs := newMockStore(mt)
		mt.AddMockResponses(writeOK(1), linkFailure, writeOK(1))

		id, err := store.CreateSpot(context.Background(), models.NewSpot(models.SpotFields{Car: "S2000"}, primitive.NewObjectID()))

		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "link failed")
		assert.True(mt, id.IsZero())
		assert.Equal(mt, []string{"insert spots", "update users", "delete spots"}, sentCommands(mt))
		assert.Equal(mt, 1, logs.FilterMessage("link write failed, removing inserted document").Len())
		assert.Zero(mt, logs.FilterMessage("compensating delete failed, document left unlinked").Len())
	})

	mt.Run("failed link removes the inserted comment", func(mt *mtest.T) {
		store, _ := newMockStore(mt)
		mt.AddMockResponses(writeOK(1), linkFailure, writeOK(1))

		_, err := store.CreateComment(context.Background(), models.Comment{
			Author:  primitive.NewObjectID(),
			Spot:    primitive.NewObjectID(),
			Comment: "clean",
		})

		require.Error(mt, err)
		assert.Equal(mt, []string{"insert comments", "update spots", "delete comments"}, sentCommands(mt))
	})

	mt.Run("failed compensation is logged", func(mt *mtest.T) {
		store, logs := newMockStore(mt)
		mt.AddMockResponses(writeOK(1), linkFailure, linkFailure)

		_, err := store.CreateSpot(context.Background(), models.NewSpot(models.SpotFields{}, primitive.NewObjectID()))

		require.Error(mt, err)
		assert.Equal(mt, 1, logs.FilterMessage("compensating delete failed, document left unlinked").Len())
	})

	mt.Run("failed insert sends nothing else", func(mt *mtest.T) {
		store, _ := newMockStore(mt)
		mt.AddMockResponses(linkFailure)

		_, err := store.CreateSpot(context.Background(), models.NewSpot(models.SpotFields{}, primitive.NewObjectID()))

		require.Error(mt, err)
		assert.Equal(mt, []string{"insert spots"}, sentCommands(mt))
	})

	mt.Run("missing parent only warns", func(mt *mtest.T) {
		store, logs := newMockStore(mt)
		mt.AddMockResponses(writeOK(1), writeOK(0))

		_, err := store.CreateSpot(context.Background(), models.NewSpot(models.SpotFields{}, primitive.NewObjectID()))

		require.NoError(mt, err)
		assert.Equal(mt, 1, logs.FilterMessage("reference parent not found").Len())
	})
}

func TestDeleteSpotCascade(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	spot := models.NewSpot(models.SpotFields{Car: "Miura"}, primitive.NewObjectID())
	spot.ID = primitive.NewObjectID()

	mt.Run("removes spot, owner reference and comments", func(mt *mtest.T) {
		store, _ := newMockStore(mt)
		mt.AddMockResponses(writeOK(1), writeOK(1), writeOK(3))

		require.NoError(mt, store.DeleteSpot(context.Background(), spot))
		assert.Equal(mt, []string{"delete spots", "update users", "delete comments"}, sentCommands(mt))
	})

	mt.Run("stops at the first failure", func(mt *mtest.T) {
		store, _ := newMockStore(mt)
		mt.AddMockResponses(linkFailure)

		require.Error(mt, store.DeleteSpot(context.Background(), spot))
		assert.Equal(mt, []string{"delete spots"}, sentCommands(mt))
	})
}

func TestTransactionsSupported(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	cases := []struct {
		name  string
		reply bson.D
		want  bool
	}{
		{name: "replica set member", reply: mtest.CreateSuccessResponse(bson.E{Key: "setName", Value: "rs0"}), want: true},
		{name: "mongos", reply: mtest.CreateSuccessResponse(bson.E{Key: "msg", Value: "isdbgrid"}), want: true},
		{name: "standalone", reply: mtest.CreateSuccessResponse(bson.E{Key: "isWritablePrimary", Value: true}), want: false},
	}
	for _, tc := range cases {
		mt.Run(tc.name, func(mt *mtest.T) {
			mt.AddMockResponses(tc.reply)

			supported, err := TransactionsSupported(context.Background(), mt.Client)

			require.NoError(mt, err)
			assert.Equal(mt, tc.want, supported)
			assert.Equal(mt, []string{"hello"}, commandNames(mt))
		})
	}

	mt.Run("probe error", func(mt *mtest.T) {
		mt.AddMockResponses(linkFailure)

		_, err := TransactionsSupported(context.Background(), mt.Client)
		assert.Error(mt, err)
	})
}

func TestResolveTransactions(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("explicit modes skip the probe", func(mt *mtest.T) {
		assert.True(mt, ResolveTransactions(context.Background(), mt.Client, config.TransactionsOn, zap.NewNop()))
		assert.False(mt, ResolveTransactions(context.Background(), mt.Client, config.TransactionsOff, zap.NewNop()))
		assert.Empty(mt, mt.GetAllStartedEvents())
	})

	mt.Run("auto on a standalone server", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		assert.False(mt, ResolveTransactions(context.Background(), mt.Client, config.TransactionsAuto, zap.NewNop()))
	})

	mt.Run("auto on a replica set", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "setName", Value: "rs0"}))
		assert.True(mt, ResolveTransactions(context.Background(), mt.Client, config.TransactionsAuto, zap.NewNop()))
	})

	mt.Run("auto falls back when the probe fails", func(mt *mtest.T) {
		mt.AddMockResponses(linkFailure)
		assert.False(mt, ResolveTransactions(context.Background(), mt.Client, config.TransactionsAuto, zap.NewNop()))
	})
}

func commandNames(mt *mtest.T) []string {
	out := make([]string, 0)
	for _, ev := range mt.GetAllStartedEvents() {
		out = append(out, ev.CommandName)
	}
	return out
}
