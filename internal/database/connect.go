package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"spotted/internal/config"
)

const (
	UsersCollection    = "users"
	SpotsCollection    = "spots"
	CommentsCollection = "comments"
	SessionsCollection = "sessions"
)

// Connect opens a client and verifies the primary is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// TransactionsSupported reports whether the server is a replica set member or
// a mongos. Standalone servers reject multi-document transactions.
func TransactionsSupported(ctx context.Context, client *mongo.Client) (bool, error) {
	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello)
	if err != nil {
		return false, err
	}
	return hello.SetName != "" || hello.Msg == "isdbgrid", nil
}

// ResolveTransactions turns the configured mode into the setting NewStore
// takes. In auto mode a failed probe means no transactions.
func ResolveTransactions(ctx context.Context, client *mongo.Client, mode string, logger *zap.Logger) bool {
	switch mode {
	case config.TransactionsOn:
		logger.Info("transactions enabled by configuration")
		return true
	case config.TransactionsOff:
		logger.Info("transactions disabled by configuration, using compensating writes")
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	supported, err := TransactionsSupported(ctx, client)
	if err != nil {
		logger.Warn("transaction support probe failed, using compensating writes", zap.Error(err))
		return false
	}
	if supported {
		logger.Info("replica set or mongos detected, transactions enabled")
	} else {
		logger.Info("standalone server detected, using compensating writes")
	}
	return supported
}
