package database

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

var (
	Mongo       *mongo.Client
	DB          *mongo.Database
	RedisClient *redis.Client
)

func ConnectDatabases() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	connectMongo(ctx)
	connectRedis(ctx)

	log.Println("✅ All datastores connected")
}

func connectMongo(ctx context.Context) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	dbName := os.Getenv("MONGODB_DATABASE")
	if dbName == "" {
		dbName = "stayrare"
	}

	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		log.Fatalf("❌ MongoDB connection failed: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("❌ MongoDB ping failed: %v", err)
	}

	Mongo = client
	DB = client.Database(dbName)
	log.Println("✅ Connected to MongoDB:", dbName)
}

func connectRedis(ctx context.Context) {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         os.Getenv("REDIS_HOST"),
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := RedisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("❌ Redis connection failed:", err)
	}
	log.Println("✅ Connected to Redis")
}

func Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if Mongo != nil {
		if err := Mongo.Disconnect(ctx); err != nil {
			log.Printf("⚠️ Error closing MongoDB: %v", err)
		}
	}
	if RedisClient != nil {
		RedisClient.Close()
	}
}

// --- Collection accessors ---

func Carts() *mongo.Collection         { return DB.Collection("carts") }
func Coupons() *mongo.Collection       { return DB.Collection("coupons") }
func Orders() *mongo.Collection        { return DB.Collection("orders") }
func Products() *mongo.Collection      { return DB.Collection("products") }
func Categories() *mongo.Collection    { return DB.Collection("categories") }
func Addresses() *mongo.Collection     { return DB.Collection("addresses") }
func Users() *mongo.Collection         { return DB.Collection("users") }
func Notifications() *mongo.Collection { return DB.Collection("notifications") }

// TransactionSession starts a session configured for the serializable
// all-or-nothing semantics the stock decrement needs.
func TransactionSession() (mongo.Session, error) {
	return Mongo.StartSession(options.Session().
		SetDefaultReadConcern(readconcern.Snapshot()).
		SetDefaultWriteConcern(writeconcern.Majority()))
}
