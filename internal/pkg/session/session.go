package session

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"
	goredis "github.com/redis/go-redis/v9"
)

// SessionDB keeps sessions apart from the cache, which lives on DB 0.
const SessionDB = 1

// NewRedisStorage builds a fiber storage backed by the same Redis server
// the cache client talks to, using a separate database.
func NewRedisStorage(client *goredis.Client) fiber.Storage {
	host := "localhost"
	port := 6379
	password := ""
	if client != nil {
		opts := client.Options()
		if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		password = opts.Password
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: SessionDB,
		Reset:    false,
	})
}

// NewStore creates the cookie backed session store. A nil storage falls
// back to fiber's in-memory storage, which is what tests use.
func NewStore(storage fiber.Storage) *session.Store {
	cfg := session.Config{
		CookieHTTPOnly: true,
		Expiration:     time.Hour * 1,
		KeyLookup:      "cookie:session_id",
	}
	if storage != nil {
		cfg.Storage = storage
	}
	return session.New(cfg)
}
