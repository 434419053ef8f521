package infra

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedis abre el cliente redis que respalda las colas de trabajos y el
// caché del comparativo de precios.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)

	// Un ping temprano corta el arranque si redis no está accesible
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}
