package kernel

import (
	"github.com/go-redis/redis/v8"
)

func (art *AppRuntime) PrepareRedis() error {
	client := redis.NewClient(&redis.Options{
		Addr: art.RedisAddr,
	})

	if err := client.Ping(art.Context).Err(); err != nil {
		return err
	}

	art.RedisClient = client
	return nil
}
