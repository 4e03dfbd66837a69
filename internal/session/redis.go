package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"invoicer/internal/logger"
)

const redisKeyPrefix = "invoicer:session:"

// RedisStore keeps sessions as JSON values with an optional expiry.
type RedisStore struct {
	client *redis.Client
	cfg    Config
	log    zerolog.Logger
}

// OpenRedis connects to cfg.RedisAddr, which is either host:port or a
// redis:// / rediss:// URL. Password and DB from cfg override the URL's.
func OpenRedis(ctx context.Context, cfg Config) (*RedisStore, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, WrapSessionError("OpenRedis", err, "parse REDIS_ADDR")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, WrapSessionError("OpenRedis", err, "ping "+opts.Addr)
	}

	return &RedisStore{
		client: client,
		cfg:    cfg,
		log:    logger.WithComponent("session-redis"),
	}, nil
}

func redisOptions(cfg Config) (*redis.Options, error) {
	if !strings.Contains(cfg.RedisAddr, "://") {
		return &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisAddr)
	if err != nil {
		return nil, err
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	if cfg.RedisDB != 0 {
		opts.DB = cfg.RedisDB
	}
	return opts, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (*State, error) {
	if err := checkKey("Get", key); err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, WrapSessionError("Get", err, "")
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, WrapSessionError("Get", err, "decode session")
	}
	return &state, nil
}

func (r *RedisStore) Put(ctx context.Context, state *State) error {
	if err := stamp("Put", state); err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return WrapSessionError("Put", err, "encode session")
	}
	if err := r.client.Set(ctx, redisKeyPrefix+state.Key, data, r.cfg.TTL).Err(); err != nil {
		return WrapSessionError("Put", err, "")
	}
	r.log.Debug().Str("session", state.Key).Dur("ttl", r.cfg.TTL).Msg("Session saved")
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := checkKey("Delete", key); err != nil {
		return err
	}
	if err := r.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return WrapSessionError("Delete", err, "")
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
