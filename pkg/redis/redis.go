/*
Package redis manages the redis connections of the service.

Two logical databases are used: the main one holds rate-limit counters and
wallet locks, the queue one holds payout retries.
*/
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	// DefaultPoolSize is the connection pool size
	DefaultPoolSize = 100
	// DefaultTimeout bounds every helper call
	DefaultTimeout = 5 * time.Second
	// DefaultMinIdleConns is the number of idle connections kept open
	DefaultMinIdleConns = 10
	// DefaultMaxRetries is how often go-redis retries a failed command
	DefaultMaxRetries = 3
	// DefaultIdleTimeout closes idle connections
	DefaultIdleTimeout = 5 * time.Minute
)

// RedisInstance names a logical database.
type RedisInstance string

const (
	MainDB  RedisInstance = "main"  // rate limits and locks
	QueueDB RedisInstance = "queue" // payout retries
)

// RedisClient wraps a go-redis client.
type RedisClient struct {
	Client  *redis.Client
	Context context.Context
}

// RedisConfig describes one connection.
type RedisConfig struct {
	Address      string
	Username     string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	Timeout      time.Duration
}

type RedisManager struct {
	instances map[RedisInstance]*RedisClient
	mutex     sync.RWMutex
}

var (
	once    sync.Once
	Manager *RedisManager
	Redis   *RedisClient // main instance
)

// NewClient connects and pings the server.
func NewClient(config RedisConfig) (*RedisClient, error) {
	if config.PoolSize <= 0 {
		config.PoolSize = DefaultPoolSize
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	rds := Wrap(redis.NewClient(&redis.Options{
		Addr:         config.Address,
		Username:     config.Username,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,

		PoolTimeout:     config.Timeout,
		ConnMaxIdleTime: DefaultIdleTimeout,
		ConnMaxLifetime: 24 * time.Hour,

		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,

		MaxRetries:      DefaultMaxRetries,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
	}))

	if err := rds.Ping(); err != nil {
		_ = rds.Client.Close()
		return nil, fmt.Errorf("redis %s db %d: %w", config.Address, config.DB, err)
	}
	return rds, nil
}

// Wrap adopts an existing go-redis client.
func Wrap(client *redis.Client) *RedisClient {
	return &RedisClient{Client: client, Context: context.Background()}
}

// Ping tests the connection.
func (rds *RedisClient) Ping() error {
	ctx, cancel := context.WithTimeout(rds.Context, DefaultTimeout)
	defer cancel()

	return rds.Client.Ping(ctx).Err()
}

// Close releases the pool.
func (rds *RedisClient) Close() error {
	return rds.Client.Close()
}

// InitRedis connects the main and queue databases once.
func InitRedis(address, username, password string, mainDB, queueDB int) error {
	var err error
	once.Do(func() {
		manager := &RedisManager{instances: make(map[RedisInstance]*RedisClient)}

		dbs := map[RedisInstance]int{MainDB: mainDB, QueueDB: queueDB}
		for instance, db := range dbs {
			var client *RedisClient
			client, err = NewClient(RedisConfig{
				Address:      address,
				Username:     username,
				Password:     password,
				DB:           db,
				PoolSize:     DefaultPoolSize,
				MinIdleConns: DefaultMinIdleConns,
				Timeout:      DefaultTimeout,
			})
			if err != nil {
				manager.CloseAll()
				return
			}
			manager.instances[instance] = client
		}

		Manager = manager
		Redis = manager.instances[MainDB]
	})
	return err
}

// GetRedis returns the client of instance, or the main one.
func GetRedis(instance RedisInstance) *RedisClient {
	if Manager == nil {
		return Redis
	}

	Manager.mutex.RLock()
	defer Manager.mutex.RUnlock()

	if client, ok := Manager.instances[instance]; ok {
		return client
	}
	return Redis
}

// CloseAll closes every connection of the manager.
func (m *RedisManager) CloseAll() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for name, client := range m.instances {
		_ = client.Close()
		delete(m.instances, name)
	}
}
