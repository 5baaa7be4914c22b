package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client define o contrato de interface para qualquer serviço de cache/KV que
// os repositórios possam usar (rascunhos, rate limiting).
// Isso segue o Princípio da Inversão de Dependência (DIP) da Clean Architecture.
type Client interface {
	Get(ctx context.Context, key string) (string, error)
	GetInt(ctx context.Context, key string) (int, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Incr(ctx context.Context, key string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// ErrCacheMiss é retornado quando a chave não é encontrada no cache.
var ErrCacheMiss = redis.Nil

// RedisClient é a implementação concreta da interface Client, usando Redis.
// A conexão é aberta de forma preguiçosa, exatamente uma vez por processo, e
// reutilizada por todas as operações; o cliente é construído no composition
// root (main) e injetado onde for necessário.
type RedisClient struct {
	addr string
	once sync.Once
	rdb  *redis.Client
}

// NewRedisClient cria o cliente Redis sem abrir a conexão ainda.
// Esta função é chamada no main.go.
func NewRedisClient(addr string) *RedisClient {
	return &RedisClient{addr: addr}
}

// conn devolve o handle compartilhado, criando-o na primeira chamada.
func (c *RedisClient) conn() *redis.Client {
	c.once.Do(func() {
		c.rdb = redis.NewClient(&redis.Options{
			Addr: c.addr, // Endereço do Redis (e.g., "localhost:6379")
		})
	})
	return c.rdb
}

// Ping verifica a disponibilidade do Redis. O chamador decide o que fazer com
// a falha: para os rascunhos o cache é best-effort, nunca dependência rígida.
func (c *RedisClient) Ping(ctx context.Context) error {
	return c.conn().Ping(ctx).Err()
}

// Get recupera o valor associado a uma chave.
func (c *RedisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := c.conn().Get(ctx, key).Result()

	// Se a chave não existir no Redis, retornamos o erro exportado (redis.Nil)
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// GetInt recupera o valor de uma chave como inteiro (usado no rate limiting).
func (c *RedisClient) GetInt(ctx context.Context, key string) (int, error) {
	val, err := c.Get(ctx, key)
	if err != nil {
		return 0, err
	}

	n, convErr := strconv.Atoi(val)
	if convErr != nil {
		return 0, convErr
	}
	return n, nil
}

// Set define um valor para uma chave com um tempo de expiração (0 = sem expiração).
func (c *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.conn().Set(ctx, key, value, expiration).Err()
}

// Incr incrementa atomicamente o contador de uma chave.
func (c *RedisClient) Incr(ctx context.Context, key string) error {
	return c.conn().Incr(ctx, key).Err()
}

// Delete remove uma chave do cache.
func (c *RedisClient) Delete(ctx context.Context, key string) error {
	// Comando DEL, retorna o número de chaves deletadas (0 se não existir)
	return c.conn().Del(ctx, key).Err()
}
