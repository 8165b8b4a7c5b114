package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

const (
	productKeyFormat = "product:%d"
	productTTL       = 5 * time.Minute
	cacheOpTimeout   = 2 * time.Second
)

// ProductCache кэширует карточки товаров в Redis.
// Nil-клиент выключает кэш: все операции становятся no-op, сервис каталога
// продолжает работать напрямую с хранилищем.
type ProductCache struct {
	client *redis.Client
	logger *log.Entry
}

// NewProductCache создаёт кэш товаров. client может быть nil.
func NewProductCache(client *redis.Client, logger *log.Entry) *ProductCache {
	if logger == nil {
		logger = log.New().WithField("component", "product-cache")
	}
	return &ProductCache{client: client, logger: logger}
}

// Get возвращает товар из кэша; второй результат false при промахе
// или выключенном кэше.
func (c *ProductCache) Get(id int64) (domain.Product, bool) {
	if c == nil || c.client == nil {
		return domain.Product{}, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, fmt.Sprintf(productKeyFormat, id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("product_id", id).Warn("product cache read failed")
		}
		return domain.Product{}, false
	}

	var product domain.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		c.logger.WithError(err).WithField("product_id", id).Warn("product cache entry is corrupted")
		return domain.Product{}, false
	}

	return product, true
}

// Set сохраняет товар в кэше с TTL. Ошибки кэша не фатальны.
func (c *ProductCache) Set(product domain.Product) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(product)
	if err != nil {
		c.logger.WithError(err).WithField("product_id", product.ID).Warn("product cache marshal failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	if err := c.client.Set(ctx, fmt.Sprintf(productKeyFormat, product.ID), raw, productTTL).Err(); err != nil {
		c.logger.WithError(err).WithField("product_id", product.ID).Warn("product cache write failed")
	}
}

// Invalidate удаляет товар из кэша после мутации.
func (c *ProductCache) Invalidate(id int64) {
	if c == nil || c.client == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	if err := c.client.Del(ctx, fmt.Sprintf(productKeyFormat, id)).Err(); err != nil {
		c.logger.WithError(err).WithField("product_id", id).Warn("product cache invalidation failed")
	}
}
