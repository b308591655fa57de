// Package cache decorates a storage.UserStore with an in-memory read-through
// cache. Users are immutable once created, so entries only expire by TTL.
package cache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/mmynk/nutrimed/internal/models"
	"github.com/mmynk/nutrimed/internal/storage"
)

var _ storage.UserStore = (*UserCache)(nil)

const (
	idPrefix    = "id:"
	emailPrefix = "email:"
)

// UserCache caches successful user lookups. Misses and errors are never
// cached, so a user registered elsewhere becomes visible immediately.
type UserCache struct {
	next  storage.UserStore
	cache *cache.Cache
}

// NewUserCache wraps next. Entries live for ttl and are purged every 2*ttl.
func NewUserCache(next storage.UserStore, ttl time.Duration) *UserCache {
	return &UserCache{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *UserCache) CreateUser(ctx context.Context, user *models.User) error {
	if err := c.next.CreateUser(ctx, user); err != nil {
		return err
	}
	c.put(user)
	return nil
}

func (c *UserCache) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := c.get(emailPrefix + email); ok {
		return user, nil
	}
	user, err := c.next.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	c.put(user)
	return clone(user), nil
}

func (c *UserCache) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := c.get(idPrefix + id); ok {
		return user, nil
	}
	user, err := c.next.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.put(user)
	return clone(user), nil
}

// Len reports the number of cached entries, expired ones included.
func (c *UserCache) Len() int {
	return c.cache.ItemCount()
}

func (c *UserCache) get(key string) (*models.User, bool) {
	if x, found := c.cache.Get(key); found {
		return clone(x.(*models.User)), true
	}
	return nil, false
}

func (c *UserCache) put(user *models.User) {
	stored := clone(user)
	c.cache.Set(idPrefix+user.ID, stored, cache.DefaultExpiration)
	c.cache.Set(emailPrefix+user.Email, stored, cache.DefaultExpiration)
}

func clone(u *models.User) *models.User {
	cp := *u
	return &cp
}
