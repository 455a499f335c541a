// Copyright 2016 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rediscache decorates a storage.Writer with a Redis-backed
// read-through cache for point lookups. GetLT is not cacheable in a simple
// key/value store (it is a range query over the low-nullifier ordering) and
// is passed straight through to the underlying backend.
package rediscache

import (
	"time"

	"github.com/go-redis/redis"
	"golang.org/x/sync/singleflight"

	"github.com/golang/glog"

	"github.com/keyspace-labs/imt/storage"
)

// Cache wraps a storage.Writer, serving Get from Redis when possible and
// falling through to the wrapped backend on a cache miss. Concurrent misses
// for the same key are coalesced with a singleflight.Group so a cache
// stampede on a hot node only reaches the backend once.
type Cache struct {
	backend storage.Writer
	rdb     *redis.Client
	prefix  string
	ttl     time.Duration
	group   singleflight.Group
}

// New builds a Cache in front of backend. keyPrefix namespaces this tree's
// entries within the Redis keyspace; ttl is the cache entry lifetime (zero
// means no expiry).
func New(backend storage.Writer, rdb *redis.Client, keyPrefix string, ttl time.Duration) *Cache {
	return &Cache{backend: backend, rdb: rdb, prefix: keyPrefix, ttl: ttl}
}

func (c *Cache) redisKey(key []byte) string {
	return c.prefix + string(key)
}

// Get implements storage.Reader.
func (c *Cache) Get(key []byte) ([]byte, bool) {
	rk := c.redisKey(key)

	if v, err := c.rdb.Get(rk).Bytes(); err == nil {
		return v, true
	} else if err != redis.Nil {
		glog.Errorf("rediscache: redis Get(%s): %v", rk, err)
	}

	v, err, _ := c.group.Do(rk, func() (interface{}, error) {
		val, ok := c.backend.Get(key)
		if !ok {
			return nil, errNotFound
		}
		if setErr := c.rdb.Set(rk, val, c.ttl).Err(); setErr != nil {
			glog.Errorf("rediscache: redis Set(%s): %v", rk, setErr)
		}
		return val, nil
	})
	if err != nil {
		return nil, false
	}
	return v.([]byte), true
}

// GetLT implements storage.Reader by delegating to the wrapped backend.
func (c *Cache) GetLT(key []byte) ([]byte, []byte, bool) {
	return c.backend.GetLT(key)
}

// Set implements storage.Writer, invalidating any cached entry for key
// before writing through to the backend.
func (c *Cache) Set(key, value []byte) {
	if err := c.rdb.Del(c.redisKey(key)).Err(); err != nil {
		glog.Errorf("rediscache: redis Del(%s): %v", c.redisKey(key), err)
	}
	c.backend.Set(key, value)
}

type sentinelErr string

func (e sentinelErr) Error() string { return string(e) }

const errNotFound = sentinelErr("rediscache: key not found in backend")

var _ storage.Writer = (*Cache)(nil)
