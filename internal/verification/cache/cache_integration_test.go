//go:build integration

package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	platformredis "proof-gateway/internal/platform/redis"
	"proof-gateway/internal/verification/cache"
	"proof-gateway/pkg/testutil/containers"
)

type CacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.Redis
}

func TestCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())

	client, err := platformredis.New(s.redis.URL)
	s.Require().NoError(err)
	s.cache = cache.NewRedis(client)
}

func (s *CacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *CacheSuite) TestSeenAfterMark() {
	ctx := context.Background()

	seen, err := s.cache.Seen(ctx, "n-1")
	s.Require().NoError(err)
	s.False(seen)

	s.Require().NoError(s.cache.MarkSeen(ctx, "n-1"))

	seen, err = s.cache.Seen(ctx, "n-1")
	s.Require().NoError(err)
	s.True(seen)

	// Distinct nullifiers never alias.
	seen, err = s.cache.Seen(ctx, "n-2")
	s.Require().NoError(err)
	s.False(seen)
}
