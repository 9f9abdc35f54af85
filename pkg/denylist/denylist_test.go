package denylist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/passpolicy/pkg/errors"
)

type fakeSet struct {
	members []string
	err     error
	calls   int
}

func (f *fakeSet) SMembers(ctx context.Context, key string) *redis.StringSliceCmd {
	f.calls++
	return redis.NewStringSliceResult(f.members, f.err)
}

func TestParse(t *testing.T) {
	in := "# leaked\nSummer2024!\n\n  hunter2  \n#comment\n"
	entries, err := Parse(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"Summer2024!", "hunter2"}, entries)
}

func TestMerge(t *testing.T) {
	got := Merge([]string{"Hunter2", " letmein "}, []string{"HUNTER2", ""}, nil)
	assert.Equal(t, []string{"hunter2", "letmein"}, got)
	assert.Empty(t, Merge())
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "denylist.txt")
	require.NoError(t, os.WriteFile(path, []byte("Winter2023!\nCompanyName1\n"), 0o600))

	src := FileSource{Path: path}
	assert.Equal(t, "file:"+path, src.Name())

	entries, err := src.Entries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Winter2023!", "CompanyName1"}, entries)

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing")}.Entries(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestRedisSourceCaches(t *testing.T) {
	set := &fakeSet{members: []string{"Spring2024!"}}
	src := NewRedisSource(set, RedisConfig{Key: "passpolicy:denylist", CacheTTL: time.Minute})

	for i := 0; i < 3; i++ {
		entries, err := src.Entries(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Spring2024!"}, entries)
	}
	assert.Equal(t, 1, set.calls)

	src.Invalidate()
	_, err := src.Entries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, set.calls)
	assert.Equal(t, "redis:passpolicy:denylist", src.Name())
}

func TestRedisSourceBreaksAfterFailures(t *testing.T) {
	set := &fakeSet{err: errors.New("connection refused")}
	src := NewRedisSource(set, RedisConfig{Key: "k", CacheTTL: time.Minute})

	for i := 0; i < 5; i++ {
		_, err := src.Entries(context.Background())
		assert.True(t, apperrors.Is(err, apperrors.ErrUnavailable))
	}
	assert.Equal(t, 3, set.calls, "breaker stops calling after three failures")
}

func TestRedisSourceCacheExpires(t *testing.T) {
	set := &fakeSet{members: []string{"Spring2024!"}}
	src := NewRedisSource(set, RedisConfig{Key: "k", CacheTTL: 20 * time.Millisecond})

	_, err := src.Entries(context.Background())
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	_, err = src.Entries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, set.calls)

	// zero TTL falls back to the five minute default
	set = &fakeSet{members: []string{"Spring2024!"}}
	src = NewRedisSource(set, RedisConfig{Key: "k"})
	for i := 0; i < 2; i++ {
		_, err = src.Entries(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, set.calls)
}
