package service_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	perr "tokeisrv/internal/platform/errors"
	"tokeisrv/internal/services/badges/access"
	"tokeisrv/internal/services/badges/cache"
	"tokeisrv/internal/services/badges/coordinator"
	"tokeisrv/internal/services/badges/domain"
	"tokeisrv/internal/services/badges/service"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commitX = "cccccccccccccccccccccccccccccccccccccccc"

type counters struct {
	heads, checkouts, scans atomic.Int32
	commit                  atomic.Value
}

func newService(t *testing.T, users, hosts []string, allowRevalidate bool) (*service.Service, *counters, *clockwork.FakeClock) {
	t.Helper()
	n := &counters{}
	n.commit.Store(commitX)
	fetch := domain.FetcherFunc{
		HeadFn: func(context.Context, domain.Coordinate) (string, error) {
			n.heads.Add(1)
			return n.commit.Load().(string), nil
		},
		CheckoutFn: func(_ context.Context, c domain.Coordinate) (domain.Checkout, error) {
			n.checkouts.Add(1)
			return domain.Checkout{Path: "/w/" + c.Name, CommitID: n.commit.Load().(string), Cleanup: func() {}}, nil
		},
	}
	scan := domain.ScannerFunc(func(context.Context, string) (domain.Report, error) {
		n.scans.Add(1)
		return domain.Report{
			Summary: domain.Summary{Lines: 42, Code: 30, Comments: 7, Blanks: 5, Files: 3},
			Languages: []domain.LanguageStats{
				{Name: "Go", Summary: domain.Summary{Lines: 42, Code: 30, Comments: 7, Blanks: 5, Files: 3}},
			},
		}, nil
	})

	clk := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c, err := cache.New(10, time.Hour, cache.WithClock(clk))
	require.NoError(t, err)
	svc := service.New(access.NewGate(users, hosts), c, coordinator.New(c, fetch, scan), allowRevalidate)
	return svc, n, clk
}

func req(host, owner, name string, o domain.Options) service.Request {
	return service.Request{Coordinate: domain.Coordinate{Host: host, Owner: owner, Name: name}, Options: o}
}

func TestResolve_UserWhitelist(t *testing.T) {
	svc, n, _ := newService(t, []string{"alice"}, nil, false)

	res, err := svc.Resolve(context.Background(), req("github", "bob", "tool", domain.Options{}))
	require.Error(t, err)
	assert.Equal(t, perr.ErrorCodeForbidden, perr.CodeOf(err))
	assert.Contains(t, err.Error(), string(access.ReasonUserNotWhitelist))
	assert.Equal(t, "github.com", res.Coordinate.Host)
	assert.Zero(t, n.heads.Load()+n.checkouts.Load()+n.scans.Load(), "denied requests never reach the fetcher")
	assert.Zero(t, svc.Stats().Cache.Misses, "denied requests never reach the cache")

	_, err = svc.Resolve(context.Background(), req("github", "alice", "tool", domain.Options{}))
	require.NoError(t, err)
	assert.Equal(t, int32(1), n.checkouts.Load())
}

func TestResolve_HostWhitelist(t *testing.T) {
	svc, n, _ := newService(t, nil, []string{"github.com"}, false)

	_, err := svc.Resolve(context.Background(), req("gitlab.com", "alice", "tool", domain.Options{}))
	assert.Equal(t, perr.ErrorCodeForbidden, perr.CodeOf(err))
	assert.Contains(t, err.Error(), string(access.ReasonHostNotWhitelist))
	assert.Zero(t, n.checkouts.Load())

	_, err = svc.Resolve(context.Background(), req("github", "alice", "tool", domain.Options{}))
	require.NoError(t, err, "shorthand host normalizes before the gate")
}

func TestResolve_MixedCaseHostWhitelist(t *testing.T) {
	svc, n, _ := newService(t, nil, []string{"GitHub.com"}, false)

	_, err := svc.Resolve(context.Background(), req("GitHub.com", "alice", "tool", domain.Options{}))
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), req("github", "alice", "tool", domain.Options{}))
	require.NoError(t, err)
	assert.Equal(t, int32(1), n.checkouts.Load())
}

func TestResolve_MissThenHit(t *testing.T) {
	svc, n, _ := newService(t, nil, nil, false)
	ctx := context.Background()

	first, err := svc.Resolve(ctx, req("github", "alice", "tool", domain.Options{}))
	require.NoError(t, err)
	assert.Equal(t, service.StatusMiss, first.CacheStatus)
	assert.Equal(t, domain.CacheKey("github.com/alice/tool/~default"), first.Key)

	second, err := svc.Resolve(ctx, req("GitHub.com", "alice", "tool", domain.Options{}))
	require.NoError(t, err)
	assert.Equal(t, service.StatusHit, second.CacheStatus)
	assert.Equal(t, first.Record.CommitID, second.Record.CommitID)
	assert.Equal(t, int32(1), n.checkouts.Load())
}

func TestResolve_EtagStableAndCategorySensitive(t *testing.T) {
	svc, n, _ := newService(t, nil, nil, false)
	ctx := context.Background()
	lines := domain.Options{Category: domain.CategoryLines}

	a, err := svc.Resolve(ctx, req("github", "alice", "tool", lines))
	require.NoError(t, err)
	b, err := svc.Resolve(ctx, req("github", "alice", "tool", lines))
	require.NoError(t, err)
	assert.Equal(t, a.ETag, b.ETag)

	c, err := svc.Resolve(ctx, req("github", "alice", "tool", domain.Options{Category: domain.CategoryCode}))
	require.NoError(t, err)
	assert.NotEqual(t, a.ETag, c.ETag)
	assert.Equal(t, int32(1), n.checkouts.Load(), "a category change is rendering only")
}

func TestResolve_NotModified(t *testing.T) {
	svc, _, _ := newService(t, nil, nil, false)
	ctx := context.Background()

	first, err := svc.Resolve(ctx, req("github", "alice", "tool", domain.Options{}))
	require.NoError(t, err)
	assert.False(t, first.NotModified)

	r := req("github", "alice", "tool", domain.Options{})
	r.IfNoneMatch = first.ETag
	second, err := svc.Resolve(ctx, r)
	require.NoError(t, err)
	assert.True(t, second.NotModified)

	r.IfNoneMatch = `"something-else"`
	third, err := svc.Resolve(ctx, r)
	require.NoError(t, err)
	assert.False(t, third.NotModified)
}

func TestResolve_StaleRevalidates(t *testing.T) {
	svc, n, clk := newService(t, nil, nil, false)
	ctx := context.Background()

	first, err := svc.Resolve(ctx, req("github", "alice", "tool", domain.Options{}))
	require.NoError(t, err)
	clk.Advance(2 * time.Hour)

	second, err := svc.Resolve(ctx, req("github", "alice", "tool", domain.Options{}))
	require.NoError(t, err)
	assert.Equal(t, service.StatusRevalidated, second.CacheStatus)
	assert.Equal(t, first.ETag, second.ETag, "unchanged commit keeps the tag")
	assert.Equal(t, int32(1), n.scans.Load())

	clk.Advance(2 * time.Hour)
	n.commit.Store("dddddddddddddddddddddddddddddddddddddddd")
	third, err := svc.Resolve(ctx, req("github", "alice", "tool", domain.Options{}))
	require.NoError(t, err)
	assert.Equal(t, service.StatusRefreshed, third.CacheStatus)
	assert.NotEqual(t, first.ETag, third.ETag)
	assert.Equal(t, int32(2), n.scans.Load())
}

func TestResolve_ClientRevalidateGated(t *testing.T) {
	ctx := context.Background()

	closed, n, _ := newService(t, nil, nil, false)
	_, err := closed.Resolve(ctx, req("github", "alice", "tool", domain.Options{}))
	require.NoError(t, err)
	r := req("github", "alice", "tool", domain.Options{})
	r.Revalidate = true
	res, err := closed.Resolve(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, service.StatusHit, res.CacheStatus)
	assert.Zero(t, n.heads.Load())

	open, n2, _ := newService(t, nil, nil, true)
	_, err = open.Resolve(ctx, req("github", "alice", "tool", domain.Options{}))
	require.NoError(t, err)
	res, err = open.Resolve(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, service.StatusRevalidated, res.CacheStatus)
	assert.Equal(t, int32(1), n2.heads.Load())
	assert.Equal(t, int32(1), n2.scans.Load())
}

func TestStatsAndPing(t *testing.T) {
	svc, _, _ := newService(t, nil, nil, false)
	_, err := svc.Resolve(context.Background(), req("github", "alice", "tool", domain.Options{}))
	require.NoError(t, err)

	st := svc.Stats()
	assert.Equal(t, 1, st.Cache.Size)
	assert.Equal(t, uint64(1), st.Cache.Misses)
	assert.Equal(t, uint64(1), st.Pipeline.Runs)
	assert.NoError(t, svc.Ping(context.Background()))
}
