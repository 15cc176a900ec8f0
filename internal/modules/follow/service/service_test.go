package follow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"anoa.com/socialgraph/internal/entity"
	"anoa.com/socialgraph/internal/event"
	followRepo "anoa.com/socialgraph/internal/modules/follow/repository"
	follow "anoa.com/socialgraph/internal/modules/follow/service"
	userRepo "anoa.com/socialgraph/internal/modules/user/repository"
	"anoa.com/socialgraph/internal/testutil"
	"anoa.com/socialgraph/pkg/apperror"
	commonDto "anoa.com/socialgraph/pkg/dto"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name())
	}
	return out
}

type fixture struct {
	db        *gorm.DB
	svc       follow.Service
	publisher *recordingPublisher
}

func newFixture(t *testing.T, rdb *redis.Client, cooldown time.Duration) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	pub := &recordingPublisher{}
	svc := follow.NewService(
		followRepo.NewRepository(db),
		userRepo.NewUserRepository(db),
		pub,
		rdb,
		follow.Options{Cooldown: cooldown},
	)
	return &fixture{db: db, svc: svc, publisher: pub}
}

// assertCounters checks the denormalised counters against the accepted edges.
func assertCounters(t *testing.T, db *gorm.DB, users ...*entity.User) {
	t.Helper()
	for _, u := range users {
		fresh := testutil.ReloadUser(t, db, u)

		var followers, following int64
		require.NoError(t, db.Model(&entity.Follow{}).
			Where("following_id = ? AND status = ?", u.ID, entity.FollowStatusAccepted).
			Count(&followers).Error)
		require.NoError(t, db.Model(&entity.Follow{}).
			Where("follower_id = ? AND status = ?", u.ID, entity.FollowStatusAccepted).
			Count(&following).Error)

		assert.Equal(t, followers, fresh.FollowersCount, "%s followers", u.Username)
		assert.Equal(t, following, fresh.FollowingCount, "%s following", u.Username)
	}
}

func TestRequestFollowPublicAccount(t *testing.T) {
	f := newFixture(t, nil, 0)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice", false)
	bob := testutil.CreateUser(t, f.db, "bob", false)

	edge, err := f.svc.RequestFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.FollowStatusAccepted, edge.Status)

	status, err := f.svc.GetStatus(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, status.IsFollowing)
	require.NotNil(t, status.Status)
	assert.Equal(t, entity.FollowStatusAccepted, *status.Status)

	assert.Equal(t, int64(1), testutil.ReloadUser(t, f.db, alice).FollowingCount)
	assert.Equal(t, int64(1), testutil.ReloadUser(t, f.db, bob).FollowersCount)
	assert.Equal(t, []string{"new_follower"}, f.publisher.names())
}

func TestRequestFollowPrivateAccount(t *testing.T) {
	f := newFixture(t, nil, 0)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice", false)
	bob := testutil.CreateUser(t, f.db, "bob", true)

	edge, err := f.svc.RequestFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.FollowStatusPending, edge.Status)

	status, err := f.svc.GetStatus(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, status.IsFollowing)
	assert.Equal(t, entity.FollowStatusPending, *status.Status)

	assert.Equal(t, int64(0), testutil.ReloadUser(t, f.db, bob).FollowersCount)
	assert.Equal(t, []string{"follow_requested"}, f.publisher.names())
}

func TestRequestFollowSelf(t *testing.T) {
	f := newFixture(t, nil, 0)
	public := testutil.CreateUser(t, f.db, "public", false)
	private := testutil.CreateUser(t, f.db, "private", true)

	for _, u := range []*entity.User{public, private} {
		_, err := f.svc.RequestFollow(context.Background(), u.ID, u.ID)
		assert.ErrorIs(t, err, apperror.ErrInvalidOperation)
	}
	assert.Empty(t, f.publisher.names())
}

func TestRequestFollowUnknownTarget(t *testing.T) {
	f := newFixture(t, nil, 0)
	alice := testutil.CreateUser(t, f.db, "alice", false)

	ghost := testutil.CreateUser(t, f.db, "ghost", false)
	require.NoError(t, f.db.Delete(&entity.User{}, "id = ?", ghost.ID).Error)

	_, err := f.svc.RequestFollow(context.Background(), alice.ID, ghost.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRequestFollowTwiceConflicts(t *testing.T) {
	f := newFixture(t, nil, 0)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice", false)
	public := testutil.CreateUser(t, f.db, "public", false)
	private := testutil.CreateUser(t, f.db, "private", true)

	_, err := f.svc.RequestFollow(ctx, alice.ID, public.ID)
	require.NoError(t, err)
	_, err = f.svc.RequestFollow(ctx, alice.ID, public.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.ErrorIs(t, err, follow.ErrAlreadyFollowing)
	assert.Equal(t, "already following this user", err.Error())

	_, err = f.svc.RequestFollow(ctx, alice.ID, private.ID)
	require.NoError(t, err)
	_, err = f.svc.RequestFollow(ctx, alice.ID, private.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.ErrorIs(t, err, follow.ErrRequestPending)
	assert.NotEqual(t, follow.ErrAlreadyFollowing.Error(), err.Error())

	assertCounters(t, f.db, alice, public, private)
}

func TestAcceptFollow(t *testing.T) {
	f := newFixture(t, nil, 0)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice", false)
	bob := testutil.CreateUser(t, f.db, "bob", true)

	_, err := f.svc.AcceptFollow(ctx, bob.ID, alice.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.RequestFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	edge, err := f.svc.AcceptFollow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.FollowStatusAccepted, edge.Status)

	assert.Equal(t, int64(1), testutil.ReloadUser(t, f.db, alice).FollowingCount)
	assert.Equal(t, int64(1), testutil.ReloadUser(t, f.db, bob).FollowersCount)

	// a second accept finds no pending edge and must not count twice
	_, err = f.svc.AcceptFollow(ctx, bob.ID, alice.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, int64(1), testutil.ReloadUser(t, f.db, bob).FollowersCount)

	assert.Equal(t, []string{"follow_requested", "follow_accepted"}, f.publisher.names())
}

func TestAcceptedEdgeCannotBeAcceptedAgainOnPublicAccount(t *testing.T) {
	f := newFixture(t, nil, 0)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice", false)
	bob := testutil.CreateUser(t, f.db, "bob", false)

	_, err := f.svc.RequestFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = f.svc.AcceptFollow(ctx, bob.ID, alice.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assertCounters(t, f.db, alice, bob)
}

func TestRejectFollow(t *testing.T) {
	f := newFixture(t, nil, 0)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice", false)
	bob := testutil.CreateUser(t, f.db, "bob", true)
	carol := testutil.CreateUser(t, f.db, "carol", false)

	assert.ErrorIs(t, f.svc.RejectFollow(ctx, bob.ID, alice.ID), apperror.ErrNotFound)

	_, err := f.svc.RequestFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.RejectFollow(ctx, bob.ID, alice.ID))

	status, err := f.svc.GetStatus(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, status.IsFollowing)
	assert.Nil(t, status.Status)

	// reject also removes an accepted edge and decrements
	_, err = f.svc.RequestFollow(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.RejectFollow(ctx, carol.ID, alice.ID))

	assertCounters(t, f.db, alice, bob, carol)
	assert.Equal(t, int64(0), testutil.ReloadUser(t, f.db, carol).FollowersCount)
}

func TestUnfollow(t *testing.T) {
	f := newFixture(t, nil, 0)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice", false)
	bob := testutil.CreateUser(t, f.db, "bob", false)

	_, err := f.svc.RequestFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Unfollow(ctx, alice.ID, bob.ID))
	assert.Equal(t, int64(0), testutil.ReloadUser(t, f.db, alice).FollowingCount)
	assert.Equal(t, int64(0), testutil.ReloadUser(t, f.db, bob).FollowersCount)

	assert.ErrorIs(t, f.svc.Unfollow(ctx, alice.ID, bob.ID), apperror.ErrNotFound)
}

func TestUnfollowIgnoresPendingRequest(t *testing.T) {
	f := newFixture(t, nil, 0)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice", false)
	bob := testutil.CreateUser(t, f.db, "bob", true)

	_, err := f.svc.RequestFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Unfollow(ctx, alice.ID, bob.ID), apperror.ErrNotFound)

	require.NoError(t, f.svc.CancelRequest(ctx, alice.ID, bob.ID))
	assert.ErrorIs(t, f.svc.CancelRequest(ctx, alice.ID, bob.ID), apperror.ErrNotFound)
	assertCounters(t, f.db, alice, bob)
}

func TestRemoveFollower(t *testing.T) {
	f := newFixture(t, nil, 0)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice", false)
	bob := testutil.CreateUser(t, f.db, "bob", false)

	_, err := f.svc.RequestFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveFollower(ctx, bob.ID, alice.ID))
	assertCounters(t, f.db, alice, bob)
	assert.Equal(t, int64(0), testutil.ReloadUser(t, f.db, bob).FollowersCount)

	assert.ErrorIs(t, f.svc.RemoveFollower(ctx, bob.ID, alice.ID), apperror.ErrNotFound)
}

func TestCounterInvariantAcrossSequence(t *testing.T) {
	f := newFixture(t, nil, 0)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "a", false)
	b := testutil.CreateUser(t, f.db, "b", true)
	c := testutil.CreateUser(t, f.db, "c", false)
	users := []*entity.User{a, b, c}

	steps := []func() error{
		func() error { _, err := f.svc.RequestFollow(ctx, a.ID, b.ID); return err },
		func() error { _, err := f.svc.RequestFollow(ctx, a.ID, c.ID); return err },
		func() error { _, err := f.svc.RequestFollow(ctx, c.ID, b.ID); return err },
		func() error { _, err := f.svc.AcceptFollow(ctx, b.ID, a.ID); return err },
		func() error { _, err := f.svc.RequestFollow(ctx, b.ID, a.ID); return err },
		func() error { return f.svc.RejectFollow(ctx, b.ID, c.ID) },
		func() error { return f.svc.Unfollow(ctx, a.ID, c.ID) },
		func() error { _, err := f.svc.RequestFollow(ctx, c.ID, a.ID); return err },
		func() error { return f.svc.RemoveFollower(ctx, a.ID, b.ID) },
		func() error { _, err := f.svc.RequestFollow(ctx, a.ID, c.ID); return err },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		assertCounters(t, f.db, users...)
	}

	// failing operations leave the counters untouched
	_, err := f.svc.RequestFollow(ctx, a.ID, b.ID)
	assert.Error(t, err)
	assert.Error(t, f.svc.Unfollow(ctx, b.ID, c.ID))
	_, err = f.svc.AcceptFollow(ctx, c.ID, a.ID)
	assert.Error(t, err)
	assertCounters(t, f.db, users...)
}

func TestListsNewestFirst(t *testing.T) {
	f := newFixture(t, nil, 0)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "owner", true)
	first := testutil.CreateUser(t, f.db, "first", false)
	second := testutil.CreateUser(t, f.db, "second", false)

	_, err := f.svc.RequestFollow(ctx, first.ID, owner.ID)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = f.svc.RequestFollow(ctx, second.ID, owner.ID)
	require.NoError(t, err)

	pending, err := f.svc.ListPending(ctx, owner.ID, commonDto.PageQuery{})
	require.NoError(t, err)
	require.Len(t, pending.Data, 2)
	assert.Equal(t, "second", pending.Data[0].User.Username)
	assert.Equal(t, "first", pending.Data[1].User.Username)
	assert.Equal(t, int64(2), pending.Meta.TotalItems)

	sent, err := f.svc.ListSent(ctx, first.ID, commonDto.PageQuery{})
	require.NoError(t, err)
	require.Len(t, sent.Data, 1)
	assert.Equal(t, "owner", sent.Data[0].User.Username)

	_, err = f.svc.AcceptFollow(ctx, owner.ID, first.ID)
	require.NoError(t, err)

	followers, err := f.svc.ListFollowers(ctx, owner.ID, commonDto.PageQuery{Page: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, followers.Data, 1)
	assert.Equal(t, "first", followers.Data[0].User.Username)
	assert.Equal(t, int64(1), followers.Meta.TotalItems)

	following, err := f.svc.ListFollowing(ctx, first.ID, commonDto.PageQuery{})
	require.NoError(t, err)
	require.Len(t, following.Data, 1)
	assert.Equal(t, entity.FollowStatusAccepted, following.Data[0].Status)
}

func TestCanViewProfile(t *testing.T) {
	f := newFixture(t, nil, 0)
	ctx := context.Background()
	viewer := testutil.CreateUser(t, f.db, "viewer", false)
	public := testutil.CreateUser(t, f.db, "public", false)
	private := testutil.CreateUser(t, f.db, "private", true)

	ok, err := f.svc.CanViewProfile(ctx, viewer.ID, public.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.CanViewProfile(ctx, private.ID, private.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.CanViewProfile(ctx, viewer.ID, private.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.svc.RequestFollow(ctx, viewer.ID, private.ID)
	require.NoError(t, err)
	ok, err = f.svc.CanViewProfile(ctx, viewer.ID, private.ID)
	require.NoError(t, err)
	assert.False(t, ok, "pending request does not grant access")

	_, err = f.svc.AcceptFollow(ctx, private.ID, viewer.ID)
	require.NoError(t, err)
	ok, err = f.svc.CanViewProfile(ctx, viewer.ID, private.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFollowCooldown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := newFixture(t, rdb, 3*time.Second)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice", false)
	bob := testutil.CreateUser(t, f.db, "bob", true)

	_, err := f.svc.RequestFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.CancelRequest(ctx, alice.ID, bob.ID))

	_, err = f.svc.RequestFollow(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)

	mr.FastForward(4 * time.Second)
	_, err = f.svc.RequestFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
}

func TestConcurrentRequestsCreateOneEdge(t *testing.T) {
	f := newFixture(t, nil, 0)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice", false)
	bob := testutil.CreateUser(t, f.db, "bob", false)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RequestFollow(ctx, alice.ID, bob.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, apperror.ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 7, conflicts)
	assertCounters(t, f.db, alice, bob)
}
