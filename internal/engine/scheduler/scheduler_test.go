package scheduler_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/ignite/internal/adapters/memstore"
	"go.trai.ch/ignite/internal/adapters/telemetry"
	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/ignite/internal/core/ports/mocks"
	"go.trai.ch/ignite/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func TestWaitDelay(t *testing.T) {
	assert.Equal(t, 20*time.Second, scheduler.WaitDelay(0))
	assert.Equal(t, 10*time.Second, scheduler.WaitDelay(1))
	assert.Equal(t, 2*time.Second, scheduler.WaitDelay(10))
	assert.Equal(t, time.Second, scheduler.WaitDelay(19))
	assert.Equal(t, time.Second, scheduler.WaitDelay(500))
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, time.Duration(0), scheduler.RetryDelay(0, 0))
	assert.Equal(t, 5*time.Second, scheduler.RetryDelay(0, 5*time.Second))
	assert.Equal(t, 2*time.Second, scheduler.RetryDelay(10, 5*time.Second))
	assert.Equal(t, 20*time.Second, scheduler.RetryDelay(0, time.Hour))
}

func TestRun_Empty(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.scheduler().Run(context.Background(), nil))
}

func TestRun_PersistsDoneToBothPaths(t *testing.T) {
	f := newFixture(t)
	f.executor.EXPECT().Run(gomock.Any(), gomock.Any()).Return(0, nil)

	cmd := domain.Command{Role: "db", Name: "init", Shell: "init-db"}
	require.NoError(t, f.scheduler().Run(context.Background(), []domain.Command{cmd}))

	assert.Equal(t, "DONE", f.state(t, "status/global/db/init"))
	assert.Equal(t, "DONE", f.state(t, "status/db-1/db/init"))
}

func TestRun_RunOnceAlreadyDoneIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.markDone(t, "status/global/db/init")
	// No executor expectations: any call fails the test.

	cmd := domain.Command{Role: "db", Name: "init", Shell: "init-db", RunOnce: true}
	require.NoError(t, f.scheduler().Run(context.Background(), []domain.Command{cmd}))
	require.NoError(t, f.scheduler().Run(context.Background(), []domain.Command{cmd}))

	assert.Equal(t, "DONE", f.state(t, "status/db-1/db/init"), "local path catches up")
}

func TestRequirementsFulfilled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.scheduler()

	cmd := &domain.Command{Role: "a", Name: "a", Shell: "x", Requires: []domain.Requirement{
		{Path: "q/x", Scope: domain.ScopeGlobal},
		{Path: "f/y", Scope: domain.ScopeGlobal},
	}}
	f.markDone(t, "status/global/q/x")

	ok, err := s.RequirementsFulfilled(ctx, cmd)
	require.NoError(t, err)
	assert.False(t, ok, "f/y is not DONE")

	require.NoError(t, f.store.Set(ctx, "status/global/f/y", []byte("RUNNING")))
	ok, err = s.RequirementsFulfilled(ctx, cmd)
	require.NoError(t, err)
	assert.False(t, ok)

	f.markDone(t, "status/global/f/y")
	ok, err = s.RequirementsFulfilled(ctx, cmd)
	require.NoError(t, err)
	assert.True(t, ok)

	local := &domain.Command{Role: "a", Name: "b", Shell: "x", Requires: []domain.Requirement{
		{Path: "q/x", Scope: domain.ScopeLocal},
	}}
	ok, err = s.RequirementsFulfilled(ctx, local)
	require.NoError(t, err)
	assert.False(t, ok, "local scope reads this host's namespace")

	f.markDone(t, "status/db-1/q/x")
	ok, err = s.RequirementsFulfilled(ctx, local)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRun_WaitsForRequirements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var stateWhenRun string
	f.executor.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, *domain.Command) (int, error) {
		stateWhenRun = f.state(t, "status/global/f/y")
		return 0, nil
	})
	f.onSleep = func(n int) {
		assert.Equal(t, "WAITING", f.state(t, "status/global/a/a"))
		if n == 3 {
			f.markDone(t, "status/global/f/y")
		}
	}

	cmd := domain.Command{Role: "a", Name: "a", Shell: "x", Requires: []domain.Requirement{{Path: "f/y"}}}
	require.NoError(t, f.scheduler().Run(ctx, []domain.Command{cmd}))

	assert.Equal(t, "DONE", stateWhenRun, "never RUNNING before the requirement is DONE")
	assert.Equal(t, []time.Duration{20 * time.Second, 20 * time.Second, 20 * time.Second}, f.sleeps)
}

func TestRun_DependencyOrderWithinRole(t *testing.T) {
	f := newFixture(t)

	var order []string
	f.executor.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *domain.Command) (int, error) {
		order = append(order, c.Name)
		return 0, nil
	}).Times(3)

	cmds := []domain.Command{
		{Role: "db", Name: "seed", Shell: "x", Requires: []domain.Requirement{{Path: "db/migrate"}}},
		{Role: "db", Name: "migrate", Shell: "x", Requires: []domain.Requirement{{Path: "db/init", Scope: domain.ScopeLocal}}},
		{Role: "db", Name: "init", Shell: "x"},
	}
	require.NoError(t, f.scheduler().Run(context.Background(), cmds))

	assert.Equal(t, []string{"init", "migrate", "seed"}, order)
	// seed and migrate each wait with two commands queued, then seed with one.
	assert.Equal(t, []time.Duration{7 * time.Second, 7 * time.Second, 10 * time.Second}, f.sleeps)
}

func TestRun_BackoffUsesQueueSize(t *testing.T) {
	f := newFixture(t)
	f.executor.EXPECT().Run(gomock.Any(), gomock.Any()).Return(0, nil).Times(11)
	f.onSleep = func(int) { f.markDone(t, "status/global/x/y") }

	cmds := []domain.Command{{Role: "app", Name: "gated", Shell: "x", Requires: []domain.Requirement{{Path: "x/y"}}}}
	for i := range 10 {
		cmds = append(cmds, domain.Command{Role: "app", Name: fmt.Sprintf("c%d", i), Shell: "x"})
	}
	require.NoError(t, f.scheduler().Run(context.Background(), cmds))

	assert.Equal(t, []time.Duration{2 * time.Second}, f.sleeps)
}

func TestRun_BackoffRealTimer(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := memstore.NewBackend().Session()
		layout, err := domain.NewLayout("db-1")
		require.NoError(t, err)

		executor := mocks.NewMockExecutor(ctrl)
		executor.EXPECT().Run(gomock.Any(), gomock.Any()).Return(0, nil)
		provisioner := mocks.NewMockProvisioner(ctrl)
		provisioner.EXPECT().Provision(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		go func() {
			time.Sleep(5 * time.Second)
			_ = store.Set(context.Background(), "status/global/x/y", []byte("DONE"))
		}()

		s := scheduler.NewScheduler(store, executor, provisioner, telemetry.NewNoOpTracer(), quietLogger(ctrl), layout)
		start := time.Now()
		cmd := domain.Command{Role: "app", Name: "gated", Shell: "x", Requires: []domain.Requirement{{Path: "x/y"}}}
		require.NoError(t, s.Run(context.Background(), []domain.Command{cmd}))

		assert.Equal(t, 20*time.Second, time.Since(start))
	})
}

func TestRun_DaemonRunsLast(t *testing.T) {
	for _, pos := range []int{0, 1, 42, 98, 99} {
		t.Run(fmt.Sprintf("daemon at %d", pos), func(t *testing.T) {
			f := newFixture(t)

			var order []string
			f.executor.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *domain.Command) (int, error) {
				order = append(order, c.Name)
				return 0, nil
			}).Times(100)

			cmds := make([]domain.Command, 0, 100)
			for i := range 99 {
				cmds = append(cmds, domain.Command{Role: "app", Name: fmt.Sprintf("c%02d", i), Shell: "x"})
			}
			cmds = slices.Insert(cmds, pos, domain.Command{Role: "app", Name: "daemon", Shell: "serve", Daemon: true})

			require.NoError(t, f.scheduler().Run(context.Background(), cmds))
			require.Len(t, order, 100)
			assert.Equal(t, "daemon", order[99])
			assert.Empty(t, f.sleeps)
		})
	}
}

func TestRun_RetryThenSuccess(t *testing.T) {
	f := newFixture(t)
	recorder := tracetest.NewSpanRecorder()
	tracer := telemetry.NewOTelTracer(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	var states []string
	f.executor.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, c *domain.Command) (int, error) {
		states = append(states, f.state(t, "status/global/db/init"))
		return exitWith(1)(ctx, c)
	})
	f.executor.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, c *domain.Command) (int, error) {
		states = append(states, f.state(t, "status/global/db/init"))
		return 0, nil
	})

	cmd := domain.Command{Role: "db", Name: "init", Shell: "x", Retries: 2}
	require.NoError(t, f.schedulerWithTracer(tracer).Run(context.Background(), []domain.Command{cmd}))

	assert.Equal(t, []string{"RUNNING", "RUNNING"}, states)
	assert.Equal(t, "DONE", f.state(t, "status/global/db/init"))
	assert.Empty(t, f.sleeps, "delay 0 means no pause")

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Contains(t, spans[0].Attributes(), attribute.Int("ignite.attempt", 1))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("ignite.exit_code", 1))
	assert.Contains(t, spans[1].Attributes(), attribute.Int("ignite.attempt", 2))
	assert.Contains(t, spans[1].Attributes(), attribute.Int("ignite.exit_code", 0))
	assert.Contains(t, spans[1].Attributes(), attribute.String("ignite.command", "init"))
}

func TestRun_RetryStateAndDelay(t *testing.T) {
	f := newFixture(t)
	f.executor.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(exitWith(3, 0)).Times(2)
	f.onSleep = func(int) {
		assert.Equal(t, "RETRY", f.state(t, "status/global/db/init"))
		assert.Equal(t, "RETRY", f.state(t, "status/db-1/db/init"))
	}

	cmd := domain.Command{Role: "db", Name: "init", Shell: "x", Retries: 1, RetryDelay: 5 * time.Second}
	require.NoError(t, f.scheduler().Run(context.Background(), []domain.Command{cmd}))
	assert.Equal(t, []time.Duration{5 * time.Second}, f.sleeps)
}

func TestRun_ExhaustedStopsTheRun(t *testing.T) {
	f := newFixture(t)
	f.executor.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *domain.Command) (int, error) {
		require.Equal(t, "init", c.Name, "nothing queued after the failure runs")
		return 1, nil
	})

	cmds := []domain.Command{
		{Role: "db", Name: "init", Shell: "x"},
		{Role: "db", Name: "after", Shell: "x"},
	}
	err := f.scheduler().Run(context.Background(), cmds)
	require.ErrorIs(t, err, domain.ErrCommandExhausted)
	assert.Contains(t, err.Error(), "db/init")

	assert.Equal(t, "ERROR", f.state(t, "status/global/db/init"))
	assert.Equal(t, "ERROR", f.state(t, "status/db-1/db/init"))
	assert.Empty(t, f.state(t, "status/global/db/after"))
}

func TestRun_DoneIsNeverDowngraded(t *testing.T) {
	f := newFixture(t)
	f.markDone(t, "status/global/db/init")
	f.executor.EXPECT().Run(gomock.Any(), gomock.Any()).Return(1, nil)

	cmd := domain.Command{Role: "db", Name: "init", Shell: "x"}
	err := f.scheduler().Run(context.Background(), []domain.Command{cmd})
	require.ErrorIs(t, err, domain.ErrCommandExhausted)

	assert.Equal(t, "DONE", f.state(t, "status/global/db/init"))
	assert.Equal(t, "ERROR", f.state(t, "status/db-1/db/init"))
}

func TestRun_PeerDoneDuringRetryIsKept(t *testing.T) {
	f := newFixture(t)
	store := &peerMarksDone{
		CoordinationStore: f.store,
		peer:              f.backend.Session(),
		path:              "status/global/db/init",
		state:             domain.StateRetry,
	}
	s := scheduler.NewScheduler(store, f.executor, f.provisioner, telemetry.NewNoOpTracer(), f.logger, f.layout,
		scheduler.WithSleep(f.sleep))
	f.executor.EXPECT().Run(gomock.Any(), gomock.Any()).Return(1, nil).Times(1)

	cmd := domain.Command{Role: "db", Name: "init", Shell: "x", RunOnce: true, Retries: 1}
	require.NoError(t, s.Run(context.Background(), []domain.Command{cmd}))

	assert.True(t, store.fired)
	assert.Equal(t, "DONE", f.state(t, "status/global/db/init"))
	assert.Equal(t, "DONE", f.state(t, "status/db-1/db/init"))
}

func TestRun_PeerDoneBeforeErrorIsKept(t *testing.T) {
	f := newFixture(t)
	store := &peerMarksDone{
		CoordinationStore: f.store,
		peer:              f.backend.Session(),
		path:              "status/global/db/init",
		state:             domain.StateError,
	}
	s := scheduler.NewScheduler(store, f.executor, f.provisioner, telemetry.NewNoOpTracer(), f.logger, f.layout,
		scheduler.WithSleep(f.sleep))
	f.executor.EXPECT().Run(gomock.Any(), gomock.Any()).Return(2, nil)

	cmd := domain.Command{Role: "db", Name: "init", Shell: "x"}
	err := s.Run(context.Background(), []domain.Command{cmd})
	require.ErrorIs(t, err, domain.ErrCommandExhausted)

	assert.True(t, store.fired)
	assert.Equal(t, "DONE", f.state(t, "status/global/db/init"))
	assert.Equal(t, "ERROR", f.state(t, "status/db-1/db/init"))
}

func TestRun_StartFailureIsRetried(t *testing.T) {
	f := newFixture(t)
	gomock.InOrder(
		f.executor.EXPECT().Run(gomock.Any(), gomock.Any()).Return(-1, zerr.New("fork/exec /bin/sh: no such file or directory")),
		f.executor.EXPECT().Run(gomock.Any(), gomock.Any()).Return(0, nil),
	)

	cmd := domain.Command{Role: "db", Name: "init", Shell: "x", Retries: 1}
	require.NoError(t, f.scheduler().Run(context.Background(), []domain.Command{cmd}))
}

func TestRun_ProvisionsOnceBeforeFirstExecution(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	f.provisioner = mocks.NewMockProvisioner(ctrl)

	files := []domain.FileSpec{
		{Name: "my.cnf", Dest: "/etc/mysql/my.cnf"},
		{Name: "grants.sql", Dest: "/etc/mysql/grants.sql"},
	}
	gomock.InOrder(
		f.provisioner.EXPECT().Provision(gomock.Any(), "db", files).Return(nil),
		f.executor.EXPECT().Run(gomock.Any(), gomock.Any()).Return(0, nil).Times(2),
	)

	cmds := []domain.Command{
		{Role: "db", Name: "init", Shell: "x", Files: files[:1]},
		{Role: "db", Name: "daemon", Shell: "x", Daemon: true, Files: files},
	}
	require.NoError(t, f.scheduler().Run(context.Background(), cmds))
}

func TestRun_ProvisionFailureStopsTheRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	f.provisioner = mocks.NewMockProvisioner(ctrl)
	f.provisioner.EXPECT().Provision(gomock.Any(), "db", gomock.Any()).Return(domain.ErrTemplateNotFound)

	cmds := []domain.Command{{Role: "db", Name: "init", Shell: "x"}}
	err := f.scheduler().Run(context.Background(), cmds)
	require.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestRun_StoreUnavailableIsFatal(t *testing.T) {
	f := newFixture(t)
	f.backend.SetUnavailable(true)

	cmds := []domain.Command{{Role: "db", Name: "init", Shell: "x"}}
	err := f.scheduler().Run(context.Background(), cmds)
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestRun_CancelledWhileWaiting(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.onSleep = func(int) { cancel() }

	cmds := []domain.Command{{Role: "db", Name: "init", Shell: "x", Requires: []domain.Requirement{{Path: "web/never"}}}}
	err := f.scheduler().Run(ctx, cmds)
	require.ErrorIs(t, err, context.Canceled)
}

type countingExecutor struct {
	runs atomic.Int32
}

func (e *countingExecutor) Run(context.Context, *domain.Command) (int, error) {
	e.runs.Add(1)
	time.Sleep(time.Second)
	return 0, nil
}

func TestRun_RunOnceIsMutuallyExclusive(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		backend := memstore.NewBackend()
		executor := &countingExecutor{}
		cmd := domain.Command{Role: "db", Name: "init", Shell: "x", RunOnce: true}

		var wg sync.WaitGroup
		for _, host := range []string{"db-1", "db-2", "db-3"} {
			layout, err := domain.NewLayout(host)
			require.NoError(t, err)
			provisioner := mocks.NewMockProvisioner(ctrl)
			provisioner.EXPECT().Provision(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

			s := scheduler.NewScheduler(backend.Session(), executor, provisioner, telemetry.NewNoOpTracer(), quietLogger(ctrl), layout)
			wg.Go(func() {
				assert.NoError(t, s.Run(context.Background(), []domain.Command{cmd}))
			})
		}
		wg.Wait()

		assert.Equal(t, int32(1), executor.runs.Load())
		state := backend.Dump()
		assert.Equal(t, "DONE", state["status/global/db/init"])
		for _, host := range []string{"db-1", "db-2", "db-3"} {
			assert.Equal(t, "DONE", state["status/"+host+"/db/init"])
		}
	})
}
