package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.trai.ch/ignite/internal/adapters/memstore"
	"go.trai.ch/ignite/internal/adapters/telemetry"
	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/ignite/internal/core/ports"
	"go.trai.ch/ignite/internal/core/ports/mocks"
	"go.trai.ch/ignite/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	backend     *memstore.Backend
	store       *memstore.Store
	executor    *mocks.MockExecutor
	provisioner *mocks.MockProvisioner
	logger      *mocks.MockLogger
	layout      domain.Layout
	sleeps      []time.Duration
	onSleep     func(n int)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	backend := memstore.NewBackend()
	layout, err := domain.NewLayout("db-1")
	require.NoError(t, err)

	f := &fixture{
		backend:     backend,
		store:       backend.Session(),
		executor:    mocks.NewMockExecutor(ctrl),
		provisioner: mocks.NewMockProvisioner(ctrl),
		logger:      quietLogger(ctrl),
		layout:      layout,
	}
	f.provisioner.EXPECT().Provision(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	return f
}

func quietLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	l := mocks.NewMockLogger(ctrl)
	l.EXPECT().Debug(gomock.Any()).AnyTimes()
	l.EXPECT().Info(gomock.Any()).AnyTimes()
	l.EXPECT().Warn(gomock.Any()).AnyTimes()
	l.EXPECT().Error(gomock.Any()).AnyTimes()
	return l
}

func (f *fixture) sleep(_ context.Context, d time.Duration) error {
	f.sleeps = append(f.sleeps, d)
	if f.onSleep != nil {
		f.onSleep(len(f.sleeps))
	}
	return nil
}

func (f *fixture) scheduler(opts ...scheduler.Option) *scheduler.Scheduler {
	return f.schedulerWithTracer(telemetry.NewNoOpTracer(), opts...)
}

func (f *fixture) schedulerWithTracer(tracer ports.Tracer, opts ...scheduler.Option) *scheduler.Scheduler {
	opts = append([]scheduler.Option{scheduler.WithSleep(f.sleep)}, opts...)
	return scheduler.NewScheduler(f.store, f.executor, f.provisioner, tracer, f.logger, f.layout, opts...)
}

func (f *fixture) state(t *testing.T, path string) string {
	t.Helper()
	v, ok, err := f.store.Get(context.Background(), path)
	require.NoError(t, err)
	if !ok {
		return ""
	}
	return string(v)
}

func (f *fixture) markDone(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, f.store.Set(context.Background(), path, []byte(domain.StateDone)))
}

func exitWith(codes ...int) func(context.Context, *domain.Command) (int, error) {
	i := 0
	return func(context.Context, *domain.Command) (int, error) {
		code := codes[min(i, len(codes)-1)]
		i++
		return code, nil
	}
}

// peerMarksDone writes DONE to path from another session right before this
// session's next attempt to store state there, the window a peer instance
// finishing the same command would hit.
type peerMarksDone struct {
	ports.CoordinationStore
	peer  ports.CoordinationStore
	path  string
	state domain.TaskState
	fired bool
}

func (s *peerMarksDone) Update(ctx context.Context, path string, fn func([]byte, bool) ([]byte, bool)) error {
	if path == s.path && !s.fired {
		cur, ok, err := s.CoordinationStore.Get(ctx, path)
		if err != nil {
			return err
		}
		if next, write := fn(cur, ok); write && string(next) == string(s.state) {
			s.fired = true
			if err := s.peer.Set(ctx, path, []byte(domain.StateDone)); err != nil {
				return err
			}
		}
	}
	return s.CoordinationStore.Update(ctx, path, fn)
}
