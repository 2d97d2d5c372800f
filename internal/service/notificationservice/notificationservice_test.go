package notificationservice

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/mh26/services/internal/domain"
)

func NewMock(t *testing.T) (*Service, *MockRepo, *MockPublisher) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepo(ctrl)
	publisher := NewMockPublisher(ctrl)
	return New(repo, publisher), repo, publisher
}

func sample() []domain.Notification {
	return []domain.Notification{
		{UserID: 21, Payload: domain.BookingRequested{BookingID: 100, Reference: "4539578763"}},
		{UserID: 11, Payload: domain.JobStarted{BookingID: 100, Reference: "4539578763"}},
	}
}

func TestStage(t *testing.T) {
	tests := []struct {
		name        string
		prepareMock func(repo *MockRepo)
		expectErr   bool
	}{
		{
			name: "All notifications stored",
			prepareMock: func(repo *MockRepo) {
				id := int64(0)
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(2).
					DoAndReturn(func(_ context.Context, n *domain.Notification) error {
						id++
						n.ID = id
						return nil
					})
			},
		},
		{
			name: "Store fails",
			prepareMock: func(repo *MockRepo) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, repo, _ := NewMock(t)
			tt.prepareMock(repo)

			ns := sample()
			err := s.Stage(context.Background(), ns)
			if tt.expectErr {
				assert.ErrorContains(t, err, "booking_requested")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(1), ns[0].ID)
			assert.Equal(t, int64(2), ns[1].ID)
		})
	}
}

func TestDeliver(t *testing.T) {
	s, _, publisher := NewMock(t)
	ns := sample()
	ns[0].ID, ns[1].ID = 1, 2

	var (
		mu   sync.Mutex
		keys []string
	)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Times(2).
		DoAndReturn(func(_ context.Context, key string, value []byte) error {
			var msg map[string]any
			assert.NoError(t, json.Unmarshal(value, &msg))
			assert.Contains(t, []any{"booking_requested", "job_started"}, msg["type"])
			mu.Lock()
			keys = append(keys, key)
			mu.Unlock()
			if key == "11" {
				return errors.New("broker down")
			}
			return nil
		})

	s.Deliver(context.Background(), ns)
	assert.ElementsMatch(t, []string{"21", "11"}, keys)
}

func TestDeliver_CancelledContext(t *testing.T) {
	s, _, publisher := NewMock(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	publisher.EXPECT().Publish(gomock.Any(), "21", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ []byte) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return ctx.Err()
		})

	s.Deliver(ctx, sample()[:1])
	s.Deliver(ctx, nil)
}

func TestList(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		expectLim uint32
	}{
		{name: "Default limit", limit: 0, expectLim: DefaultLimit},
		{name: "Requested limit", limit: 10, expectLim: 10},
		{name: "Capped limit", limit: 1000, expectLim: maxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, repo, _ := NewMock(t)
			stored := []domain.Notification{{ID: 1, UserID: 11, Payload: domain.JobStarted{BookingID: 100}, CreatedAt: time.Now()}}
			repo.EXPECT().ListByUser(gomock.Any(), int64(11), tt.expectLim).Return(stored, nil)

			ns, err := s.List(context.Background(), 11, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, stored, ns)
		})
	}
}

func TestMarkRead(t *testing.T) {
	s, repo, _ := NewMock(t)
	repo.EXPECT().MarkRead(gomock.Any(), int64(5), int64(11)).Return(nil)
	repo.EXPECT().MarkRead(gomock.Any(), int64(6), int64(11)).Return(domain.ErrNotFound)

	assert.NoError(t, s.MarkRead(context.Background(), 11, 5))
	assert.ErrorIs(t, s.MarkRead(context.Background(), 11, 6), domain.ErrNotFound)
}
