package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recorder) Notify(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type fakeSender struct {
	params []*bot.SendMessageParams
}

func (f *fakeSender) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	f.params = append(f.params, p)
	return &models.Message{}, nil
}

func sampleEvent(t EventType) Event {
	note := "moving <sofa>"
	return Event{
		Type: t,
		Reservation: model.Reservation{
			ID:          12,
			UserID:      3,
			Category:    model.CategoryElevator,
			StartTime:   time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC),
			EndTime:     time.Date(2025, 3, 3, 11, 0, 0, 0, time.UTC),
			Description: &note,
		},
		At: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	ok := &recorder{}
	failing := &recorder{err: errors.New("down")}

	err := Multi{ok, failing}.Notify(context.Background(), sampleEvent(EventCreated))

	assert.ErrorContains(t, err, "down")
	assert.Equal(t, 1, ok.len())
	assert.Equal(t, 1, failing.len())
}

func TestTelegramNotifierFormatsMessage(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifier(sender, 555)

	require.NoError(t, n.Notify(context.Background(), sampleEvent(EventCreated)))
	require.Len(t, sender.params, 1)

	p := sender.params[0]
	assert.Equal(t, int64(555), p.ChatID)
	assert.Equal(t, models.ParseModeHTML, p.ParseMode)
	assert.Contains(t, p.Text, "#12")
	assert.Contains(t, p.Text, "03.03.2025 10:00 – 11:00")
	assert.Contains(t, p.Text, "moving &lt;sofa&gt;")
	assert.Contains(t, p.Text, "/approve 12")
}

func TestDispatcherDeliversBeforeClose(t *testing.T) {
	rec := &recorder{err: errors.New("ignored")}
	d := NewDispatcher(rec, 8, zap.NewNop())

	for i := 0; i < 5; i++ {
		require.NoError(t, d.Notify(context.Background(), sampleEvent(EventApproved)))
	}
	d.Close()

	assert.Equal(t, 5, rec.len())
}

func TestDispatcherDropsAfterClose(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, 8, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.NoError(t, d.Notify(context.Background(), sampleEvent(EventCreated)))
			}
		}()
	}
	d.Close()
	wg.Wait()

	assert.NotPanics(t, func() {
		require.NoError(t, d.Notify(context.Background(), sampleEvent(EventCancelled)))
		d.Close()
	})
	assert.LessOrEqual(t, rec.len(), 200)
}

func TestEventRoutingKey(t *testing.T) {
	assert.Equal(t, "reservation.rejected", sampleEvent(EventRejected).RoutingKey())
}
