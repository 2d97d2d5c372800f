package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_Publish(t *testing.T) {
	tests := []struct {
		name      string
		writeErr  error
		expectErr bool
	}{
		{name: "Message written"},
		{name: "Broker error", writeErr: errors.New("leader not available"), expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fakeWriter{err: tt.writeErr}
			p := &Producer{topic: "mh26.notifications", writer: w}

			err := p.Publish(context.Background(), "42", []byte(`{"id":1}`))
			if tt.expectErr {
				assert.ErrorContains(t, err, "mh26.notifications")
				assert.Empty(t, w.msgs)
				return
			}
			assert.NoError(t, err)
			if assert.Len(t, w.msgs, 1) {
				assert.Equal(t, []byte("42"), w.msgs[0].Key)
				assert.JSONEq(t, `{"id":1}`, string(w.msgs[0].Value))
			}
			assert.NoError(t, p.Close())
			assert.True(t, w.closed)
		})
	}
}

func TestNewProducer(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "topic")
	assert.Equal(t, "topic", p.topic)
	assert.NotNil(t, p.writer)
	assert.NoError(t, Discard{}.Publish(context.Background(), "k", nil))
}
