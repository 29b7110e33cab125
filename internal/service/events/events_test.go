package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	got []Event
	err error
}

func (r *recorder) Publish(_ context.Context, e Event) error {
	r.got = append(r.got, e)
	return r.err
}

func TestMulti_PublishesToAll(t *testing.T) {
	first := &recorder{}
	second := &recorder{err: errors.New("broker down")}
	third := &recorder{}
	e := Event{Type: TypeArtifactStored, Filename: "a.png", Size: 3, Timestamp: time.Now()}

	err := Multi{first, second, third}.Publish(context.Background(), e)

	assert.ErrorContains(t, err, "broker down")
	assert.Equal(t, []Event{e}, first.got)
	assert.Equal(t, []Event{e}, second.got)
	assert.Equal(t, []Event{e}, third.got, "a failing publisher must not stop the others")
}

func TestMulti_Empty(t *testing.T) {
	assert.NoError(t, Multi{}.Publish(context.Background(), Event{}))
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{}))
}
