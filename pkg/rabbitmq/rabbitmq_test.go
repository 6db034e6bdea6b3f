package rabbitmq

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePostEvent(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	body, err := json.Marshal(PostEvent{Event: PostCreated, PostID: "p-1", Slug: "hello-world", At: at})
	require.NoError(t, err)

	event, err := DecodePostEvent(body)
	require.NoError(t, err)
	assert.Equal(t, PostCreated, event.Event)
	assert.Equal(t, "hello-world", event.Slug)
	assert.True(t, at.Equal(event.At))
}

func TestHandlePostEvent_MalformedBodyIsNotRequeued(t *testing.T) {
	err := HandlePostEvent(amqp.Delivery{Body: []byte("{not json")})
	require.Error(t, err)
	assert.True(t, isDecodeError(err))
}

func TestPublishPostEvent_WithoutChannel(t *testing.T) {
	c := &Client{}
	err := c.PublishPostEvent(PostEvent{Event: PostDeleted, PostID: "p-1"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "channel is not available")
}
