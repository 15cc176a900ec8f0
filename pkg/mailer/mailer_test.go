package mailer

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stalledTransport never answers; it only returns once the request context ends.
type stalledTransport struct{}

func (stalledTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	select {
	case <-r.Context().Done():
		return nil, r.Context().Err()
	case <-time.After(5 * time.Second):
		return nil, errors.New("request outlived its context")
	}
}

func TestResendSenderHonoursContextDeadline(t *testing.T) {
	sender := &ResendSender{
		client: resend.NewCustomClient(&http.Client{Transport: stalledTransport{}}, "re_test"),
		from:   "Notifications <notifications@example.com>",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := sender.Send(ctx, Message{To: "bob@example.com", Subject: "hi", Text: "hello"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
