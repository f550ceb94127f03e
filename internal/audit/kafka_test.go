package audit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
)

func TestTopicCreateErr(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		require.NoError(t, topicCreateErr(kadm.CreateTopicResponse{}, nil))
	})

	t.Run("existing topic is not an error", func(t *testing.T) {
		resp := kadm.CreateTopicResponse{Err: kerr.TopicAlreadyExists}
		require.NoError(t, topicCreateErr(resp, nil))
	})

	t.Run("broker rejection surfaces", func(t *testing.T) {
		resp := kadm.CreateTopicResponse{Err: kerr.InvalidReplicationFactor}
		err := topicCreateErr(resp, nil)
		require.ErrorIs(t, err, kerr.InvalidReplicationFactor)
	})

	t.Run("request failure surfaces", func(t *testing.T) {
		reqErr := errors.New("no brokers reachable")
		require.ErrorIs(t, topicCreateErr(kadm.CreateTopicResponse{}, reqErr), reqErr)
	})
}
