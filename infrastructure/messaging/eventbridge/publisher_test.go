package eventbridge

import (
	"context"
	"testing"
	"time"

	"agentmesh/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakePutEventsClient struct {
	inputs []*awseventbridge.PutEventsInput
	output *awseventbridge.PutEventsOutput
	err    error
}

func (f *fakePutEventsClient) PutEvents(ctx context.Context, params *awseventbridge.PutEventsInput, optFns ...func(*awseventbridge.Options)) (*awseventbridge.PutEventsOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

// unmarshalableEvent cannot be JSON-encoded, so the publisher must skip it
type unmarshalableEvent struct {
	events.BaseEvent
	Blocker chan int `json:"blocker"`
}

func testEvent(eventType, aggregateID string) events.BaseEvent {
	return events.BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   time.Now().UTC(),
	}
}

func TestPublishBatch_Success(t *testing.T) {
	fake := &fakePutEventsClient{
		output: &awseventbridge.PutEventsOutput{
			Entries: []types.PutEventsResultEntry{{EventId: aws.String("e-1")}},
		},
	}
	publisher := NewEventBridgePublisher(fake, "test-bus", zap.NewNop())

	err := publisher.Publish(context.Background(), testEvent("session.created", "sess-1"))
	require.NoError(t, err)
	require.Len(t, fake.inputs, 1)
	require.Len(t, fake.inputs[0].Entries, 1)
	assert.Equal(t, "session.created", *fake.inputs[0].Entries[0].DetailType)
	assert.Equal(t, "test-bus", *fake.inputs[0].Entries[0].EventBusName)
}

func TestPublishBatch_FailureLogsTheSentEvent(t *testing.T) {
	// The first event cannot be marshalled and never reaches EventBridge,
	// so result entry 0 corresponds to the second event
	fake := &fakePutEventsClient{
		output: &awseventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries: []types.PutEventsResultEntry{{
				ErrorCode:    aws.String("InternalException"),
				ErrorMessage: aws.String("try again"),
			}},
		},
	}
	core, logs := observer.New(zap.ErrorLevel)
	publisher := NewEventBridgePublisher(fake, "test-bus", zap.New(core))

	bad := unmarshalableEvent{
		BaseEvent: testEvent("session.created", "sess-bad"),
		Blocker:   make(chan int),
	}
	good := testEvent("context.appended", "sess-good")

	err := publisher.PublishBatch(context.Background(), []events.DomainEvent{bad, good})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 events failed")

	// Only the marshallable event was sent
	require.Len(t, fake.inputs, 1)
	require.Len(t, fake.inputs[0].Entries, 1)
	assert.Equal(t, "context.appended", *fake.inputs[0].Entries[0].DetailType)

	// The failure log must name the event that was actually sent, not the
	// one dropped during marshalling
	failures := logs.FilterMessage("Failed to publish event").All()
	require.Len(t, failures, 1)
	assert.Equal(t, "context.appended", failures[0].ContextMap()["eventType"])
}

func TestPublishBatch_Empty(t *testing.T) {
	fake := &fakePutEventsClient{}
	publisher := NewEventBridgePublisher(fake, "test-bus", zap.NewNop())

	require.NoError(t, publisher.PublishBatch(context.Background(), nil))
	assert.Empty(t, fake.inputs)
}
