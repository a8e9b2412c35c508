package codec

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestMessagePool_GetPut(t *testing.T) {
	t.Parallel()

	msg := GetMessage()
	assert.NotNil(t, msg)

	msg.Type = "test"
	msg.Sender = "p1"
	msg.Payload = []byte("data")

	PutMessage(msg)

	// Get again - should be reset
	msg2 := GetMessage()
	assert.NotNil(t, msg2)
	assert.Empty(t, msg2.Type)
	assert.Empty(t, msg2.Sender)
	assert.Nil(t, msg2.Payload)
}

func TestMessagePool_PutNil(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		PutMessage(nil)
		PutEnvelope(nil)
	})
}

func TestEnvelopePool_GetPut(t *testing.T) {
	t.Parallel()

	env := GetEnvelope()
	env.Fields = map[string]*structpb.Value{"type": structpb.NewStringValue("vote")}
	PutEnvelope(env)

	env2 := GetEnvelope()
	assert.Empty(t, env2.GetFields())
}

func TestMessagePool_Concurrent(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg := GetMessage()
			msg.Type = "vote"
			PutMessage(msg)
		}()
	}
	wg.Wait()
}
