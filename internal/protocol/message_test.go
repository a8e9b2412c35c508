package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageType_IsGameplay(t *testing.T) {
	t.Parallel()

	for _, mt := range []MessageType{
		MsgTaskStart, MsgTaskComplete, MsgTaskCancel, MsgSabotageTrigger, MsgPanelHold,
		MsgKeypadEntry, MsgVote, MsgMeetingCalled, MsgPlayerKilled, MsgGameOver,
	} {
		assert.True(t, mt.IsGameplay(), mt)
	}

	for _, mt := range []MessageType{MsgHello, MsgWelcome, MsgPeerJoined, MsgPeerLeft, MsgError, MsgGameStart} {
		assert.False(t, mt.IsGameplay(), mt)
	}
}
