//go:build !production

package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/among-the-stars/internal/game/mapdef"
)

// MockSoundPlayer 实现 session.SoundPlayer 的 mock
type MockSoundPlayer struct {
	mock.Mock
}

func (m *MockSoundPlayer) Play(name string) {
	m.Called(name)
}

// MockRally 实现 session.Rally 的 mock
type MockRally struct {
	mock.Mock
}

func (m *MockRally) ReturnToRally(playerIDs []string, point mapdef.Point) {
	m.Called(playerIDs, point)
}

// SoundRecorder 只记录播放过的音效，不做断言
type SoundRecorder struct {
	mu     sync.Mutex
	Played []string
}

func (r *SoundRecorder) Play(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Played = append(r.Played, name)
}

// Count 某个音效播放的次数
func (r *SoundRecorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.Played {
		if p == name {
			n++
		}
	}
	return n
}
