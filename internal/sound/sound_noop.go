//go:build ci

package sound

// DefaultDir 默认音效目录
const DefaultDir = "assets/sounds"

// SoundManager CI 环境下没有音频设备，所有方法为空操作
type SoundManager struct{}

func NewSoundManager(string) *SoundManager {
	return &SoundManager{}
}

func (sm *SoundManager) Init() error { return nil }

func (sm *SoundManager) Load() error { return nil }

func (sm *SoundManager) Has(string) bool { return false }

func (sm *SoundManager) Play(string) {}

func (sm *SoundManager) Close() {}
