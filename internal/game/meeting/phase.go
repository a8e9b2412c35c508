package meeting

import "time"

// Phase 会议阶段
type Phase int

const (
	None Phase = iota
	Intro
	Voting
	Results
	Ejection
)

func (p Phase) String() string {
	return [...]string{"none", "intro", "voting", "results", "ejection"}[p]
}

// transitions 计时归零后的下一阶段；Results 的出口取决于计票结果，见 Next
var transitions = map[Phase]Phase{
	Intro:    Voting,
	Voting:   Results,
	Ejection: None,
}

// Next 返回 phase 计时归零后进入的阶段。只有 Results 分支：有人被投出进入 Ejection，否则结束会议。
func Next(phase Phase, ejected bool) Phase {
	if phase == Results {
		if ejected {
			return Ejection
		}
		return None
	}
	return transitions[phase]
}

// Durations 各阶段时长
type Durations struct {
	Intro   time.Duration
	Voting  time.Duration
	Results time.Duration

	// 放逐文字逐字显示的速度与显示完后的停留时间
	RevealPerChar time.Duration
	RevealHold    time.Duration
}

// DefaultDurations 默认时长
func DefaultDurations() Durations {
	return Durations{
		Intro:         2 * time.Second,
		Voting:        30 * time.Second,
		Results:       2 * time.Second,
		RevealPerChar: 80 * time.Millisecond,
		RevealHold:    time.Second,
	}
}

// RevealTime 放逐阶段时长 = 打字时间 + 停留
func (d Durations) RevealTime(text string) time.Duration {
	return time.Duration(len([]rune(text)))*d.RevealPerChar + d.RevealHold
}
