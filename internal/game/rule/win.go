package rule

import (
	"github.com/palemoky/among-the-stars/internal/game/player"
)

// Winner 获胜阵营
type Winner int

const (
	Crewmates Winner = iota + 1
	Impostors
)

func (w Winner) String() string {
	switch w {
	case Crewmates:
		return "crewmates"
	case Impostors:
		return "impostors"
	}
	return "none"
}

// ParseWinner 解析网络消息中的获胜阵营
func ParseWinner(s string) (Winner, bool) {
	switch s {
	case "crewmates":
		return Crewmates, true
	case "impostors":
		return Impostors, true
	}
	return 0, false
}

// 结束原因
const (
	ReasonImpostorsGone = "impostors_gone"
	ReasonParity        = "parity"
	ReasonSabotage      = "sabotage"
	ReasonTasks         = "tasks"
	ReasonRemote        = "remote"
)

// Result 对局结果，只计算不持久化
type Result struct {
	Winner Winner
	Reason string
}

// Evaluate 根据存活身份判断胜负：没有存活内鬼则船员胜；
// 存活内鬼不少于存活船员则内鬼胜；否则继续。
func Evaluate(players []*player.Player) (Result, bool) {
	crew, impostors := 0, 0
	for _, p := range players {
		if !p.Alive {
			continue
		}
		if p.IsImpostor() {
			impostors++
		} else {
			crew++
		}
	}

	switch {
	case impostors == 0:
		return Result{Winner: Crewmates, Reason: ReasonImpostorsGone}, true
	case impostors >= crew:
		return Result{Winner: Impostors, Reason: ReasonParity}, true
	}
	return Result{}, false
}

// SabotageExpired 致命破坏超时，内鬼直接获胜
func SabotageExpired() Result {
	return Result{Winner: Impostors, Reason: ReasonSabotage}
}

// EvaluateTasks 船员任务全部完成时船员胜
func EvaluateTasks(done, total int) (Result, bool) {
	if total > 0 && done >= total {
		return Result{Winner: Crewmates, Reason: ReasonTasks}, true
	}
	return Result{}, false
}
