// Package task owns the per-session task instances: assignment from the map
// pools, multi-step unlock links, proximity lookup and progress.
package task

import (
	"github.com/palemoky/among-the-stars/internal/game/mapdef"
)

// Kind 任务类型
type Kind int

const (
	Single Kind = iota
	MultiStepLead
	MultiStepFollow
)

func (k Kind) String() string {
	switch k {
	case MultiStepLead:
		return "lead"
	case MultiStepFollow:
		return "follow"
	default:
		return "single"
	}
}

// Task 任务实例。多步任务通过 PartnerID 关联，不直接持有对方指针。
type Task struct {
	ID        int
	Name      string
	Room      string
	Position  mapdef.Point
	Kind      Kind
	Enabled   bool
	Completed bool
	PartnerID int // 0 表示没有搭档
	Owner     string

	// Decoy 内鬼的伪装任务，不计入进度且不能完成
	Decoy bool
}

// Available 可以被打开（已解锁且未完成）
func (t *Task) Available() bool {
	return t.Enabled && !t.Completed
}

// Set 一名玩家分到的任务
type Set []*Task

// Pairs 多步任务对数
func (s Set) Pairs() int {
	n := 0
	for _, t := range s {
		if t.Kind == MultiStepLead {
			n++
		}
	}
	return n
}
