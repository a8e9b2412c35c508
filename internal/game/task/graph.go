package task

import (
	"math/rand/v2"

	"github.com/palemoky/among-the-stars/internal/apperrors"
	"github.com/palemoky/among-the-stars/internal/game/mapdef"
)

// MaxPairs 每名玩家最多分到的多步任务对数
const MaxPairs = 2

// Graph 任务注册表：ID 即 arena 下标 + 1
type Graph struct {
	tasks   []*Task
	byRoom  map[string][]int
	byOwner map[string][]int
	active  map[string]int // owner -> 打开中的任务
}

// NewGraph 创建空任务图
func NewGraph() *Graph {
	return &Graph{
		byRoom:  make(map[string][]int),
		byOwner: make(map[string][]int),
		active:  make(map[string]int),
	}
}

// Assign 为 owner 从地图任务池抽取 perPlayer 个可计数任务：
// 先均匀抽取 k ∈ {0,1,2} 个多步任务对，其余为单步任务，两个池各自独立洗牌、不放回。
// 一个多步任务对占 2 个名额。
func (g *Graph) Assign(owner string, decoy bool, m *mapdef.Map, rng *rand.Rand, perPlayer int) Set {
	k := rng.IntN(MaxPairs + 1)
	k = min(k, len(m.MultiStep), perPlayer/2)

	singles := perPlayer - 2*k
	singles = min(singles, len(m.Tasks))

	pairOrder := rng.Perm(len(m.MultiStep))
	singleOrder := rng.Perm(len(m.Tasks))

	set := make(Set, 0, perPlayer)
	for _, idx := range pairOrder[:k] {
		tmpl := m.MultiStep[idx]
		lead := g.add(owner, decoy, tmpl.Lead, MultiStepLead, true)
		follow := g.add(owner, decoy, tmpl.Follow, MultiStepFollow, false)
		lead.PartnerID = follow.ID
		follow.PartnerID = lead.ID
		set = append(set, lead, follow)
	}
	for _, idx := range singleOrder[:singles] {
		set = append(set, g.add(owner, decoy, m.Tasks[idx], Single, true))
	}
	return set
}

func (g *Graph) add(owner string, decoy bool, tmpl mapdef.TaskTemplate, kind Kind, enabled bool) *Task {
	t := &Task{
		ID:       len(g.tasks) + 1,
		Name:     tmpl.Name,
		Room:     tmpl.Room,
		Position: tmpl.Position,
		Kind:     kind,
		Enabled:  enabled,
		Owner:    owner,
		Decoy:    decoy,
	}
	g.tasks = append(g.tasks, t)
	g.byRoom[t.Room] = append(g.byRoom[t.Room], t.ID)
	g.byOwner[owner] = append(g.byOwner[owner], t.ID)
	return t
}

// Get 按 ID 查找任务
func (g *Graph) Get(id int) (*Task, bool) {
	if id < 1 || id > len(g.tasks) {
		return nil, false
	}
	return g.tasks[id-1], true
}

// All 按 ID 顺序返回所有任务
func (g *Graph) All() []*Task {
	return g.tasks
}

// Owned 返回 owner 的任务
func (g *Graph) Owned(owner string) []*Task {
	return g.collect(g.byOwner[owner])
}

// InRoom 返回某个房间里的任务
func (g *Graph) InRoom(room string) []*Task {
	return g.collect(g.byRoom[room])
}

func (g *Graph) collect(ids []int) []*Task {
	out := make([]*Task, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.tasks[id-1])
	}
	return out
}

// Nearest 返回 radius 内最近的可用任务，距离相同取 ID 较小者
func (g *Graph) Nearest(pos mapdef.Point, radius float64) (*Task, bool) {
	return g.nearest(g.tasks, pos, radius)
}

// NearestFor 只在 owner 自己的任务中查找
func (g *Graph) NearestFor(owner string, pos mapdef.Point, radius float64) (*Task, bool) {
	return g.nearest(g.Owned(owner), pos, radius)
}

func (g *Graph) nearest(candidates []*Task, pos mapdef.Point, radius float64) (*Task, bool) {
	var best *Task
	bestDist := 0.0
	for _, t := range candidates {
		if !t.Available() {
			continue
		}
		d := t.Position.Dist(pos)
		if d > radius {
			continue
		}
		if best == nil || d < bestDist {
			best, bestDist = t, d
		}
	}
	return best, best != nil
}

// Start 打开任务小游戏。同一玩家同时只能打开一个任务，重复打开会替换。
func (g *Graph) Start(owner string, id int) (*Task, error) {
	t, ok := g.Get(id)
	if !ok {
		return nil, apperrors.ErrUnknownTask
	}
	if t.Owner != owner {
		return nil, apperrors.ErrTaskNotOwned
	}
	if t.Completed {
		return nil, apperrors.ErrTaskCompleted
	}
	if !t.Enabled {
		return nil, apperrors.ErrTaskDisabled
	}
	g.active[owner] = id
	return t, nil
}

// Cancel 关闭玩家打开中的任务，任务回到打开前的状态
func (g *Graph) Cancel(owner string) (int, bool) {
	id, ok := g.active[owner]
	if ok {
		delete(g.active, owner)
	}
	return id, ok
}

// Active 返回玩家打开中的任务
func (g *Graph) Active(owner string) (int, bool) {
	id, ok := g.active[owner]
	return id, ok
}

// Complete 完成任务；多步任务的前置完成后解锁后续任务。
// 已完成或未解锁的任务不会产生任何状态变化。
func (g *Graph) Complete(id int) (*Task, error) {
	t, ok := g.Get(id)
	if !ok {
		return nil, apperrors.ErrUnknownTask
	}
	if t.Completed {
		return t, apperrors.ErrTaskCompleted
	}
	if !t.Enabled || t.Decoy {
		return t, apperrors.ErrTaskDisabled
	}

	t.Completed = true
	if t.Kind == MultiStepLead {
		if partner, ok := g.Get(t.PartnerID); ok {
			partner.Enabled = true
		}
	}
	if g.active[t.Owner] == id {
		delete(g.active, t.Owner)
	}
	return t, nil
}

// CompleteBy 校验归属后完成任务
func (g *Graph) CompleteBy(owner string, id int) (*Task, error) {
	t, ok := g.Get(id)
	if !ok {
		return nil, apperrors.ErrUnknownTask
	}
	if t.Owner != owner {
		return t, apperrors.ErrTaskNotOwned
	}
	return g.Complete(id)
}

// Progress 已完成 / 总数，只统计船员的真实任务
func (g *Graph) Progress() float64 {
	done, total := g.Counts()
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total)
}

// Counts 返回计入进度的已完成数与总数
func (g *Graph) Counts() (done, total int) {
	for _, t := range g.tasks {
		if t.Decoy {
			continue
		}
		total++
		if t.Completed {
			done++
		}
	}
	return done, total
}
