package player

import (
	"math/rand/v2"
	"time"
)

// Role 玩家身份
type Role int

const (
	Crewmate Role = iota
	Impostor
)

func (r Role) String() string {
	if r == Impostor {
		return "impostor"
	}
	return "crewmate"
}

// Limits 各技能冷却上限
type Limits struct {
	Kill     time.Duration
	Vent     time.Duration
	Sabotage time.Duration
}

// Player 对局中的玩家
type Player struct {
	ID   string
	Name string
	Role Role

	Alive         bool
	HasVoted      bool
	VotesReceived int

	// 冷却计时，归零即可用
	KillCooldown     time.Duration
	VentCooldown     time.Duration
	SabotageCooldown time.Duration
}

// IsImpostor 是否为内鬼
func (p *Player) IsImpostor() bool {
	return p.Role == Impostor
}

// Tick 推进冷却计时，最小为 0
func (p *Player) Tick(dt time.Duration) {
	p.KillCooldown = decay(p.KillCooldown, dt)
	p.VentCooldown = decay(p.VentCooldown, dt)
	p.SabotageCooldown = decay(p.SabotageCooldown, dt)
}

// ResetRoundCooldowns 会议结束后重置击杀与破坏冷却
func (p *Player) ResetRoundCooldowns(l Limits) {
	p.KillCooldown = l.Kill
	p.SabotageCooldown = l.Sabotage
}

func decay(v, dt time.Duration) time.Duration {
	v -= dt
	if v < 0 {
		return 0
	}
	return v
}

// Roster 按加入顺序保存所有玩家
type Roster struct {
	order []string
	byID  map[string]*Player
}

// NewRoster 创建空名单
func NewRoster() *Roster {
	return &Roster{byID: make(map[string]*Player)}
}

// Add 加入一名存活的船员，重复 ID 会被忽略
func (r *Roster) Add(id, name string) *Player {
	if p, ok := r.byID[id]; ok {
		return p
	}
	p := &Player{ID: id, Name: name, Role: Crewmate, Alive: true}
	r.byID[id] = p
	r.order = append(r.order, id)
	return p
}

// Get 按 ID 查找玩家
func (r *Roster) Get(id string) (*Player, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// All 按加入顺序返回所有玩家
func (r *Roster) All() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Alive 按加入顺序返回存活玩家
func (r *Roster) Alive() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		if p := r.byID[id]; p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// Len 玩家总数
func (r *Roster) Len() int {
	return len(r.order)
}

// AssignRoles 用给定随机源洗牌后选出 impostors 名内鬼，其余为船员。
// 相同种子与相同加入顺序在所有端得到相同结果。
func (r *Roster) AssignRoles(rng *rand.Rand, impostors int, limits Limits) {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	if impostors > len(ids) {
		impostors = len(ids)
	}
	for i, id := range ids {
		p := r.byID[id]
		p.Alive = true
		if i < impostors {
			p.Role = Impostor
			p.ResetRoundCooldowns(limits)
		} else {
			p.Role = Crewmate
		}
	}
}

// ResetVotes 新会议开始时清空投票标记
func (r *Roster) ResetVotes() {
	for _, p := range r.byID {
		p.HasVoted = false
		p.VotesReceived = 0
	}
}

// Tick 推进所有玩家的冷却
func (r *Roster) Tick(dt time.Duration) {
	for _, p := range r.byID {
		p.Tick(dt)
	}
}

// AliveCounts 返回存活船员与存活内鬼数量
func (r *Roster) AliveCounts() (crew, impostors int) {
	for _, p := range r.byID {
		if !p.Alive {
			continue
		}
		if p.IsImpostor() {
			impostors++
		} else {
			crew++
		}
	}
	return crew, impostors
}
