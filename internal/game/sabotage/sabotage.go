// Package sabotage runs the two critical sabotages. Reactor meltdown is fixed
// when both hand scanners are held during the same tick; life support is
// fixed once both keypads have accepted the code, in any order.
package sabotage

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/palemoky/among-the-stars/internal/apperrors"
	"github.com/palemoky/among-the-stars/internal/game/mapdef"
)

// DefaultDuration 破坏倒计时
const DefaultDuration = 20 * time.Second

// Kind 破坏类型
type Kind int

const (
	None Kind = iota
	Reactor
	LifeSupport
)

func (k Kind) String() string {
	switch k {
	case Reactor:
		return mapdef.PanelReactor
	case LifeSupport:
		return mapdef.PanelLifeSupport
	default:
		return "none"
	}
}

// ParseKind 解析地图/网络中的破坏类型
func ParseKind(s string) (Kind, bool) {
	switch s {
	case mapdef.PanelReactor:
		return Reactor, true
	case mapdef.PanelLifeSupport:
		return LifeSupport, true
	}
	return None, false
}

// State 破坏状态
type State int

const (
	Idle State = iota
	Active
	Fixed
	Expired
)

func (s State) String() string {
	return [...]string{"idle", "active", "fixed", "expired"}[s]
}

// Panel 修复面板，通过 PairedPanelID 与同类面板关联
type Panel struct {
	ID            int
	Kind          Kind
	PairedPanelID int
	Room          string
	Position      mapdef.Point

	Holding   bool   // 反应堆：当前是否有人按住
	HolderID  string // 按住面板的玩家
	Completed bool   // 氧气：密码是否已输入正确
}

func (p *Panel) release() {
	p.Holding = false
	p.HolderID = ""
}

func (p *Panel) reset() {
	p.release()
	p.Completed = false
}

// Outcome 一次 Tick 的结果。Result 为 Fixed 或 Expired 时 Kind 指明是哪种破坏。
type Outcome struct {
	Result State
	Kind   Kind
}

// Controller 破坏生命周期：Idle → Active → {Fixed, Expired} → Idle
type Controller struct {
	panels []*Panel
	byKind map[Kind][]int

	state     State
	active    Kind
	remaining time.Duration
	max       time.Duration
	code      string

	rng *rand.Rand
}

// NewController 按地图面板创建控制器，rng 用于生成氧气密码
func NewController(m *mapdef.Map, duration time.Duration, rng *rand.Rand) *Controller {
	if duration <= 0 {
		duration = DefaultDuration
	}
	c := &Controller{
		byKind: make(map[Kind][]int),
		max:    duration,
		rng:    rng,
	}
	for _, def := range m.Panels {
		kind, ok := ParseKind(def.Kind)
		if !ok {
			continue
		}
		p := &Panel{
			ID:       len(c.panels) + 1,
			Kind:     kind,
			Room:     def.Room,
			Position: def.Position,
		}
		c.panels = append(c.panels, p)
		c.byKind[kind] = append(c.byKind[kind], p.ID)
	}
	for _, ids := range c.byKind {
		if len(ids) == 2 {
			c.panels[ids[0]-1].PairedPanelID = ids[1]
			c.panels[ids[1]-1].PairedPanelID = ids[0]
		}
	}
	return c
}

// Trigger 触发破坏。已有破坏进行中时拒绝，原倒计时与类型保持不变。
func (c *Controller) Trigger(kind Kind) error {
	if c.state == Active {
		return apperrors.ErrSabotageActive
	}
	if len(c.byKind[kind]) != 2 {
		return apperrors.ErrInvalidTarget
	}

	c.state = Active
	c.active = kind
	c.remaining = c.max
	for _, p := range c.PanelsOf(kind) {
		p.reset()
	}
	if kind == LifeSupport {
		c.code = fmt.Sprintf("%05d", c.rng.IntN(100000))
	}
	return nil
}

// SetHolding 反应堆面板按下/松开。状态不跨 Tick 锁存，每次 Tick 只看当前值。
// 一块面板同一时间只属于一名玩家，同一玩家不能同时按住配对的两块面板。
func (c *Controller) SetHolding(panelID int, holderID string, holding bool) error {
	p, err := c.activePanel(panelID, Reactor)
	if err != nil {
		return err
	}

	if !holding {
		if !p.Holding {
			return nil
		}
		if p.HolderID != holderID {
			return apperrors.ErrPanelBusy
		}
		p.release()
		return nil
	}

	if p.Holding && p.HolderID != holderID {
		return apperrors.ErrPanelBusy
	}
	if pair, ok := c.Panel(p.PairedPanelID); ok && pair.Holding && pair.HolderID == holderID {
		return apperrors.ErrInvalidTarget
	}
	p.Holding = true
	p.HolderID = holderID
	return nil
}

// SubmitCode 在氧气面板输入密码，正确则该面板完成
func (c *Controller) SubmitCode(panelID int, code string) error {
	p, err := c.activePanel(panelID, LifeSupport)
	if err != nil {
		return err
	}
	if code != c.code {
		return apperrors.ErrWrongCode
	}
	p.Completed = true
	return nil
}

// ReleaseHolds 松开所有反应堆面板（会议开始时玩家离开面板）
func (c *Controller) ReleaseHolds() {
	for _, p := range c.PanelsOf(Reactor) {
		p.release()
	}
}

// ReleaseHoldsBy 松开某个玩家按住的面板（玩家死亡时）
func (c *Controller) ReleaseHoldsBy(holderID string) {
	for _, p := range c.PanelsOf(Reactor) {
		if p.Holding && p.HolderID == holderID {
			p.release()
		}
	}
}

// CompleteKeypad 直接标记氧气面板完成（由小游戏自行校验时使用）
func (c *Controller) CompleteKeypad(panelID int) error {
	p, err := c.activePanel(panelID, LifeSupport)
	if err != nil {
		return err
	}
	p.Completed = true
	return nil
}

func (c *Controller) activePanel(panelID int, kind Kind) (*Panel, error) {
	p, ok := c.Panel(panelID)
	if !ok {
		return nil, apperrors.ErrUnknownPanel
	}
	if c.state != Active || c.active != kind || p.Kind != kind {
		return nil, apperrors.ErrNoSabotage
	}
	return p, nil
}

// Tick 推进倒计时。倒计时先于修复判定：同一 Tick 内归零且两块面板都满足条件时，判定为超时。
func (c *Controller) Tick(dt time.Duration) Outcome {
	if c.state != Active {
		return Outcome{Result: c.state}
	}

	c.remaining -= dt
	if c.remaining <= 0 {
		kind := c.active
		c.reset()
		return Outcome{Result: Expired, Kind: kind}
	}

	kind := c.active
	if c.EvaluateFixed() {
		return Outcome{Result: Fixed, Kind: kind}
	}
	return Outcome{Result: Active, Kind: kind}
}

// EvaluateFixed 判断当前破坏是否已修复，修复后回到 Idle
func (c *Controller) EvaluateFixed() bool {
	if c.state != Active {
		return false
	}

	panels := c.PanelsOf(c.active)
	fixed := len(panels) == 2
	for _, p := range panels {
		switch c.active {
		case Reactor:
			fixed = fixed && p.Holding
		case LifeSupport:
			fixed = fixed && p.Completed
		}
	}
	if !fixed {
		return false
	}

	c.reset()
	return true
}

func (c *Controller) reset() {
	for _, p := range c.PanelsOf(c.active) {
		p.reset()
	}
	c.active = None
	c.remaining = 0
	c.code = ""
	c.state = Idle
}

// State 当前状态（Fixed/Expired 只在 Tick 结果中出现，随后立即回到 Idle）
func (c *Controller) State() State { return c.state }

// Active 当前进行中的破坏类型
func (c *Controller) Active() Kind { return c.active }

// Remaining 剩余时间
func (c *Controller) Remaining() time.Duration { return c.remaining }

// Max 倒计时总长
func (c *Controller) Max() time.Duration { return c.max }

// Code 当前氧气密码，仅在生命维持破坏进行中有效
func (c *Controller) Code() string { return c.code }

// CountdownFraction 剩余时间占比
func (c *Controller) CountdownFraction() float64 {
	if c.state != Active || c.max <= 0 {
		return 0
	}
	return float64(c.remaining) / float64(c.max)
}

// Panel 按 ID 查找面板
func (c *Controller) Panel(id int) (*Panel, bool) {
	if id < 1 || id > len(c.panels) {
		return nil, false
	}
	return c.panels[id-1], true
}

// Panels 所有面板
func (c *Controller) Panels() []*Panel {
	return c.panels
}

// PanelsOf 某类破坏的两块面板
func (c *Controller) PanelsOf(kind Kind) []*Panel {
	ids := c.byKind[kind]
	out := make([]*Panel, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.panels[id-1])
	}
	return out
}
