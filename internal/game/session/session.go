// Package session ties the sub-machines together into one game session that
// every peer runs identically. Local input and remote intents share one
// queue, drained at the start of each tick.
package session

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/palemoky/among-the-stars/internal/config"
	"github.com/palemoky/among-the-stars/internal/game/mapdef"
	"github.com/palemoky/among-the-stars/internal/game/meeting"
	"github.com/palemoky/among-the-stars/internal/game/player"
	"github.com/palemoky/among-the-stars/internal/game/rule"
	"github.com/palemoky/among-the-stars/internal/game/sabotage"
	"github.com/palemoky/among-the-stars/internal/game/task"
	"github.com/palemoky/among-the-stars/internal/logger"
	"github.com/palemoky/among-the-stars/internal/protocol"
	"github.com/palemoky/among-the-stars/internal/protocol/codec"
)

// 队列容量
const (
	inboundSize  = 256
	outboundSize = 256
)

// 第二个 PCG 流，破坏密码与分配使用不同的随机序列
const sabotageStream = 0x5ab07a6e

// ErrQueueFull 事件队列已满，事件被丢弃
var ErrQueueFull = errors.New("session: event queue full")

// ErrNoPlayers 对局参数中没有玩家
var ErrNoPlayers = errors.New("session: no players in setup")

// SoundPlayer 音效协作方
type SoundPlayer interface {
	Play(name string)
}

// Rally 会议结束后把存活玩家送回集合点
type Rally interface {
	ReturnToRally(playerIDs []string, point mapdef.Point)
}

// 音效名
const (
	CueTaskComplete  = "task_complete"
	CueKill          = "kill"
	CueMeeting       = "meeting"
	CueVote          = "vote"
	CueEject         = "eject"
	CueSabotageAlarm = "sabotage_alarm"
	CueSabotageFixed = "sabotage_fixed"
	CueVictory       = "victory"
	CueDefeat        = "defeat"
)

// GameState 会话生命周期
type GameState int

const (
	GameStatePlaying GameState = iota
	GameStateEnded
	GameStateFinalized
)

// Setup 构造会话所需的全部参数。相同的 Setup 在所有端得到相同的初始状态。
type Setup struct {
	Seed      uint64
	Players   []protocol.PlayerSetup // 按加入顺序，第一个为房主
	Impostors int
	Map       *mapdef.Map
	LocalID   string
	Game      config.GameConfig
}

// SetupFromPayload 由 game_start 消息构造 Setup
func SetupFromPayload(p *protocol.GameStartPayload, m *mapdef.Map, localID string, game config.GameConfig) Setup {
	return Setup{
		Seed:      p.Seed,
		Players:   p.Players,
		Impostors: p.Impostors,
		Map:       m,
		LocalID:   localID,
		Game:      game,
	}
}

// Body 尸体
type Body struct {
	PlayerID string
	KillerID string
}

// GameSession 一局游戏
type GameSession struct {
	state   GameState
	localID string
	hostID  string
	gameMap *mapdef.Map
	limits  player.Limits

	roster   *player.Roster
	tasks    *task.Graph
	sabotage *sabotage.Controller
	meeting  *meeting.Machine
	bodies   []Body
	result   rule.Result

	inbound  chan event
	outbound chan *protocol.Message

	sound SoundPlayer
	rally Rally
}

// Option 可选协作方
type Option func(*GameSession)

// WithSound 设置音效协作方
func WithSound(s SoundPlayer) Option {
	return func(g *GameSession) { g.sound = s }
}

// WithRally 设置集合点协作方
func WithRally(r Rally) Option {
	return func(g *GameSession) { g.rally = r }
}

// New 按 Setup 创建会话：洗牌分配身份，按加入顺序为每名玩家分配任务。
func New(setup Setup, opts ...Option) (*GameSession, error) {
	if len(setup.Players) == 0 {
		return nil, ErrNoPlayers
	}
	m := setup.Map
	if m == nil {
		m = mapdef.Default()
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	gc := setup.Game
	limits := player.Limits{
		Kill:     gc.KillCooldownDuration(),
		Vent:     gc.VentCooldownDuration(),
		Sabotage: gc.SabotageCooldownDuration(),
	}

	roster := player.NewRoster()
	for _, p := range setup.Players {
		roster.Add(p.ID, p.Name)
	}

	rng := rand.New(rand.NewPCG(setup.Seed, setup.Seed))
	roster.AssignRoles(rng, setup.Impostors, limits)

	perPlayer := gc.TasksPerPlayer
	if perPlayer <= 0 {
		perPlayer = 4
	}
	tasks := task.NewGraph()
	for _, p := range roster.All() {
		tasks.Assign(p.ID, p.IsImpostor(), m, rng, perPlayer)
	}

	mt := meeting.NewMachine(roster, meeting.Durations{
		Intro:         gc.IntroDuration(),
		Voting:        gc.VotingDuration(),
		Results:       gc.ResultsDuration(),
		RevealPerChar: gc.RevealPerCharDuration(),
		RevealHold:    gc.RevealHoldDuration(),
	})
	mt.EndVotingEarly = gc.VotingEndsEarly()

	g := &GameSession{
		state:    GameStatePlaying,
		localID:  setup.LocalID,
		hostID:   setup.Players[0].ID,
		gameMap:  m,
		limits:   limits,
		roster:   roster,
		tasks:    tasks,
		sabotage: sabotage.NewController(m, gc.SabotageDuration(), rand.New(rand.NewPCG(setup.Seed, sabotageStream))),
		meeting:  mt,
		inbound:  make(chan event, inboundSize),
		outbound: make(chan *protocol.Message, outboundSize),
	}
	for _, opt := range opts {
		opt(g)
	}

	logger.LogInfo("session started: %d players, %d impostors, seed=%d", roster.Len(), setup.Impostors, setup.Seed)
	return g, nil
}

// Advance 推进一个 Tick：先处理队列中的事件，再推进会议或任务与破坏。
// 会议进行中时破坏倒计时与冷却全部冻结。
func (g *GameSession) Advance(dt time.Duration) {
	g.drain()
	if g.state != GameStatePlaying {
		return
	}

	if g.meeting.Active() {
		for _, tr := range g.meeting.Advance(dt) {
			g.onMeetingTransition(tr)
			if g.state != GameStatePlaying {
				return
			}
		}
		return
	}

	g.roster.Tick(dt)
	out := g.sabotage.Tick(dt)
	switch out.Result {
	case sabotage.Expired:
		logger.LogInfo("sabotage %s expired", out.Kind)
		g.finish(rule.SabotageExpired(), true)
	case sabotage.Fixed:
		logger.LogInfo("sabotage %s fixed", out.Kind)
		g.play(CueSabotageFixed)
	}
}

func (g *GameSession) onMeetingTransition(tr meeting.Transition) {
	logger.LogInfo("meeting %s -> %s", tr.From, tr.To)
	switch tr.To {
	case meeting.Ejection:
		g.play(CueEject)
		if p, ok := g.roster.Get(tr.EjectedID); ok {
			g.tasks.Cancel(p.ID)
		}
		if res, ok := rule.Evaluate(g.roster.All()); ok {
			g.finish(res, true)
		}
	case meeting.None:
		alive := g.roster.Alive()
		ids := make([]string, 0, len(alive))
		for _, p := range alive {
			ids = append(ids, p.ID)
			if p.IsImpostor() {
				p.ResetRoundCooldowns(g.limits)
			}
		}
		if g.rally != nil {
			g.rally.ReturnToRally(ids, g.gameMap.RallyPoint)
		}
	}
}

// finish 进入终局。只生效一次；local 为 true 时由房主广播 game_over。
func (g *GameSession) finish(res rule.Result, local bool) {
	if g.state != GameStatePlaying {
		return
	}
	g.state = GameStateEnded
	g.result = res
	logger.LogInfo("game over: %s win (%s)", res.Winner, res.Reason)

	if me, ok := g.roster.Get(g.localID); ok {
		won := (res.Winner == rule.Impostors) == me.IsImpostor()
		if won {
			g.play(CueVictory)
		} else {
			g.play(CueDefeat)
		}
	}

	if local && g.IsHost() {
		g.emit(protocol.MsgGameOver, protocol.GameOverPayload{
			Winner: res.Winner.String(),
			Reason: res.Reason,
		})
	}
}

// Finalize 结束会话并关闭出站通道，之后不能再调用 Advance
func (g *GameSession) Finalize() rule.Result {
	if g.state == GameStateFinalized {
		return g.result
	}
	g.state = GameStateFinalized
	close(g.outbound)
	return g.result
}

func (g *GameSession) emit(msgType protocol.MessageType, payload any) {
	msg, err := codec.NewMessage(msgType, payload)
	if err != nil {
		logger.LogError("build %s: %v", msgType, err)
		return
	}
	msg.Sender = g.localID
	g.forward(msg)
}

// forward 投递到出站通道，通道满时丢弃，不阻塞 Tick
func (g *GameSession) forward(msg *protocol.Message) {
	if g.state == GameStateFinalized {
		return
	}
	select {
	case g.outbound <- msg:
	default:
		logger.LogWarn("outbound queue full, dropping %s", msg.Type)
	}
}

func (g *GameSession) play(cue string) {
	if g.sound != nil {
		g.sound.Play(cue)
	}
}

// State 生命周期状态
func (g *GameSession) State() GameState { return g.state }

// Over 是否已出结果
func (g *GameSession) Over() bool { return g.state != GameStatePlaying }

// Result 对局结果，第二个返回值表示是否已结束
func (g *GameSession) Result() (rule.Result, bool) { return g.result, g.Over() }

// LocalID 本地玩家 ID
func (g *GameSession) LocalID() string { return g.localID }

// IsHost 本地玩家是否为房主
func (g *GameSession) IsHost() bool { return g.localID == g.hostID }

// Map 当前地图
func (g *GameSession) Map() *mapdef.Map { return g.gameMap }

// Roster 玩家名单
func (g *GameSession) Roster() *player.Roster { return g.roster }

// Tasks 任务图
func (g *GameSession) Tasks() *task.Graph { return g.tasks }

// Sabotage 破坏控制器
func (g *GameSession) Sabotage() *sabotage.Controller { return g.sabotage }

// Meeting 会议状态机
func (g *GameSession) Meeting() *meeting.Machine { return g.meeting }

// Bodies 尚未被报告的尸体
func (g *GameSession) Bodies() []Body {
	out := make([]Body, len(g.bodies))
	copy(out, g.bodies)
	return out
}

// Outbound 本地操作成功后产生的广播消息
func (g *GameSession) Outbound() <-chan *protocol.Message { return g.outbound }
