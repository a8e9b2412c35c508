package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 中继服务端与对局配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Game   GameConfig   `yaml:"game"`
	Map    MapConfig    `yaml:"map"`
}

// ServerConfig WebSocket 中继配置
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	RoomCapacity   int      `yaml:"room_capacity"` // 每个房间最多连接数
	MessageLimit   int      `yaml:"message_limit"` // 每个连接每秒最多消息数
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	HistoryLimit int    `yaml:"history_limit"` // 对局历史保留条数
}

// GameConfig 对局参数，时长单位为秒（RevealTypingMs 为毫秒）
type GameConfig struct {
	IntroTime      float64 `yaml:"intro_time"`
	VotingTime     float64 `yaml:"voting_time"`
	ResultsTime    float64 `yaml:"results_time"`
	RevealTypingMs int     `yaml:"reveal_typing_ms"`
	RevealHold     float64 `yaml:"reveal_hold"`

	SabotageTime     float64 `yaml:"sabotage_time"`
	KillCooldown     float64 `yaml:"kill_cooldown"`
	VentCooldown     float64 `yaml:"vent_cooldown"`
	SabotageCooldown float64 `yaml:"sabotage_cooldown"`

	TasksPerPlayer int   `yaml:"tasks_per_player"`
	Impostors      int   `yaml:"impostors"`
	TickRate       int   `yaml:"tick_rate"` // 每秒 Tick 次数
	EndVotingEarly *bool `yaml:"end_voting_early"`
}

// MapConfig 地图文件，为空时使用内置地图
type MapConfig struct {
	Path string `yaml:"path"`
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// IntroDuration 会议开场时长
func (c *GameConfig) IntroDuration() time.Duration { return seconds(c.IntroTime) }

// VotingDuration 投票时长
func (c *GameConfig) VotingDuration() time.Duration { return seconds(c.VotingTime) }

// ResultsDuration 结果展示时长
func (c *GameConfig) ResultsDuration() time.Duration { return seconds(c.ResultsTime) }

// RevealPerCharDuration 放逐文字每个字符的显示间隔
func (c *GameConfig) RevealPerCharDuration() time.Duration {
	return time.Duration(c.RevealTypingMs) * time.Millisecond
}

// RevealHoldDuration 放逐文字显示完后的停留时间
func (c *GameConfig) RevealHoldDuration() time.Duration { return seconds(c.RevealHold) }

// SabotageDuration 致命破坏倒计时
func (c *GameConfig) SabotageDuration() time.Duration { return seconds(c.SabotageTime) }

// KillCooldownDuration 击杀冷却
func (c *GameConfig) KillCooldownDuration() time.Duration { return seconds(c.KillCooldown) }

// VentCooldownDuration 管道冷却
func (c *GameConfig) VentCooldownDuration() time.Duration { return seconds(c.VentCooldown) }

// SabotageCooldownDuration 破坏冷却
func (c *GameConfig) SabotageCooldownDuration() time.Duration {
	return seconds(c.SabotageCooldown)
}

// TickInterval 两次 Tick 之间的间隔
func (c *GameConfig) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(c.TickRate)
}

// VotingEndsEarly 所有存活玩家投票后是否提前结束投票
func (c *GameConfig) VotingEndsEarly() bool {
	return c.EndVotingEarly == nil || *c.EndVotingEarly
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// 设置默认值
	def := Default()
	if cfg.Server.Host == "" {
		cfg.Server.Host = def.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.RoomCapacity == 0 {
		cfg.Server.RoomCapacity = def.Server.RoomCapacity
	}
	if cfg.Server.MessageLimit == 0 {
		cfg.Server.MessageLimit = def.Server.MessageLimit
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = def.Redis.Addr
	}
	if cfg.Redis.HistoryLimit == 0 {
		cfg.Redis.HistoryLimit = def.Redis.HistoryLimit
	}
	cfg.Game.fillDefaults(def.Game)

	return &cfg, nil
}

func (c *GameConfig) fillDefaults(def GameConfig) {
	setFloat := func(v *float64, d float64) {
		if *v == 0 {
			*v = d
		}
	}
	setInt := func(v *int, d int) {
		if *v == 0 {
			*v = d
		}
	}
	setFloat(&c.IntroTime, def.IntroTime)
	setFloat(&c.VotingTime, def.VotingTime)
	setFloat(&c.ResultsTime, def.ResultsTime)
	setInt(&c.RevealTypingMs, def.RevealTypingMs)
	setFloat(&c.RevealHold, def.RevealHold)
	setFloat(&c.SabotageTime, def.SabotageTime)
	setFloat(&c.KillCooldown, def.KillCooldown)
	setFloat(&c.VentCooldown, def.VentCooldown)
	setFloat(&c.SabotageCooldown, def.SabotageCooldown)
	setInt(&c.TasksPerPlayer, def.TasksPerPlayer)
	setInt(&c.Impostors, def.Impostors)
	setInt(&c.TickRate, def.TickRate)
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         1780,
			RoomCapacity: 10,
			MessageLimit: 60,
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			HistoryLimit: 100,
		},
		Game: GameConfig{
			IntroTime:        2,
			VotingTime:       30,
			ResultsTime:      2,
			RevealTypingMs:   80,
			RevealHold:       1,
			SabotageTime:     20,
			KillCooldown:     25,
			VentCooldown:     5,
			SabotageCooldown: 30,
			TasksPerPlayer:   4,
			Impostors:        1,
			TickRate:         30,
		},
	}
}
