package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/among-the-stars/internal/config"
	"github.com/palemoky/among-the-stars/internal/game/mapdef"
	"github.com/palemoky/among-the-stars/internal/logger"
	"github.com/palemoky/among-the-stars/internal/sound"
	"github.com/palemoky/among-the-stars/internal/transport"
	"github.com/palemoky/among-the-stars/internal/ui"
)

func main() {
	relayAddr := flag.String("relay", "localhost:1780", "中继地址")
	room := flag.String("room", "", "房间号")
	name := flag.String("name", "", "昵称")
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	soundDir := flag.String("sounds", sound.DefaultDir, "音效目录")
	logDir := flag.String("log-dir", "", "日志目录，默认 ~/.among-the-stars")
	flag.Parse()

	if *room == "" {
		fmt.Fprintln(os.Stderr, "请用 -room 指定房间号")
		os.Exit(2)
	}

	// 终端界面占用 stdout，日志写入文件
	if err := logger.Init(*logDir); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logger.Close()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.LogWarn("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Default()
	}

	gameMap := mapdef.Default()
	if cfg.Map.Path != "" {
		if gameMap, err = mapdef.Load(cfg.Map.Path); err != nil {
			log.Fatalf("加载地图失败: %v", err)
		}
	}

	sm := sound.NewSoundManager(*soundDir)
	go func() {
		if err := sm.Init(); err != nil {
			logger.LogWarn("音效初始化失败: %v", err)
		}
	}()
	defer sm.Close()

	client := transport.NewClient(fmt.Sprintf("ws://%s/ws", *relayAddr), *room, *name)
	model := ui.NewModel(ui.Options{
		Link:      client,
		Game:      cfg.Game,
		Map:       gameMap,
		Sound:     sm,
		Room:      *room,
		Reconnect: ui.ReconnectHooks(client),
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.LogError("控制台退出: %v", err)
		log.Fatalf("启动控制台时出错: %v", err)
	}
}
