package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/emberwold/server/internal/config"
	"github.com/emberwold/server/internal/core/event"
	coresys "github.com/emberwold/server/internal/core/system"
	"github.com/emberwold/server/internal/data"
	"github.com/emberwold/server/internal/gamemap"
	"github.com/emberwold/server/internal/handler"
	gonet "github.com/emberwold/server/internal/net"
	"github.com/emberwold/server/internal/net/packet"
	"github.com/emberwold/server/internal/persist"
	"github.com/emberwold/server/internal/scripting"
	"github.com/emberwold/server/internal/session"
	"github.com/emberwold/server/internal/system"
	"github.com/emberwold/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m           Emberwold  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      權威狀態複製 · Go 遊戲伺服器         \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s \033[90m(編號: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	// Use rune count for CJK width calculation (each CJK char = 2 columns)
	displayWidth := 0
	for _, r := range title {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	lineLen := 46 - displayWidth - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	displayWidth := 0
	for _, r := range label {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	dotsLen := 42 - displayWidth - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("EMBERWOLD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Optional telemetry database. The world never reads from it; a
	// disabled database removes persistence, nothing else.
	var journalWriter *persist.Writer
	if cfg.Database.Enabled {
		printSection("資料庫")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL 連線成功")

		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			cancel()
			return fmt.Errorf("migrations: %w", err)
		}
		cancel()
		printOK("資料庫遷移完成")
		fmt.Println()

		journalWriter = persist.NewWriter(persist.NewJournalRepo(db), log)
		go journalWriter.Run()
		defer journalWriter.Stop()
	}

	// 4. Load static data and build the map
	printSection("資料載入")

	terrainTable, err := data.LoadTerrainTable("data/yaml/terrain_list.yaml")
	if err != nil {
		return fmt.Errorf("load terrain table: %w", err)
	}
	printStat("地形類型", terrainTable.Count())

	npcTable, err := data.LoadNpcTable("data/yaml/npc_list.yaml")
	if err != nil {
		return fmt.Errorf("load npc table: %w", err)
	}
	printStat("NPC 模板", npcTable.Count())

	spawnList, err := data.LoadSpawnList("data/yaml/spawn_list.yaml")
	if err != nil {
		return fmt.Errorf("load spawn list: %w", err)
	}

	producer := gamemap.NewSeededProducer(cfg.Map.Seed, terrainTable.TerrainIDs(), terrainTable.FeatureIDs())
	terrain := gamemap.NewTerrain(producer, cfg.Map.WidthTiles, cfg.Map.HeightTiles,
		terrainTable.WalkableSet(), terrainTable.BlockingFeatureSet())
	printOK(fmt.Sprintf("地圖 %s 已就緒 (%d×%d 格)", cfg.Map.ID, cfg.Map.WidthTiles, cfg.Map.HeightTiles))

	// 5. World state and NPC population
	bus := event.NewBus()
	worldState := world.NewState(terrain, bus, int64(cfg.Map.Seed), log)

	npcCount := spawnNpcs(worldState, npcTable, spawnList, log)
	printStat("NPC 生成", npcCount)

	// 5b. Lua scripting engine
	luaEngine, err := scripting.NewEngine("scripts", log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("Lua 腳本載入完成")
	fmt.Println()

	// 6. Session registry, packet handlers
	players := session.NewRegistry(cfg.Game.DisconnectGrace, cfg.Game.ActionQueueDepth, log)

	pktReg := packet.NewRegistry(log)
	deps := &handler.Deps{
		Config:  cfg,
		Log:     log,
		World:   worldState,
		Players: players,
	}
	handler.RegisterAll(pktReg, deps)

	// 7. Network server
	netServer, err := gonet.NewServer(
		cfg.Network.BindAddress,
		cfg.Network.InQueueSize,
		cfg.Network.OutQueueSize,
		cfg.Network.PacketsPerSecond,
		log,
	)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.Serve()

	// 8. Systems, in tick phase order
	store := gonet.NewSessionStore()
	ticksPerSecond := int(time.Second / cfg.Network.TickRate)

	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(netServer, pktReg, store, players, worldState, cfg.Network.MaxPacketsPerTick, log))
	runner.Register(system.NewEventSystem(bus))
	runner.Register(system.NewNpcAISystem(worldState, luaEngine, ticksPerSecond))
	runner.Register(system.NewMovementSystem(worldState, players))
	runner.Register(system.NewActionSystem(worldState, players, luaEngine, cfg, log))
	runner.Register(system.NewSessionLifecycleSystem(worldState, players, log))
	runner.Register(system.NewReplicationSystem(worldState, players, terrainTable, cfg, log))
	runner.Register(system.NewChunkStreamSystem(worldState, players, log))
	runner.Register(system.NewOutputSystem(store, players, log))
	runner.Register(system.NewJournalSystem(bus, journalWriter))
	runner.Register(system.NewCleanupSystem(worldState))

	// 9. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	printSection("伺服器就緒")
	printReady(fmt.Sprintf("監聽位址 %s", netServer.Addr().String()))
	printReady(fmt.Sprintf("遊戲迴圈啟動 (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Network.TickRate)
		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			netServer.Shutdown()
			log.Info("伺服器已停止")
			return nil
		}
	}
}

// spawnNpcs creates NPC instances from the spawn list, scattering each batch
// around its anchor tile. Entries landing on unwalkable tiles are skipped;
// population is advisory, not exact.
func spawnNpcs(ws *world.State, npcTable *data.NpcTable, spawns []data.SpawnEntry, log *zap.Logger) int {
	total := 0
	rng := ws.Rng()
	for _, spawn := range spawns {
		tmpl := npcTable.Get(spawn.NpcID)
		if tmpl == nil {
			log.Warn("生成: 未知的 NPC ID", zap.Uint16("npc_id", spawn.NpcID))
			continue
		}
		for i := 0; i < spawn.Count; i++ {
			tx := spawn.TileX
			ty := spawn.TileY
			if spawn.RandomTiles > 0 {
				tx += int32(rng.Intn(int(spawn.RandomTiles*2+1))) - spawn.RandomTiles
				ty += int32(rng.Intn(int(spawn.RandomTiles*2+1))) - spawn.RandomTiles
			}
			x := float64(tx)*gamemap.TileSize + gamemap.TileSize/2
			y := float64(ty)*gamemap.TileSize + gamemap.TileSize/2
			if !ws.Terrain.WalkableAt(x, y) {
				continue
			}
			ws.SpawnNpc(tmpl, tx, ty)
			total++
		}
	}
	return total
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
