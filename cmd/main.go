package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"DiceArena/config"
	"DiceArena/internal/clock"
	"DiceArena/internal/events"
	"DiceArena/internal/lockreg"
	"DiceArena/internal/matchmaker"
	"DiceArena/internal/profile"
	"DiceArena/internal/queue"
	"DiceArena/internal/recovery"
	"DiceArena/internal/session"
	"DiceArena/internal/storage"
	"DiceArena/internal/sweeper"
	"DiceArena/internal/utils"
	"DiceArena/internal/ws"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	logger := utils.NewLogger()
	ev := events.New(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("config load failed", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	//-------------------------------------------------------
	// 1. Storage
	//-------------------------------------------------------
	rdb, err := storage.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("redis init failed", "err", err)
	}

	var sessionRepo session.Repository
	if cfg.Postgres.DSN != "" {
		db, err := storage.NewPostgres(cfg.Postgres.DSN)
		if err != nil {
			logger.Fatal("postgres init failed", "err", err)
		}
		if err := session.Migrate(ctx, db); err != nil {
			logger.Fatal("postgres migrate failed", "err", err)
		}
		sessionRepo = session.NewPostgresRepo(db)
	} else {
		sessionRepo = session.NewRedisRepo(rdb)
	}

	//-------------------------------------------------------
	// 2. Notification hub (must start before anything matches)
	//-------------------------------------------------------
	hub := ws.NewHub()
	go hub.Run()

	//-------------------------------------------------------
	// 3. Matchmaking core
	//-------------------------------------------------------
	clk := clock.Real()
	locks := lockreg.New(cfg.Matchmaking.LockTTL, clk)
	q := queue.NewManager(cfg.Matchmaking, clk)
	sessions := session.NewManager(sessionRepo, cfg.Matchmaking, clk, ev)
	profiles := profile.NewRedisProvider(rdb)
	bots := recovery.NewStaticBotRoster(time.Now().UnixNano())
	orch := recovery.NewOrchestrator(locks, sessions, bots, cfg.Matchmaking, clk, ev)

	svc := matchmaker.NewService(cfg.Matchmaking, locks, q, sessions, profiles, orch, hub, clk, ev)
	go svc.Run(ctx)

	// Heartbeats can also arrive over the socket.
	hub.OnIncoming = func(msg ws.IncomingMessage) {
		if msg.Event != "heartbeat" {
			return
		}
		var p ws.HeartbeatPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil || p.SessionID == "" {
			return
		}
		go func() {
			_, _ = svc.SendHeartbeat(ctx, p.SessionID, msg.From)
		}()
	}

	//-------------------------------------------------------
	// 4. Sweeper
	//-------------------------------------------------------
	sw := sweeper.New(cfg.Matchmaking, locks, q, sessions, svc.HandleStaleEntry, clk, ev)
	go sw.Run(ctx)

	//-------------------------------------------------------
	// 5. HTTP surface
	//-------------------------------------------------------
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", ws.ServeWS(hub))

	mh := matchmaker.NewHandler(svc)
	r.POST("/match/join", mh.Join)
	r.POST("/match/cancel", mh.Cancel)
	r.GET("/match/stats", mh.Stats)
	r.POST("/session/heartbeat", mh.Heartbeat)
	r.POST("/session/leave", mh.Leave)

	logger.Info("server running", "port", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}
