package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sniper-duel/internal/api"
	"sniper-duel/internal/arena"
	"sniper-duel/internal/config"
	"sniper-duel/internal/game"
	"sniper-duel/internal/lobby"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎯 ================================")
	log.Println("🎯  SNIPER DUEL - MATCH SERVER")
	log.Println("🎯 ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	gameCfg := appConfig.Game
	serverCfg := appConfig.Server

	log.Printf("🎮 Config: %d TPS, %s rounds, first to %d, %d players per match",
		gameCfg.TickRate, gameCfg.RoundTime, gameCfg.RoundsToWin, serverCfg.MaxPlayers)
	log.Printf("🛡️ Resource limits: %d matches, %d sockets (%d per IP), %.0f msg/s per socket",
		serverCfg.MaxMatches, appConfig.Limits.MaxWSConnections, appConfig.Limits.MaxWSConnectionsPerIP,
		appConfig.Limits.MessagesPerSecond)

	// Map
	var field *arena.Arena
	if serverCfg.ArenaPath != "" {
		a, err := arena.LoadFile(serverCfg.ArenaPath, gameCfg.PlayerRadius)
		if err != nil {
			log.Fatalf("❌ Failed to load arena: %v", err)
		}
		log.Printf("🗺️ Arena %q loaded from %s (%d spawns)", a.Name(), serverCfg.ArenaPath, len(a.Spawns()))
		field = a
	} else {
		a := arena.Default(gameCfg.PlayerRadius)
		log.Printf("🗺️ Arena %q (built-in, %d obstacles)", a.Name(), len(a.Obstacles()))
		field = a
	}

	// Start event log
	eventLog := game.NewEventLog()
	if serverCfg.EventLogPath != "" {
		if err := eventLog.Start(serverCfg.EventLogPath); err != nil {
			log.Printf("⚠️ Event log disabled: %v", err)
		} else {
			log.Printf("📝 Event log: %s", serverCfg.EventLogPath)
		}
	}

	hub := api.NewHub()
	matches := lobby.New(lobby.Options{
		Rules:       gameCfg,
		MaxPlayers:  serverCfg.MaxPlayers,
		MaxMatches:  serverCfg.MaxMatches,
		Map:         field,
		Broadcaster: hub,
		EventLog:    eventLog,
	})

	server := api.NewServer(api.ServerOptions{
		Lobby:          matches,
		Arena:          field,
		Hub:            hub,
		Limits:         appConfig.Limits,
		AllowedOrigins: serverCfg.AllowedOrigins,
	})

	// Start debug server
	debugServer := api.StartDebugServer(appConfig.Observability, func() map[string]interface{} {
		return map[string]interface{}{
			"matches":   matches.Count(),
			"sessions":  hub.ClientCount(),
			"dropped":   hub.Dropped(),
			"eventLog":  eventLog.Stats(),
			"admission": server.AdmissionStats(),
		}
	})

	// Reap matches nobody joined
	reapDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(serverCfg.IdleMatchTTL / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				matches.ReapIdle(serverCfg.IdleMatchTTL)
			case <-reapDone:
				return
			}
		}
	}()

	// Start API server in goroutine
	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		log.Printf("🌐 API server on http://localhost%s", addr)

		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	close(reapDone)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}
	if debugServer != nil {
		debugServer.Shutdown(ctx)
	}

	matches.Shutdown()
	eventLog.Stop()
	log.Println("👋 Goodbye!")
}
