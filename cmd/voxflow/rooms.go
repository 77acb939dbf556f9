package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/voxflow/voxflow/realtime"
)

// runToken creates a room, dispatches the agent into it, and prints a join
// token for the caller.
func runToken(args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	roomName := fs.String("room", "", "Room name")
	identity := fs.String("identity", "user", "Participant identity")
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	name := *roomName
	if name == "" {
		name = "voxflow-" + uuid.NewString()[:8]
	}

	client, err := realtime.NewRoomClient(cfg.LiveKit.URL, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret,
		&realtime.RoomClientOptions{Logger: logger})
	if err != nil {
		logger.Fatal("failed to create room client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	room, err := client.CreateRoom(ctx, name)
	if err != nil {
		logger.Fatal("failed to create room", zap.Error(err))
	}

	dispatch, err := client.CreateDispatch(ctx, room.Name, cfg.LiveKit.AgentName)
	if err != nil {
		logger.Fatal("failed to dispatch agent", zap.Error(err))
	}
	logger.Info("agent dispatched",
		zap.String("room", room.Name),
		zap.String("dispatch_id", dispatch.ID))

	token, err := realtime.NewAccessToken(cfg.LiveKit.APIKey, cfg.LiveKit.APISecret).
		SetIdentity(*identity).
		SetGrant(realtime.JoinGrant(room.Name)).
		JWT()
	if err != nil {
		logger.Fatal("failed to mint token", zap.Error(err))
	}

	fmt.Printf("Room:  %s\n", room.Name)
	fmt.Printf("Token: %s\n", token)
	fmt.Printf("\nJoin at your playground with the server URL %s and the token above.\n", cfg.LiveKit.URL)
	fmt.Println("The token is valid for one hour.")
}

// runDispatch assigns the configured agent to an existing room.
func runDispatch(args []string) {
	fs := flag.NewFlagSet("dispatch", flag.ExitOnError)
	roomName := fs.String("room", "", "Room name")
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	if *roomName == "" {
		fmt.Fprintln(os.Stderr, "dispatch requires --room")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	client, err := realtime.NewRoomClient(cfg.LiveKit.URL, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret,
		&realtime.RoomClientOptions{Logger: logger})
	if err != nil {
		logger.Fatal("failed to create room client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dispatch, err := client.CreateDispatch(ctx, *roomName, cfg.LiveKit.AgentName)
	if err != nil {
		logger.Fatal("failed to dispatch agent", zap.Error(err))
	}

	fmt.Printf("Dispatched %s into %s (dispatch id %s)\n",
		cfg.LiveKit.AgentName, *roomName, dispatch.ID)
}

// runCleanup deletes every agent dispatch and room on the backend.
func runCleanup(args []string) {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	client, err := realtime.NewRoomClient(cfg.LiveKit.URL, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret,
		&realtime.RoomClientOptions{Logger: logger})
	if err != nil {
		logger.Fatal("failed to create room client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	rooms, err := client.ListRooms(ctx)
	if err != nil {
		logger.Fatal("failed to list rooms", zap.Error(err))
	}

	if len(rooms) == 0 {
		fmt.Println("No rooms to clean up.")
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, room := range rooms {
		room := room
		g.Go(func() error {
			dispatches, err := client.ListDispatches(gctx, room.Name)
			if err != nil {
				return fmt.Errorf("list dispatches for %s: %w", room.Name, err)
			}
			for _, d := range dispatches {
				if err := client.DeleteDispatch(gctx, room.Name, d.ID); err != nil {
					return fmt.Errorf("delete dispatch %s: %w", d.ID, err)
				}
			}
			if err := client.DeleteRoom(gctx, room.Name); err != nil {
				return fmt.Errorf("delete room %s: %w", room.Name, err)
			}
			logger.Info("room deleted", zap.String("room", room.Name))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Fatal("cleanup failed", zap.Error(err))
	}

	fmt.Printf("Deleted %d room(s).\n", len(rooms))
}
