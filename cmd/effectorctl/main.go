package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"effector/internal/storage"
	api "effector/pkg/effector"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRollout(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "snapshot":
		return runSnapshot(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runRollout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "rollout config (json)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "effector.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return usageError("run requires -config")
	}

	cfg, err := loadRolloutConfig(*configPath)
	if err != nil {
		return err
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	agentIDs := make([]int, cfg.Agents)
	for i := range agentIDs {
		agentIDs[i] = i + 1
	}

	session, err := client.OpenSession(ctx, api.SessionConfig{
		RunID:               cfg.RunID,
		Seed:                cfg.Seed,
		ContinuousCount:     cfg.Continuous,
		BranchSizes:         cfg.Branches,
		MemorySize:          cfg.MemorySize,
		MemoryBlocks:        cfg.MemoryBlocks,
		SampleProbabilities: cfg.SampleProbabilities,
		Agents:              agentIDs,
	})
	if err != nil {
		return err
	}

	snapshotEvery := cfg.SnapshotEvery
	if snapshotEvery <= 0 {
		snapshotEvery = 1
	}

	network := newStubNetwork(cfg)
	for step := 0; step < cfg.Steps; step++ {
		outputs := network.forward(len(agentIDs))
		if err := session.Apply(outputs, agentIDs); err != nil {
			return err
		}
		if session.Step()%snapshotEvery == 0 {
			if err := session.Snapshot(ctx); err != nil {
				return err
			}
		}
	}

	fmt.Printf("run=%s steps=%d agents=%d outputs=%v\n",
		session.RunID(), session.Step(), cfg.Agents, session.Decoder().RegisteredOutputs())
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "effector.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx)
	if err != nil {
		return err
	}
	for _, item := range runs {
		fmt.Printf("run=%s seed=%d continuous=%d branches=%v memory=%dx%d created=%s\n",
			item.RunID, item.Seed, item.ContinuousCount, item.BranchSizes,
			item.MemoryBlocks, item.MemorySize, item.CreatedAtUTC)
	}
	return nil
}

func runSnapshot(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	runID := fs.String("run", "", "run id")
	step := fs.Int("step", 0, "snapshot step")
	latest := fs.Bool("latest", false, "show the most recent snapshot")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "effector.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("snapshot requires -run")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	snapshot, err := client.Snapshot(ctx, api.SnapshotRequest{
		RunID:  *runID,
		Step:   *step,
		Latest: *latest,
	})
	if err != nil {
		return err
	}

	fmt.Printf("run=%s step=%d\n", snapshot.RunID, snapshot.Step)
	for _, a := range snapshot.Actions {
		fmt.Printf("agent=%d continuous=%v discrete=%v\n", a.AgentID, a.Continuous, a.Discrete)
	}
	for _, m := range snapshot.Memories {
		fmt.Printf("agent=%d memory=%v\n", m.AgentID, m.Values)
	}
	return nil
}

func newClient(ctx context.Context, storeKind, dbPath string) (*api.Client, error) {
	client, err := api.New(api.Options{StoreKind: storeKind, DBPath: dbPath})
	if err != nil {
		return nil, err
	}
	if err := client.Init(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func usageError(message string) error {
	return fmt.Errorf("%s\nusage: effectorctl <run|runs|snapshot> [flags]", message)
}
