package engine_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/swarmcrew/engine"
	"github.com/lexcodex/swarmcrew/transport"
)

// This file ports the original system's verification_helper.py: running the
// same crew once with every agent local and once with one agent dispatched
// over the wire, and asserting the two runs agree. It proves the remote
// path is load-bearing rather than silently falling back to local
// execution (SPEC_FULL.md section 7, "supplemented features").

type fixedAgent struct {
	name   string
	prefix string
}

func (a fixedAgent) Name() string { return a.name }

func (a fixedAgent) Run(ctx context.Context, prompt string) (string, error) {
	return a.prefix + prompt, nil
}

func buildCrossCheckCrew(t *testing.T, worker engine.Executor) *engine.Crew {
	t.Helper()
	task, err := engine.NewTask("T", "w", "hello {x}", nil, "out")
	require.NoError(t, err)
	ctx := engine.NewValueContext(map[string]any{"x": "world"})
	return &engine.Crew{
		Name:      "cross-check",
		Tasks:     []*engine.Task{task},
		Context:   ctx,
		Scheduler: engine.NewScheduler([]*engine.Task{task}, []engine.Executor{worker}, ctx, nil, engine.SchedulerConfig{PollInterval: time.Millisecond}),
	}
}

func TestRemoteExecutionMatchesLocalExecution(t *testing.T) {
	localNode := engine.NewNode("local", engine.NewAgentTable(fixedAgent{name: "w", prefix: "R:"}))
	localCrew := buildCrossCheckCrew(t, localNode)
	require.NoError(t, localCrew.Run(context.Background()))
	localResult := localCrew.Results()["out"]

	remoteBackingNode := engine.NewNode("remote", engine.NewAgentTable(fixedAgent{name: "w", prefix: "R:"}))
	server := transport.NewServer(remoteBackingNode, nil)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	actualAddr := lis.Addr().String()
	lis.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serverReady := make(chan struct{})
	go func() {
		close(serverReady)
		_ = server.ListenAndServe(ctx, actualAddr)
	}()
	<-serverReady

	var client *transport.ClientConn
	for attempt := 0; attempt < 20; attempt++ {
		client, err = transport.Dial(context.Background(), actualAddr)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)
	defer client.Close()

	remote := transport.NewRemoteNode("remote", []string{"w"}, client, nil)
	remoteCrew := buildCrossCheckCrew(t, remote)
	require.NoError(t, remoteCrew.Run(context.Background()))
	remoteResult := remoteCrew.Results()["out"]

	assert.Equal(t, localResult, remoteResult, "remote dispatch must agree with local dispatch, not silently skip the wire")
	assert.Equal(t, "R:hello world", remoteResult)
}
