package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexcodex/swarmcrew/config"
	"github.com/lexcodex/swarmcrew/engine"
	"github.com/lexcodex/swarmcrew/transport"
)

func newNodeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "node <crew-file> <node-id>",
		Short: "Serve one node's agents over the transport for remote dispatch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := config.LoadCrewFile(args[0])
			if err != nil {
				return err
			}
			nodeID := args[1]

			agentNames := agentNamesForNode(file, nodeID)
			table := engine.NewAgentTable()
			for _, name := range agentNames {
				agent, err := file.BuildAgentByName(name)
				if err != nil {
					return err
				}
				table.SetForTesting(agent)
			}
			node := engine.NewNode(nodeID, table)

			server := transport.NewServer(node, nil)
			fmt.Fprintf(cmd.OutOrStdout(), "serving node %s on %s\n", nodeID, addr)
			return server.ListenAndServe(context.Background(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envOrDefault("CREWCTL_NODE_ADDR", fmt.Sprintf(":%d", transport.DefaultPort)), "Address to listen on")
	return cmd
}

// agentNamesForNode resolves which agents nodeID should host: the node
// entry's explicit list if the crew file declares one, otherwise every
// agent in the file (a single-node deployment).
func agentNamesForNode(file *config.CrewFile, nodeID string) []string {
	for _, n := range file.Nodes {
		if n.ID == nodeID && len(n.Agents) > 0 {
			return n.Agents
		}
	}
	names := make([]string, 0, len(file.Agents))
	for _, a := range file.Agents {
		names = append(names, a.Name)
	}
	return names
}
