package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinistack/vetcore"
	"github.com/clinistack/vetcore/internal/config"
)

var (
	syncPeerStorePath string
	syncPeerID        string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push any leaves a peer store is missing, via the Hello/Nodes/Ack exchange",
	Long: `sync drives the three-message protocol against a second local store named
by --peer-store, for demonstration and testing — a networked host supplies
its own vetcore.RemotePeer implementation instead of this in-process pairing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		local, err := openCore()
		if err != nil {
			fail(err)
			return nil
		}
		defer local.Close()

		peerCore, err := vetcore.Open(syncPeerStorePath, config.Default())
		if err != nil {
			fail(fmt.Errorf("open peer store: %w", err))
			return nil
		}
		defer peerCore.Close()

		result, err := local.Sync(context.Background(), syncPeerID, peerCore.AsRemote(), nil)
		if err != nil {
			fail(err)
			return nil
		}

		if jsonOutput {
			outputJSON(result)
			return nil
		}
		fmt.Printf("sent %d nodes; peer now at seq %d, root %x\n", result.SentNodes, result.NewRemoteN, result.NewRemoteRoot)
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncPeerStorePath, "peer-store", "", "path to the peer's store (required)")
	syncCmd.Flags().StringVar(&syncPeerID, "peer-id", "default", "name under which to record this peer's sync watermark")
	_ = syncCmd.MarkFlagRequired("peer-store")

	rootCmd.AddCommand(syncCmd)
}
