package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clinistack/vetcore"
)

var proofCmd = &cobra.Command{
	Use:   "proof",
	Short: "Generate or verify an inclusion proof",
}

// proofFile is the on-disk shape proof generate/verify exchange: the
// leaf hash and root to check against, plus the audit path itself.
type proofFile struct {
	LeafHash string        `json:"leaf_hash"`
	Root     string        `json:"root"`
	Proof    vetcore.Proof `json:"proof"`
}

var proofGenerateSeqNo uint64

var proofGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an inclusion proof for a committed leaf",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := openCore()
		if err != nil {
			fail(err)
			return nil
		}
		defer core.Close()

		ctx := context.Background()
		proof, err := core.GenerateProof(ctx, proofGenerateSeqNo)
		if err != nil {
			fail(err)
			return nil
		}
		leafHash, err := core.LeafHash(ctx, proofGenerateSeqNo)
		if err != nil {
			fail(err)
			return nil
		}
		root, _, err := core.Root(ctx)
		if err != nil {
			fail(err)
			return nil
		}

		out := proofFile{
			LeafHash: hex.EncodeToString(leafHash[:]),
			Root:     hex.EncodeToString(root[:]),
			Proof:    proof,
		}
		outputJSON(out)
		return nil
	},
}

var proofVerifyFile string

var proofVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify an inclusion proof produced by 'proof generate'",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(proofVerifyFile)
		if err != nil {
			fail(fmt.Errorf("read proof file: %w", err))
			return nil
		}

		var pf proofFile
		if err := json.Unmarshal(data, &pf); err != nil {
			fail(fmt.Errorf("parse proof file: %w", err))
			return nil
		}

		leafHash, err := decodeHash(pf.LeafHash)
		if err != nil {
			fail(err)
			return nil
		}
		root, err := decodeHash(pf.Root)
		if err != nil {
			fail(err)
			return nil
		}

		ok := vetcore.VerifyProof(leafHash, pf.Proof, root)

		if jsonOutput {
			outputJSON(map[string]bool{"valid": ok})
			return nil
		}
		if ok {
			fmt.Println("valid")
		} else {
			fmt.Println("INVALID")
			os.Exit(1)
		}
		return nil
	},
}

func decodeHash(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(b) != 32 {
		return out, fmt.Errorf("hash %q is %d bytes, want 32", s, len(b))
	}
	copy(out[:], b)
	return out, nil
}

func init() {
	proofGenerateCmd.Flags().Uint64Var(&proofGenerateSeqNo, "seq-no", 0, "sequence number of the leaf to prove")

	proofVerifyCmd.Flags().StringVar(&proofVerifyFile, "proof-file", "", "path to a JSON file produced by 'proof generate' (required)")
	_ = proofVerifyCmd.MarkFlagRequired("proof-file")

	proofCmd.AddCommand(proofGenerateCmd, proofVerifyCmd)
	rootCmd.AddCommand(proofCmd)
}
