package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	commitmenttypes "github.com/ComposableFi/light-clients/modules/core/23-commitment/types"
)

const (
	flagPrefix      = "prefix"
	flagDelayTime   = "delay-time"
	flagDelayBlocks = "delay-blocks"
)

// verifyArgs are the arguments shared by the membership commands.
type verifyArgs struct {
	clientID string
	height   clienttypes.Height
	proof    []byte
	path     commitmenttypes.MerklePath
}

func parseVerifyArgs(cmd *cobra.Command, args []string) (verifyArgs, error) {
	height, err := clienttypes.ParseHeight(args[1])
	if err != nil {
		return verifyArgs{}, err
	}

	proof, err := readBytesArg(args[2])
	if err != nil {
		return verifyArgs{}, err
	}

	prefix, err := cmd.Flags().GetString(flagPrefix)
	if err != nil {
		return verifyArgs{}, err
	}

	path, err := commitmenttypes.ApplyPrefix(commitmenttypes.NewMerklePrefix([]byte(prefix)), commitmenttypes.NewMerklePath(args[3]))
	if err != nil {
		return verifyArgs{}, err
	}

	return verifyArgs{clientID: args[0], height: height, proof: proof, path: path}, nil
}

func delayFlags(cmd *cobra.Command) (timeDelay, blockDelay uint64, err error) {
	delay, err := cmd.Flags().GetDuration(flagDelayTime)
	if err != nil {
		return 0, 0, err
	}
	if delay < 0 {
		return 0, 0, fmt.Errorf("delay time cannot be negative")
	}
	blockDelay, err = cmd.Flags().GetUint64(flagDelayBlocks)
	if err != nil {
		return 0, 0, err
	}
	return uint64(delay), blockDelay, nil
}

func addVerifyFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagPrefix, "ibc/", "counterparty commitment prefix prepended to the path")
	cmd.Flags().Duration(flagDelayTime, 0, "time that must pass after the consensus state was stored")
	cmd.Flags().Uint64(flagDelayBlocks, 0, "host blocks that must pass after the consensus state was stored")
}

func newVerifyMembershipCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify-membership [client-id] [height] [proof] [path] [value]",
		Short: "Verify a state proof of a key value pair against a consensus state of a light client",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			verify, err := parseVerifyArgs(cmd, args)
			if err != nil {
				return err
			}
			value, err := readBytesArg(args[4])
			if err != nil {
				return err
			}
			timeDelay, blockDelay, err := delayFlags(cmd)
			if err != nil {
				return err
			}

			if err := a.keeper.VerifyMembership(
				a.context(), verify.clientID, verify.height, timeDelay, blockDelay, verify.proof, verify.path, value,
			); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "verified")
			return nil
		},
	}
	addVerifyFlags(cmd)
	return cmd
}

func newVerifyNonMembershipCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify-non-membership [client-id] [height] [proof] [path]",
		Short: "Verify a state proof of the absence of a key against a consensus state of a light client",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			verify, err := parseVerifyArgs(cmd, args)
			if err != nil {
				return err
			}
			timeDelay, blockDelay, err := delayFlags(cmd)
			if err != nil {
				return err
			}

			if err := a.keeper.VerifyNonMembership(
				a.context(), verify.clientID, verify.height, timeDelay, blockDelay, verify.proof, verify.path,
			); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "verified")
			return nil
		},
	}
	addVerifyFlags(cmd)
	return cmd
}
