package commands

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

type clientStateOutput struct {
	ClientID     string `yaml:"client_id"`
	ClientType   string `yaml:"client_type"`
	LatestHeight string `yaml:"latest_height"`
	Status       string `yaml:"status"`
	ClientState  string `yaml:"client_state"`
}

type consensusStateOutput struct {
	Height         string `yaml:"height"`
	Timestamp      uint64 `yaml:"timestamp"`
	Root           string `yaml:"root"`
	ConsensusState string `yaml:"consensus_state"`
}

func newClientStateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "client-state [client-id]",
		Short: "Print the client state of a light client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID := args[0]
			clientState, found := a.keeper.GetClientState(clientID)
			if !found {
				return errorsmod.Wrap(clienttypes.ErrClientNotFound, clientID)
			}

			bz, err := a.keeper.Codec().MarshalClientState(clientState)
			if err != nil {
				return err
			}

			return printYAML(cmd, clientStateOutput{
				ClientID:     clientID,
				ClientType:   clientState.ClientType(),
				LatestHeight: clientState.GetLatestHeight().String(),
				Status:       a.keeper.GetClientStatus(a.context(), clientID).String(),
				ClientState:  hexutil.Encode(bz),
			})
		},
	}
}

func newConsensusStateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "consensus-state [client-id] [height]",
		Short: "Print a consensus state of a light client, the latest one when no height is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID := args[0]
			clientState, found := a.keeper.GetClientState(clientID)
			if !found {
				return errorsmod.Wrap(clienttypes.ErrClientNotFound, clientID)
			}

			var height exported.Height = clientState.GetLatestHeight()
			if len(args) == 2 {
				parsed, err := clienttypes.ParseHeight(args[1])
				if err != nil {
					return err
				}
				height = parsed
			}

			consensusState, found := a.keeper.GetClientConsensusState(clientID, height)
			if !found {
				return errorsmod.Wrapf(clienttypes.ErrConsensusStateNotFound, "client (%s) height (%s)", clientID, height)
			}

			bz, err := a.keeper.Codec().MarshalConsensusState(consensusState)
			if err != nil {
				return err
			}

			return printYAML(cmd, consensusStateOutput{
				Height:         height.String(),
				Timestamp:      consensusState.GetTimestamp(),
				Root:           hexutil.Encode(consensusState.GetRoot()),
				ConsensusState: hexutil.Encode(bz),
			})
		},
	}
}

func printYAML(cmd *cobra.Command, out interface{}) error {
	bz, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), string(bz))
	return err
}
