package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

const initCommandName = "init"

func newInitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   initCommandName,
		Short: "Write the current settings to the config file of the home directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := writeConfig(a.config)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newCreateClientCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create-client [client-state] [consensus-state]",
		Short: "Create a light client from an encoded client state and consensus state",
		Long: `Create a light client from an encoded client state and consensus state.
Both arguments are hex encoded, or name a file holding the hex encoding when prefixed with @.
The identifier of the new client is printed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cdc := a.keeper.Codec()

			bz, err := readBytesArg(args[0])
			if err != nil {
				return err
			}
			clientState, err := cdc.UnmarshalClientState(bz)
			if err != nil {
				return err
			}

			bz, err = readBytesArg(args[1])
			if err != nil {
				return err
			}
			consensusState, err := cdc.UnmarshalConsensusState(bz)
			if err != nil {
				return err
			}

			clientID, err := a.keeper.CreateClient(a.context(), clientState, consensusState)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), clientID)
			return nil
		},
	}
}

func newUpdateClientCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update-client [client-id] [client-message]",
		Short: "Update a light client with an encoded header or misbehaviour",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bz, err := readBytesArg(args[1])
			if err != nil {
				return err
			}
			clientMsg, err := a.keeper.Codec().UnmarshalClientMessage(bz)
			if err != nil {
				return err
			}

			if err := a.keeper.UpdateClient(a.context(), args[0], clientMsg); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), a.keeper.GetClientStatus(a.context(), args[0]))
			return nil
		},
	}
}

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status [client-id]",
		Short: "Print the status of a light client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.keeper.GetClientStatus(a.context(), args[0]))
			return nil
		},
	}
}
