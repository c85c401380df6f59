package commands

import (
	"io"
	"strings"
	"time"

	"github.com/ChainSafe/log15"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	dbm "github.com/tendermint/tm-db"

	"github.com/ComposableFi/light-clients/internal/store"
	"github.com/ComposableFi/light-clients/modules/core/02-client/keeper"
	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	"github.com/ComposableFi/light-clients/modules/core/exported"
	mock "github.com/ComposableFi/light-clients/modules/light-clients/00-mock"
	grandpatypes "github.com/ComposableFi/light-clients/modules/light-clients/10-grandpa/types"
	beefytypes "github.com/ComposableFi/light-clients/modules/light-clients/11-beefy/types"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
)

// app is the state shared by the subcommands of a single invocation.
type app struct {
	viper  *viper.Viper
	config Config
	db     dbm.DB
	logger log15.Logger
	keeper *keeper.Keeper
}

// NewCodec returns a codec with every client type lcctl can manage registered.
func NewCodec() *clienttypes.Codec {
	cdc := clienttypes.NewCodec()
	grandpatypes.RegisterInterfaces(cdc)
	beefytypes.RegisterInterfaces(cdc)
	mock.RegisterInterfaces(cdc)
	return cdc
}

// NewRootCommand constructs the root command of lcctl.
func NewRootCommand() *cobra.Command {
	a := &app{viper: viper.New()}
	defaults := DefaultConfig()

	cmd := &cobra.Command{
		Use:           "lcctl",
		Short:         "Operate GRANDPA and BEEFY light clients of Substrate parachains",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.viper.BindPFlags(cmd.Flags()); err != nil {
				return err
			}

			conf, err := loadConfig(a.viper)
			if err != nil {
				return err
			}
			a.config = conf

			// help and completion run without a database
			if cmd.Name() == initCommandName || cmd.RunE == nil {
				return nil
			}
			return a.open(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().String(flagHome, defaults.Home, "directory for config and data")
	cmd.PersistentFlags().String(flagDBBackend, defaults.DBBackend, "database backend: goleveldb | memdb")
	cmd.PersistentFlags().String(flagLogLevel, defaults.LogLevel, "log level")
	cmd.PersistentFlags().String(flagLogFormat, defaults.LogFormat, "log format: terminal | logfmt | json")
	cmd.PersistentFlags().Duration(flagExpectedTimePerBlock, defaults.ExpectedTimePerBlock, "expected block time of the host, used to derive block delays")
	cmd.PersistentFlags().Uint64(flagHostHeight, defaults.HostHeight, "height of the host chain recorded with each update")
	cmd.PersistentFlags().String(flagHostTime, "", "RFC3339 time of the host chain, defaults to the current time")

	a.viper.SetEnvPrefix(envPrefix)
	a.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.viper.AutomaticEnv()

	cmd.AddCommand(
		newInitCommand(a),
		newCreateClientCommand(a),
		newUpdateClientCommand(a),
		newStatusCommand(a),
		newClientStateCommand(a),
		newConsensusStateCommand(a),
		newVerifyMembershipCommand(a),
		newVerifyNonMembershipCommand(a),
	)
	for _, sub := range cmd.Commands() {
		sub.RunE = a.closing(sub.RunE)
	}
	return cmd
}

// closing wraps run so that the database is closed once the command returns, whether
// it fails or not.
func (a *app) closing(run func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if a.db == nil {
				return
			}
			if closeErr := a.db.Close(); err == nil {
				err = closeErr
			}
			a.db = nil
		}()
		return run(cmd, args)
	}
}

// open opens the client database and builds the keeper over it.
func (a *app) open(logOutput io.Writer) error {
	lvl, err := log15.LvlFromString(a.config.LogLevel)
	if err != nil {
		return err
	}
	format, err := logFormat(a.config.LogFormat)
	if err != nil {
		return err
	}

	a.logger = log15.New()
	a.logger.SetHandler(log15.LvlFilterHandler(lvl, log15.StreamHandler(logOutput, format)))

	a.db, err = store.NewDB(dbName, a.config.DBBackend, a.config.Home)
	if err != nil {
		return err
	}

	a.keeper = keeper.NewKeeper(a.db, NewCodec(), a.logger)
	a.keeper.SetExpectedTimePerBlock(a.config.ExpectedTimePerBlock)
	return nil
}

// context returns the host context commands run in.
func (a *app) context() exported.Context {
	now := time.Now().UTC()
	if a.config.HostTime != "" {
		// validated by Config.ValidateBasic
		now, _ = time.Parse(time.RFC3339Nano, a.config.HostTime)
	}
	return exported.NewContext(substrate.DefaultHostFunctions{}, now, clienttypes.NewHeight(0, a.config.HostHeight))
}
