package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/unisync/internal/version"
	"github.com/arthur-debert/unisync/pkg/commands"
	"github.com/arthur-debert/unisync/pkg/display"
	"github.com/arthur-debert/unisync/pkg/logging"
	"github.com/arthur-debert/unisync/pkg/types"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var (
		verbosity  int
		configPath string
	)

	rootCmd := &cobra.Command{
		Use:     "unisync",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging based on verbosity
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// If we get here, no subcommand was provided
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", MsgFlagConfig)

	rootCmd.AddCommand(newStatusCmd(&configPath))
	rootCmd.AddCommand(newSyncCmd(&configPath))
	rootCmd.AddCommand(newVerifyCmd(&configPath))
	rootCmd.AddCommand(newRepairCmd(&configPath))
	rootCmd.AddCommand(newMigrateCmd(&configPath))
	rootCmd.AddCommand(newRollbackCmd(&configPath))
	rootCmd.AddCommand(newWatchCmd(&configPath))
	rootCmd.AddCommand(newConfigCmd(&configPath))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// newSession builds the one engine session a command runs against.
func newSession(configPath *string) (*commands.Session, error) {
	return commands.NewSession(commands.SessionOptions{ConfigPath: *configPath})
}

func newStatusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: MsgStatusShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := commands.Status(s)
			if err != nil {
				return err
			}

			renderer := display.NewTerminalRenderer()
			fmt.Println(renderer.RenderStatus(result))

			if result.Health.Broken > 0 {
				fmt.Println(MsgRepairHint)
			}
			return nil
		},
	}
}

func newSyncCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: MsgSyncShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := commands.Sync(s)
			if err != nil {
				return err
			}

			renderer := display.NewTerminalRenderer()
			fmt.Println(renderer.RenderSyncResult(result))
			return nil
		},
	}
}

func newVerifyCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: MsgVerifyShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			health, err := commands.Verify(s)
			if err != nil {
				return err
			}

			renderer := display.NewTerminalRenderer()
			fmt.Println(renderer.RenderHealth(health))

			if health.Broken > 0 {
				fmt.Println(MsgRepairHint)
			}
			return nil
		},
	}
}

func newRepairCmd(configPath *string) *cobra.Command {
	var adoptStale bool

	cmd := &cobra.Command{
		Use:   "repair",
		Short: MsgRepairShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			health, err := commands.Repair(s, commands.RepairOptions{AdoptStale: adoptStale})
			if err != nil {
				return err
			}

			renderer := display.NewTerminalRenderer()
			fmt.Println(renderer.RenderHealth(health))
			return nil
		},
	}
	cmd.Flags().BoolVar(&adoptStale, "adopt-stale", false, MsgFlagAdoptStale)
	return cmd
}

func newMigrateCmd(configPath *string) *cobra.Command {
	var planOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: MsgMigrateShort,
		Long:  MsgMigrateLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			renderer := display.NewTerminalRenderer()

			plan, err := commands.MigratePlan(s)
			if err != nil {
				return err
			}
			fmt.Println(renderer.RenderPlan(plan))

			if planOnly {
				return nil
			}
			fmt.Println()

			done := make(chan struct{})
			go renderMigrationEvents(s.Engine.Events(), done)

			err = commands.Migrate(cmd.Context(), s)
			close(done)
			if err != nil {
				return err
			}

			fmt.Println("Migration completed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&planOnly, "plan", false, MsgFlagPlan)
	return cmd
}

// renderMigrationEvents prints progress lines until done is closed.
func renderMigrationEvents(events <-chan types.EngineEvent, done <-chan struct{}) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case types.EventMigrationProgress:
				fmt.Printf("  [%d/%d] %s (%.0f%%)\n",
					ev.Migration.StepIndex, ev.Migration.StepCount,
					ev.Migration.Step, ev.Migration.Percent)
			case types.EventMigrationFailed:
				fmt.Printf("  migration failed: %s\n", ev.Message)
			}
		case <-done:
			return
		}
	}
}

func newRollbackCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: MsgRollbackShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := commands.Rollback(cmd.Context(), s); err != nil {
				return err
			}
			fmt.Println("Rollback completed")
			return nil
		},
	}
}

func newWatchCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: MsgWatchShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Println(MsgWatchNotice)
			return s.Engine.Serve(ctx)
		},
	}
}

func newConfigCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: MsgConfigShort,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: MsgConfigInitShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := commands.InitConfig(commands.InitConfigOptions{ConfigPath: *configPath})
			if err != nil {
				return err
			}
			fmt.Printf("Created %s\n", path)
			return nil
		},
	})

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("unisync version %s\n", version.Version)
			fmt.Printf("  commit: %s\n", version.Commit)
			fmt.Printf("  built:  %s\n", version.Date)
		},
	}
}
