package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TheCount/go-modbus-rtu/internal/config"
	"github.com/TheCount/go-modbus-rtu/internal/logging"
	"github.com/TheCount/go-modbus-rtu/modbus"
)

// rootFlags are the flags shared by all subcommands.
type rootFlags struct {
	configPath string
}

func main() {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:   "rtutool",
		Short: "Modbus RTU requester and responder on a serial line",
		Long: `rtutool talks Modbus RTU over a single half-duplex serial line.

It can act as responder (serve), answering requests from a register store
defined in the configuration file, or as requester (read, write), polling a
unit on the line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init()
		},
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "rtutool.yaml",
		"Path to the YAML configuration file")
	logging.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newServeCmd(flags))
	rootCmd.AddCommand(newReadCmd(flags))
	rootCmd.AddCommand(newWriteCmd(flags))

	err := rootCmd.Execute()
	logging.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// openLine loads the configuration and opens the serial line it names.
func openLine(flags *rootFlags) (*config.Config, *modbus.RTU, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, nil, err
	}
	rtu, err := modbus.OpenSerial(cfg.Serial.Device, cfg.Options()...)
	if err != nil {
		return nil, nil, err
	}
	return cfg, rtu, nil
}
