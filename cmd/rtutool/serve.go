package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/TheCount/go-modbus-rtu/modbus"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Answer requests from the configured register store",
		Long: `Serve opens the configured serial line and answers requests addressed
to the configured unit from a register store built from the "registers"
section of the configuration file. All values start at zero.

Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(flags)
		},
	}
}

func runServe(flags *rootFlags) error {
	cfg, rtu, err := openLine(flags)
	if err != nil {
		return err
	}
	defer rtu.Close()

	ranges, err := cfg.DataRanges()
	if err != nil {
		return err
	}
	regs, err := modbus.NewRegisters(ranges...)
	if err != nil {
		return fmt.Errorf("register store: %w", err)
	}
	srv := modbus.NewServer()
	unit := modbus.UnitID(cfg.Unit)
	for _, u := range []modbus.UnitID{unit, modbus.UnitBroadcast} {
		if err := regs.AddToServer(srv, u); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	timing := rtu.Timing()
	glog.Infof("serving unit %d on %s (char %s, inter-frame %s, direction %s)",
		unit, rtu.Address(), timing.CharTime, timing.InterFrame, timing.Direction)
	err = rtu.Serve(ctx, srv, srv.Units())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
