package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TheCount/go-modbus-rtu/modbus"
)

type readFlags struct {
	unit  uint8
	table string
	start uint16
	qty   uint16
}

func newReadCmd(root *rootFlags) *cobra.Command {
	flags := &readFlags{}
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read coils, inputs, or registers from a unit",
		Example: `  # Read 4 holding registers from unit 100, starting at 0
  rtutool read --unit 100 --table holding --start 0 --qty 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(root, flags)
		},
	}
	cmd.Flags().Uint8Var(&flags.unit, "unit", 1, "Unit to address")
	cmd.Flags().StringVar(&flags.table, "table", "holding", "Table: coils, discrete, holding, input")
	cmd.Flags().Uint16Var(&flags.start, "start", 0, "First address")
	cmd.Flags().Uint16Var(&flags.qty, "qty", 1, "Number of values")
	return cmd
}

func runRead(root *rootFlags, flags *readFlags) error {
	dt, err := modbus.ParseDataType(flags.table)
	if err != nil {
		return err
	}
	_, rtu, err := openLine(root)
	if err != nil {
		return err
	}
	defer rtu.Close()

	client := modbus.NewClient(rtu)
	unit := modbus.UnitID(flags.unit)
	var values []string
	switch dt {
	case modbus.DataTypeCoils, modbus.DataTypeDiscreteInputs:
		read := client.ReadCoils
		if dt == modbus.DataTypeDiscreteInputs {
			read = client.ReadDiscreteInputs
		}
		bits, err := read(unit, flags.start, flags.qty)
		if err != nil {
			return err
		}
		for _, b := range bits {
			values = append(values, fmt.Sprint(b))
		}
	default:
		read := client.ReadHoldingRegisters
		if dt == modbus.DataTypeInputRegisters {
			read = client.ReadInputRegisters
		}
		words, err := read(unit, flags.start, flags.qty)
		if err != nil {
			return err
		}
		for _, w := range words {
			values = append(values, fmt.Sprint(w))
		}
	}
	for i, v := range values {
		fmt.Fprintf(os.Stdout, "%s[%d] = %s\n", dt, int(flags.start)+i, v)
	}
	return nil
}
