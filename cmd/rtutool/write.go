package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheCount/go-modbus-rtu/modbus"
)

type writeFlags struct {
	unit   uint8
	table  string
	start  uint16
	values []uint
}

func newWriteCmd(root *rootFlags) *cobra.Command {
	flags := &writeFlags{}
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write coils or holding registers of a unit",
		Long: `Write sets coils or holding registers of a unit. A single value is sent
as a single write, several values as a multiple write. Unit 0 broadcasts
the write without waiting for a reply.`,
		Example: `  # Set holding registers 10 and 11 of unit 100
  rtutool write --unit 100 --table holding --start 10 --value 7,8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(root, flags)
		},
	}
	cmd.Flags().Uint8Var(&flags.unit, "unit", 1, "Unit to address (0 broadcasts)")
	cmd.Flags().StringVar(&flags.table, "table", "holding", "Table: coils, holding")
	cmd.Flags().Uint16Var(&flags.start, "start", 0, "First address")
	cmd.Flags().UintSliceVar(&flags.values, "value", nil, "Values to write")
	return cmd
}

func runWrite(root *rootFlags, flags *writeFlags) error {
	if len(flags.values) == 0 {
		return fmt.Errorf("no --value given")
	}
	dt, err := modbus.ParseDataType(flags.table)
	if err != nil {
		return err
	}
	if dt != modbus.DataTypeCoils && dt != modbus.DataTypeHoldingRegisters {
		return fmt.Errorf("%s are read-only", dt)
	}
	words := make([]uint16, len(flags.values))
	for i, v := range flags.values {
		if v > 0xFFFF {
			return fmt.Errorf("value %d out of range", v)
		}
		words[i] = uint16(v)
	}
	_, rtu, err := openLine(root)
	if err != nil {
		return err
	}
	defer rtu.Close()

	client := modbus.NewClient(rtu)
	unit := modbus.UnitID(flags.unit)
	if dt == modbus.DataTypeCoils {
		bits := make([]bool, len(words))
		for i, w := range words {
			bits[i] = w != 0
		}
		if len(bits) == 1 {
			return client.WriteSingleCoil(unit, flags.start, bits[0])
		}
		return client.WriteMultipleCoils(unit, flags.start, bits)
	}
	if len(words) == 1 {
		return client.WriteSingleRegister(unit, flags.start, words[0])
	}
	return client.WriteMultipleRegisters(unit, flags.start, words)
}
