package modbus

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/TheCount/go-multilocker/multilocker"
)

// allDataFunctions is the list of all function codes served by Registers.
var allDataFunctions = [...]FunctionCode{
	FunctionReadCoils,
	FunctionReadDiscreteInputs,
	FunctionReadHoldingRegisters,
	FunctionReadInputRegisters,
	FunctionWriteSingleCoil,
	FunctionWriteSingleRegister,
	FunctionWriteMultipleCoils,
	FunctionWriteMultipleRegisters,
}

// DataType enumerates data types for the Modbus data model.
type DataType uint8

// Data types
const (
	DataTypeDiscreteInputs DataType = iota
	DataTypeCoils
	DataTypeInputRegisters
	DataTypeHoldingRegisters
	numDataTypes = 4
)

// dataTypeNames are the names of the data types.
var dataTypeNames = [numDataTypes]string{
	"discrete inputs",
	"coils",
	"input registers",
	"holding registers",
}

// String implements fmt.Stringer.
func (dt DataType) String() string {
	if int(dt) < len(dataTypeNames) {
		return dataTypeNames[dt]
	}
	return fmt.Sprintf("unknown data type %d", dt)
}

// ParseDataType parses the short names "discrete", "coils", "input", and
// "holding".
func ParseDataType(s string) (DataType, error) {
	switch s {
	case "discrete", "discrete_inputs", "ists":
		return DataTypeDiscreteInputs, nil
	case "coils", "coil":
		return DataTypeCoils, nil
	case "input", "input_registers", "iregs":
		return DataTypeInputRegisters, nil
	case "holding", "holding_registers", "hregs":
		return DataTypeHoldingRegisters, nil
	}
	return 0, fmt.Errorf("unknown data type %q", s)
}

// IsBits reports whether values of this type are single bits.
func (dt DataType) IsBits() bool {
	return dt == DataTypeDiscreteInputs || dt == DataTypeCoils
}

// DataRange defines a continuous stretch of addresses of one data type.
type DataRange struct {
	// Type is the type of data for this range.
	Type DataType

	// StartAddress is the address of the first data element in the range
	// (indexed from zero).
	StartAddress uint16

	// Len is the length of the data range. Must be positive.
	Len uint16
}

// Validate checks whether this data range is valid.
func (dr DataRange) Validate() error {
	if dr.Type >= numDataTypes {
		return errors.New("unknown data type")
	}
	if dr.Len == 0 {
		return errors.New("zero length range")
	}
	if int(dr.StartAddress)+int(dr.Len) > 1<<16 {
		return errors.New("length exceeds address space")
	}
	return nil
}

// dataBlock is the memory of one data range. Bit types store 0 or 1 per
// element.
type dataBlock struct {
	// mx synchronises access to this data block.
	mx sync.RWMutex

	// start is the address of values[0].
	start int

	// values holds one element per address.
	values []uint16
}

// end returns the address after the last element of this block.
func (b *dataBlock) end() int {
	return b.start + len(b.values)
}

// Registers is a register store serving the data access functions. Each
// data range has its own block of memory; reads and writes spanning several
// adjacent ranges lock all of them atomically.
type Registers struct {
	// blocks are the data blocks per data type, sorted by start address.
	blocks [numDataTypes][]*dataBlock
}

// NewRegisters creates a register store with the given ranges, all values
// zero. Ranges of the same type must not overlap.
func NewRegisters(ranges ...DataRange) (*Registers, error) {
	result := &Registers{}
	for i, dr := range ranges {
		if err := dr.Validate(); err != nil {
			return nil, fmt.Errorf("data range %d invalid: %w", i, err)
		}
		result.blocks[dr.Type] = append(result.blocks[dr.Type], &dataBlock{
			start:  int(dr.StartAddress),
			values: make([]uint16, dr.Len),
		})
	}
	for dt := DataType(0); dt != numDataTypes; dt++ {
		blocks := result.blocks[dt]
		sort.Slice(blocks, func(j, k int) bool {
			return blocks[j].start < blocks[k].start
		})
		for j := 1; j < len(blocks); j++ {
			if blocks[j].start < blocks[j-1].end() {
				return nil, fmt.Errorf(
					"data range for %s starting at %d overlaps with previous range",
					dt, blocks[j].start)
			}
		}
	}
	return result, nil
}

// neededBlocks returns the blocks covering n addresses of type dt from start.
// The addresses must be covered without gaps.
func (rs *Registers) neededBlocks(dt DataType, start, n int) ([]*dataBlock, error) {
	if dt >= numDataTypes || n <= 0 {
		return nil, ExceptionIllegalDataAddress
	}
	blocks := rs.blocks[dt]
	idx := sort.Search(len(blocks), func(i int) bool {
		return blocks[i].end() > start
	})
	var result []*dataBlock
	next := start
	for ; idx < len(blocks) && next < start+n; idx++ {
		if blocks[idx].start > next {
			return nil, ExceptionIllegalDataAddress
		}
		result = append(result, blocks[idx])
		next = blocks[idx].end()
	}
	if next < start+n {
		return nil, ExceptionIllegalDataAddress
	}
	return result, nil
}

// readLocker returns a locker which atomically read-locks all blocks.
func readLocker(blocks []*dataBlock) sync.Locker {
	lockers := make([]sync.Locker, len(blocks))
	for i, b := range blocks {
		lockers[i] = b.mx.RLocker()
	}
	return multilocker.New(lockers...)
}

// writeLocker returns a locker which atomically write-locks all blocks.
func writeLocker(blocks []*dataBlock) sync.Locker {
	lockers := make([]sync.Locker, len(blocks))
	for i, b := range blocks {
		lockers[i] = &b.mx
	}
	return multilocker.New(lockers...)
}

// Get returns n values of type dt starting at addr. Bit types yield 0 or 1.
func (rs *Registers) Get(dt DataType, addr uint16, n int) ([]uint16, error) {
	start := int(addr)
	blocks, err := rs.neededBlocks(dt, start, n)
	if err != nil {
		return nil, err
	}
	ml := readLocker(blocks)
	ml.Lock()
	defer ml.Unlock()
	result := make([]uint16, 0, n)
	for _, b := range blocks {
		from := start + len(result) - b.start
		to := len(b.values)
		if rest := n - len(result); to-from > rest {
			to = from + rest
		}
		result = append(result, b.values[from:to]...)
	}
	return result, nil
}

// Set writes values of type dt starting at addr. For bit types, any non-zero
// value is stored as 1. Set may write read-only types; the embedding program
// uses it to publish inputs.
func (rs *Registers) Set(dt DataType, addr uint16, values ...uint16) error {
	start := int(addr)
	blocks, err := rs.neededBlocks(dt, start, len(values))
	if err != nil {
		return err
	}
	ml := writeLocker(blocks)
	ml.Lock()
	defer ml.Unlock()
	written := 0
	for _, b := range blocks {
		from := start + written - b.start
		for i := from; i < len(b.values) && written < len(values); i++ {
			v := values[written]
			if dt.IsBits() && v != 0 {
				v = 1
			}
			b.values[i] = v
			written++
		}
	}
	return nil
}

// AddToServer adds this register store to srv for the given unit and all
// data access function codes.
func (rs *Registers) AddToServer(srv *Server, unit UnitID) error {
	if srv == nil {
		return errors.New("nil server")
	}
	return srv.SetFunctionHandler(rs.FunctionHandler, unit, allDataFunctions[:]...)
}

// FunctionHandler is the Modbus function handler for these registers.
func (rs *Registers) FunctionHandler(
	ctx context.Context, req *Request, srv *Server,
) ([]byte, error) {
	fc := req.Function()
	addr, qty := req.RegisterAddress(), req.Quantity()
	switch fc {
	case FunctionReadCoils, FunctionReadDiscreteInputs,
		FunctionReadHoldingRegisters, FunctionReadInputRegisters:
		values, err := rs.Get(readDataType(fc), addr, int(qty))
		if err != nil {
			return nil, err
		}
		ints := make([]int, len(values))
		for i, v := range values {
			ints[i] = int(v)
		}
		return encodeResponseData(fc, addr, qty, nil, ints, false)
	case FunctionWriteSingleCoil, FunctionWriteMultipleCoils:
		bits := req.Bits()
		values := make([]uint16, len(bits))
		for i, b := range bits {
			if b {
				values[i] = 1
			}
		}
		if err := rs.Set(DataTypeCoils, addr, values...); err != nil {
			return nil, err
		}
		return encodeResponseData(fc, addr, qty, req.Values(), nil, false)
	case FunctionWriteSingleRegister, FunctionWriteMultipleRegisters:
		if err := rs.Set(DataTypeHoldingRegisters, addr, req.Words()...); err != nil {
			return nil, err
		}
		return encodeResponseData(fc, addr, qty, req.Values(), nil, false)
	}
	return nil, ExceptionIllegalFunction
}

// readDataType returns the data type read by the read function fc.
func readDataType(fc FunctionCode) DataType {
	switch fc {
	case FunctionReadCoils:
		return DataTypeCoils
	case FunctionReadDiscreteInputs:
		return DataTypeDiscreteInputs
	case FunctionReadInputRegisters:
		return DataTypeInputRegisters
	}
	return DataTypeHoldingRegisters
}
