package modbus

const (
	// minPDULen is the minimum PDU length, in bytes.
	minPDULen = 1

	// maxPDULen is the maximum PDU length, in bytes.
	maxPDULen = 253

	// minADULen is the shortest capture which can hold a frame: address,
	// function code, and checksum.
	minADULen = 1 + minPDULen + crcLen

	// maxADULen is the longest serial line frame, in bytes.
	maxADULen = 1 + maxPDULen + crcLen

	// minRequestADULen is the shortest capture a responder treats as a
	// request. Every supported request carries at least four data bytes.
	minRequestADULen = 8

	// exceptionADULen is the length of an exception response frame.
	exceptionADULen = 5

	// fixedReplyADULen is the length of a write echo response frame.
	fixedReplyADULen = 8
)

// ADU describes a Modbus application data unit.
type ADU interface {
	// UnitID returns the unit identifier.
	UnitID() UnitID

	// Function returns the function code of the called function.
	Function() FunctionCode

	// Data returns the request data (protocol data unit without function code).
	Data() []byte
}
