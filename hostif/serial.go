package hostif

import (
	"go.bug.st/serial"
)

// OpenSerialConsole opens a serial port that a HostInterface can print to,
// 8N1 at the given baud rate.
func OpenSerialConsole(device string, baudRate int) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	return serial.Open(device, mode)
}
