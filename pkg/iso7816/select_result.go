package iso7816

import (
	"fmt"
	"strings"

	"github.com/gregLibert/thai-id-reader/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// SELECT RESULT ANALYSIS:
// SelectResult wraps the trace of a SELECT (and its GET RESPONSE, if any)
// and exposes the File Control Information returned by the card.

// FileControlInfo holds the usual entries of an FCI template (tag 6F).
type FileControlInfo struct {
	DFName           []byte       `tlv:"84" fmt:"ascii"`
	ApplicationLabel []byte       `tlv:"50" fmt:"ascii"`
	Proprietary      []byte       `tlv:"A5"`
	Unknown          []bertlv.TLV `tlv:",unknown"`
}

// SelectResult represents the outcome of a SELECT command execution.
type SelectResult struct {
	Trace
}

// NewSelectResult validates that the trace starts with a SELECT command.
func NewSelectResult(t Trace) (*SelectResult, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("cannot create result from empty trace")
	}

	if t[0].Command.Instruction.Raw != INS_SELECT {
		return nil, fmt.Errorf("trace must start with SELECT command (got %02X)", byte(t[0].Command.Instruction.Raw))
	}

	return &SelectResult{Trace: t}, nil
}

// FCI parses the final response payload. A bare list of tags without the 6F
// wrapper is accepted too.
func (r *SelectResult) FCI() (*FileControlInfo, error) {
	if !r.IsSuccess() {
		return nil, fmt.Errorf("selection failed, cannot parse FCI")
	}

	data := r.Payload()
	if len(data) == 0 {
		return nil, fmt.Errorf("no response data found")
	}

	packets, err := tlv.Decode(data)
	if err != nil {
		return nil, err
	}
	if len(packets) == 1 && strings.EqualFold(packets[0].Tag, "6F") {
		packets = packets[0].TLVs
	}

	var fci FileControlInfo
	if err := tlv.UnmarshalFromPackets(packets, &fci); err != nil {
		return nil, err
	}
	return &fci, nil
}

// Describe generates a human-readable report of the selection process.
func (r *SelectResult) Describe() string {
	var sb strings.Builder

	sb.WriteString("=== SELECT COMMAND REPORT ===\n")

	tx0 := r.Trace[0]
	cmd := tx0.Command

	sb.WriteString("[1] Command: SELECT FILE\n")
	sb.WriteString(fmt.Sprintf("    + Method:  %02X -> %s\n", cmd.P1, SelectionMethod(cmd.P1)))
	sb.WriteString(fmt.Sprintf("    + Control: %02X -> %s | %s\n", cmd.P2,
		FileOccurrence(cmd.P2&0x03), SelectionControl(cmd.P2&0x0C)))

	if len(cmd.Data) > 0 {
		sb.WriteString(fmt.Sprintf("    + Data:    %X (%q)\n", cmd.Data, tlv.MakeSafeASCII(cmd.Data)))
	}
	sb.WriteString(fmt.Sprintf("    + Result:  %s\n", tx0.Response.Status.Verbose()))

	if len(r.Trace) > 1 {
		last := r.Last()
		sb.WriteString(fmt.Sprintf("[2] Protocol: %s\n", last.Command.Instruction.Raw))
		sb.WriteString(fmt.Sprintf("    + Result:  %s\n", last.Response.Status.Verbose()))
		if len(last.Response.Data) > 0 {
			sb.WriteString(fmt.Sprintf("    + Payload: %d bytes received\n", len(last.Response.Data)))
		}
	}

	sb.WriteString("[=] FINAL OUTCOME:\n")
	if !r.IsSuccess() {
		sb.WriteString("    - Applet not selected\n")
		return sb.String()
	}

	fci, err := r.FCI()
	if err != nil {
		if len(r.Payload()) > 0 {
			sb.WriteString(fmt.Sprintf("    - FCI Parsing Failed: %v\n", err))
			sb.WriteString(fmt.Sprintf("    - Dump: %X\n", r.Payload()))
		} else {
			sb.WriteString("    - Selected, no FCI returned\n")
		}
		return sb.String()
	}

	for _, line := range tlv.Fields("FCI", fci) {
		sb.WriteString(line + "\n")
	}
	return sb.String()
}
