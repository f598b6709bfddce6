package iso7816

import (
	"fmt"
	"strings"
)

// TRANSACTION:
// One Command APDU sent by the terminal followed by one Response APDU
// returned by the card (ISO 7816-3).
//
// TRACE:
// The chronological sequence of Transactions performed for one logical
// request. A single read may need two physical exchanges: the card answers
// "61 XX" and the terminal fetches the XX bytes with GET RESPONSE. The Trace
// keeps both, and its outcome is the outcome of the last one.

// Transaction represents a completed Command-Response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess checks if the transaction ended with a successful status.
// It returns false if the response is missing.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// Trace is a sequence of transactions (Command-Response pairs).
type Trace []Transaction

// Last returns the final transaction of the trace.
// Returns nil if the trace is empty.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess checks if the FINAL transaction in the trace was successful.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

// Status returns the effective status word of the trace.
func (t Trace) Status() StatusWord {
	last := t.Last()
	if last == nil || last.Response == nil {
		return 0
	}
	return last.Response.Status
}

// Payload returns the effective response data of the trace.
func (t Trace) Payload() []byte {
	last := t.Last()
	if last == nil || last.Response == nil {
		return nil
	}
	return last.Response.Data
}

// Err returns a *StatusError when the effective status is not 9000, nil otherwise.
// A trailing 61XX also counts as a failure: the bytes were never fetched.
func (t Trace) Err() error {
	if len(t) == 0 {
		return fmt.Errorf("empty trace")
	}
	if sw := t.Status(); sw != SW_NO_ERROR {
		return &StatusError{Command: t[0].Command, Status: sw}
	}
	return nil
}

// Describe renders one line per physical exchange.
func (t Trace) Describe() string {
	var sb strings.Builder
	for i, tx := range t {
		raw, _ := tx.Command.Bytes()
		sb.WriteString(fmt.Sprintf("[%d] >> %X\n", i+1, raw))
		if tx.Response == nil {
			sb.WriteString("    << (no response)\n")
			continue
		}
		sb.WriteString(fmt.Sprintf("    << %X | %s\n", tx.Response.Data, tx.Response.Status.Verbose()))
	}
	return strings.TrimRight(sb.String(), "\n")
}
