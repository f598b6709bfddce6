/*
Package iso7816 implements the APDU layer used to talk to contact smart cards according to ISO/IEC 7816-3 and 7816-4.

It provides Command and Response structures, Status Word (SW) analysis, a paced Client that resolves transport-level continuations, and human-readable reports of the resulting exchanges.

# Fundamentals

The communication with a smart card is strictly synchronous:
 1. The Host sends a Command APDU (Header + Optional Body).
 2. The Card processes it and returns a Response APDU (Optional Body + Trailer SW1/SW2).

# Status Words

Every response ends with a 2-byte Status Word (SW).
  - 0x9000: Success (OK).
  - 0x61XX: Success, but response data is still available (XX bytes).
  - Other: Warnings and errors. They are returned to the caller untouched.

# Pacing

Some reader/controller combinations drop commands that arrive too quickly after
the previous exchange. The Client waits on a Pacer before every transmission so
the minimum inter-command interval is a named, tunable policy. A zero Pacer
disables the wait, which is what tests against simulated cards use.

# Usage Example

	client := iso7816.NewClient(card, iso7816.WithPacer(iso7816.NewPacer(400*time.Millisecond)))

	cls, _ := iso7816.NewClass(0x00)
	trace, err := client.Send(ctx, iso7816.SelectByAID(cls, aid))
	if err != nil {
	    // Transport fault: the connection is gone.
	    return err
	}

	if !trace.IsSuccess() {
	    log.Printf("select failed: %s", trace.Last().Response.Status.Verbose())
	}
*/
package iso7816
