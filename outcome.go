package folio

import "fmt"

// Outcome classifies the result of a transactional submission.
type Outcome int

const (
	// OK means the unit of work committed.
	OK Outcome = iota
	// Rejected means the input was refused and nothing was written.
	Rejected
	// Fault means an unexpected failure rolled the unit back.
	Fault
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case Rejected:
		return "rejected"
	case Fault:
		return "fault"
	default:
		panic(fmt.Sprintf("unknown outcome %d", int(o)))
	}
}

// Receipt is the result of submitting one transaction.
type Receipt struct {
	Outcome Outcome
	// Reason is the human readable cause of a rejection or fault.
	Reason string
	Err    error

	Transaction Transaction
	Mirror      *Transaction
	Position    Position
	Cash        *Position
	// Watched is set when the submission closed the position and enrolled it in the watchlist.
	Watched bool
}

// receipt builds a non-OK receipt from err.
func receipt(err error) Receipt {
	if IsRejection(err) {
		return Receipt{Outcome: Rejected, Reason: err.Error(), Err: err}
	}
	return Receipt{Outcome: Fault, Reason: err.Error(), Err: err}
}
