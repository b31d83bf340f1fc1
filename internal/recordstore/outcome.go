package recordstore

import "fmt"

// OutcomeKind discriminates the result of an upsert.
type OutcomeKind int

const (
	// Success means the store accepted the record.
	Success OutcomeKind = iota
	// Rejected means the store answered but declined the write.
	Rejected
	// TransportFailure means the request did not complete or the answer was unreadable.
	TransportFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case Rejected:
		return "rejected"
	case TransportFailure:
		return "transport_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the result of Upserter.Upsert.
// Message is set for Rejected (verbatim from the store); Err is set for TransportFailure.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	Err     error
}

func Accepted() Outcome { return Outcome{Kind: Success} }

func Declined(message string) Outcome { return Outcome{Kind: Rejected, Message: message} }

func Failed(err error) Outcome { return Outcome{Kind: TransportFailure, Err: err} }

func (o Outcome) OK() bool { return o.Kind == Success }

func (o Outcome) String() string {
	switch o.Kind {
	case Rejected:
		return fmt.Sprintf("rejected: %s", o.Message)
	case TransportFailure:
		return fmt.Sprintf("transport failure: %v", o.Err)
	default:
		return o.Kind.String()
	}
}
