package sepa

// =============================================================================
// SEQUENCE TYPE (SequenceType1Code)
// =============================================================================

// SequenceType classifies a collection within the lifecycle of a mandate.
type SequenceType string

// Sequence types, by position in the mandate's life cycle.
const (
	SequenceFirst     SequenceType = "FRST"
	SequenceRecurring SequenceType = "RCUR"
	SequenceOneOff    SequenceType = "OOFF"
	SequenceFinal     SequenceType = "FNAL"
)

// Valid reports whether s is on the SequenceType1Code list.
func (s SequenceType) Valid() bool {
	switch s {
	case SequenceFirst, SequenceRecurring, SequenceOneOff, SequenceFinal:
		return true
	}
	return false
}

// ParseSequenceType converts a raw code into a SequenceType.
func ParseSequenceType(code string) (SequenceType, error) {
	s := SequenceType(code)
	if !s.Valid() {
		return "", fieldError("sequenceType", code, "the code for sequenceType is not valid")
	}
	return s, nil
}

// =============================================================================
// LOCAL INSTRUMENT (ExternalLocalInstrument1Code)
// =============================================================================

// LocalInstrument selects the direct debit scheme.
type LocalInstrument string

const (
	// InstrumentCore is the SEPA core direct debit.
	InstrumentCore LocalInstrument = "CORE"
	// InstrumentCore1 is the core direct debit with D-1 presentation.
	InstrumentCore1 LocalInstrument = "COR1"
	// InstrumentB2B is the business-to-business direct debit.
	InstrumentB2B LocalInstrument = "B2B"
)

// Valid reports whether l is on the ExternalLocalInstrument1Code list.
func (l LocalInstrument) Valid() bool {
	switch l {
	case InstrumentCore, InstrumentCore1, InstrumentB2B:
		return true
	}
	return false
}

// ParseLocalInstrument converts a raw code into a LocalInstrument.
func ParseLocalInstrument(code string) (LocalInstrument, error) {
	l := LocalInstrument(code)
	if !l.Valid() {
		return "", fieldError("localInstrument", code, "the code for localInstrument is not valid")
	}
	return l, nil
}

// =============================================================================
// CHARGE BEARER (ChargeBearerTypeSEPACode)
// =============================================================================

// ChargeBearer says who pays the charges.
type ChargeBearer string

// Charge bearer codes. Only SLEV is allowed in SEPA messages.
const (
	ChargeBearerSharedLevel ChargeBearer = "SLEV"
	ChargeBearerCreditor    ChargeBearer = "SCOR"
)

// Valid reports whether c is on the ChargeBearerTypeSEPACode list.
func (c ChargeBearer) Valid() bool {
	return c == ChargeBearerSharedLevel || c == ChargeBearerCreditor
}

// =============================================================================
// GROUP STATUS (TransactionGroupStatus1CodeSEPA)
// =============================================================================

// GroupStatus is the status code a bank reports for a whole message.
type GroupStatus string

// GroupStatusRejected marks a message the bank refused as a whole.
const GroupStatusRejected GroupStatus = "RJCT"

// Valid reports whether g is on the TransactionGroupStatus1CodeSEPA list.
func (g GroupStatus) Valid() bool {
	return g == GroupStatusRejected
}

// String returns the code.
func (s SequenceType) String() string { return string(s) }

// String returns the code.
func (l LocalInstrument) String() string { return string(l) }
