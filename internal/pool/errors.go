package pool

// Code is a numeric error code surfaced to the host ledger the way a
// program's custom error code is, in the exact order spec.md §6 assigns
// them (mirroring _examples/original_source/src/error.rs's enum ordering,
// trimmed to the codes this design actually uses).
type Code uint32

const (
	CodeInvalidInstructionData Code = iota
	CodeInvalidAccountData
	CodeAccountNotInitialized
	CodeAccountAlreadyInitialized
	CodeTreeFull
	CodeMalformedCommitment
	CodeDuplicateCommitment
	CodeMalformedNullifier
	CodeNullifierSpent
	CodeUnknownRoot
	CodeInvalidProof
	CodeInvalidFee
	CodeInvalidRecipient
	CodeInvalidRelayer
	CodeInvalidRefund
	CodeInsufficientFunds
)

var codeNames = map[Code]string{
	CodeInvalidInstructionData:    "invalid-instruction-data",
	CodeInvalidAccountData:        "invalid-account-data",
	CodeAccountNotInitialized:     "account-not-initialised",
	CodeAccountAlreadyInitialized: "account-already-initialised",
	CodeTreeFull:                  "tree-full",
	CodeMalformedCommitment:       "malformed-commitment",
	CodeDuplicateCommitment:       "duplicate-commitment",
	CodeMalformedNullifier:        "malformed-nullifier",
	CodeNullifierSpent:            "nullifier-spent",
	CodeUnknownRoot:               "unknown-root",
	CodeInvalidProof:              "invalid-proof",
	CodeInvalidFee:                "invalid-fee",
	CodeInvalidRecipient:          "invalid-recipient",
	CodeInvalidRelayer:            "invalid-relayer",
	CodeInvalidRefund:             "invalid-refund",
	CodeInsufficientFunds:         "insufficient-funds",
}

// Error wraps a Code with the name it surfaces under, so it prints
// meaningfully without callers needing a lookup table of their own.
type Error struct {
	Code Code
}

func (e *Error) Error() string {
	if name, ok := codeNames[e.Code]; ok {
		return name
	}
	return "pool: unknown error"
}

func newErr(c Code) error {
	return &Error{Code: c}
}

// Is allows errors.Is(err, pool.ErrTreeFull) style comparisons against the
// package-level sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrInvalidInstructionData    = newErr(CodeInvalidInstructionData)
	ErrInvalidAccountData        = newErr(CodeInvalidAccountData)
	ErrAccountNotInitialized     = newErr(CodeAccountNotInitialized)
	ErrAccountAlreadyInitialized = newErr(CodeAccountAlreadyInitialized)
	ErrTreeFull                  = newErr(CodeTreeFull)
	ErrMalformedCommitment       = newErr(CodeMalformedCommitment)
	ErrDuplicateCommitment       = newErr(CodeDuplicateCommitment)
	ErrMalformedNullifier        = newErr(CodeMalformedNullifier)
	ErrNullifierSpent            = newErr(CodeNullifierSpent)
	ErrUnknownRoot               = newErr(CodeUnknownRoot)
	ErrInvalidProof              = newErr(CodeInvalidProof)
	ErrInvalidFee                = newErr(CodeInvalidFee)
	ErrInvalidRecipient          = newErr(CodeInvalidRecipient)
	ErrInvalidRelayer            = newErr(CodeInvalidRelayer)
	ErrInvalidRefund             = newErr(CodeInvalidRefund)
	ErrInsufficientFunds         = newErr(CodeInsufficientFunds)
)
