package entity

// VerifyResult is the outcome of checking a candidate code.
type VerifyResult int8

const (
	// VerifyResultUnknown is the zero value and never returned by a store.
	VerifyResultUnknown VerifyResult = iota
	// VerifyResultOK means the code matched and the record was consumed.
	VerifyResultOK
	// VerifyResultInvalid means the code did not match; the attempt was counted.
	VerifyResultInvalid
	// VerifyResultExpired means the record outlived its TTL and was evicted.
	VerifyResultExpired
	// VerifyResultLocked means too many failed attempts were made.
	VerifyResultLocked
	// VerifyResultNotFound means no live record exists for the identifier.
	VerifyResultNotFound
)

func (v VerifyResult) String() string {
	switch v {
	case VerifyResultOK:
		return "ok"
	case VerifyResultInvalid:
		return "invalid"
	case VerifyResultExpired:
		return "expired"
	case VerifyResultLocked:
		return "locked"
	case VerifyResultNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// VerifyResultFromString maps the textual form back, as written by the redis scripts.
func VerifyResultFromString(s string) VerifyResult {
	switch s {
	case "ok":
		return VerifyResultOK
	case "invalid":
		return VerifyResultInvalid
	case "expired":
		return VerifyResultExpired
	case "locked":
		return VerifyResultLocked
	case "not_found":
		return VerifyResultNotFound
	default:
		return VerifyResultUnknown
	}
}
