package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrRateLimit       = "E_RATE_LIMIT"
	ErrBusy            = "E_BUSY"

	// Command layer.
	ErrBadRequest     = "E_BAD_REQUEST"
	ErrUnknownCommand = "E_UNKNOWN_COMMAND"
	ErrNoPermission   = "E_NO_PERMISSION"
	ErrInsufficient   = "E_INSUFFICIENT"
	ErrNotFound       = "E_NOT_FOUND"
	ErrInvalidName    = "E_INVALID_NAME"
	ErrRejected       = "E_REJECTED"
	ErrQuota          = "E_QUOTA"
	ErrCooldown       = "E_COOLDOWN"
	ErrCondition      = "E_CONDITION"
	ErrInternal       = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrRateLimit:       {},
	ErrBusy:            {},
	ErrBadRequest:      {},
	ErrUnknownCommand:  {},
	ErrNoPermission:    {},
	ErrInsufficient:    {},
	ErrNotFound:        {},
	ErrInvalidName:     {},
	ErrRejected:        {},
	ErrQuota:           {},
	ErrCooldown:        {},
	ErrCondition:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
