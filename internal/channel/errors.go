package channel

import "github.com/nodalync/engine/internal/errs"

var (
	errChannelNotOpen      = errs.New(errs.ChannelNotOpen, "channel is not open")
	errStaleNonce          = errs.New(errs.InvalidNonce, "payment nonce must exceed channel nonce")
	errInsufficientBalance = errs.New(errs.InsufficientBalance, "insufficient channel balance")
)
