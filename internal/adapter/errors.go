package adapter

import "github.com/nodalync/engine/internal/errs"

// Failure codes a settlement adapter can return (§4.L): insufficient
// balance, account not found, transaction failed, channel not found,
// empty batch, channel already exists, channel not open, dispute period
// not elapsed, invalid nonce, network, timeout, config, io, internal. Each
// maps onto the engine's existing error taxonomy rather than growing a
// parallel one.
var (
	errAccountNotFound  = errs.New(errs.NotFound, "account not found")
	errEmptyBatch       = errs.New(errs.InvalidManifest, "settlement batch is empty")
	errChannelNotFound  = errs.New(errs.ChannelNotFound, "channel not found")
	errChannelExists    = errs.New(errs.ChannelAlreadyExists, "channel already exists")
	errChannelNotOpen   = errs.New(errs.ChannelNotOpen, "channel not open")
	errDisputeNotElapsed = errs.New(errs.DisputeWindowActive, "dispute period has not elapsed")
	errInsufficientFunds = errs.New(errs.InsufficientBalance, "insufficient on-chain balance")
	errInvalidSignature  = errs.New(errs.InvalidSignature, "invalid or missing signature")
	errInternal          = errs.New(errs.Internal, "mock adapter configured to fail this call")
)
