package ops

import "github.com/nodalync/engine/internal/errs"

var (
	errNotOwner             = errs.New(errs.AccessDenied, "caller is not the content owner")
	errSourceNotAvailable   = errs.New(errs.NotFound, "derive source is not locally available")
	errNotAnL3              = errs.New(errs.InvalidManifest, "content is not an L3 synthesis")
	errPrivateKeyRequired   = errs.New(errs.Internal, "engine has no private key configured")
	errChannelAlreadyClosed = errs.New(errs.ChannelClosed, "channel is already closed")
	errSettlementMissing    = errs.New(errs.SettlementMissing, "no settlement adapter configured for paid content")
	errNoLocator            = errs.New(errs.PeerNotFound, "no locator configured to find the content owner")
	errNoTransport          = errs.New(errs.ConnectionFailed, "no transport configured to reach the content owner")
	errDisputeWindowActive  = errs.New(errs.DisputeWindowActive, "dispute window has not yet elapsed")
)
