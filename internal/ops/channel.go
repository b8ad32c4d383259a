package ops

import (
	"context"
	"crypto/rand"

	"github.com/nodalync/engine/internal/adapter"
	"github.com/nodalync/engine/internal/channel"
	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/primitives"
)

// CloseKind is a closed enum over how a channel close attempt resolved.
type CloseKind int

const (
	CloseSuccess CloseKind = iota
	CloseSuccessOffChain
	ClosePeerUnresponsive
	CloseOnChainFailed
)

// CloseResult reports the outcome of CloseChannel (§4.K Channel lifecycle).
type CloseResult struct {
	Kind             CloseKind
	TransactionID    adapter.TransactionID
	MyBalance        primitives.Amount
	TheirBalance     primitives.Amount
	Suggestion       string // set for ClosePeerUnresponsive
	FailureReason    string // set for CloseOnChainFailed
}

// IsSuccess reports whether the channel actually closed, on-chain or off.
func (r CloseResult) IsSuccess() bool {
	return r.Kind == CloseSuccess || r.Kind == CloseSuccessOffChain
}

// OpenChannel proposes a new channel with peer, generating its id from
// both peers' identities and a fresh random nonce (§4.K open, §3 Channel).
func (e *Engine) OpenChannel(peer primitives.PeerId, deposit primitives.Amount, at primitives.Timestamp) (*channel.Channel, error) {
	if deposit < e.Config.ChannelMinDeposit {
		return nil, errs.New(errs.PaymentInvalid, "deposit below channel minimum")
	}

	id, err := generateChannelID(e.PeerID, peer)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "generate channel id", err)
	}

	c := channel.Channel{
		ChannelID:  id,
		PeerID:     peer,
		State:      channel.Opening,
		MyBalance:  deposit,
		LastUpdate: at,
	}
	if err := e.Channels.Create(peer, c); err != nil {
		return nil, err
	}
	return &c, nil
}

// AcceptChannel records an incoming ChannelOpen proposal as an Open
// channel with reciprocal balances (§4.K accept).
func (e *Engine) AcceptChannel(peer primitives.PeerId, channelID primitives.Hash, theirDeposit, myDeposit primitives.Amount, at primitives.Timestamp) (*channel.Channel, error) {
	if theirDeposit > e.Config.MaxAcceptDeposit {
		return nil, errs.New(errs.PaymentInvalid, "counterparty deposit exceeds configured maximum")
	}
	c := channel.Channel{
		ChannelID:    channelID,
		PeerID:       peer,
		State:        channel.Open,
		MyBalance:    myDeposit,
		TheirBalance: theirDeposit,
		LastUpdate:   at,
	}
	if err := e.Channels.Create(peer, c); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateChannel applies an incoming, already-validated payment to the
// channel with peer (§4.K update).
func (e *Engine) UpdateChannel(peer primitives.PeerId, payment channel.Payment, nonce uint64, at primitives.Timestamp) error {
	return e.Channels.AddPayment(peer, e.PeerID, payment, nonce, at)
}

// CloseChannel cooperatively closes the channel with peer: both sides'
// final balances are signed and, when a settlement adapter is configured,
// submitted for an on-chain close; without one the close completes
// off-chain only, matching a local-only deployment (§4.K close).
func (e *Engine) CloseChannel(ctx context.Context, peer primitives.PeerId, at primitives.Timestamp) (CloseResult, error) {
	c, err := e.Channels.Get(peer)
	if err != nil {
		return CloseResult{}, err
	}
	if c == nil {
		return CloseResult{}, errs.New(errs.ChannelNotFound, "channel not found")
	}
	if c.State.IsClosed() {
		return CloseResult{}, errChannelAlreadyClosed
	}

	balances := adapter.ChannelBalances{MyBalance: c.MyBalance, TheirBalance: c.TheirBalance}
	sig := e.signChannelState(*c)

	if e.Settlement == nil {
		c.State = channel.Closed
		c.LastUpdate = at
		if err := e.Channels.Update(peer, *c); err != nil {
			return CloseResult{}, err
		}
		return CloseResult{Kind: CloseSuccessOffChain, MyBalance: c.MyBalance, TheirBalance: c.TheirBalance}, nil
	}

	c.State = channel.Closing
	if err := e.Channels.Update(peer, *c); err != nil {
		return CloseResult{}, err
	}

	tx, err := e.Settlement.CloseChannel(ctx, c.ChannelID, balances, []primitives.Signature{sig})
	if err != nil {
		return CloseResult{Kind: CloseOnChainFailed, FailureReason: err.Error()}, nil
	}

	c.State = channel.Closed
	c.LastUpdate = at
	if err := e.Channels.Update(peer, *c); err != nil {
		return CloseResult{}, err
	}
	return CloseResult{Kind: CloseSuccess, TransactionID: tx, MyBalance: c.MyBalance, TheirBalance: c.TheirBalance}, nil
}

// DisputeChannel pushes the latest signed state on-chain and moves the
// channel into the Disputed state, opening its dispute window (§4.K
// dispute).
func (e *Engine) DisputeChannel(ctx context.Context, peer primitives.PeerId, at primitives.Timestamp) (adapter.TransactionID, error) {
	c, err := e.Channels.Get(peer)
	if err != nil {
		return "", err
	}
	if c == nil {
		return "", errs.New(errs.ChannelNotFound, "channel not found")
	}
	if c.State.IsClosed() {
		return "", errChannelAlreadyClosed
	}
	if e.Settlement == nil {
		return "", errSettlementMissing
	}

	balances := adapter.ChannelBalances{MyBalance: c.MyBalance, TheirBalance: c.TheirBalance}
	sig := e.signChannelState(*c)
	tx, err := e.Settlement.DisputeChannel(ctx, c.ChannelID, balances, c.Nonce, sig)
	if err != nil {
		return "", err
	}
	c.State = channel.Disputed
	c.LastUpdate = at
	if err := e.Channels.Update(peer, *c); err != nil {
		return "", err
	}
	return tx, nil
}

// CounterDisputeChannel submits a higher-nonce state during an active
// dispute window, the losing side's recourse against a stale close (§4.K
// dispute, §4.L counter-dispute).
func (e *Engine) CounterDisputeChannel(ctx context.Context, peer primitives.PeerId, higherNonceState channel.Channel, at primitives.Timestamp) (adapter.TransactionID, error) {
	c, err := e.Channels.Get(peer)
	if err != nil {
		return "", err
	}
	if c == nil {
		return "", errs.New(errs.ChannelNotFound, "channel not found")
	}
	if c.State != channel.Disputed {
		return "", errs.New(errs.ChannelNotOpen, "channel is not under dispute")
	}
	if higherNonceState.Nonce <= c.Nonce {
		return "", errs.New(errs.InvalidNonce, "counter-dispute state must carry a higher nonce")
	}
	if e.Settlement == nil {
		return "", errSettlementMissing
	}

	balances := adapter.ChannelBalances{MyBalance: higherNonceState.MyBalance, TheirBalance: higherNonceState.TheirBalance}
	sig := e.signChannelState(higherNonceState)
	tx, err := e.Settlement.CounterDispute(ctx, c.ChannelID, balances, higherNonceState.Nonce, sig)
	if err != nil {
		return "", err
	}
	*c = higherNonceState
	c.LastUpdate = at
	if err := e.Channels.Update(peer, *c); err != nil {
		return "", err
	}
	return tx, nil
}

// ResolveDispute finalizes a disputed channel once its dispute window has
// elapsed (§4.K dispute, §4.L resolve dispute).
func (e *Engine) ResolveDispute(ctx context.Context, peer primitives.PeerId, at primitives.Timestamp) (adapter.TransactionID, error) {
	c, err := e.Channels.Get(peer)
	if err != nil {
		return "", err
	}
	if c == nil {
		return "", errs.New(errs.ChannelNotFound, "channel not found")
	}
	if c.State != channel.Disputed {
		return "", errs.New(errs.ChannelNotOpen, "channel is not under dispute")
	}
	if at < c.LastUpdate || at-c.LastUpdate < primitives.Timestamp(e.Config.DisputeWindowMs) {
		return "", errDisputeWindowActive
	}
	if e.Settlement == nil {
		return "", errSettlementMissing
	}

	tx, err := e.Settlement.ResolveDispute(ctx, c.ChannelID)
	if err != nil {
		return "", err
	}
	c.State = channel.Closed
	c.LastUpdate = at
	if err := e.Channels.Update(peer, *c); err != nil {
		return "", err
	}
	return tx, nil
}

// HasOpenChannel reports whether peer has a channel in the Open state.
func (e *Engine) HasOpenChannel(peer primitives.PeerId) (bool, error) {
	c, err := e.Channels.Get(peer)
	if err != nil {
		return false, err
	}
	return c != nil && c.IsOpen(), nil
}

// GetChannelBalance returns this node's balance with peer, or nil if no
// channel is open.
func (e *Engine) GetChannelBalance(peer primitives.PeerId) (*primitives.Amount, error) {
	c, err := e.Channels.Get(peer)
	if err != nil {
		return nil, err
	}
	if c == nil || !c.IsOpen() {
		return nil, nil
	}
	bal := c.MyBalance
	return &bal, nil
}

func (e *Engine) signChannelState(c channel.Channel) primitives.Signature {
	stateHash := primitives.ChannelStateHash(primitives.ChannelStateSigningInput{
		ChannelID:    c.ChannelID,
		OurBalance:   c.MyBalance,
		TheirBalance: c.TheirBalance,
		Nonce:        c.Nonce,
	})
	return primitives.Sign(e.PrivateKey, stateHash[:])
}

func generateChannelID(initiator, responder primitives.PeerId) (primitives.Hash, error) {
	var nonce [8]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return primitives.Hash{}, err
	}
	buf := make([]byte, 0, 2*primitives.PeerIdSize+8)
	buf = append(buf, initiator[:]...)
	buf = append(buf, responder[:]...)
	buf = append(buf, nonce[:]...)
	return primitives.ContentHash(buf), nil
}
