package ops

import (
	"context"

	"github.com/nodalync/engine/internal/cache"
	"github.com/nodalync/engine/internal/channel"
	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/internal/validate"
	"github.com/nodalync/engine/internal/wire"
)

// amountMax returns the larger of two amounts.
func amountMax(a, b primitives.Amount) primitives.Amount {
	if a > b {
		return a
	}
	return b
}

// Query fetches content, paying for it over a channel when the content is
// not locally owned (§4.K Query).
func (e *Engine) Query(ctx context.Context, hash primitives.Hash, userBid primitives.Amount, versionNumber *uint64, at primitives.Timestamp) ([]byte, wire.Receipt, error) {
	m, err := e.Manifests.Get(hash)
	if err != nil {
		return nil, wire.Receipt{}, err
	}

	// Step 1: owned and locally served needs no payment.
	if m.Owner == e.PeerID && e.Content.Exists(hash) {
		data, err := e.Content.Load(hash)
		if err != nil {
			return nil, wire.Receipt{}, err
		}
		return data, wire.Receipt{}, nil
	}

	// Already cached from a prior paid query: no need to pay again.
	if entry, err := e.Cache.Get(hash); err == nil && entry != nil {
		return entry.Content, wire.Receipt{Amount: entry.Receipt.Amount, PaymentID: entry.Receipt.PaymentID, Timestamp: entry.Receipt.Timestamp, ChannelNonce: entry.Receipt.ChannelNonce, DistributorSignature: entry.Receipt.DistributorSignature}, nil
	}

	// Step 2: locate the owner.
	if e.Locator == nil {
		return nil, wire.Receipt{}, errNoLocator
	}
	owner, err := e.Locator.LocateOwner(ctx, hash)
	if err != nil {
		return nil, wire.Receipt{}, err
	}

	// Step 3: require a channel with the owner, auto-opening if allowed.
	c, err := e.Channels.Get(owner)
	if err != nil {
		return nil, wire.Receipt{}, err
	}
	if c == nil {
		if !e.Config.AutoOpenChannel {
			return nil, wire.Receipt{}, errs.New(errs.ChannelRequired, "no channel with "+owner.String()+"; open one out of band")
		}
		c, err = e.OpenChannel(owner, e.Config.ChannelMinDeposit, at)
		if err != nil {
			return nil, wire.Receipt{}, err
		}
	}
	if !c.IsOpen() {
		return nil, wire.Receipt{}, errs.New(errs.ChannelRequired, "channel with "+owner.String()+" is not open")
	}

	// Step 4: construct and sign the payment. The channel is not mutated
	// yet — the nonce only advances once the server confirms (§7).
	nonce := c.Nonce + 1
	amount := amountMax(m.Economics.Price, userBid)
	payment := channel.Payment{
		ChannelID:  c.ChannelID,
		Amount:     amount,
		Recipient:  m.Owner,
		QueryHash:  hash,
		Provenance: m.Provenance.RootL0L1,
		Timestamp:  at,
	}
	payment.ID = primitives.ContentHash(paymentIDSeed(c.ChannelID, nonce, amount, m.Owner))
	signingBytes := primitives.PaymentSigningBytes(primitives.PaymentSigningInput{
		ChannelID: payment.ChannelID,
		Amount:    payment.Amount,
		Recipient: payment.Recipient,
		QueryHash: payment.QueryHash,
		Timestamp: payment.Timestamp,
	})
	payment.Signature = primitives.Sign(e.PrivateKey, signingBytes)

	// Step 5: send the request.
	if e.Transport == nil {
		return nil, wire.Receipt{}, errNoTransport
	}
	req := wire.QueryRequestPayload{Hash: hash, Payment: payment, VersionNumber: versionNumber}
	resp, qerr, err := e.Transport.SendQueryRequest(ctx, owner, req)
	if err != nil {
		return nil, wire.Receipt{}, err
	}
	if qerr != nil {
		return nil, wire.Receipt{}, errs.New(errs.Code(qerr.Code), qerr.Message)
	}

	// The server accepted the payment: commit it to our local channel view.
	if err := e.Channels.AddPayment(owner, e.PeerID, payment, nonce, at); err != nil {
		return nil, wire.Receipt{}, err
	}

	// Step 6: cache the result under its receipt.
	if err := e.Cache.Cache(cache.Entry{
		Hash:       hash,
		Content:    resp.Content,
		SourcePeer: owner,
		QueriedAt:  at,
		Receipt: cache.Receipt{
			PaymentID:            resp.Receipt.PaymentID,
			Amount:               resp.Receipt.Amount,
			Timestamp:            resp.Receipt.Timestamp,
			ChannelNonce:         resp.Receipt.ChannelNonce,
			DistributorSignature: resp.Receipt.DistributorSignature,
		},
	}); err != nil {
		return nil, wire.Receipt{}, err
	}

	return resp.Content, resp.Receipt, nil
}

func paymentIDSeed(channelID primitives.Hash, nonce uint64, amount primitives.Amount, recipient primitives.PeerId) []byte {
	buf := make([]byte, 0, primitives.HashSize+8+8+primitives.PeerIdSize)
	buf = append(buf, channelID[:]...)
	buf = appendUint64(buf, nonce)
	buf = appendUint64(buf, uint64(amount))
	buf = append(buf, recipient[:]...)
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return append(buf, b[:]...)
}

// HandleQueryRequest runs the server-side state machine for an incoming
// query: received -> validate_access -> validate_payment ->
// check_settlement_configured -> enqueue_distributions -> update_economics
// -> send_response. Any failure returns a QueryErrorPayload with no
// partial effect (§4.K Query request handling).
func (e *Engine) HandleQueryRequest(req wire.QueryRequestPayload, requester primitives.PeerId, payerPubKey *primitives.PublicKey, at primitives.Timestamp) (*wire.QueryResponsePayload, *wire.QueryErrorPayload) {
	m, err := e.Manifests.Get(req.Hash)
	if err != nil {
		return nil, queryError(req.Hash, err)
	}
	target := m
	if req.VersionNumber != nil {
		target, err = e.resolveVersion(m, *req.VersionNumber)
		if err != nil {
			return nil, queryError(req.Hash, err)
		}
	}

	if err := validate.AccessWithOwnerBypass(requester, *target, nil); err != nil {
		return nil, queryError(req.Hash, err)
	}

	c, err := e.Channels.Get(requester)
	if err != nil {
		return nil, queryError(req.Hash, err)
	}
	if c == nil {
		return nil, queryError(req.Hash, errs.New(errs.ChannelNotFound, "no channel with requester"))
	}
	expectedNonce := c.Nonce + 1
	if err := validate.Payment(req.Payment, *c, *target, payerPubKey, expectedNonce); err != nil {
		return nil, queryError(req.Hash, err)
	}

	if e.Settlement == nil {
		return nil, queryError(req.Hash, errSettlementMissing)
	}

	if err := e.Channels.AddPayment(requester, e.PeerID, req.Payment, expectedNonce, at); err != nil {
		return nil, queryError(req.Hash, err)
	}
	if err := e.Queue.Enqueue(req.Payment); err != nil {
		return nil, queryError(req.Hash, err)
	}

	target.Economics.TotalQueries++
	target.Economics.CumulativeRevenue += req.Payment.Amount
	target.UpdatedAt = at
	if err := e.Manifests.Put(*target); err != nil {
		return nil, queryError(req.Hash, err)
	}

	data, err := e.Content.Load(target.Hash)
	if err != nil {
		return nil, queryError(req.Hash, err)
	}

	receipt := wire.Receipt{
		PaymentID:            req.Payment.ID,
		Amount:               req.Payment.Amount,
		Timestamp:            at,
		ChannelNonce:         expectedNonce,
		DistributorSignature: primitives.Sign(e.PrivateKey, req.Payment.ID[:]),
	}
	return &wire.QueryResponsePayload{Hash: req.Hash, Content: data, Receipt: receipt}, nil
}

func queryError(hash primitives.Hash, err error) *wire.QueryErrorPayload {
	if e, ok := err.(*errs.E); ok {
		return &wire.QueryErrorPayload{Hash: hash, Code: uint16(e.Code), Message: e.Message}
	}
	return &wire.QueryErrorPayload{Hash: hash, Code: uint16(errs.Internal), Message: err.Error()}
}

// resolveVersion walks latest's version chain backward to find the
// manifest whose version number matches number.
func (e *Engine) resolveVersion(latest *manifest.Manifest, number uint64) (*manifest.Manifest, error) {
	cur := latest
	for {
		if cur.Version.Number == number {
			return cur, nil
		}
		if cur.Version.Previous == nil {
			return nil, errs.New(errs.VersionNotFound, "requested version not found in chain")
		}
		prev, err := e.Manifests.Get(*cur.Version.Previous)
		if err != nil {
			return nil, err
		}
		cur = prev
	}
}
