package history

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/LeJamon/goRingSim/internal/core/settlement"
	"github.com/ugorji/go/codec"
)

var msgpackHandle = &codec.MsgpackHandle{WriteExt: true}

// Detail is the settlement breakdown of a run, stored as a compressed
// msgpack blob next to the run row. Amounts are decimal strings and
// addresses and hashes are hex.
type Detail struct {
	Rings               []RingDetail      `codec:"r"`
	FeePayments         []FeeDetail       `codec:"f"`
	Filled              map[string]string `codec:"fa"`
	IncompleteAllOrNone []string          `codec:"aon,omitempty"`
}

// RingDetail is the settlement of one ring.
type RingDetail struct {
	Index  int           `codec:"i"`
	Orders []OrderDetail `codec:"o"`
}

// OrderDetail is what one order paid and received in a ring.
type OrderDetail struct {
	OrderHash  string `codec:"h"`
	P2P        bool   `codec:"p2p"`
	AmountS    string `codec:"s"`
	AmountB    string `codec:"b"`
	AmountFee  string `codec:"fee"`
	AmountFeeS string `codec:"fs"`
	AmountFeeB string `codec:"fb"`
	RebateFee  string `codec:"rf"`
	RebateS    string `codec:"rs"`
	RebateB    string `codec:"rb"`
	SplitS     string `codec:"split"`
}

// FeeDetail is one fee balance credit.
type FeeDetail struct {
	Token  string `codec:"t"`
	Owner  string `codec:"o"`
	Amount string `codec:"a"`
}

// NewDetail captures the settlement breakdown of res. It returns nil for
// results that settled nothing.
func NewDetail(res *settlement.Result) *Detail {
	if res == nil || (len(res.Rings) == 0 && len(res.FeePayments) == 0) {
		return nil
	}

	d := &Detail{Filled: make(map[string]string, len(res.FilledAmount))}
	for _, ring := range res.Rings {
		rd := RingDetail{Index: ring.Index, Orders: make([]OrderDetail, 0, len(ring.Orders))}
		for i := range ring.Orders {
			s := &ring.Orders[i]
			rd.Orders = append(rd.Orders, OrderDetail{
				OrderHash:  s.OrderHash.Hex(),
				P2P:        s.P2P,
				AmountS:    amountString(s.AmountS),
				AmountB:    amountString(s.AmountB),
				AmountFee:  amountString(s.AmountFee),
				AmountFeeS: amountString(s.AmountFeeS),
				AmountFeeB: amountString(s.AmountFeeB),
				RebateFee:  amountString(s.RebateFee),
				RebateS:    amountString(s.RebateS),
				RebateB:    amountString(s.RebateB),
				SplitS:     amountString(s.SplitS),
			})
		}
		d.Rings = append(d.Rings, rd)
	}
	for _, p := range res.FeePayments {
		d.FeePayments = append(d.FeePayments, FeeDetail{
			Token:  p.Token.Hex(),
			Owner:  p.Owner.Hex(),
			Amount: amountString(p.Amount),
		})
	}
	for hash, amount := range res.FilledAmount {
		d.Filled[hash.Hex()] = amountString(amount)
	}
	for _, h := range res.IncompleteAllOrNone {
		d.IncompleteAllOrNone = append(d.IncompleteAllOrNone, h.Hex())
	}
	return d
}

// FilledOrders returns the order hashes of the filled amounts, sorted.
func (d *Detail) FilledOrders() []string {
	hashes := make([]string, 0, len(d.Filled))
	for h := range d.Filled {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)
	return hashes
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// encodeDetail serialises d as msgpack and compresses it.
func encodeDetail(d *Detail) ([]byte, error) {
	var raw []byte
	if err := codec.NewEncoderBytes(&raw, msgpackHandle).Encode(d); err != nil {
		return nil, fmt.Errorf("encoding run detail: %w", err)
	}
	return compress(raw)
}

// decodeDetail reverses encodeDetail.
func decodeDetail(blob []byte) (*Detail, error) {
	raw, err := decompress(blob)
	if err != nil {
		return nil, err
	}
	var d Detail
	if err := codec.NewDecoderBytes(raw, msgpackHandle).Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDetail, err)
	}
	return &d, nil
}
