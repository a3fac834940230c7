package router

import "encoding/json"

// portfolioSnapshot is the JSON-visible form of a Portfolio: nextRoute is
// unexported (to keep route_id generation an internal detail) but must
// still survive a restart, or a restored portfolio would reuse route_ids
// already handed out before the crash.
type portfolioSnapshot struct {
	Equity    int64                `json:"equity"`
	IM        uint64               `json:"im"`
	Holds     map[uint64]HoldRef   `json:"holds"`
	NextRoute uint64               `json:"next_route"`
}

func (p *Portfolio) MarshalJSON() ([]byte, error) {
	return json.Marshal(portfolioSnapshot{
		Equity:    p.Equity,
		IM:        p.IM,
		Holds:     p.Holds,
		NextRoute: p.nextRoute,
	})
}

func (p *Portfolio) UnmarshalJSON(data []byte) error {
	var snap portfolioSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	p.Equity = snap.Equity
	p.IM = snap.IM
	p.Holds = snap.Holds
	if p.Holds == nil {
		p.Holds = make(map[uint64]HoldRef)
	}
	p.nextRoute = snap.NextRoute
	return nil
}

// registrySnapshot is the JSON-visible form of a Registry. Slabs is
// deliberately omitted: the harness rebuilds it by calling RegisterSlab for
// every configured slab_id as part of restoring each slab's own snapshot,
// so persisting the Slab interface value here (which wraps a live
// *slab.State pointer) would be both redundant and unmarshalable.
type registrySnapshot struct {
	Authority    [32]byte               `json:"authority"`
	Portfolios   map[uint32]*Portfolio  `json:"portfolios"`
	LiqFeeBps    uint16                  `json:"liq_fee_bps"`
	PriceBandBps uint16                  `json:"price_band_bps"`
}

func (r *Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(registrySnapshot{
		Authority:    r.Authority,
		Portfolios:   r.Portfolios,
		LiqFeeBps:    r.LiqFeeBps,
		PriceBandBps: r.PriceBandBps,
	})
}

func (r *Registry) UnmarshalJSON(data []byte) error {
	var snap registrySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	r.Authority = snap.Authority
	r.Portfolios = snap.Portfolios
	if r.Portfolios == nil {
		r.Portfolios = make(map[uint32]*Portfolio)
	}
	r.LiqFeeBps = snap.LiqFeeBps
	r.PriceBandBps = snap.PriceBandBps
	if r.Slabs == nil {
		r.Slabs = make(map[string]Slab)
	}
	return nil
}
