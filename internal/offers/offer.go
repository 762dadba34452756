package offers

// ComputeMargin returns the margin percentage for a price and delivery cost,
// or nil when either is unknown or the price is not positive.
func ComputeMargin(price float64, deliveryCost *float64) *float64 {
	if deliveryCost == nil || price <= 0 {
		return nil
	}
	m := (price - *deliveryCost) * 100 / price
	return &m
}

// Normalize recomputes derived fields. Offers decoded from JSON pass through
// here before use.
func (o Offer) Normalize() Offer {
	o.MarginPct = ComputeMargin(o.Price, o.DeliveryCost)
	return o
}

func (o Offer) WithPrice(price float64) Offer {
	o.Price = price
	return o.Normalize()
}

func (o Offer) WithDeliveryCost(cost *float64) Offer {
	if cost != nil {
		c := *cost
		cost = &c
	}
	o.DeliveryCost = cost
	return o.Normalize()
}

// IsRecurring reports whether the offer bills repeatedly.
func (o Offer) IsRecurring() bool {
	return o.BillingModel == BillingRecurring || o.Type == OfferRetainer || o.Type == OfferSubscription
}

// PrimaryOffer returns the offer flagged primary, falling back to the first.
func PrimaryOffer(portfolio []Offer) (Offer, bool) {
	for _, o := range portfolio {
		if o.Primary {
			return o, true
		}
	}
	if len(portfolio) == 0 {
		return Offer{}, false
	}
	return portfolio[0], true
}

// SelectPrimary marks exactly one offer as primary.
func SelectPrimary(portfolio []Offer, id string) ([]Offer, bool) {
	found := false
	out := make([]Offer, len(portfolio))
	for i, o := range portfolio {
		o.Primary = o.ID == id
		if o.Primary {
			found = true
		}
		out[i] = o
	}
	if !found {
		return portfolio, false
	}
	return out, true
}
