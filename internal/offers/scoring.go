package offers

import (
	"math"
	"sort"
)

const (
	baseScore          = 50
	volumeHeavyDeals   = 50
	weeksPerMonth      = 4.33
	callCapacityFactor = 1.5
	callCapacityCost   = 20
)

// DealsNeeded is the number of monthly deals at price needed to close gap.
func DealsNeeded(gap, price float64) int {
	if gap <= 0 || price <= 0 {
		return 0
	}
	return ceilCount(gap / price)
}

// CallsNeeded projects sales calls from a measured close rate. It returns nil
// when no close rate is known.
func CallsNeeded(deals int, closeRate *float64) *int {
	if closeRate == nil || *closeRate <= 0 {
		return nil
	}
	c := ceilCount(float64(deals) / (*closeRate / 100))
	return &c
}

// ceilCount rounds up and caps at MaxInt32.
func ceilCount(x float64) int {
	c := math.Ceil(x)
	if !(c < math.MaxInt32) {
		return math.MaxInt32
	}
	return int(c)
}

// Quartile returns the p-quantile of sorted using linear interpolation.
func Quartile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// Quartiles returns Q1 and Q3 of values. The input is not modified.
func Quartiles(values []float64) (q1, q3 float64) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return Quartile(sorted, 0.25), Quartile(sorted, 0.75)
}

type portfolioStats struct {
	q1, q3     float64
	spread     bool
	minPrice   float64
	maxPrice   float64
	median     float64
	priceRange bool
}

func newPortfolioStats(portfolio []Offer, gap float64) portfolioStats {
	var deals, prices []float64
	for _, o := range portfolio {
		if o.Price <= 0 {
			continue
		}
		deals = append(deals, float64(DealsNeeded(gap, o.Price)))
		prices = append(prices, o.Price)
	}
	sort.Float64s(prices)
	var st portfolioStats
	st.q1, st.q3 = Quartiles(deals)
	st.spread = gap > 0 && len(deals) >= 2 && st.q1 < st.q3
	if len(prices) > 0 {
		st.minPrice = prices[0]
		st.maxPrice = prices[len(prices)-1]
		st.median = Quartile(prices, 0.5)
		st.priceRange = st.minPrice < st.maxPrice
	}
	return st
}

// ScoreOffer scores one offer against the context's portfolio. The badge is
// assigned from the score alone; ScoreOffers promotes the best-ranked offer.
func ScoreOffer(offer Offer, ctx ScoringContext) ScoredOffer {
	portfolio := ctx.Portfolio
	if len(portfolio) == 0 {
		portfolio = []Offer{offer}
	}
	return scoreWithStats(offer.Normalize(), ctx, newPortfolioStats(portfolio, ctx.RevenueGap))
}

func scoreWithStats(offer Offer, ctx ScoringContext, st portfolioStats) ScoredOffer {
	deals := DealsNeeded(ctx.RevenueGap, offer.Price)
	calls := CallsNeeded(deals, ctx.CloseRate)
	out := ScoredOffer{
		Offer:        offer,
		DealsByMonth: deals,
		CallsByMonth: calls,
		Tags:         []string{},
	}

	var highLeverage, volumeHeavy bool
	if offer.Price > 0 && ctx.RevenueGap > 0 {
		volumeHeavy = deals > volumeHeavyDeals
		if st.spread {
			d := float64(deals)
			if d >= st.q3 {
				volumeHeavy = true
			} else if d <= st.q1 && !volumeHeavy {
				highLeverage = true
			}
		}
	}
	if highLeverage {
		out.Tags = append(out.Tags, TagHighLeverage)
	}
	if volumeHeavy {
		out.Tags = append(out.Tags, TagVolumeHeavy)
	}

	score := baseScore
	switch ctx.Constraint {
	case ConstraintDeliveryCapacity:
		if highLeverage {
			score += 25
		}
		if volumeHeavy {
			score -= 30
		}
		if offer.DeliveryModel == DeliveryDoneForYou {
			score -= 10
		}
	case ConstraintConversion:
		if st.priceRange && offer.Price > 0 {
			switch {
			case offer.Price == st.minPrice:
				score += 30
			case offer.Price < st.median:
				score += 10
			case offer.Price == st.maxPrice:
				score -= 10
			}
		}
	case ConstraintRetention:
		if offer.IsRecurring() {
			score += 30
		} else {
			score -= 10
		}
	default:
		if highLeverage {
			score += 30
		}
		if volumeHeavy {
			score -= 20
		}
	}

	if calls != nil && ctx.WeeklyCallCapacity > 0 &&
		float64(*calls)/weeksPerMonth > callCapacityFactor*ctx.WeeklyCallCapacity {
		score -= callCapacityCost
		out.Tags = append(out.Tags, TagExceedsCallCapacity)
	}

	out.Score = clamp(score, 0, 100)
	out.Badge = badgeFor(out.Score)
	return out
}

// ScoreOffers scores every offer against the whole set and returns them best
// first. The order is total, so input order never changes the result.
func ScoreOffers(portfolio []Offer, ctx ScoringContext) []ScoredOffer {
	normalized := make([]Offer, len(portfolio))
	for i, o := range portfolio {
		normalized[i] = o.Normalize()
	}
	st := newPortfolioStats(normalized, ctx.RevenueGap)

	out := make([]ScoredOffer, 0, len(normalized))
	for _, o := range normalized {
		out = append(out, scoreWithStats(o, ctx, st))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.DealsByMonth != b.DealsByMonth {
			return a.DealsByMonth < b.DealsByMonth
		}
		if a.Offer.Price != b.Offer.Price {
			return a.Offer.Price < b.Offer.Price
		}
		return a.Offer.ID < b.Offer.ID
	})
	if len(out) > 0 && out[0].Score >= baseScore {
		out[0].Badge = BadgeRecommended
	}
	return out
}

func badgeFor(score int) Badge {
	switch {
	case score >= 60:
		return BadgeStrongAlternative
	case score >= 40:
		return BadgeViable
	default:
		return BadgeDeprioritize
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
