package utils

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Share is one participant in a proportional split
type Share struct {
	Key    int64
	Weight int64
}

// Apportion splits total across shares in proportion to weight using the
// largest remainder method. Each share first gets floor(total*weight/sum);
// the leftover units go one at a time to the largest fractional remainders,
// ties broken by ascending key. Results follow the input order and always
// sum to total when the weights sum is positive.
func Apportion(total int64, shares []Share) []int64 {
	out := make([]int64, len(shares))
	sum := weightSum(shares)
	if total <= 0 || sum.Sign() <= 0 {
		return out
	}

	totalDec := decimal.NewFromInt(total)
	remainders := make([]decimal.Decimal, len(shares))
	allocated := int64(0)
	for i, s := range shares {
		q, r := totalDec.Mul(decimal.NewFromInt(s.Weight)).QuoRem(sum, 0)
		out[i] = q.IntPart()
		remainders[i] = r
		allocated += out[i]
	}

	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := remainders[order[a]], remainders[order[b]]
		if !ra.Equal(rb) {
			return ra.GreaterThan(rb)
		}
		return shares[order[a]].Key < shares[order[b]].Key
	})

	for i := int64(0); i < total-allocated; i++ {
		out[order[int(i)%len(order)]]++
	}
	return out
}

// ScaleToFit shrinks shares so they sum to exactly budget. Each share gets
// floor(budget*weight/sum) and the leftover units are dealt one at a time in
// ascending key order, cycling if needed. Input order is kept for equal keys.
func ScaleToFit(budget int64, shares []Share) []int64 {
	out := make([]int64, len(shares))
	sum := weightSum(shares)
	if budget <= 0 || sum.Sign() <= 0 {
		return out
	}

	budgetDec := decimal.NewFromInt(budget)
	allocated := int64(0)
	for i, s := range shares {
		q, _ := budgetDec.Mul(decimal.NewFromInt(s.Weight)).QuoRem(sum, 0)
		out[i] = q.IntPart()
		allocated += out[i]
	}

	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return shares[order[a]].Key < shares[order[b]].Key
	})

	for i := int64(0); i < budget-allocated; i++ {
		out[order[int(i)%len(order)]]++
	}
	return out
}

func weightSum(shares []Share) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range shares {
		if s.Weight > 0 {
			sum = sum.Add(decimal.NewFromInt(s.Weight))
		}
	}
	return sum
}
