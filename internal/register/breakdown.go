package register

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fluxo-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
)

// Denominations are the bills a cashier counts at closing, largest first.
var Denominations = []int64{10000, 5000, 2000, 1000, 500, 200, 100, 50, 20, 10}

// Sale is the part of an order the register cares about.
type Sale struct {
	PaymentType string
	Total       decimal.Decimal
}

// Breakdown is the day's sales split by payment type.
type Breakdown struct {
	Cash        decimal.Decimal `json:"cash"`
	Card        decimal.Decimal `json:"card"`
	MercadoPago decimal.Decimal `json:"mercadopago"`
	Transfer    decimal.Decimal `json:"transfer"`
	Total       decimal.Decimal `json:"total"`
	OrderCount  int             `json:"order_count"`
}

// Summarize splits sales by payment type. Unknown or missing payment types
// count as cash.
func Summarize(sales []Sale) Breakdown {
	b := Breakdown{
		Cash:        decimal.Zero,
		Card:        decimal.Zero,
		MercadoPago: decimal.Zero,
		Transfer:    decimal.Zero,
		Total:       decimal.Zero,
	}
	for _, sale := range sales {
		b.OrderCount++
		b.Total = b.Total.Add(sale.Total)
		switch enums.NormalizePaymentType(sale.PaymentType) {
		case enums.PaymentTypeCard:
			b.Card = b.Card.Add(sale.Total)
		case enums.PaymentTypeMercadoPago:
			b.MercadoPago = b.MercadoPago.Add(sale.Total)
		case enums.PaymentTypeTransfer:
			b.Transfer = b.Transfer.Add(sale.Total)
		default:
			b.Cash = b.Cash.Add(sale.Total)
		}
	}
	return b
}

// ByPayment is the breakdown keyed by payment type, as stored on a closing.
func (b Breakdown) ByPayment() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		enums.PaymentTypeCash.String():        b.Cash,
		enums.PaymentTypeCard.String():        b.Card,
		enums.PaymentTypeMercadoPago.String(): b.MercadoPago,
		enums.PaymentTypeTransfer.String():    b.Transfer,
	}
}

// CountBills totals a bill count keyed by denomination and returns the
// non-zero entries keyed as strings for storage.
func CountBills(bills map[int64]int) (decimal.Decimal, map[string]int, error) {
	known := make(map[int64]struct{}, len(Denominations))
	for _, d := range Denominations {
		known[d] = struct{}{}
	}

	denoms := make([]int64, 0, len(bills))
	for d := range bills {
		denoms = append(denoms, d)
	}
	sort.Slice(denoms, func(i, j int) bool { return denoms[i] > denoms[j] })

	total := decimal.Zero
	kept := make(map[string]int)
	for _, d := range denoms {
		count := bills[d]
		if _, ok := known[d]; !ok {
			return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown bill denomination").
				WithDetails(map[string]any{"denomination": d})
		}
		if count < 0 {
			return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeValidation, "bill count cannot be negative").
				WithDetails(map[string]any{"denomination": d})
		}
		if count == 0 {
			continue
		}
		total = total.Add(decimal.NewFromInt(d).Mul(decimal.NewFromInt(int64(count))))
		kept[strconv.FormatInt(d, 10)] = count
	}
	return total, kept, nil
}
