package enrollment

import (
	"strconv"
	"strings"

	"learnhub/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeableAmount converts a stored course price into the amount to charge.
// ok is false when the price is neither "free" nor a non-negative decimal; the
// amount is then zero.
func ChargeableAmount(price string) (amount decimal.Decimal, ok bool) {
	price = strings.TrimSpace(price)
	if strings.EqualFold(price, models.PriceFree) {
		return decimal.Zero, true
	}

	amount, err := decimal.NewFromString(price)
	if err != nil || amount.IsNegative() {
		return decimal.Zero, false
	}
	return amount, true
}

// NewReference returns ids like pay_1718000000000_3f9a1c2b7
func NewReference(prefix string, nowMillis int64) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return prefix + "_" + strconv.FormatInt(nowMillis, 10) + "_" + random
}
