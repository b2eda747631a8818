package mt5

import (
	"fmt"

	"github.com/alagbefranc/goldtrading-signal/internal/types"
)

// Trade server return codes.
const (
	RetcodeDone              = 10009
	RetcodeRequote           = 10004
	RetcodeInvalidVolume     = 10014
	RetcodeInvalidPrice      = 10015
	RetcodeInvalidStops      = 10016
	RetcodeTradingDisabled   = 10017
	RetcodeMarketClosed      = 10018
	RetcodeInsufficientFunds = 10019
	RetcodePriceChanged      = 10020
	RetcodeNoQuotes          = 10021
	RetcodeInvalidExpiration = 10022
	RetcodeOrderLocked       = 10028
	RetcodeOrderLimitReached = 10033
)

// RejectReason is the stable tag callers branch on instead of raw broker
// codes.
type RejectReason string

const (
	ReasonSuccess           RejectReason = "success"
	ReasonRequote           RejectReason = "requote"
	ReasonInvalidVolume     RejectReason = "invalid-volume"
	ReasonInvalidPrice      RejectReason = "invalid-price"
	ReasonInvalidStops      RejectReason = "invalid-stops"
	ReasonTradingDisabled   RejectReason = "trading-disabled"
	ReasonMarketClosed      RejectReason = "market-closed"
	ReasonInsufficientFunds RejectReason = "insufficient-funds"
	ReasonPriceChanged      RejectReason = "price-changed"
	ReasonNoQuotes          RejectReason = "no-quotes"
	ReasonInvalidExpiration RejectReason = "invalid-expiration"
	ReasonOrderLocked       RejectReason = "order-locked"
	ReasonOrderLimit        RejectReason = "order-limit-reached"
	ReasonUnknown           RejectReason = "unknown"
)

var retcodeReasons = map[int]RejectReason{
	RetcodeDone:              ReasonSuccess,
	RetcodeRequote:           ReasonRequote,
	RetcodeInvalidVolume:     ReasonInvalidVolume,
	RetcodeInvalidPrice:      ReasonInvalidPrice,
	RetcodeInvalidStops:      ReasonInvalidStops,
	RetcodeTradingDisabled:   ReasonTradingDisabled,
	RetcodeMarketClosed:      ReasonMarketClosed,
	RetcodeInsufficientFunds: ReasonInsufficientFunds,
	RetcodePriceChanged:      ReasonPriceChanged,
	RetcodeNoQuotes:          ReasonNoQuotes,
	RetcodeInvalidExpiration: ReasonInvalidExpiration,
	RetcodeOrderLocked:       ReasonOrderLocked,
	RetcodeOrderLimitReached: ReasonOrderLimit,
}

// MapRetcode translates a raw broker return code into its RejectReason.
func MapRetcode(code int) RejectReason {
	if reason, ok := retcodeReasons[code]; ok {
		return reason
	}
	return ReasonUnknown
}

// RejectionError wraps a broker rejection. Rejections are terminal
// decisions by the trade server and must not be retried.
type RejectionError struct {
	Retcode int
	Reason  RejectReason
	Comment string
}

func (e *RejectionError) Error() string {
	if e.Comment != "" {
		return fmt.Sprintf("order rejected: %s (retcode %d: %s)", e.Reason, e.Retcode, e.Comment)
	}
	return fmt.Sprintf("order rejected: %s (retcode %d)", e.Reason, e.Retcode)
}

func (e *RejectionError) Category() types.ErrorCategory { return types.CategoryRejected }
