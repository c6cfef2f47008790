package mpesa

import (
	"fmt"
	"math"
	"strconv"
)

// CallbackEnvelope is the shape Daraja POSTs to the callback URL. The carrier
// controls this contract; every field is optional from our point of view.
type CallbackEnvelope struct {
	Body CallbackBody `json:"Body"`
}

type CallbackBody struct {
	StkCallback *StkCallback `json:"stkCallback"`
}

type StkCallback struct {
	MerchantRequestID string           `json:"MerchantRequestID"`
	CheckoutRequestID string           `json:"CheckoutRequestID"`
	ResultCode        int              `json:"ResultCode"`
	ResultDesc        string           `json:"ResultDesc"`
	CallbackMetadata  CallbackMetadata `json:"CallbackMetadata"`
}

type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

// MetadataItem values arrive untyped: receipts are strings, amounts are
// numbers, phone numbers show up as either.
type MetadataItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

// Success reports whether the subscriber authorized the payment.
func (s *StkCallback) Success() bool {
	return s.ResultCode == 0
}

// Metadata pulls the settlement receipt, amount and phone out of the
// flexible key/value item list, defaulting to zero values when absent.
func (s *StkCallback) Metadata() (receipt string, amount int64, phone string) {
	for _, item := range s.CallbackMetadata.Item {
		switch item.Name {
		case "MpesaReceiptNumber":
			receipt = stringValue(item.Value)
		case "Amount":
			amount = intValue(item.Value)
		case "PhoneNumber":
			phone = stringValue(item.Value)
		}
	}
	return receipt, amount, phone
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

func intValue(v interface{}) int64 {
	switch val := v.(type) {
	case float64:
		return int64(math.Round(val))
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return int64(math.Round(f))
		}
	}
	return 0
}
