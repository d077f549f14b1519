package models

// Voucher is a promotional code granted to the customer. The applied vs.
// unapplied split is a pure derivation from the cart's coupon list and is
// never stored.
type Voucher struct {
	Code   string  `json:"code"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// StoreCredit is the response of the store-credit balance endpoint.
type StoreCredit struct {
	Amount float64 `json:"store_credit"`
}

// VoucherCredit is the response of the voucher lookup endpoint.
type VoucherCredit struct {
	Vouchers     []Voucher `json:"vouchers"`
	UsedVouchers []Voucher `json:"used_vouchers"`
}

// Perk is one entry of the supplementary campaign-perks lookup.
type Perk struct {
	ID     int64   `json:"id"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}
