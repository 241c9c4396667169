package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodCrypto PaymentMethod = "crypto"
)

// CryptoType 加密货币类型
type CryptoType string

const (
	CryptoBTC CryptoType = "BTC"
	CryptoETH CryptoType = "ETH"
	CryptoSOL CryptoType = "SOL"
)

// PlatformFeeRate 平台手续费率 5%
var PlatformFeeRate = decimal.RequireFromString("0.05")

// ContributionRecord 支持记录，仅在确认后展示，不落库
type ContributionRecord struct {
	CampaignID string `json:"campaignId"`

	Amount decimal.Decimal `json:"amount"`
	Fee    decimal.Decimal `json:"fee"`
	Total  decimal.Decimal `json:"total"`

	IsAnonymous bool   `json:"isAnonymous"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Note        string `json:"note"`

	PaymentMethod     PaymentMethod `json:"paymentMethod"`
	CryptoType        CryptoType    `json:"cryptoType,omitempty"`
	DestinationWallet string        `json:"destinationWallet,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// DonorName 展示用的支持者名称
func (c ContributionRecord) DonorName() string {
	if c.IsAnonymous {
		return "Anonymous Donor"
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// QuoteContribution 计算手续费（四舍五入到分）及合计
func QuoteContribution(amount decimal.Decimal) (fee, total decimal.Decimal) {
	fee = amount.Mul(PlatformFeeRate).Round(2)
	return fee, amount.Add(fee)
}
