// Package wizard 多步骤表单向导：显式状态机加表单校验，与界面渲染无关
package wizard

import (
	"fmt"
	"strings"

	"github.com/blues/crowdfund/internal/model"
	"github.com/shopspring/decimal"
)

// SummaryLine 复核步骤中的一行摘要
type SummaryLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// StepDef 一个步骤的控件
type StepDef struct {
	Title  string
	Fields []Field
	// Check 必填之外的额外规则
	Check func(Form) []FieldError
}

// Definition 固定的线性向导
type Definition struct {
	Name        string
	Steps       []StepDef
	SkipStep    Step // 0 表示没有可跳过的步骤
	FinalAction string
	Summarize   func(Form) []SummaryLine
}

func (d *Definition) Total() int { return len(d.Steps) }

func (d *Definition) step(s Step) (StepDef, bool) {
	if s < 1 || int(s) > len(d.Steps) {
		return StepDef{}, false
	}
	return d.Steps[s-1], true
}

// Title 步骤标题
func (d *Definition) Title(s Step) string {
	sd, _ := d.step(s)
	return sd.Title
}

// 创建向导字段
const (
	FieldTitle           = "title"
	FieldShortTagline    = "shortTagline"
	FieldCategory        = "category"
	FieldLocation        = "location"
	FieldDescription     = "description"
	FieldCompanyName     = "companyName"
	FieldCompanyWebsite  = "companyWebsite"
	FieldIndustry        = "industry"
	FieldCompanyLocation = "companyLocation"
	FieldTargetAmount    = "targetAmount"
	FieldCurrency        = "currency"
	FieldMinContribution = "minContribution"
	FieldDeadline        = "deadline"
	FieldWalletAddress   = "walletAddress"
	FieldPreferredToken  = "preferredToken"
	FieldPayoutWallet    = "payoutWallet"
)

// 支持向导字段
const (
	FieldAmount        = "amount"
	FieldAnonymous     = "isAnonymous"
	FieldFirstName     = "firstName"
	FieldLastName      = "lastName"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldNote          = "note"
	FieldPaymentMethod = "paymentMethod"
	FieldCryptoType    = "cryptoType"
)

// CampaignWizard 六步创建向导，第 3 步公司信息可跳过
func CampaignWizard() *Definition {
	return &Definition{
		Name: "campaign",
		Steps: []StepDef{
			{
				Title: "Basics",
				Fields: []Field{
					{Name: FieldTitle, Label: "Campaign title", Required: true},
					{Name: FieldShortTagline, Label: "Short tagline"},
					{Name: FieldCategory, Label: "Category", Required: true},
					{Name: FieldLocation, Label: "Location"},
				},
			},
			{
				Title: "Story",
				Fields: []Field{
					{Name: FieldDescription, Label: "Description", Required: true},
				},
			},
			{
				Title: "Company profile",
				Fields: []Field{
					{Name: FieldCompanyName, Label: "Company name", Required: true},
					{Name: FieldCompanyWebsite, Label: "Website"},
					{Name: FieldIndustry, Label: "Industry", Required: true},
					{Name: FieldCompanyLocation, Label: "Company location"},
				},
			},
			{
				Title: "Funding",
				Fields: []Field{
					{Name: FieldTargetAmount, Label: "Target amount", Required: true},
					{Name: FieldCurrency, Label: "Currency"},
					{Name: FieldMinContribution, Label: "Minimum contribution"},
					{Name: FieldDeadline, Label: "Deadline"},
				},
			},
			{
				Title: "Payout",
				Fields: []Field{
					{Name: FieldWalletAddress, Label: "Wallet address", Required: true},
					{Name: FieldPreferredToken, Label: "Preferred token"},
					{Name: FieldPayoutWallet, Label: "Payout wallet"},
				},
			},
			{Title: "Review"},
		},
		SkipStep:    3,
		FinalAction: "publish",
		Summarize:   summarizeCampaign,
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func summarizeCampaign(f Form) []SummaryLine {
	currency := f.Value(FieldCurrency)
	if currency == "" {
		currency = model.DefaultCurrency
	}
	goal := "-"
	if amount := f.Value(FieldTargetAmount); amount != "" {
		goal = currency + " " + amount
	}
	rewards := "No Company Profile"
	if f.Value(FieldCompanyName) != "" {
		rewards = "Company Profile"
	}
	wallet := "-"
	if w := f.Value(FieldWalletAddress); w != "" {
		if len(w) > 10 {
			w = w[:10]
		}
		wallet = w + "..."
	}

	return []SummaryLine{
		{Label: "Title", Value: orDash(f.Value(FieldTitle))},
		{Label: "Goal", Value: goal},
		{Label: "Deadline", Value: orDash(f.Value(FieldDeadline))},
		{Label: "Rewards", Value: rewards},
		{Label: "Wallet", Value: wallet},
	}
}

// ParseAmount 解析支持金额，无法解析时为 0
func ParseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func anonymous(f Form) bool    { return f.Bool(FieldAnonymous) }
func notAnonymous(f Form) bool { return !anonymous(f) }

// ContributionWizard 三步支持向导，匿名时不要求身份信息
func ContributionWizard() *Definition {
	return &Definition{
		Name: "contribution",
		Steps: []StepDef{
			{
				Title:  "Amount",
				Fields: []Field{{Name: FieldAmount, Label: "Contribution amount", Required: true}},
				Check: func(f Form) []FieldError {
					if f.Value(FieldAmount) != "" && !ParseAmount(f.Value(FieldAmount)).IsPositive() {
						return []FieldError{{Field: FieldAmount, Message: "must be greater than zero"}}
					}
					return nil
				},
			},
			{
				Title: "Your details",
				Fields: []Field{
					{Name: FieldAnonymous, Label: "Contribute anonymously"},
					{Name: FieldFirstName, Label: "First name", Required: true, When: notAnonymous},
					{Name: FieldLastName, Label: "Last name"},
					{Name: FieldEmail, Label: "Email", Required: true, When: notAnonymous},
					{Name: FieldPhone, Label: "Phone"},
					{Name: FieldNote, Label: "Note"},
					{Name: FieldPaymentMethod, Label: "Payment method", Required: true},
					{Name: FieldCryptoType, Label: "Cryptocurrency", Required: true, When: func(f Form) bool {
						return f.Value(FieldPaymentMethod) == string(model.PaymentMethodCrypto)
					}},
				},
			},
			{Title: "Review"},
		},
		FinalAction: "submit",
		Summarize:   summarizeContribution,
	}
}

// PaymentLabel 支付方式首字母大写，用于展示
func PaymentLabel(method string) string {
	if method == "" {
		return "Cryptocurrency"
	}
	return strings.ToUpper(method[:1]) + method[1:]
}

func summarizeContribution(f Form) []SummaryLine {
	donor := strings.TrimSpace(f.Value(FieldFirstName) + " " + f.Value(FieldLastName))
	email := f.Value(FieldEmail)
	if anonymous(f) {
		donor = "Anonymous Donor"
		email = "Not provided"
	}

	amount := ParseAmount(f.Value(FieldAmount))
	fee, total := model.QuoteContribution(amount)

	return []SummaryLine{
		{Label: "Donor", Value: donor},
		{Label: "Email", Value: email},
		{Label: "Payment", Value: PaymentLabel(f.Value(FieldPaymentMethod))},
		{Label: "Amount", Value: fmt.Sprintf("$%s", amount.StringFixed(2))},
		{Label: "Fee", Value: fmt.Sprintf("$%s", fee.StringFixed(2))},
		{Label: "Total", Value: fmt.Sprintf("$%s", total.StringFixed(2))},
	}
}
