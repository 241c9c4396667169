package logic

import (
	"fmt"
	"strings"
	"time"

	"github.com/blues/crowdfund/internal/logger"
	"github.com/blues/crowdfund/internal/model"
	"github.com/blues/crowdfund/internal/wizard"
	"github.com/shopspring/decimal"
)

// CampaignFinder 按 ID 查找目录条目
type CampaignFinder interface {
	Find(id string) (model.CampaignRecord, bool)
}

// Quote 手续费试算结果
type Quote struct {
	Amount decimal.Decimal `json:"amount"`
	Fee    decimal.Decimal `json:"fee"`
	Total  decimal.Decimal `json:"total"`
}

// ContributionResult 提交结果，仅用于展示
type ContributionResult struct {
	Record  model.ContributionRecord `json:"record"`
	Message string                   `json:"message"`
}

// ContributionLogic 支持流程
type ContributionLogic struct {
	wallets map[model.CryptoType]string
	catalog CampaignFinder
	now     func() time.Time
}

func NewContributionLogic(wallets map[model.CryptoType]string, catalog CampaignFinder, now func() time.Time) *ContributionLogic {
	if now == nil {
		now = time.Now
	}
	return &ContributionLogic{wallets: wallets, catalog: catalog, now: now}
}

// DestinationWallet 返回该币种的收款地址
func (l *ContributionLogic) DestinationWallet(t model.CryptoType) (string, bool) {
	w, ok := l.wallets[model.CryptoType(strings.ToUpper(string(t)))]
	return w, ok
}

// Quote 计算 5% 平台手续费及合计
func (l *ContributionLogic) Quote(amount decimal.Decimal) Quote {
	fee, total := model.QuoteContribution(amount)
	return Quote{Amount: amount, Fee: fee, Total: total}
}

// Submit 在复核步骤确认后生成支持记录与确认文案。记录只写日志，不持久化。
// 提交前重新校验各步骤，金额不大于 0 时状态机回到第一步并返回校验错误。
func (l *ContributionLogic) Submit(s *Session, confirmed bool) (*ContributionResult, error) {
	if s.Kind != KindContribution {
		return nil, ErrWrongSession
	}
	if !confirmed {
		return nil, ErrConfirmationRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.machine.AtTerminal() {
		return nil, ErrNotReady
	}

	// 金额不大于 0 时退回第一步
	if err := s.machine.Revalidate(s.form); err != nil {
		return nil, err
	}

	form := s.form
	amount := wizard.ParseAmount(form.Value(wizard.FieldAmount))

	method := model.PaymentMethod(form.Value(wizard.FieldPaymentMethod))
	if method == "" {
		method = model.PaymentMethodCrypto
	}

	q := l.Quote(amount)
	rec := model.ContributionRecord{
		CampaignID:    s.CampaignID,
		Amount:        q.Amount,
		Fee:           q.Fee,
		Total:         q.Total,
		IsAnonymous:   form.Bool(wizard.FieldAnonymous),
		Note:          form.Value(wizard.FieldNote),
		PaymentMethod: method,
		CreatedAt:     l.now(),
	}
	if !rec.IsAnonymous {
		rec.FirstName = form.Value(wizard.FieldFirstName)
		rec.LastName = form.Value(wizard.FieldLastName)
		rec.Email = form.Value(wizard.FieldEmail)
		rec.Phone = form.Value(wizard.FieldPhone)
	}
	if method == model.PaymentMethodCrypto {
		rec.CryptoType = model.CryptoType(strings.ToUpper(form.Value(wizard.FieldCryptoType)))
		rec.DestinationWallet, _ = l.DestinationWallet(rec.CryptoType)
	}

	msg := ConfirmationMessage(l.campaignTitle(s.CampaignID), rec)
	logger.Info("Contribution to campaign %s: donor=%q amount=%s fee=%s total=%s method=%s",
		rec.CampaignID, rec.DonorName(), rec.Amount.StringFixed(2), rec.Fee.StringFixed(2), rec.Total.StringFixed(2), rec.PaymentMethod)

	s.resetLocked()
	return &ContributionResult{Record: rec, Message: msg}, nil
}

func (l *ContributionLogic) campaignTitle(id string) string {
	if l.catalog != nil {
		if r, ok := l.catalog.Find(id); ok && r.Title != "" {
			return r.Title
		}
	}
	return "this campaign"
}

// ConfirmationMessage 提交后展示的感谢文案
func ConfirmationMessage(title string, rec model.ContributionRecord) string {
	closing := "You will receive a confirmation email shortly with payment instructions."
	if rec.IsAnonymous {
		closing = "Your donation will remain anonymous."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for supporting \"%s\"!\n\n", title)
	fmt.Fprintf(&b, "Donor: %s\n", rec.DonorName())
	fmt.Fprintf(&b, "Contribution: $%s\n", rec.Amount.String())
	fmt.Fprintf(&b, "Platform Fee: $%s\n", rec.Fee.StringFixed(2))
	fmt.Fprintf(&b, "Total: $%s\n\n", rec.Total.StringFixed(2))
	fmt.Fprintf(&b, "Payment Method: %s\n\n", wizard.PaymentLabel(string(rec.PaymentMethod)))
	b.WriteString(closing)
	return b.String()
}
