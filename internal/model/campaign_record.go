package model

import (
	"time"
)

const (
	DefaultCurrency  = "USD"
	DefaultDaysLeft  = 30
	MaxGalleryImages = 5

	// DeadlineLayout 截止日期格式（ISO 日期）
	DeadlineLayout = "2006-01-02"
)

// CampaignRecord 众筹活动目录条目
type CampaignRecord struct {
	ID string `json:"id"`

	// 基本信息
	Title        string `json:"title"`
	ShortTagline string `json:"shortTagline"`
	Category     string `json:"category"`
	Location     string `json:"location"`
	Description  string `json:"description"`

	// 众筹信息
	TargetAmount    string `json:"targetAmount"`
	Currency        string `json:"currency"`
	MinContribution string `json:"minContribution,omitempty"`
	Deadline        string `json:"deadline,omitempty"`

	// 公司信息
	CompanyName     string `json:"companyName,omitempty"`
	CompanyWebsite  string `json:"companyWebsite,omitempty"`
	Industry        string `json:"industry,omitempty"`
	CompanyLocation string `json:"companyLocation,omitempty"`

	// 收款信息
	WalletAddress  string `json:"walletAddress,omitempty"`
	PreferredToken string `json:"preferredToken,omitempty"`
	PayoutWallet   string `json:"payoutWallet,omitempty"`

	CreatedAt time.Time `json:"createdAt"`

	// 统计信息，创建后不再修改
	Raised   string `json:"raised"`
	Backers  int    `json:"backers"`
	Progress int    `json:"progress"`
	DaysLeft int    `json:"daysLeft"`

	// HasImages 记录存储中是否存在同 ID 的图片负载
	HasImages bool `json:"hasImages"`
}

// Creator 活动发起方名称
func (r CampaignRecord) Creator() string {
	return r.CompanyName
}
