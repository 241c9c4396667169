package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_ContributionAmount(t *testing.T) {
	def := ContributionWizard()

	tests := []struct {
		name   string
		amount string
		want   []string
	}{
		{"missing", "", []string{FieldAmount}},
		{"zero", "0", []string{FieldAmount}},
		{"negative", "-5", []string{FieldAmount}},
		{"garbage", "abc", []string{FieldAmount}},
		{"positive", "25", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(def, 1, Form{FieldAmount: tt.amount})
			if tt.want == nil {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.want, fieldNames(errs))
		})
	}
}

func TestValidate_AnonymousDropsIdentity(t *testing.T) {
	def := ContributionWizard()

	errs := Validate(def, 2, Form{FieldPaymentMethod: "card"})
	assert.ElementsMatch(t, []string{FieldFirstName, FieldEmail}, fieldNames(errs))

	errs = Validate(def, 2, Form{FieldPaymentMethod: "card", FieldAnonymous: "on"})
	assert.Empty(t, errs)
}

func TestValidate_CryptoNeedsType(t *testing.T) {
	def := ContributionWizard()
	form := Form{FieldAnonymous: "true", FieldPaymentMethod: "crypto"}

	assert.Equal(t, []string{FieldCryptoType}, fieldNames(Validate(def, 2, form)))

	form[FieldCryptoType] = "ETH"
	assert.Empty(t, Validate(def, 2, form))
}

func TestValidate_OutOfRangeStep(t *testing.T) {
	def := CampaignWizard()
	assert.Nil(t, Validate(def, 0, Form{}))
	assert.Nil(t, Validate(def, 7, Form{}))
	assert.Empty(t, Validate(def, 6, Form{}))
}

func TestForm_Helpers(t *testing.T) {
	f := Form{"a": "  x  ", "b": "On"}
	assert.Equal(t, "x", f.Value("a"))
	assert.True(t, f.Bool("b"))
	assert.False(t, f.Bool("a"))
	assert.False(t, f.Bool("missing"))

	f.Merge(Form{"a": "y", "c": "z"})
	assert.Equal(t, "y", f["a"])
	assert.Equal(t, "z", f["c"])
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Step: 2, Fields: []FieldError{{Field: "email", Message: "required"}}}
	assert.Equal(t, "step 2: validation failed: email", err.Error())
}

func TestSummarizeCampaign_Defaults(t *testing.T) {
	lines := summarizeCampaign(Form{})
	assert.Equal(t, []SummaryLine{
		{Label: "Title", Value: "-"},
		{Label: "Goal", Value: "-"},
		{Label: "Deadline", Value: "-"},
		{Label: "Rewards", Value: "No Company Profile"},
		{Label: "Wallet", Value: "-"},
	}, lines)

	lines = summarizeCampaign(Form{FieldTargetAmount: "100"})
	assert.Equal(t, "USD 100", lines[1].Value)
}

func TestSummarizeContribution_Anonymous(t *testing.T) {
	lines := summarizeContribution(Form{FieldAnonymous: "on", FieldFirstName: "Ada", FieldAmount: "10"})
	assert.Equal(t, SummaryLine{Label: "Donor", Value: "Anonymous Donor"}, lines[0])
	assert.Equal(t, SummaryLine{Label: "Email", Value: "Not provided"}, lines[1])
	assert.Equal(t, SummaryLine{Label: "Payment", Value: "Cryptocurrency"}, lines[2])
	assert.Equal(t, SummaryLine{Label: "Fee", Value: "$0.50"}, lines[4])
}

func TestForm_Scoped(t *testing.T) {
	def := CampaignWizard()
	posted := Form{FieldTitle: "Garden", FieldCategory: "community", FieldWalletAddress: "", FieldDescription: "x"}

	assert.Equal(t, Form{FieldTitle: "Garden", FieldCategory: "community"}, posted.Scoped(def, 1))
	assert.Empty(t, posted.Scoped(def, 6))
	assert.Empty(t, posted.Scoped(def, 9))
}
