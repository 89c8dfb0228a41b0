package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCoinType(t *testing.T) {
	tests := []struct {
		input   string
		want    CoinType
		wantErr bool
	}{
		{input: "btc", want: CoinTypeBTC},
		{input: "ETH", want: CoinTypeETH},
		{input: " bch ", want: CoinTypeBCH},
		{input: "doge", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NewCoinType(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoinType_DefaultConfirmations(t *testing.T) {
	assert.Equal(t, 3, CoinTypeBTC.DefaultConfirmations())
	assert.Equal(t, 6, CoinTypeBCH.DefaultConfirmations())
	assert.Equal(t, 12, CoinTypeETH.DefaultConfirmations())
	assert.Equal(t, 0, CoinType("doge").DefaultConfirmations())
}

func TestCoinType_ValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		coin    CoinType
		address string
		valid   bool
	}{
		{"btc p2pkh", CoinTypeBTC, "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2", true},
		{"btc bech32", CoinTypeBTC, "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", true},
		{"btc garbage", CoinTypeBTC, "0xdeadbeef", false},
		{"bch cashaddr", CoinTypeBCH, "bitcoincash:qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a", true},
		{"bch legacy", CoinTypeBCH, "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2", true},
		{"eth", CoinTypeETH, "0x52908400098527886E0F7030069857D2E4169EE7", true},
		{"eth short", CoinTypeETH, "0x5290", false},
		{"empty", CoinTypeETH, "", false},
		{"unknown coin", CoinType("doge"), "D8vFz4p1L37jdg47HXKtSHA5uYLYxbGgPD", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coin.ValidateAddress(tt.address)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestPaymentState_Classification(t *testing.T) {
	for _, s := range UnconfirmedStates() {
		assert.True(t, s.IsUnconfirmed(), s)
		assert.False(t, s.IsTerminal(), s)
	}
	for _, s := range []PaymentState{PaymentStateConfirmed, PaymentStateComped, PaymentStateExpired} {
		assert.True(t, s.IsTerminal(), s)
		assert.False(t, s.IsUnconfirmed(), s)
	}
	assert.False(t, PaymentState("refunded").IsValid())
}

func TestPaymentEvent_NotificationName(t *testing.T) {
	tests := []struct {
		event PaymentEvent
		want  string
	}{
		{PaymentEventPartiallyPay, "partially_paid"},
		{PaymentEventPay, "paid"},
		{PaymentEventComp, "paid"},
		{PaymentEventConfirm, "confirmed"},
		{PaymentEventExpire, "expired"},
	}

	for _, tt := range tests {
		t.Run(tt.event.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.NotificationName())
		})
	}

	_, err := NewPaymentEvent("refund")
	assert.Error(t, err)
}

func TestMoney(t *testing.T) {
	m := NewMoney(1050, "usd")
	assert.Equal(t, "USD", m.Currency())
	assert.Equal(t, "10.50 USD", m.String())
	assert.Equal(t, "-0.05 USD", NewMoney(-5, "USD").String())
	assert.True(t, m.IsPositive())
	assert.False(t, NewMoney(0, "USD").IsPositive())
	assert.True(t, m.Equals(NewMoney(1050, "USD")))
}

func TestNewPayableRef(t *testing.T) {
	ref, err := NewPayableRef("invoice", "42")
	require.NoError(t, err)
	assert.Equal(t, "invoice:42", ref.String())
	assert.False(t, ref.IsZero())

	_, err = NewPayableRef("", "42")
	assert.Error(t, err)
	_, err = NewPayableRef("invoice", " ")
	assert.Error(t, err)
	assert.True(t, PayableRef{}.IsZero())
}
