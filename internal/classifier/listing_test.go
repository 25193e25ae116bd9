package classifier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newListing(t *testing.T) *Listing {
	t.Helper()
	l, err := NewListing()
	require.NoError(t, err)
	return l
}

func TestListing_Classify(t *testing.T) {
	l := newListing(t)

	tests := []struct {
		name    string
		input   string
		want    Classification
		token   string
		reason  string
		missing []string
	}{
		{
			name:   "Empty text",
			input:  "",
			want:   ClassificationNone,
			reason: ReasonNoText,
		},
		{
			name:  "Mixed case keywords with ticker",
			input: "XYZ Listed on Spot market $BTC now",
			want:  ClassificationMatch,
			token: "BTC",
		},
		{
			name:  "Exchange announcement",
			input: "Binance Listed new pair Spot $XRP trading",
			want:  ClassificationMatch,
			token: "XRP",
		},
		{
			name:  "First qualifying ticker wins",
			input: "listed spot $ABC $DEF",
			want:  ClassificationMatch,
			token: "ABC",
		},
		{
			name:  "Bare dollar sign is skipped for a later ticker",
			input: "listed spot $ $PEPE",
			want:  ClassificationMatch,
			token: "PEPE",
		},
		{
			name:  "Token keeps case and punctuation",
			input: "LISTED for SPOT trading: $wif, live",
			want:  ClassificationMatch,
			token: "wif,",
		},
		{
			name:  "Only the first dollar sign is stripped",
			input: "listed spot $$DOGE",
			want:  ClassificationMatch,
			token: "$DOGE",
		},
		{
			name:  "Keywords embedded in other words",
			input: "Delisted from spotlight $OLD",
			want:  ClassificationMatch,
			token: "OLD",
		},
		{
			name:  "Newlines and tabs separate tokens",
			input: "New listing!\nListed\ton spot\n$SOL\n",
			want:  ClassificationMatch,
			token: "SOL",
		},
		{
			name:  "Control separators split tokens",
			input: "listed spot\x1f$X\x1cnext",
			want:  ClassificationMatch,
			token: "X",
		},
		{
			name:  "Unicode spaces split tokens",
			input: "listed\u00a0spot\u2003$Y\u3000later",
			want:  ClassificationMatch,
			token: "Y",
		},
		{
			name:  "Non ASCII text around the ticker",
			input: "Listé puis listed sur le marché spot $ÉTÉ",
			want:  ClassificationMatch,
			token: "ÉTÉ",
		},
		{
			name:   "Bare dollar sign only",
			input:  "$ listed spot",
			want:   ClassificationNone,
			reason: ReasonNoToken,
		},
		{
			name:   "Keywords without any ticker",
			input:  "Token listed on spot market soon",
			want:   ClassificationNone,
			reason: ReasonNoToken,
		},
		{
			name:   "Dollar sign inside a word does not count",
			input:  "listed spot price US$100",
			want:   ClassificationNone,
			reason: ReasonNoToken,
		},
		{
			name:    "Missing spot",
			input:   "BTC listed today $BTC",
			want:    ClassificationNone,
			reason:  "'spot' not found",
			missing: []string{"spot"},
		},
		{
			name:    "Missing listed",
			input:   "Spot trading opens for $ETH",
			want:    ClassificationNone,
			reason:  "'listed' not found",
			missing: []string{"listed"},
		},
		{
			name:    "Missing both keywords",
			input:   "gm $BTC",
			want:    ClassificationNone,
			reason:  "'listed' not found, 'spot' not found",
			missing: []string{"listed", "spot"},
		},
		{
			name:    "Whitespace only",
			input:   "   ",
			want:    ClassificationNone,
			reason:  "'listed' not found, 'spot' not found",
			missing: []string{"listed", "spot"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			got := l.Classify(tt.input)

			req.Equal(tt.want, got.Classification)
			req.Equal(tt.token, got.Token)
			req.Equal(tt.want == ClassificationMatch, got.Matched())
			if tt.reason != "" {
				req.Equal(tt.reason, got.Reason)
			}
			req.Equal(tt.missing, got.Missing)
		})
	}
}

func TestListing_ClassifyIsDeterministic(t *testing.T) {
	req := require.New(t)
	l := newListing(t)
	other := newListing(t)

	inputs := []string{
		"",
		"listed spot $ABC $DEF",
		"$ listed spot",
		"nothing here",
		"Binance Listed new pair Spot $XRP trading",
	}
	for _, in := range inputs {
		first := l.Classify(in)
		req.Equal(first, l.Classify(in), "input=%q", in)
		req.Equal(first, other.Classify(in), "input=%q", in)
	}
}

func TestListing_ClassifyConcurrent(t *testing.T) {
	l := newListing(t)
	done := make(chan Result, 16)

	for i := 0; i < cap(done); i++ {
		go func() {
			done <- l.Classify("XYZ Listed on Spot market $BTC now")
		}()
	}
	for i := 0; i < cap(done); i++ {
		got := <-done
		require.Equal(t, "BTC", got.Token)
	}
}
