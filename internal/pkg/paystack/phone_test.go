package paystack

import "testing"

func TestNormalizeKenyanPhone(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "0712345678", want: "254712345678", wantOK: true},
		{in: "0112345678", want: "254112345678", wantOK: true},
		{in: "712345678", want: "254712345678", wantOK: true},
		{in: "254712345678", want: "254712345678", wantOK: true},
		{in: "+254712345678", want: "254712345678", wantOK: true},
		{in: "0712 345 678", want: "254712345678", wantOK: true},
		{in: "0712-345-678", want: "254712345678", wantOK: true},
		{in: "(0712)345678", want: "254712345678", wantOK: true},
		{in: "", wantOK: false},
		{in: "12345", wantOK: false},
		{in: "0812345678", wantOK: false},
		{in: "25571234567", wantOK: false},
		{in: "07123456789", wantOK: false},
		{in: "not-a-number", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := NormalizeKenyanPhone(tt.in)
		if ok != tt.wantOK {
			t.Fatalf("NormalizeKenyanPhone(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
		}
		if ok && got != tt.want {
			t.Fatalf("NormalizeKenyanPhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
