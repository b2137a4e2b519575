package company

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanOperate(t *testing.T) {
	tests := []struct {
		status SubscriptionStatus
		want   bool
	}{
		{SubscriptionTrial, true},
		{SubscriptionActive, true},
		{SubscriptionPastDue, false},
		{SubscriptionCanceled, false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Company{SubscriptionStatus: tt.status}.CanOperate(), string(tt.status))
	}
}
