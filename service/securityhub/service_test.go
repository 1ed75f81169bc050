package securityhub

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
)

func TestIsNotEnabled(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "never enabled",
			err:  &smithy.GenericAPIError{Code: "InvalidAccessException"},
			want: true,
		},
		{
			name: "disabled after use",
			err:  &smithy.GenericAPIError{Code: "ResourceNotFoundException"},
			want: true,
		},
		{
			name: "wrapped api error",
			err:  fmt.Errorf("describe hub: %w", &smithy.GenericAPIError{Code: "InvalidAccessException"}),
			want: true,
		},
		{
			name: "throttled",
			err:  &smithy.GenericAPIError{Code: "ThrottlingException"},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("connection refused"),
			want: false,
		},
	}

	for _, tt := range tests {
		if got := isNotEnabled(tt.err); got != tt.want {
			t.Fatalf("%s: isNotEnabled() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
