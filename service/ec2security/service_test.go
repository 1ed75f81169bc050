package ec2security

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

func permission(from, to int32, cidrs []string, v6 []string) types.IpPermission {
	perm := types.IpPermission{
		FromPort: aws.Int32(from),
		ToPort:   aws.Int32(to),
	}
	for _, cidr := range cidrs {
		perm.IpRanges = append(perm.IpRanges, types.IpRange{CidrIp: aws.String(cidr)})
	}
	for _, cidr := range v6 {
		perm.Ipv6Ranges = append(perm.Ipv6Ranges, types.Ipv6Range{CidrIpv6: aws.String(cidr)})
	}
	return perm
}

func TestExposesAdminPort(t *testing.T) {
	tests := []struct {
		name     string
		perm     types.IpPermission
		wantPort int32
		wantOpen bool
	}{
		{
			name:     "ssh open to world",
			perm:     permission(22, 22, []string{"0.0.0.0/0"}, nil),
			wantPort: 22,
			wantOpen: true,
		},
		{
			name:     "rdp open to world",
			perm:     permission(3389, 3389, []string{"0.0.0.0/0"}, nil),
			wantPort: 3389,
			wantOpen: true,
		},
		{
			name:     "ssh inside wide range",
			perm:     permission(0, 1024, []string{"0.0.0.0/0"}, nil),
			wantPort: 22,
			wantOpen: true,
		},
		{
			name:     "ipv6 open to world",
			perm:     permission(22, 22, nil, []string{"::/0"}),
			wantPort: 22,
			wantOpen: true,
		},
		{
			name:     "all traffic",
			perm:     permission(-1, -1, []string{"0.0.0.0/0"}, nil),
			wantPort: 22,
			wantOpen: true,
		},
		{
			name:     "nil ports cover everything",
			perm:     types.IpPermission{IpRanges: []types.IpRange{{CidrIp: aws.String("0.0.0.0/0")}}},
			wantPort: 22,
			wantOpen: true,
		},
		{
			name:     "ssh restricted to office",
			perm:     permission(22, 22, []string{"10.0.0.0/8"}, nil),
			wantOpen: false,
		},
		{
			name:     "https open to world",
			perm:     permission(443, 443, []string{"0.0.0.0/0"}, nil),
			wantOpen: false,
		},
		{
			name:     "no ranges at all",
			perm:     permission(22, 22, nil, nil),
			wantOpen: false,
		},
	}

	for _, tt := range tests {
		port, open := exposesAdminPort(tt.perm)
		if open != tt.wantOpen {
			t.Fatalf("%s: exposesAdminPort() open = %v, want %v", tt.name, open, tt.wantOpen)
		}
		if open && port != tt.wantPort {
			t.Fatalf("%s: exposesAdminPort() port = %d, want %d", tt.name, port, tt.wantPort)
		}
	}
}
