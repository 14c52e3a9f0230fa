package user

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRoleCode(t *testing.T) {
	tests := []struct {
		in      string
		want    RoleCode
		wantErr bool
	}{
		{in: "ADMIN", want: RoleCodeAdmin},
		{in: " customer ", want: RoleCodeCustomer},
		{in: "SUPER_ADMIN", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRoleCode(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidRoleCode)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
