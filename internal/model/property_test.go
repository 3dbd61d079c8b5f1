package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/shopspring/decimal"
)

func validProperty() Property {
	return Property{
		Name:       "Harbor View",
		Address:    Address{Street: "12 Pier Rd", City: "Portland", State: "OR"},
		RentAmount: decimal.NewFromInt(1850),
		Currency:   "USD",
		Status:     PropertyAvailable,
	}
}

func TestProperty_Validate(t *testing.T) {
	tests := []struct {
		mutate  func(*Property)
		name    string
		errMsg  string
		wantErr bool
	}{
		{
			name:   "valid property",
			mutate: func(*Property) {},
		},
		{
			name:   "zero rent is allowed",
			mutate: func(p *Property) { p.RentAmount = decimal.Zero },
		},
		{
			name:    "missing name",
			mutate:  func(p *Property) { p.Name = "  " },
			wantErr: true,
			errMsg:  "property name is required",
		},
		{
			name:    "missing city",
			mutate:  func(p *Property) { p.Address.City = "" },
			wantErr: true,
			errMsg:  "property city is required",
		},
		{
			name:    "negative rent",
			mutate:  func(p *Property) { p.RentAmount = decimal.NewFromInt(-1) },
			wantErr: true,
			errMsg:  "rent amount cannot be negative",
		},
		{
			name:    "negative bedrooms",
			mutate:  func(p *Property) { p.Bedrooms = -2 },
			wantErr: true,
			errMsg:  "bedrooms cannot be negative",
		},
		{
			name:    "lower-case currency",
			mutate:  func(p *Property) { p.Currency = "usd" },
			wantErr: true,
			errMsg:  "three letter upper-case code",
		},
		{
			name:    "unknown status",
			mutate:  func(p *Property) { p.Status = "demolished" },
			wantErr: true,
			errMsg:  "unknown property status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProperty()
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, common.ErrInvalidArgument) {
				t.Errorf("Validate() error = %v, want ErrInvalidArgument", err)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.errMsg)
			}
		})
	}
}

func TestAddress_String(t *testing.T) {
	tests := []struct {
		name string
		want string
		addr Address
	}{
		{
			name: "full",
			addr: Address{Street: "1 Main St", City: "Austin", State: "TX", PostalCode: "78701", Country: "US"},
			want: "1 Main St, Austin, TX, 78701, US",
		},
		{
			name: "skips blanks",
			addr: Address{Street: " ", City: "Austin", Country: "US"},
			want: "Austin, US",
		},
		{
			name: "empty",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.addr.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateTenantID(t *testing.T) {
	for _, id := range []string{"", "   ", " padded", "padded\t"} {
		if err := ValidateTenantID(id); !errors.Is(err, common.ErrInvalidArgument) {
			t.Errorf("ValidateTenantID(%q) = %v, want ErrInvalidArgument", id, err)
		}
	}
	for _, id := range []string{"tenant-a", SystemTenant} {
		if err := ValidateTenantID(id); err != nil {
			t.Errorf("ValidateTenantID(%q) = %v", id, err)
		}
	}
	if !IsSystemTenant(SystemTenant) || IsSystemTenant("tenant-a") {
		t.Error("IsSystemTenant misclassified a tenant")
	}
}

func TestBase_Meta(t *testing.T) {
	var p Property
	var doc Document = &p
	doc.Meta().ID = "abc"
	if p.ID != "abc" {
		t.Errorf("Meta() did not address the embedded Base, ID = %q", p.ID)
	}
}
