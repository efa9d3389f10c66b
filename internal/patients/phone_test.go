package patients

import "testing"

func TestNormalizeMobile(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"too short", "98765", "", true},
		{"valid ten digits", "9876543210", "9876543210", false},
		{"invalid leading digit", "5876543210", "", true},
		{"country prefix stripped", "+919876543210", "9876543210", false},
		{"bare 91 prefix stripped", "919876543210", "9876543210", false},
		{"trunk zero stripped", "09876543210", "9876543210", false},
		{"spaces and dashes ignored", "98765 432-10", "9876543210", false},
		{"letters rejected", "98765abcde", "", true},
		{"empty", "", "", true},
		{"eleven digits no prefix", "99876543210", "", true},
		{"leading six", "6123456789", "6123456789", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeMobile(tt.input)
			if tt.wantErr {
				if err != ErrInvalidMobile {
					t.Fatalf("expected ErrInvalidMobile, got %v (value %q)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCreatePatientRequestValidate(t *testing.T) {
	age := 30
	negative := -1

	tests := []struct {
		name string
		req  CreatePatientRequest
		want error
	}{
		{"valid", CreatePatientRequest{Name: "Asha", Mobile: "9999999999", Gender: GenderFemale, Age: &age}, nil},
		{"valid without age", CreatePatientRequest{Name: "Ravi", Mobile: "9876543210", Gender: GenderMale}, nil},
		{"missing name", CreatePatientRequest{Name: "  ", Mobile: "9876543210", Gender: GenderMale}, ErrNameRequired},
		{"bad mobile", CreatePatientRequest{Name: "Asha", Mobile: "12345", Gender: GenderFemale}, ErrInvalidMobile},
		{"missing gender", CreatePatientRequest{Name: "Asha", Mobile: "9876543210"}, ErrGenderRequired},
		{"negative age", CreatePatientRequest{Name: "Asha", Mobile: "9876543210", Gender: GenderFemale, Age: &negative}, ErrInvalidAge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); err != tt.want {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateNormalizesMobile(t *testing.T) {
	req := CreatePatientRequest{Name: "Asha", Mobile: "+919999999999", Gender: GenderFemale}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Mobile != "9999999999" {
		t.Errorf("expected normalized mobile, got %q", req.Mobile)
	}
}
