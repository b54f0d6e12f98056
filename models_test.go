package finclient_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	finclient "github.com/vandyand/go-finance-client"
)

func TestCredentialsValidate(t *testing.T) {
	tests := []struct {
		name    string
		creds   finclient.Credentials
		wantErr bool
	}{
		{
			name:    "valid",
			creds:   finclient.Credentials{Email: "a@b.com", Password: "Passw0rd1"},
			wantErr: false,
		},
		{
			name:    "missing email",
			creds:   finclient.Credentials{Password: "Passw0rd1"},
			wantErr: true,
		},
		{
			name:    "not an email",
			creds:   finclient.Credentials{Email: "not-an-email", Password: "Passw0rd1"},
			wantErr: true,
		},
		{
			name:    "missing password",
			creds:   finclient.Credentials{Email: "a@b.com"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistrationValidate(t *testing.T) {
	valid := finclient.Registration{
		Name:                 "Ada Lovelace",
		Email:                "ada@example.com",
		Password:             "Passw0rd1",
		PasswordConfirmation: "Passw0rd1",
	}
	assert.NoError(t, valid.Validate())

	mismatch := valid
	mismatch.PasswordConfirmation = "different1"
	assert.Error(t, mismatch.Validate())

	short := valid
	short.Password = "short"
	short.PasswordConfirmation = "short"
	assert.Error(t, short.Validate())
}

func TestPasswordChangeValidate(t *testing.T) {
	valid := finclient.PasswordChange{
		CurrentPassword:         "OldPassw0rd",
		NewPassword:             "NewPassw0rd",
		NewPasswordConfirmation: "NewPassw0rd",
	}
	assert.NoError(t, valid.Validate())

	mismatch := valid
	mismatch.NewPasswordConfirmation = "SomethingElse1"
	assert.Error(t, mismatch.Validate())
}
