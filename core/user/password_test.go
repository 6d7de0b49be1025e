package user

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	salt1, err := GenerateSalt()
	require.NoError(t, err)
	salt2, err := GenerateSalt()
	require.NoError(t, err)
	require.Len(t, salt1, 32)
	require.NotEqual(t, salt1, salt2)

	h1, err := Hash("pwd", salt1)
	require.NoError(t, err)
	h1bis, err := Hash("pwd", salt1)
	require.NoError(t, err)
	h2, err := Hash("pwd", salt2)
	require.NoError(t, err)

	assert.Equal(t, h1, h1bis, "same inputs")
	assert.NotEqual(t, h1, h2, "different salts")
	assert.Len(t, h1, 64)

	salt := "00000000000000000000000000000000"
	sum := sha256.Sum256([]byte("pwd" + salt))
	known, err := Hash("pwd", salt)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(sum[:]), known)
}

func TestHashInvalidSalt(t *testing.T) {
	tests := []struct {
		name string
		salt string
	}{
		{name: "empty", salt: ""},
		{name: "too short", salt: "abcdef"},
		{name: "too long", salt: "000000000000000000000000000000000"},
		{name: "not hex", salt: "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Hash("pwd", tt.salt)
			assert.Equal(t, ErrInvalidSalt, err)
		})
	}
}

func TestCheckPassword(t *testing.T) {
	var usr User
	require.NoError(t, usr.SetPassword("s3cr3t-pwd"))
	assert.True(t, usr.CheckPassword("s3cr3t-pwd"))
	assert.False(t, usr.CheckPassword("wrong"))

	usr.Salt = "bad"
	assert.False(t, usr.CheckPassword("s3cr3t-pwd"), "invalid stored salt")
}

func TestPasswordPolicyViolation(t *testing.T) {
	tests := []struct {
		name string
		pwd  string
		want string
	}{
		{name: "too short", pwd: "Ab1!", want: pwdMinLenTag},
		{name: "whitespace", pwd: "Abc 12345!", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", want: pwdNotAllNumTag},
		{name: "similar to username", pwd: "johndoe12", want: pwdAttrSimTag},
		{name: "similar to name", pwd: "JohnDoe!!", want: pwdAttrSimTag},
		{name: "valid", pwd: "correct-horse-battery", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PasswordPolicyViolation(tt.pwd, "John Doe", "johndoe", "")
			assert.Equal(t, tt.want, got)
			if tt.want != "" {
				assert.NotEmpty(t, PasswordPolicyText(got))
			}
		})
	}
}
