package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "proof-gateway/pkg/domain-errors"
)

// identityNumberPattern is the fixed-length numeric format accepted for the
// national identity number.
var identityNumberPattern = regexp.MustCompile(`^\d{12}$`)

// Issuer is a trusted credential authority. Immutable except Active; created
// at bootstrap, rarely changed.
type Issuer struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	PublicKeyX string    `json:"-"`
	PublicKeyY string    `json:"-"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// Credential is the persisted, PII-free record of an issuance. The commitment
// uniquely identifies one credential and never encodes reversible PII.
type Credential struct {
	ID         uuid.UUID `json:"id"`
	IssuerID   uuid.UUID `json:"issuer_id"`
	Commitment string    `json:"commitment"`
	Type       string    `json:"type"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Revoked    bool      `json:"revoked"`
}

// RawAttributes is the boundary payload for issuance. It is validated once
// here and never persisted.
type RawAttributes struct {
	Name           string `json:"name"`
	DateOfBirth    string `json:"dateOfBirth"`
	IdentityNumber string `json:"identityNumber"`
	Address        string `json:"address,omitempty"`
	Pincode        string `json:"pincode,omitempty"`
}

// Validate enforces boundary rules before any derivation happens.
func (a RawAttributes) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if _, err := ParseDateOfBirth(a.DateOfBirth); err != nil {
		return err
	}
	if !identityNumberPattern.MatchString(a.IdentityNumber) {
		return dErrors.New(dErrors.CodeValidation, "identity number must be exactly 12 digits")
	}
	return nil
}

// DateParts is a calendar date split for field-element hashing.
type DateParts struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// ParseDateOfBirth parses an ISO date string and rejects impossible calendar
// dates (time.Parse normalizes "2000-02-31"; the round trip catches it).
func ParseDateOfBirth(s string) (DateParts, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return DateParts{}, dErrors.New(dErrors.CodeValidation, "date of birth must be a valid YYYY-MM-DD date")
	}
	if t.Format("2006-01-02") != s {
		return DateParts{}, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%q is not a real calendar date", s))
	}
	return DateParts{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

// IdentityDigits splits the identity number into single digits.
func IdentityDigits(identityNumber string) []int {
	digits := make([]int, len(identityNumber))
	for i, r := range identityNumber {
		digits[i] = int(r - '0')
	}
	return digits
}

// RegionCode extracts the region from a postal pincode (first two digits).
func RegionCode(pincode string) int {
	if len(pincode) < 2 {
		return 0
	}
	code := 0
	for _, r := range pincode[:2] {
		if r < '0' || r > '9' {
			return 0
		}
		code = code*10 + int(r-'0')
	}
	return code
}

// AgeAt computes whole years between the birth date and now.
func (d DateParts) AgeAt(now time.Time) int {
	age := now.Year() - d.Year
	if int(now.Month()) < d.Month || (int(now.Month()) == d.Month && now.Day() < d.Day) {
		age--
	}
	return age
}

// PrivateWitness is returned to the prover and never persisted server-side.
type PrivateWitness struct {
	DateOfBirth    DateParts `json:"dateOfBirth"`
	IdentityDigits []int     `json:"identityDigits"`
	Age            int       `json:"age"`
	Pincode        int       `json:"pincode"`
	RegionCode     int       `json:"regionCode"`
	Salt           string    `json:"salt"`
	NullifierBase  string    `json:"nullifierBase"`
}

// PublicAssertion binds the commitment to the issuer key with an EdDSA
// signature and carries the public inputs a verifier needs.
type PublicAssertion struct {
	Commitment      string    `json:"commitment"`
	IssuerPublicKey [2]string `json:"issuerPublicKey"`
	Signature       string    `json:"signature"`
	SignatureR8     [2]string `json:"signatureR8"`
	SignatureS      string    `json:"signatureS"`
	CurrentDate     DateParts `json:"currentDate"`
}

// IssueResult is the full issuance response handed to the prover.
type IssueResult struct {
	CredentialID uuid.UUID       `json:"credentialId"`
	Commitment   string          `json:"commitment"`
	Assertion    PublicAssertion `json:"assertion"`
	Witness      PrivateWitness  `json:"privateWitness"`
	IssuedAt     time.Time       `json:"issuedAt"`
	ExpiresAt    time.Time       `json:"expiresAt"`
	IssuerID     uuid.UUID       `json:"issuerId"`
	IssuerName   string          `json:"issuerName"`
}

// CommitmentStatus answers a public "is this commitment backed by a live
// credential" query without exposing anything else.
type CommitmentStatus struct {
	Valid     bool       `json:"valid"`
	IssuedAt  *time.Time `json:"issuedAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Revoked   *bool      `json:"revoked,omitempty"`
}
