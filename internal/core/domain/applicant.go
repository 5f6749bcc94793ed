package domain

import (
	"fmt"
	"strings"
)

type RequestType string

const (
	RequestAsylum        RequestType = "asilo"
	RequestRecordsAccess RequestType = "accesso"
)

func (t RequestType) Valid() bool {
	switch t {
	case RequestAsylum, RequestRecordsAccess:
		return true
	default:
		return false
	}
}

func ParseRequestType(s string) (RequestType, error) {
	t := RequestType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", WrapError(ErrInvalidInput, "parse request type", fmt.Errorf("unknown value %q", s))
	}
	return t, nil
}

// CaseReferenceRule selects the accepted VESTANET number format.
type CaseReferenceRule string

const (
	// CaseReferencePrefixed accepts two letters followed by digits, e.g. AB12345.
	CaseReferencePrefixed CaseReferenceRule = "prefixed"
	// CaseReferenceDigits accepts digits only.
	CaseReferenceDigits CaseReferenceRule = "digits"
)

func (r CaseReferenceRule) Valid() bool {
	return r == CaseReferencePrefixed || r == CaseReferenceDigits
}

// Wire names of the applicant fields, also used as validation error keys.
const (
	FieldFirstName      = "nome"
	FieldLastName       = "cognome"
	FieldBirthDate      = "dataNascita"
	FieldBirthPlace     = "luogoNascita"
	FieldFiscalCode     = "codiceFiscale"
	FieldCaseReference  = "numeroVestanet"
	FieldJurisdictionID = "sedeSelezionata"
	FieldRequestType    = "tipoRichiesta"
)

// ApplicantInput is the raw, untrusted form submission.
type ApplicantInput struct {
	FirstName      string `json:"nome"`
	LastName       string `json:"cognome"`
	BirthDate      string `json:"dataNascita"`
	BirthPlace     string `json:"luogoNascita"`
	FiscalCode     string `json:"codiceFiscale"`
	CaseReference  string `json:"numeroVestanet,omitempty"`
	JurisdictionID string `json:"sedeSelezionata"`
	RequestType    string `json:"tipoRichiesta"`
}

// NormalizedRecord is an ApplicantInput that passed validation.
type NormalizedRecord struct {
	FirstName      string      `json:"nome"`
	LastName       string      `json:"cognome"`
	BirthDate      Date        `json:"dataNascita"`
	BirthPlace     string      `json:"luogoNascita"`
	FiscalCode     string      `json:"codiceFiscale"`
	CaseReference  string      `json:"numeroVestanet,omitempty"`
	JurisdictionID string      `json:"sedeSelezionata"`
	RequestType    RequestType `json:"tipoRichiesta"`
}

func (r NormalizedRecord) FullName() string {
	return r.FirstName + " " + r.LastName
}

func (r NormalizedRecord) HasCaseReference() bool {
	return strings.TrimSpace(r.CaseReference) != ""
}
