package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/kirillkom/procura/internal/core/domain"
	"github.com/kirillkom/procura/internal/core/ports"
)

var (
	firstNamePattern     = regexp.MustCompile(`^[a-zA-ZàèéìòùÀÈÉÌÒÙ\s'-]+$`)
	lastNamePattern      = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
	fiscalCodePattern    = regexp.MustCompile(`^[A-Z]{6}[0-9]{2}[A-Z][0-9]{2}[A-Z][0-9]{3}[A-Z]$`)
	prefixedCasePattern  = regexp.MustCompile(`^[A-Z]{2}[0-9]+$`)
	digitsOnlyPattern    = regexp.MustCompile(`^[0-9]*$`)
	earliestBirthDateExc = domain.Date{Year: 1900, Month: 1, Day: 1}
)

// applicantForm mirrors domain.ApplicantInput with the validation rules attached.
// The first failing tag of a field decides its message.
type applicantForm struct {
	FirstName      string `json:"nome" validate:"notblank,min=2,max=50,firstname"`
	LastName       string `json:"cognome" validate:"notblank,min=2,max=50,lastname"`
	BirthDate      string `json:"dataNascita" validate:"notblank,isodate,pastdate,after1900"`
	BirthPlace     string `json:"luogoNascita" validate:"notblank,min=2,max=100"`
	FiscalCode     string `json:"codiceFiscale" validate:"notblank,len=16,codicefiscale"`
	CaseReference  string `json:"numeroVestanet" validate:"omitempty,max=20,vestanet"`
	JurisdictionID string `json:"sedeSelezionata" validate:"notblank"`
	RequestType    string `json:"tipoRichiesta" validate:"notblank,requesttype"`
}

var fieldMessages = map[string]map[string]string{
	domain.FieldFirstName: {
		"notblank":  "Il nome è obbligatorio",
		"min":       "Il nome deve avere almeno 2 caratteri",
		"max":       "Il nome non può superare 50 caratteri",
		"firstname": "Il nome contiene caratteri non validi",
	},
	domain.FieldLastName: {
		"notblank": "Il cognome è obbligatorio",
		"min":      "Il cognome deve avere almeno 2 caratteri",
		"max":      "Il cognome non può superare 50 caratteri",
		"lastname": "Il cognome contiene caratteri non validi",
	},
	domain.FieldBirthDate: {
		"notblank":  "La data di nascita è obbligatoria",
		"isodate":   "Formato data non valido",
		"pastdate":  "La data di nascita deve essere nel passato",
		"after1900": "La data di nascita non è valida",
	},
	domain.FieldBirthPlace: {
		"notblank": "Il luogo di nascita è obbligatorio",
		"min":      "Il luogo di nascita deve avere almeno 2 caratteri",
		"max":      "Il luogo di nascita non può superare 100 caratteri",
	},
	domain.FieldFiscalCode: {
		"notblank":      "Il codice fiscale è obbligatorio",
		"len":           "Il codice fiscale deve essere di 16 caratteri",
		"codicefiscale": "Il codice fiscale non è valido",
	},
	domain.FieldCaseReference: {
		"max": "Il numero Vestanet non può superare 20 caratteri",
	},
	domain.FieldJurisdictionID: {
		"notblank": "La sede è obbligatoria",
	},
	domain.FieldRequestType: {
		"notblank":    "Il tipo di richiesta è obbligatorio",
		"requesttype": "Il tipo di richiesta non è valido",
	},
}

var caseReferenceMessages = map[domain.CaseReferenceRule]string{
	domain.CaseReferencePrefixed: "Deve iniziare con due lettere seguite solo da numeri (es. AB12345)",
	domain.CaseReferenceDigits:   "Il numero Vestanet deve contenere solo cifre",
}

const fallbackFieldMessage = "Valore non valido"

type ApplicantValidator struct {
	validate *validator.Validate
	clock    ports.Clock
	rule     domain.CaseReferenceRule
}

func NewApplicantValidator(clock ports.Clock, rule domain.CaseReferenceRule) (*ApplicantValidator, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	if rule == "" {
		rule = domain.CaseReferencePrefixed
	}
	if !rule.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "new applicant validator", fmt.Errorf("unknown case reference rule %q", rule))
	}

	v := &ApplicantValidator{
		validate: validator.New(),
		clock:    clock,
		rule:     rule,
	}
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	custom := map[string]validator.Func{
		"notblank":      validators.NotBlank,
		"firstname":     matches(firstNamePattern),
		"lastname":      matches(lastNamePattern),
		"codicefiscale": matches(fiscalCodePattern),
		"isodate":       isISODate,
		"pastdate":      v.isPastDate,
		"after1900":     isAfterEarliestBirthDate,
		"vestanet":      v.isCaseReference,
		"requesttype":   isRequestType,
	}
	for tag, fn := range custom {
		if err := v.validate.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %s validation: %w", tag, err)
		}
	}
	return v, nil
}

// Validate checks every field and reports all violations at once.
func (v *ApplicantValidator) Validate(raw domain.ApplicantInput) (domain.NormalizedRecord, error) {
	form := applicantForm{
		FirstName:      strings.TrimSpace(raw.FirstName),
		LastName:       strings.TrimSpace(raw.LastName),
		BirthDate:      strings.TrimSpace(raw.BirthDate),
		BirthPlace:     strings.TrimSpace(raw.BirthPlace),
		FiscalCode:     strings.ToUpper(strings.TrimSpace(raw.FiscalCode)),
		CaseReference:  strings.ToUpper(strings.TrimSpace(raw.CaseReference)),
		JurisdictionID: strings.TrimSpace(raw.JurisdictionID),
		RequestType:    strings.TrimSpace(raw.RequestType),
	}

	if err := v.validate.Struct(form); err != nil {
		return domain.NormalizedRecord{}, v.translate(err)
	}

	birthDate, err := domain.ParseDate(form.BirthDate)
	if err != nil {
		return domain.NormalizedRecord{}, domain.WrapError(domain.ErrInvalidInput, "validate applicant", err)
	}

	return domain.NormalizedRecord{
		FirstName:      form.FirstName,
		LastName:       form.LastName,
		BirthDate:      birthDate,
		BirthPlace:     form.BirthPlace,
		FiscalCode:     form.FiscalCode,
		CaseReference:  form.CaseReference,
		JurisdictionID: form.JurisdictionID,
		RequestType:    domain.RequestType(form.RequestType),
	}, nil
}

func (v *ApplicantValidator) translate(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.WrapError(domain.ErrInvalidInput, "validate applicant", err)
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = v.message(fe.Field(), fe.Tag())
	}
	return &domain.ValidationError{Fields: fields}
}

func (v *ApplicantValidator) message(field, tag string) string {
	if field == domain.FieldCaseReference && tag == "vestanet" {
		return caseReferenceMessages[v.rule]
	}
	if msg, ok := fieldMessages[field][tag]; ok {
		return msg
	}
	return fallbackFieldMessage
}

func (v *ApplicantValidator) today() domain.Date {
	return domain.DateOf(v.clock.Now())
}

func (v *ApplicantValidator) isPastDate(fl validator.FieldLevel) bool {
	d, err := domain.ParseDate(fl.Field().String())
	if err != nil {
		return false
	}
	return d.Before(v.today())
}

func (v *ApplicantValidator) isCaseReference(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if v.rule == domain.CaseReferenceDigits {
		return digitsOnlyPattern.MatchString(value)
	}
	return prefixedCasePattern.MatchString(value)
}

func matches(pattern *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	}
}

func isISODate(fl validator.FieldLevel) bool {
	_, err := domain.ParseDate(fl.Field().String())
	return err == nil
}

func isAfterEarliestBirthDate(fl validator.FieldLevel) bool {
	d, err := domain.ParseDate(fl.Field().String())
	if err != nil {
		return false
	}
	return d.After(earliestBirthDateExc)
}

func isRequestType(fl validator.FieldLevel) bool {
	return domain.RequestType(fl.Field().String()).Valid()
}
