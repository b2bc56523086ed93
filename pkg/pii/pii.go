// Package pii provides the catalogue of sensitive-data labels shared by the
// policy evaluator's entity layer: fast regex patterns for structured PII,
// placeholder masks, and the mapping from operator-facing labels to the
// statistical recognizer's entity types.
package pii

import (
	"regexp"
	"strings"
)

// Label is an operator-facing name for a category of sensitive data, as it
// appears in a rule's pattern field ("email address,phone number" or "ALL").
type Label string

const (
	EmailAddress  Label = "email address"
	PhoneNumber   Label = "phone number"
	USSSN         Label = "us ssn"
	CreditCard    Label = "credit card number"
	IBAN          Label = "iban"
	IPAddress     Label = "ip address"
	Passport      Label = "passport number"
	DateOfBirth   Label = "date of birth"
	USZIPCode     Label = "us zip code"
	DriverLicense Label = "driver license"

	// Recognizer-only categories, no structured pattern exists for these.
	Person   Label = "person"
	Location Label = "location"
	URL      Label = "url"
	Date     Label = "date"
	NRP      Label = "nrp"
	Medical  Label = "medical"
)

// Patterns contains the fast structured-PII regex for each label that has
// one. These run before the statistical recognizer.
var Patterns = map[Label]*regexp.Regexp{
	EmailAddress:  regexp.MustCompile(`\b[\w.+-]+@[\w-]+\.[a-zA-Z]{2,}\b`),
	PhoneNumber:   regexp.MustCompile(`\b(\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
	USSSN:         regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	CreditCard:    regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`),
	IBAN:          regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{4}\d{7}([A-Z0-9]?){0,16}\b`),
	IPAddress:     regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),
	Passport:      regexp.MustCompile(`\b[A-Z]{1,2}\d{6,9}\b`),
	DateOfBirth:   regexp.MustCompile(`(?i)\b(DOB|date of birth|born on)[:\s]+\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
	USZIPCode:     regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`),
	DriverLicense: regexp.MustCompile(`(?i)\b(DL|driver.?s?\s+licen[cs]e)[:\s#]*[A-Z0-9]{6,15}\b`),
}

// DetectionOrder runs more specific patterns first to reduce false positives
// from the broader digit-run patterns.
var DetectionOrder = []Label{
	EmailAddress,
	USSSN,
	IBAN,
	IPAddress,
	CreditCard,
	PhoneNumber,
	DateOfBirth,
	DriverLicense,
	Passport,
	USZIPCode,
}

// Aliases maps shorthand spellings accepted in rule patterns to their
// canonical label.
var Aliases = map[string]Label{
	"email":             EmailAddress,
	"phone":             PhoneNumber,
	"ssn":               USSSN,
	"credit card":       CreditCard,
	"us passport":       Passport,
	"us driver license": DriverLicense,
}

// RecognizerEntities maps labels to the statistical recognizer's entity
// type names.
var RecognizerEntities = map[Label]string{
	EmailAddress:  "EMAIL_ADDRESS",
	PhoneNumber:   "PHONE_NUMBER",
	USSSN:         "US_SSN",
	CreditCard:    "CREDIT_CARD",
	IBAN:          "IBAN_CODE",
	IPAddress:     "IP_ADDRESS",
	Passport:      "US_PASSPORT",
	DriverLicense: "US_DRIVER_LICENSE",
	Person:        "PERSON",
	Location:      "LOCATION",
	URL:           "URL",
	Date:          "DATE_TIME",
	NRP:           "NRP",
	Medical:       "MEDICAL_LICENSE",
}

// safeEntities is the conservative recognizer set used for "ALL": PERSON,
// LOCATION, URL and DATE_TIME fire on public-figure names and general text,
// so operators must opt into them by naming them explicitly.
var safeEntities = []string{
	"EMAIL_ADDRESS",
	"PHONE_NUMBER",
	"US_SSN",
	"CREDIT_CARD",
	"IBAN_CODE",
	"IP_ADDRESS",
	"MEDICAL_LICENSE",
	"US_PASSPORT",
	"US_DRIVER_LICENSE",
}

// IsAll reports whether a rule pattern requests every category.
func IsAll(pattern string) bool {
	return strings.ToUpper(strings.TrimSpace(pattern)) == "ALL"
}

func canonical(name string) Label {
	n := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := Aliases[n]; ok {
		return alias
	}
	return Label(n)
}

// ResolveLabels parses a rule pattern ("ALL" or comma-separated friendly
// names) into the structured-pattern labels it selects, in detection order.
func ResolveLabels(pattern string) []Label {
	if IsAll(pattern) {
		return DetectionOrder
	}

	requested := make(map[Label]bool)
	for _, part := range strings.Split(pattern, ",") {
		requested[canonical(part)] = true
	}

	var labels []Label
	for _, l := range DetectionOrder {
		if requested[l] {
			labels = append(labels, l)
		}
	}
	return labels
}

// ResolveEntities parses a rule pattern into recognizer entity types. "ALL"
// and unknown label sets resolve to the conservative subset.
func ResolveEntities(pattern string) []string {
	if IsAll(pattern) {
		return safeEntities
	}

	var entities []string
	for _, part := range strings.Split(pattern, ",") {
		if entity, ok := RecognizerEntities[canonical(part)]; ok {
			entities = append(entities, entity)
		}
	}
	if len(entities) == 0 {
		return safeEntities
	}
	return entities
}

// Placeholder returns the redaction mask for a label: "email address"
// becomes "[EMAIL_ADDRESS]".
func Placeholder(label Label) string {
	return "[" + strings.ReplaceAll(strings.ToUpper(string(label)), " ", "_") + "]"
}

// EntityPlaceholder returns the redaction mask for a recognizer entity
// type: "EMAIL_ADDRESS" becomes "[EMAIL_ADDRESS]".
func EntityPlaceholder(entityType string) string {
	return "[" + strings.ToUpper(entityType) + "]"
}
