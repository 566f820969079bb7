package models

import "fmt"

// DateLayout is the calendar date format used by record documents.
const DateLayout = "2006-01-02"

// BloodGroups lists the canonical blood type codes accepted on records.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// Record is the unit of persistence: one student document in the
// remote store. ID is assigned by the store and immutable; a draft has
// no ID until the create call returns one. Dates travel as plain
// calendar strings, the way the store documents carry them.
type Record struct {
	ID             string `json:"id,omitempty"`
	AdmissionDate  string `json:"admissionDate" validate:"present"`
	BloodGroup     string `json:"bloodGroup" validate:"bloodgroup"`
	RollNo         string `json:"rollNo" validate:"present"`
	Section        string `json:"section" validate:"present"`
	Class          string `json:"class" validate:"present"`
	Name           string `json:"name" validate:"personname"`
	ContactNumber  string `json:"contactNumber" validate:"phone10"`
	GuardianName   string `json:"guardianName"`
	GuardianNumber string `json:"guardianNumber" validate:"phone10"`
	DateOfBirth    string `json:"dateOfBirth" validate:"dob"`
	Email          string `json:"email" validate:"emailbasic"`
}

// FieldNames enumerates the closed field schema of a record, excluding
// the store-assigned identifier. Validation and mutation iterate this
// list so both stay exhaustive.
var FieldNames = []string{
	"admissionDate",
	"bloodGroup",
	"rollNo",
	"section",
	"class",
	"name",
	"contactNumber",
	"guardianName",
	"guardianNumber",
	"dateOfBirth",
	"email",
}

// Field returns the named field value.
func (r Record) Field(name string) (string, error) {
	switch name {
	case "admissionDate":
		return r.AdmissionDate, nil
	case "bloodGroup":
		return r.BloodGroup, nil
	case "rollNo":
		return r.RollNo, nil
	case "section":
		return r.Section, nil
	case "class":
		return r.Class, nil
	case "name":
		return r.Name, nil
	case "contactNumber":
		return r.ContactNumber, nil
	case "guardianName":
		return r.GuardianName, nil
	case "guardianNumber":
		return r.GuardianNumber, nil
	case "dateOfBirth":
		return r.DateOfBirth, nil
	case "email":
		return r.Email, nil
	}
	return "", fmt.Errorf("unknown record field %q", name)
}

// SetField assigns the named field. The identifier is not addressable
// through here: it belongs to the store, not to user input.
func (r *Record) SetField(name, value string) error {
	switch name {
	case "admissionDate":
		r.AdmissionDate = value
	case "bloodGroup":
		r.BloodGroup = value
	case "rollNo":
		r.RollNo = value
	case "section":
		r.Section = value
	case "class":
		r.Class = value
	case "name":
		r.Name = value
	case "contactNumber":
		r.ContactNumber = value
	case "guardianName":
		r.GuardianName = value
	case "guardianNumber":
		r.GuardianNumber = value
	case "dateOfBirth":
		r.DateOfBirth = value
	case "email":
		r.Email = value
	default:
		return fmt.Errorf("unknown record field %q", name)
	}
	return nil
}

// FieldMap projects the mutable fields into a map suitable for the
// store's merge-semantics update call.
func (r Record) FieldMap() map[string]any {
	fields := make(map[string]any, len(FieldNames))
	for _, name := range FieldNames {
		value, _ := r.Field(name)
		fields[name] = value
	}
	return fields
}
