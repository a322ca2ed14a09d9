package validate

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/dukerupert/simp/internal/model"
)

var phoneJunk = regexp.MustCompile(`[^+\d]`)

// NormalizePhone strips formatting and rewrites a local number to the +234
// form. The result still has to pass the phoneNo rule.
func NormalizePhone(raw string) (string, error) {
	p := phoneJunk.ReplaceAllString(raw, "")
	switch {
	case strings.HasPrefix(p, "0"):
		p = "+234" + p[1:]
	case !strings.HasPrefix(p, "+234"):
		p = "+234" + p
	}
	if strings.Count(p, "+") > 1 {
		return "", &Error{Field: "phoneNo", Message: `Invalid phone number format: "+" can only appear at the beginning.`}
	}
	if err := rules["phoneNo"].check("phoneNo", p); err != nil {
		return "", err
	}
	return p, nil
}

// Signup returns a normalized copy of req: trimmed name and password,
// lowercased username and email, +234 phone number.
func Signup(req model.SignupRequest) (model.SignupRequest, error) {
	out := model.SignupRequest{
		Name:     strings.TrimSpace(req.Name),
		Username: strings.ToLower(strings.TrimSpace(req.Username)),
		Password: strings.TrimSpace(req.Password),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Category: strings.TrimSpace(req.Category),
		Role:     strings.TrimSpace(req.Role),
	}
	if out.Name == "" || strings.TrimSpace(req.PhoneNo) == "" || out.Username == "" || out.Password == "" {
		return out, &Error{Field: "body", Message: "All fields (name, phone number, username, password) are required."}
	}
	if err := rules["name"].check("name", out.Name); err != nil {
		return out, err
	}
	phone, err := NormalizePhone(req.PhoneNo)
	if err != nil {
		return out, err
	}
	out.PhoneNo = phone
	if err := rules["username"].check("username", out.Username); err != nil {
		return out, err
	}
	if err := rules["password"].check("password", out.Password); err != nil {
		return out, err
	}
	if fold(out.Username) == fold(out.Password) {
		return out, &Error{Field: "password", Message: "Username and password cannot be the same."}
	}
	if out.Email != "" {
		addr, err := mail.ParseAddress(out.Email)
		if err != nil || addr.Address != out.Email {
			return out, &Error{Field: "email", Message: "Email address is not valid."}
		}
	}
	return out, nil
}

// Login trims the credentials and checks both are present.
func Login(req model.LoginRequest) (model.LoginRequest, error) {
	out := model.LoginRequest{
		Identifier: strings.TrimSpace(req.Identifier),
		Password:   strings.TrimSpace(req.Password),
	}
	if out.Identifier == "" || out.Password == "" {
		return out, &Error{Field: "body", Message: "Username or phone number and password are required."}
	}
	return out, nil
}

// PhoneCandidate reports whether a login identifier can be read as a phone
// number, and its normalized form.
func PhoneCandidate(identifier string) (string, bool) {
	p, err := NormalizePhone(identifier)
	if err != nil {
		return "", false
	}
	return p, true
}

func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
