package session

import (
	"fmt"
	"strings"
)

func validateCredentials(email, password string, minLen int) []string {
	var problems []string
	if strings.TrimSpace(email) == "" {
		problems = append(problems, "Email is required")
	}
	if password == "" {
		problems = append(problems, "Password is required")
	} else if len(password) < minLen {
		problems = append(problems, passwordTooShort(minLen))
	}
	return problems
}

func validateRegistration(in RegisterInput, minLen int) []string {
	var problems []string
	if strings.TrimSpace(in.Name) == "" {
		problems = append(problems, "Name is required")
	}
	problems = append(problems, validateCredentials(in.Email, in.Password, minLen)...)
	if strings.TrimSpace(in.Mobile) == "" {
		problems = append(problems, "Mobile number is required")
	}
	return problems
}

func passwordTooShort(minLen int) string {
	return fmt.Sprintf("Password must be at least %d characters", minLen)
}
