package user

import (
	"context"
	"fmt"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims are the verified access-token claims of the caller
type Claims struct {
	UserID     string
	EmployeeID string
	CompanyID  string
	Role       Role
}

// ClaimsFromContext reads the claims placed on the request context by the JWT verifier.
// company_id is mandatory; employee_id may be empty for admin accounts without an employee record.
func ClaimsFromContext(ctx context.Context) (Claims, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Claims{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return Claims{}, fmt.Errorf("company_id claim is missing or invalid: %w", ErrMissingClaims)
	}

	c := Claims{CompanyID: companyID}
	c.UserID, _ = claims["user_id"].(string)
	c.EmployeeID, _ = claims["employee_id"].(string)
	role, _ := claims["role"].(string)
	c.Role = Role(role)

	return c, nil
}

// RequireEmployee returns the caller's employee id or ErrEmployeeRequired
func (c Claims) RequireEmployee() (string, error) {
	if c.EmployeeID == "" {
		return "", ErrEmployeeRequired
	}
	return c.EmployeeID, nil
}

// WithClaims returns a context carrying an unsigned token with the given claims,
// as if it had passed the JWT verifier. Background jobs use it to act on behalf of a company.
func WithClaims(ctx context.Context, c Claims) context.Context {
	token := jwt.New()
	_ = token.Set("user_id", c.UserID)
	_ = token.Set("employee_id", c.EmployeeID)
	_ = token.Set("company_id", c.CompanyID)
	_ = token.Set("role", string(c.Role))
	_ = token.Set("type", "access")
	return jwtauth.NewContext(ctx, token, nil)
}
