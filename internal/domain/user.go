package domain

import "time"

// User roles. Customers consume services, providers list them.
const (
	RoleCustomer = "customer"
	RoleProvider = "provider"
)

// Authentication methods. The method used when the account was first created.
const (
	AuthMethodPhone = "phone"
	AuthMethodEmail = "email"
)

// User is a durable identity, independent of any single authentication channel.
// Phone-auth users may have no email and vice versa; at least one of the two
// identifiers is always present.
type User struct {
	UserID          string  `json:"id" dynamodbav:"user_id"`
	PhoneNumber     *string `json:"phoneNumber,omitempty" dynamodbav:"phone_number,omitempty"`
	Email           *string `json:"email,omitempty" dynamodbav:"email,omitempty"`
	PasswordHash    string  `json:"-" dynamodbav:"password_hash"`
	FirstName       string  `json:"firstName,omitempty" dynamodbav:"first_name"`
	LastName        string  `json:"lastName,omitempty" dynamodbav:"last_name"`
	IsPhoneVerified bool    `json:"isPhoneVerified" dynamodbav:"is_phone_verified"`
	IsEmailVerified bool    `json:"isEmailVerified" dynamodbav:"is_email_verified"`
	Role            string  `json:"role" dynamodbav:"role"`
	AuthMethod      string  `json:"authMethod,omitempty" dynamodbav:"auth_method"`

	// ResetToken fields back the forgot-password flow. The token is single-use:
	// cleared on successful reset.
	ResetToken          string    `json:"-" dynamodbav:"reset_token,omitempty"`
	ResetTokenExpiresAt int64     `json:"-" dynamodbav:"reset_token_expires_at,omitempty"`
	CreatedAt           time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt           time.Time `json:"updated" dynamodbav:"updated_at"`
}

// EmailRegisterRequest is the payload for email/password registration.
type EmailRegisterRequest struct {
	FullName        string `json:"fullName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// EmailLoginRequest is the payload for email/password login.
type EmailLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
